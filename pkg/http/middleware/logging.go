package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"MacroPull/pkg/logger"
)

// RequestLogging logs one line per request. 5xx responses log at error,
// requests slower than slow at warn, everything else at debug.
func RequestLogging(log *logger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			dur := time.Since(start)
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("route", route(c)),
				logger.String("uri", req.RequestURI),
				logger.Int("status", status),
				logger.Duration("duration_ms", dur),
				logger.Int("bytes", int(c.Response().Size)),
			}
			switch {
			case status >= 500:
				log.Error("http request failed", fields...)
			case slow > 0 && dur >= slow:
				log.Warn("http request slow", fields...)
			default:
				log.Debug("http request", fields...)
			}
			return nil
		}
	}
}

// route prefers the registered path template to keep label cardinality low.
func route(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}
