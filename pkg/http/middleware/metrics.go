package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestObserver receives request start and completion.
type RequestObserver interface {
	HTTPStarted() func(route, method string, status int, seconds float64)
}

// Metrics records request count, latency and in-flight requests. A panic
// passing through is recorded as a 500 and re-raised for Recover.
func Metrics(obs RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			done := obs.HTTPStarted()
			start := time.Now()
			panicked := true
			defer func() {
				status := c.Response().Status
				if panicked {
					status = http.StatusInternalServerError
				}
				done(route(c), c.Request().Method, status, time.Since(start).Seconds())
			}()

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			panicked = false
			return nil
		}
	}
}
