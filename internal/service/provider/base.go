package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/ratelimit"
	xhttp "MacroPull/pkg/http"
	"MacroPull/pkg/logger"
)

// Base is the transport shared by every HTTP source adapter: a client with
// the adapter's own timeout, a per-host rate limiter and a per-provider
// circuit breaker. Failures come back as *models.SourceError.
type Base struct {
	name    string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

type Options struct {
	Name string
	// BreakerKey selects the circuit breaker; defaults to Name.
	BreakerKey string
	Timeout   time.Duration
	UserAgent string
	Limiter   *ratelimit.Limiter
	Breakers  *Breakers
	Logger    *logger.Logger
	Client    *xhttp.Client
}

// Option adjusts Options before the transport is built.
type Option func(*Options)

// WithLogger sets the logger used by the adapter.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithClient replaces the HTTP client, mainly for tests.
func WithClient(c *xhttp.Client) Option {
	return func(o *Options) { o.Client = c }
}

func NewBase(opts Options) *Base {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent(opts.UserAgent))
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	b := &Base{
		name:    opts.Name,
		client:  client,
		limiter: opts.Limiter,
		log:     log.With(logger.Adapter(opts.Name)),
	}
	if opts.Breakers != nil {
		key := opts.BreakerKey
		if key == "" {
			key = opts.Name
		}
		b.breaker = opts.Breakers.For(key)
	}
	return b
}

func (b *Base) Name() string { return b.name }

// Logger returns the adapter-scoped logger.
func (b *Base) Logger() *logger.Logger { return b.log }

// Get fetches rawURL with query parameters. A 404 is reported as empty, any
// other failure as a SourceError.
func (b *Base) Get(ctx context.Context, id, rawURL string, query map[string][]string, headers map[string]string) ([]byte, error) {
	if b.limiter != nil {
		if u, err := url.Parse(rawURL); err == nil {
			if err := b.limiter.Wait(ctx, u.Host); err != nil {
				return nil, models.NewSourceError(b.name, id, fmt.Errorf("rate limit: %w", err))
			}
		}
	}

	call := func() (interface{}, error) {
		body, err := b.client.GetBytes(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         rawURL,
			QueryParams: query,
			Headers:     headers,
		})
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.NotFound() {
			return nil, models.Empty(b.name, id, "not found")
		}
		return body, err
	}

	var (
		out interface{}
		err error
	)
	if b.breaker != nil {
		out, err = b.breaker.Execute(call)
	} else {
		out, err = call()
	}
	if err != nil {
		if errors.Is(err, models.ErrSourceEmpty) {
			return nil, err
		}
		return nil, models.NewSourceError(b.name, id, err)
	}
	body, _ := out.([]byte)
	if len(body) == 0 {
		return nil, models.Empty(b.name, id, "empty body")
	}
	return body, nil
}
