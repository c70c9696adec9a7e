package provider

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/logger"
)

// BreakerSettings controls when a provider is taken out of rotation.
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Breakers hands out one circuit breaker per provider name.
type Breakers struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	settings BreakerSettings
	log      *logger.Logger
}

func NewBreakers(settings BreakerSettings, log *logger.Logger) *Breakers {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Breakers{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		settings: settings,
		log:      log,
	}
}

// For returns the breaker guarding provider, creating it on first use.
func (b *Breakers) For(provider string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[provider]; ok {
		return cb
	}
	maxFailures := b.settings.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        provider,
		MaxRequests: 1,
		Timeout:     b.settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// An empty answer means the provider is up.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, models.ErrSourceEmpty)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn("provider breaker state changed",
				logger.Adapter(name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	b.breakers[provider] = cb
	return cb
}

// State reports the breaker state for provider, "closed" if never used.
func (b *Breakers) State(provider string) string {
	b.mu.Lock()
	cb, ok := b.breakers[provider]
	b.mu.Unlock()
	if !ok {
		return gobreaker.StateClosed.String()
	}
	return cb.State().String()
}
