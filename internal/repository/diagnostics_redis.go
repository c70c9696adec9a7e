package repository

import (
	"context"
	"fmt"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/cache"
)

// RedisDiagnostics stores diag:<name>:payload and diag:<name>:meta through
// a cache service.
type RedisDiagnostics struct {
	cache cache.Service
	ttl   time.Duration
}

// NewRedisDiagnostics creates a sink on c. A zero ttl keeps entries for the
// cache's default lifetime.
func NewRedisDiagnostics(c cache.Service, ttl time.Duration) *RedisDiagnostics {
	return &RedisDiagnostics{cache: c, ttl: ttl}
}

// PayloadKey is the key holding the serialized points of name.
func PayloadKey(name string) string { return cache.GenerateKeyWithParams("diag", name, "payload") }

// MetaKey is the key holding the CacheRecord of name.
func MetaKey(name string) string { return cache.GenerateKeyWithParams("diag", name, "meta") }

func (r *RedisDiagnostics) Write(ctx context.Context, s models.NormalizedSeries, rec models.CacheRecord) error {
	if err := r.cache.Set(ctx, PayloadKey(rec.Name), s, r.ttl); err != nil {
		return fmt.Errorf("redis set payload %s: %w", rec.Name, err)
	}
	if err := r.cache.Set(ctx, MetaKey(rec.Name), rec, r.ttl); err != nil {
		return fmt.Errorf("redis set meta %s: %w", rec.Name, err)
	}
	return nil
}

// Close leaves the shared cache open; its owner closes it.
func (r *RedisDiagnostics) Close() error { return nil }
