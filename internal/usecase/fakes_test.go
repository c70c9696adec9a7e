package usecase

import (
	"context"
	"sync"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/provider"
)

type fetchFunc func(ctx context.Context, id string) (models.RawSeries, error)

// callLog records adapter invocations across goroutines.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeAdapter struct {
	name string
	log  *callLog
	fn   fetchFunc
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Fetch(ctx context.Context, id string, _ models.MonthWindow, _ int) (models.RawSeries, error) {
	if a.log != nil {
		a.log.add(a.name + ":" + id)
	}
	return a.fn(ctx, id)
}

func registry(adapters ...*fakeAdapter) *provider.Registry {
	r := provider.NewRegistry()
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func series(name string, pts ...models.Point) models.RawSeries {
	return models.RawSeries{Name: name, Points: pts}
}

func at(date time.Time, v float64) models.Point {
	return models.Point{Date: date, Value: models.Float(v)}
}

type fakeMetrics struct {
	mu           sync.Mutex
	attempts     map[string]int
	availability map[string]bool
	errors       map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		attempts:     make(map[string]int),
		availability: make(map[string]bool),
		errors:       make(map[string]int),
	}
}

func (m *fakeMetrics) RecordAttempt(series, adapter, outcome string) {
	m.mu.Lock()
	m.attempts[series+"/"+adapter+"/"+outcome]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordAvailability(series string, available bool) {
	m.mu.Lock()
	m.availability[series] = available
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(string, float64) {}
