package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/ratelimit"
)

func TestGetReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "x", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	b := NewBase(Options{Name: "test", Limiter: ratelimit.New(0, 1)})
	body, err := b.Get(context.Background(), "ID", srv.URL, map[string][]string{"q": {"x"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
}

func TestGetClassifiesFailures(t *testing.T) {
	status := int32(http.StatusNotFound)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(atomic.LoadInt32(&status)))
	}))
	defer srv.Close()

	b := NewBase(Options{Name: "test"})

	_, err := b.Get(context.Background(), "ID", srv.URL, nil, nil)
	assert.True(t, errors.Is(err, models.ErrSourceEmpty))

	atomic.StoreInt32(&status, http.StatusBadGateway)
	_, err = b.Get(context.Background(), "ID", srv.URL, nil, nil)
	var se *models.SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "test", se.Adapter)
	assert.Equal(t, "ID", se.ID)

	atomic.StoreInt32(&status, http.StatusOK)
	_, err = b.Get(context.Background(), "ID", srv.URL, nil, nil)
	assert.True(t, errors.Is(err, models.ErrSourceEmpty), "empty body is empty")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	breakers := NewBreakers(BreakerSettings{MaxFailures: 2, OpenTimeout: time.Minute}, nil)
	b := NewBase(Options{Name: "flaky", Breakers: breakers})

	for i := 0; i < 2; i++ {
		_, err := b.Get(context.Background(), "ID", srv.URL, nil, nil)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen.String(), breakers.State("flaky"))

	_, err := b.Get(context.Background(), "ID", srv.URL, nil, nil)
	var se *models.SourceError
	require.True(t, errors.As(err, &se))
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestEmptyAnswersKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	breakers := NewBreakers(BreakerSettings{MaxFailures: 1}, nil)
	b := NewBase(Options{Name: "sparse", Breakers: breakers})
	for i := 0; i < 3; i++ {
		_, err := b.Get(context.Background(), "ID", srv.URL, nil, nil)
		require.True(t, errors.Is(err, models.ErrSourceEmpty))
	}
	assert.Equal(t, gobreaker.StateClosed.String(), breakers.State("sparse"))
}

type namedAdapter struct{ name string }

func (a namedAdapter) Name() string { return a.name }
func (a namedAdapter) Fetch(context.Context, string, models.MonthWindow, int) (models.RawSeries, error) {
	return models.RawSeries{}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(namedAdapter{"yahoo"}, namedAdapter{"fred"}, nil)

	_, ok := r.Adapter("yahoo")
	assert.True(t, ok)
	_, ok = r.Adapter("bloomberg")
	assert.False(t, ok)
	assert.Equal(t, []string{"fred", "yahoo"}, r.Names())
}
