package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/window"
	"MacroPull/internal/services/analytics"
	"MacroPull/internal/services/timeseries"
)

var sep2025 = window.ForMonth(day(2025, 9, 1))

func yieldSeries() models.RawSeries {
	return series("y",
		at(day(2025, 7, 31), 4.00),
		at(day(2025, 8, 29), 4.20),
		at(day(2025, 9, 30), 4.10),
	)
}

func tenYear(cands ...models.Candidate) models.LogicalSeries {
	return models.LogicalSeries{
		Name:       "au_10y",
		Label:      "Australia 10y",
		Group:      GroupRates,
		Kind:       models.KindMoM,
		Frequency:  models.FrequencyDaily,
		Unit:       "percent",
		Range:      rangeYield,
		Candidates: cands,
	}
}

func TestFallbackTriesCandidatesInOrder(t *testing.T) {
	calls := &callLog{}
	primary := &fakeAdapter{name: "yahoo", log: calls, fn: func(context.Context, string) (models.RawSeries, error) {
		return models.RawSeries{}, models.Empty("yahoo", "^AU10Y", "no rows")
	}}
	secondary := &fakeAdapter{name: "statfeed", log: calls, fn: func(context.Context, string) (models.RawSeries, error) {
		return yieldSeries(), nil
	}}
	never := &fakeAdapter{name: "fred", log: calls, fn: func(context.Context, string) (models.RawSeries, error) {
		t.Fatal("chain must stop at the first success")
		return models.RawSeries{}, nil
	}}
	m := newFakeMetrics()
	o := NewFallbackOrchestrator(registry(primary, secondary, never), timeseries.NewNormalizer(), analytics.NewCalculator(), m, nil, time.Second, 24, 12)

	res, normalized := o.Resolve(context.Background(), tenYear(
		models.Candidate{Source: "yahoo", ID: "^AU10Y", Scale: 1},
		models.Candidate{Source: "statfeed", ID: "rba_f2:FCMYGBAG10D", Scale: 1},
		models.Candidate{Source: "fred", ID: "X", Scale: 1},
	), sep2025)

	assert.Equal(t, []string{"yahoo:^AU10Y", "statfeed:rba_f2:FCMYGBAG10D"}, calls.list())
	require.True(t, res.Available)
	assert.Equal(t, "statfeed", res.Source)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, models.OutcomeEmpty, res.Attempts[0].Outcome)
	assert.Equal(t, models.OutcomeOK, res.Attempts[1].Outcome)

	assert.Equal(t, 4.10, *res.Metric.End)
	assert.Equal(t, 4.20, *res.Metric.Prev)
	assert.InDelta(t, -2.38, *res.Metric.MoMPct, 0.005)
	assert.Equal(t, "au_10y", normalized.Name)
	assert.Len(t, normalized.Points, 3)
	assert.Equal(t, "au_10y", res.History.Name)

	assert.Equal(t, 1, m.attempts["au_10y/yahoo/empty"])
	assert.Equal(t, 1, m.attempts["au_10y/statfeed/ok"])
	assert.True(t, m.availability["au_10y"])
}

func TestFallbackAdvancesOnErrorsPanicsAndInvalidValues(t *testing.T) {
	failing := &fakeAdapter{name: "yahoo", fn: func(context.Context, string) (models.RawSeries, error) {
		return models.RawSeries{}, errors.New("connection reset")
	}}
	panicking := &fakeAdapter{name: "manual", fn: func(context.Context, string) (models.RawSeries, error) {
		panic("index out of range")
	}}
	// Quoted x10, outside the yield range.
	unscaled := &fakeAdapter{name: "tradingeconomics", fn: func(context.Context, string) (models.RawSeries, error) {
		return series("x", at(day(2025, 9, 30), 41.0)), nil
	}}
	good := &fakeAdapter{name: "fred", fn: func(context.Context, string) (models.RawSeries, error) {
		return yieldSeries(), nil
	}}
	m := newFakeMetrics()
	o := NewFallbackOrchestrator(registry(failing, panicking, unscaled, good), timeseries.NewNormalizer(), analytics.NewCalculator(), m, nil, time.Second, 24, 12)

	res, _ := o.Resolve(context.Background(), tenYear(
		models.Candidate{Source: "yahoo", ID: "^TNX"},
		models.Candidate{Source: "manual", ID: "us10y"},
		models.Candidate{Source: "tradingeconomics", ID: "us10y"},
		models.Candidate{Source: "bloomberg", ID: "USGG10YR"},
		models.Candidate{Source: "fred", ID: "DGS10"},
	), sep2025)

	require.True(t, res.Available)
	assert.Equal(t, "fred", res.Source)
	outcomes := make([]string, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		outcomes = append(outcomes, a.Outcome)
	}
	assert.Equal(t, []string{models.OutcomeError, models.OutcomeError, models.OutcomeInvalid, models.OutcomeError, models.OutcomeOK}, outcomes)
	assert.Contains(t, res.Attempts[0].Error, "connection reset")
	assert.Contains(t, res.Attempts[1].Error, "panic")
	assert.Contains(t, res.Attempts[2].Error, "outside plausible range")
	assert.Contains(t, res.Attempts[3].Error, "no adapter registered")
	assert.Equal(t, 1, m.errors["source_yahoo"])
}

func TestFallbackAppliesScale(t *testing.T) {
	quotedTimesTen := &fakeAdapter{name: "yahoo", fn: func(context.Context, string) (models.RawSeries, error) {
		return series("^TNX", at(day(2025, 8, 29), 42.0), at(day(2025, 9, 30), 41.0)), nil
	}}
	o := NewFallbackOrchestrator(registry(quotedTimesTen), timeseries.NewNormalizer(), analytics.NewCalculator(), nil, nil, time.Second, 24, 12)

	res, _ := o.Resolve(context.Background(), tenYear(models.Candidate{Source: "yahoo", ID: "^TNX", Scale: 0.1}), sep2025)

	require.True(t, res.Available)
	assert.InDelta(t, 4.1, *res.Metric.End, 1e-9)
	assert.InDelta(t, 4.2, *res.Metric.Prev, 1e-9)
}

func TestFallbackEnforcesCallTimeout(t *testing.T) {
	slow := &fakeAdapter{name: "yahoo", fn: func(ctx context.Context, _ string) (models.RawSeries, error) {
		<-ctx.Done()
		return models.RawSeries{}, models.NewSourceError("yahoo", "^AXJO", ctx.Err())
	}}
	o := NewFallbackOrchestrator(registry(slow), timeseries.NewNormalizer(), analytics.NewCalculator(), nil, nil, 20*time.Millisecond, 24, 12)

	start := time.Now()
	res, _ := o.Resolve(context.Background(), tenYear(models.Candidate{Source: "yahoo", ID: "^AXJO"}), sep2025)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, res.Available)
	assert.Equal(t, models.OutcomeError, res.Attempts[0].Outcome)
	assert.Contains(t, res.Attempts[0].Error, context.DeadlineExceeded.Error())
}

func TestFallbackAllEmptyIsUnavailable(t *testing.T) {
	empty := &fakeAdapter{name: "yahoo", fn: func(_ context.Context, id string) (models.RawSeries, error) {
		return models.RawSeries{}, models.Empty("yahoo", id, "no rows")
	}}
	nilOnly := &fakeAdapter{name: "manual", fn: func(context.Context, string) (models.RawSeries, error) {
		return series("m", models.Point{Date: day(2025, 9, 30)}), nil
	}}
	m := newFakeMetrics()
	o := NewFallbackOrchestrator(registry(empty, nilOnly), timeseries.NewNormalizer(), analytics.NewCalculator(), m, nil, time.Second, 24, 12)

	res, normalized := o.Resolve(context.Background(), tenYear(
		models.Candidate{Source: "yahoo", ID: "^AXJO"},
		models.Candidate{Source: "manual", ID: "asx200_manual"},
	), sep2025)

	assert.False(t, res.Available)
	assert.Empty(t, res.Source)
	assert.Empty(t, res.History.Points)
	assert.True(t, res.Metric.IsNull())
	assert.Equal(t, models.KindMoM, res.Metric.Kind)
	assert.True(t, normalized.IsEmpty())
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, models.OutcomeEmpty, res.Attempts[1].Outcome)
	assert.False(t, m.availability["au_10y"])
}

func TestFallbackTrimsHistory(t *testing.T) {
	var pts []models.Point
	for m := time.January; m <= time.December; m++ {
		pts = append(pts, at(time.Date(2024, m, 15, 0, 0, 0, 0, time.UTC), 300+float64(m)))
		pts = append(pts, at(time.Date(2025, m, 15, 0, 0, 0, 0, time.UTC), 320+float64(m)))
	}
	cpi := &fakeAdapter{name: "fred", fn: func(context.Context, string) (models.RawSeries, error) {
		return series("CPIAUCSL", pts...), nil
	}}
	o := NewFallbackOrchestrator(registry(cpi), timeseries.NewNormalizer(), analytics.NewCalculator(), nil, nil, time.Second, 24, 6)

	res, normalized := o.Resolve(context.Background(), models.LogicalSeries{
		Name: "us_cpi", Kind: models.KindYoY, Frequency: models.FrequencyMonthly, Range: rangeCPI,
		Candidates: []models.Candidate{{Source: "fred", ID: "CPIAUCSL"}},
	}, sep2025)

	require.True(t, res.Available)
	assert.Len(t, normalized.Points, 24)
	require.Len(t, res.History.Points, 6)
	assert.Equal(t, day(2025, 9, 30), res.History.Points[5].Date)
	// YoY still sees the full history.
	assert.Equal(t, 329.0, *res.Metric.Current)
	assert.InDelta(t, (329.0/309.0-1)*100, *res.Metric.YoYPct, 1e-9)
}
