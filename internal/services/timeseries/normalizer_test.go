package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func pt(date time.Time, v float64) models.Point {
	return models.Point{Date: date, Value: models.Float(v)}
}

func values(s models.NormalizedSeries) []interface{} {
	out := make([]interface{}, len(s.Points))
	for i, p := range s.Points {
		if p.Value == nil {
			out[i] = nil
			continue
		}
		out[i] = *p.Value
	}
	return out
}

func TestNormalizeCollapsesToMonthEnd(t *testing.T) {
	syd := time.FixedZone("AEST", 10*3600)
	raw := models.RawSeries{Name: "au_10y", Points: []models.Point{
		pt(d(2025, 9, 30), 4.10),
		pt(d(2025, 7, 15), 4.00),
		{Date: d(2025, 9, 29), Value: nil},
		pt(time.Date(2025, 8, 29, 16, 0, 0, 0, syd), 4.20),
		pt(d(2025, 7, 31), 4.05),
	}}

	s := NewNormalizer().Normalize(raw)

	require.Len(t, s.Points, 3)
	assert.Equal(t, []time.Time{d(2025, 7, 31), d(2025, 8, 31), d(2025, 9, 30)},
		[]time.Time{s.Points[0].Date, s.Points[1].Date, s.Points[2].Date})
	assert.Equal(t, []interface{}{4.05, 4.20, 4.10}, values(s))
	assert.Equal(t, "au_10y", s.Name)
}

func TestNormalizeDuplicateDatesKeepLast(t *testing.T) {
	raw := models.RawSeries{Points: []models.Point{
		pt(d(2025, 9, 30), 1),
		pt(d(2025, 9, 30), 2),
		pt(d(2025, 9, 30), 3),
	}}
	s := NewNormalizer().Normalize(raw)
	assert.Equal(t, []interface{}{3.0}, values(s))
}

func TestNormalizeForwardFillsGaps(t *testing.T) {
	// Quarterly prints leave two empty months between observations.
	raw := models.RawSeries{Points: []models.Point{
		pt(d(2025, 3, 1), 100),
		pt(d(2025, 6, 1), 101),
	}}
	s := NewNormalizer().Normalize(raw)
	assert.Equal(t, []interface{}{100.0, 100.0, 100.0, 101.0}, values(s))
	assert.Equal(t, d(2025, 4, 30), s.Points[1].Date)
}

func TestNormalizeEmpty(t *testing.T) {
	s := NewNormalizer().Normalize(models.RawSeries{Points: []models.Point{{Date: d(2025, 9, 1)}}})
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Points)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer()
	inputs := []models.RawSeries{
		{Points: []models.Point{pt(d(2025, 1, 3), 1), pt(d(2025, 4, 2), 2), {Date: d(2025, 4, 9)}, pt(d(2025, 1, 3), 5)}},
		{Points: []models.Point{pt(d(2024, 12, 31), 3.3), pt(d(2025, 2, 28), 3.1)}},
		{Points: []models.Point{pt(d(2025, 9, 30), 4.1)}},
	}
	for _, raw := range inputs {
		once := n.Normalize(raw)
		twice := n.Normalize(models.RawSeries{Name: once.Name, Points: once.Points})
		assert.Equal(t, once, twice)

		for i := 1; i < len(once.Points); i++ {
			assert.True(t, once.Points[i-1].Date.Before(once.Points[i].Date))
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	raw := models.RawSeries{Points: []models.Point{pt(d(2025, 9, 30), 2), pt(d(2025, 8, 31), 1)}}
	NewNormalizer().Normalize(raw)
	assert.Equal(t, d(2025, 9, 30), raw.Points[0].Date)
}

func TestTrim(t *testing.T) {
	n := NewNormalizer()
	s := n.Normalize(models.RawSeries{Points: []models.Point{
		pt(d(2025, 6, 30), 1), pt(d(2025, 7, 31), 2), pt(d(2025, 8, 31), 3), pt(d(2025, 9, 30), 4), pt(d(2025, 10, 31), 5),
	}})

	got := n.Trim(s, d(2025, 9, 30), 2)
	assert.Equal(t, []interface{}{3.0, 4.0}, values(got))

	all := n.Trim(s, d(2025, 9, 30), 0)
	assert.Len(t, all.Points, 4)

	none := n.Trim(s, d(2025, 1, 31), 3)
	assert.Empty(t, none.Points)
}

func TestScaleAndBounds(t *testing.T) {
	raw := models.RawSeries{Points: []models.Point{pt(d(2025, 9, 30), 41.0), {Date: d(2025, 10, 1)}}}
	scaled := Scale(raw, 0.1)

	assert.InDelta(t, 4.1, *scaled.Points[0].Value, 1e-12)
	assert.Nil(t, scaled.Points[1].Value)
	assert.Equal(t, 41.0, *raw.Points[0].Value)

	lo, hi, ok := Bounds(models.NormalizedSeries{Points: scaled.Points})
	assert.True(t, ok)
	assert.InDelta(t, 4.1, lo, 1e-12)
	assert.InDelta(t, 4.1, hi, 1e-12)
}
