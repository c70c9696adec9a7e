package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/window"
	"MacroPull/internal/services/timeseries"
	"MacroPull/pkg/util"
)

var sep2025 = window.ForMonth(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))

func monthly(from time.Time, vals ...interface{}) models.NormalizedSeries {
	s := models.NormalizedSeries{}
	date := util.MonthEnd(from)
	for _, v := range vals {
		p := models.Point{Date: date}
		if f, ok := v.(float64); ok {
			p.Value = models.Float(f)
		}
		s.Points = append(s.Points, p)
		date = util.AddMonths(date, 1)
	}
	return s
}

func TestMoMScenario(t *testing.T) {
	s := monthly(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 4.00, 4.20, 4.10)

	m := NewCalculator().Compute(s, sep2025, models.KindMoM, models.FrequencyDaily)

	assert.Equal(t, models.KindMoM, m.Kind)
	require.NotNil(t, m.End)
	require.NotNil(t, m.Prev)
	require.NotNil(t, m.MoMPct)
	assert.Equal(t, 4.10, *m.End)
	assert.Equal(t, 4.20, *m.Prev)
	assert.InDelta(t, -2.38, *m.MoMPct, 0.005)
	assert.InDelta(t, -2.380952380952, *m.MoMPct, 1e-9)
	assert.Nil(t, m.Current)
	assert.Nil(t, m.YoYPct)
}

func TestMoMNullRules(t *testing.T) {
	c := NewCalculator()

	t.Run("prev missing", func(t *testing.T) {
		m := c.Compute(monthly(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), 4.1), sep2025, models.KindMoM, "")
		assert.NotNil(t, m.End)
		assert.Nil(t, m.Prev)
		assert.Nil(t, m.MoMPct)
	})

	t.Run("prev zero", func(t *testing.T) {
		m := c.Compute(monthly(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), 0.0, 0.25), sep2025, models.KindMoM, "")
		assert.Equal(t, 0.0, *m.Prev)
		assert.Nil(t, m.MoMPct)
	})

	t.Run("empty series", func(t *testing.T) {
		m := c.Compute(models.NormalizedSeries{}, sep2025, models.KindMoM, "")
		assert.True(t, m.IsNull())
	})

	t.Run("stale end uses last value on or before", func(t *testing.T) {
		m := c.Compute(monthly(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 1.0, 2.0), sep2025, models.KindMoM, "")
		assert.Equal(t, 2.0, *m.End)
		assert.Equal(t, 2.0, *m.Prev)
		assert.Equal(t, 0.0, *m.MoMPct)
	})

	t.Run("later months ignored", func(t *testing.T) {
		m := c.Compute(monthly(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), 100.0, 110.0, 500.0), sep2025, models.KindMoM, "")
		assert.InDelta(t, 10.0, *m.MoMPct, 1e-9)
	})
}

func TestYoYMonthly(t *testing.T) {
	vals := make([]interface{}, 0, 13)
	for i := 0; i <= 12; i++ {
		vals = append(vals, 300.0+float64(i))
	}
	s := monthly(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), vals...)

	m := NewCalculator().Compute(s, sep2025, models.KindYoY, models.FrequencyMonthly)

	assert.Equal(t, models.KindYoY, m.Kind)
	require.NotNil(t, m.Current)
	require.NotNil(t, m.YoYPct)
	assert.Equal(t, 312.0, *m.Current)
	assert.InDelta(t, 4.0, *m.YoYPct, 1e-9)
	assert.Nil(t, m.End)
	assert.Nil(t, m.MoMPct)
}

func TestYoYMonthlyWithoutHistory(t *testing.T) {
	s := monthly(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1.0, 2.0, 3.0)
	m := NewCalculator().Compute(s, sep2025, models.KindYoY, models.FrequencyMonthly)
	assert.Equal(t, 3.0, *m.Current)
	assert.Nil(t, m.YoYPct)
}

func TestYoYQuarterlySamplesQuarterEnds(t *testing.T) {
	// Quarter-end observations forward-filled from Jun 2024 to Jun 2025.
	s := monthly(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		130.0, 130.0, 130.0, // Jun-Aug 2024
		131.0, 131.0, 131.0, // Sep-Nov
		132.0, 132.0, 132.0, // Dec-Feb
		133.0, 133.0, 133.0, // Mar-May
		135.2, // Jun 2025
	)

	m := NewCalculator().Compute(s, sep2025, models.KindYoY, models.FrequencyQuarterly)

	require.NotNil(t, m.Current)
	require.NotNil(t, m.YoYPct)
	assert.Equal(t, 135.2, *m.Current)
	assert.InDelta(t, (135.2/130.0-1)*100, *m.YoYPct, 1e-9)
}

func TestYoYQuarterlySkipsFilledMonthsInsideWindow(t *testing.T) {
	// The Sep 2025 print lies after an August window; Jul and Aug only carry
	// the June value forward.
	s := monthly(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		130.0, 130.0, 130.0,
		131.0, 131.0, 131.0,
		132.0, 132.0, 132.0,
		133.0, 133.0, 133.0,
		135.2, 135.2, 135.2, // Jun-Aug 2025
		136.0, // Sep 2025
	)
	aug := window.ForMonth(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

	m := NewCalculator().Compute(s, aug, models.KindYoY, models.FrequencyQuarterly)

	require.NotNil(t, m.Current)
	require.NotNil(t, m.YoYPct)
	assert.Equal(t, 135.2, *m.Current)
	assert.InDelta(t, (135.2/130.0-1)*100, *m.YoYPct, 1e-9)
}

func TestYoYQuarterlyDatedAtQuarterStart(t *testing.T) {
	raw := models.RawSeries{Name: "cpi", Source: "fred"}
	for i, v := range []float64{100, 101, 102, 103, 104, 105} {
		raw.Points = append(raw.Points, models.Point{
			Date:  time.Date(2024, time.Month(4+3*i), 1, 0, 0, 0, 0, time.UTC),
			Value: models.Float(v),
		})
	}
	s := timeseries.NewNormalizer().Normalize(raw)

	m := NewCalculator().Compute(s, sep2025, models.KindYoY, models.FrequencyQuarterly)

	require.NotNil(t, m.Current)
	require.NotNil(t, m.YoYPct)
	assert.Equal(t, 105.0, *m.Current)
	assert.InDelta(t, (105.0/101.0-1)*100, *m.YoYPct, 1e-9)
}

func TestLevelMetric(t *testing.T) {
	s := monthly(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), 3.85, 3.60)

	m := NewCalculator().Compute(s, sep2025, models.KindLevel, models.FrequencyMonthly)

	assert.Equal(t, models.KindLevel, m.Kind)
	assert.Equal(t, 3.60, *m.Current)
	assert.Equal(t, 3.60, *m.End)
	assert.Equal(t, 3.85, *m.Prev)
	assert.Nil(t, m.MoMPct)
	assert.Nil(t, m.YoYPct)
}

func TestPercentChange(t *testing.T) {
	assert.Nil(t, PercentChange(nil, models.Float(1)))
	assert.Nil(t, PercentChange(models.Float(1), nil))
	assert.Nil(t, PercentChange(models.Float(1), models.Float(0)))
	assert.InDelta(t, 50.0, *PercentChange(models.Float(3), models.Float(2)), 1e-12)
}

func TestMetricsDoNotAliasSeries(t *testing.T) {
	s := monthly(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), 1.0)
	m := NewCalculator().Compute(s, sep2025, models.KindLevel, "")
	*m.End = 99
	assert.Equal(t, 1.0, *s.Points[0].Value)
	assert.Equal(t, 1.0, *m.Current)
}
