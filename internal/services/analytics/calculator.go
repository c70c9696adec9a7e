package analytics

import (
	"time"

	"MacroPull/internal/domain/models"
)

// Calculator derives period-end levels and percent changes from a
// normalized series. Values keep full precision.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) Compute(s models.NormalizedSeries, w models.MonthWindow, kind models.MetricKind, freq models.Frequency) models.Metric {
	switch kind {
	case models.KindYoY:
		return c.yoy(s, w, freq)
	case models.KindLevel:
		return models.Metric{
			Kind:    models.KindLevel,
			Prev:    LastValue(s, w.PrevEnd),
			End:     LastValue(s, w.End),
			Current: LastValue(s, w.End),
		}
	default:
		end := LastValue(s, w.End)
		prev := LastValue(s, w.PrevEnd)
		return models.Metric{
			Kind:   models.KindMoM,
			Prev:   prev,
			End:    end,
			MoMPct: PercentChange(end, prev),
		}
	}
}

func (c *Calculator) yoy(s models.NormalizedSeries, w models.MonthWindow, freq models.Frequency) models.Metric {
	m := models.Metric{Kind: models.KindYoY}

	cur := -1
	for i, p := range s.Points {
		if p.Date.After(w.End) {
			break
		}
		// The grid ends on an observation, so the final point is sampled
		// even when a source dates quarters at their first month.
		last := i == len(s.Points)-1
		if p.Value != nil && (isPeriodEnd(p.Date, freq) || last) {
			cur = i
		}
	}
	if cur < 0 {
		return m
	}
	m.Current = models.Float(*s.Points[cur].Value)
	m.YoYPct = PercentChange(m.Current, periodValue(s, periodKey(s.Points[cur].Date, freq)-yoyLag(freq), freq))
	return m
}

// yoyLag is 12 periods for monthly data and 4 for quarterly.
func yoyLag(freq models.Frequency) int {
	if freq == models.FrequencyQuarterly {
		return 4
	}
	return 12
}

// periodKey numbers calendar months, or calendar quarters for quarterly data.
func periodKey(date time.Time, freq models.Frequency) int {
	if freq == models.FrequencyQuarterly {
		return date.Year()*4 + int(date.Month()-1)/3
	}
	return date.Year()*12 + int(date.Month()-1)
}

// periodValue returns the last value inside period key. Quarters dated at
// their first month are forward-filled to the quarter end by the normalizer,
// so the last valued month carries the observation either way.
func periodValue(s models.NormalizedSeries, key int, freq models.Frequency) *float64 {
	var out *float64
	for _, p := range s.Points {
		k := periodKey(p.Date, freq)
		if k > key {
			break
		}
		if k == key && p.Value != nil {
			out = p.Value
		}
	}
	if out == nil {
		return nil
	}
	return models.Float(*out)
}

// isPeriodEnd reports whether a month-end date closes a native period.
func isPeriodEnd(date time.Time, freq models.Frequency) bool {
	if freq == models.FrequencyQuarterly {
		return date.Month()%3 == 0
	}
	return true
}

// LastValue returns the last non-nil value dated at or before upto.
func LastValue(s models.NormalizedSeries, upto time.Time) *float64 {
	var out *float64
	for _, p := range s.Points {
		if p.Date.After(upto) {
			break
		}
		if p.Value != nil {
			out = p.Value
		}
	}
	if out == nil {
		return nil
	}
	return models.Float(*out)
}

// PercentChange is (now/base - 1) * 100, nil when either operand is
// missing or base is zero.
func PercentChange(now, base *float64) *float64 {
	if now == nil || base == nil || *base == 0 {
		return nil
	}
	return models.Float((*now / *base - 1) * 100)
}
