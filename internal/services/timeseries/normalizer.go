package timeseries

import (
	"sort"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/util"
)

// Normalizer puts provider output onto a month-end grid.
type Normalizer struct{}

func NewNormalizer() *Normalizer { return &Normalizer{} }

// Normalize coerces dates to calendar days, sorts stably, keeps the last
// value for duplicate dates, then forward-fills and collapses to the last
// value of each month between the first and last month holding a value.
// Normalizing a normalized series returns it unchanged.
func (n *Normalizer) Normalize(raw models.RawSeries) models.NormalizedSeries {
	out := models.NormalizedSeries{Name: raw.Name}

	points := make([]models.Point, len(raw.Points))
	for i, p := range raw.Points {
		points[i] = models.Point{Date: util.DateOnly(p.Date), Value: p.Value}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	points = dedupeKeepLast(points)

	var first, last time.Time
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		if first.IsZero() {
			first = p.Date
		}
		last = p.Date
	}
	if first.IsZero() {
		return out
	}

	var (
		carry *float64
		i     int
	)
	for month := util.MonthEnd(first); !month.After(util.MonthEnd(last)); month = util.AddMonths(month, 1) {
		for ; i < len(points) && !points[i].Date.After(month); i++ {
			if points[i].Value != nil {
				v := *points[i].Value
				carry = &v
			}
		}
		var value *float64
		if carry != nil {
			value = models.Float(*carry)
		}
		out.Points = append(out.Points, models.Point{Date: month, Value: value})
	}
	return out
}

// Trim keeps the last n month-end points dated at or before upto. A
// non-positive n keeps every such point.
func (n *Normalizer) Trim(s models.NormalizedSeries, upto time.Time, keep int) models.NormalizedSeries {
	out := models.NormalizedSeries{Name: s.Name}
	end := 0
	for end < len(s.Points) && !s.Points[end].Date.After(upto) {
		end++
	}
	start := 0
	if keep > 0 && end > keep {
		start = end - keep
	}
	out.Points = append([]models.Point(nil), s.Points[start:end]...)
	return out
}

// Scale multiplies every value by factor; 0 and 1 leave the series as is.
func Scale(raw models.RawSeries, factor float64) models.RawSeries {
	if factor == 0 || factor == 1 {
		return raw
	}
	scaled := raw
	scaled.Points = make([]models.Point, len(raw.Points))
	for i, p := range raw.Points {
		scaled.Points[i] = models.Point{Date: p.Date}
		if p.Value != nil {
			scaled.Points[i].Value = models.Float(*p.Value * factor)
		}
	}
	return scaled
}

// Bounds returns the smallest and largest value, ok false when empty.
func Bounds(s models.NormalizedSeries) (lo, hi float64, ok bool) {
	for _, p := range s.Points {
		if p.Value == nil {
			continue
		}
		if !ok {
			lo, hi, ok = *p.Value, *p.Value, true
			continue
		}
		if *p.Value < lo {
			lo = *p.Value
		}
		if *p.Value > hi {
			hi = *p.Value
		}
	}
	return lo, hi, ok
}

func dedupeKeepLast(points []models.Point) []models.Point {
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
