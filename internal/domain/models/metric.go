package models

// MetricKind selects which statistics are derived for a series.
type MetricKind string

const (
	KindMoM   MetricKind = "mom"
	KindYoY   MetricKind = "yoy"
	KindLevel MetricKind = "level"
)

// Metric carries point and change statistics for one series and window.
// Nil fields are unavailable and encode as JSON null.
type Metric struct {
	Kind    MetricKind `json:"kind"`
	Prev    *float64   `json:"prev"`
	End     *float64   `json:"end"`
	MoMPct  *float64   `json:"mom_pct"`
	Current *float64   `json:"current"`
	YoYPct  *float64   `json:"yoy_pct"`
}

// IsNull reports whether no statistic could be derived.
func (m Metric) IsNull() bool {
	return m.Prev == nil && m.End == nil && m.MoMPct == nil && m.Current == nil && m.YoYPct == nil
}
