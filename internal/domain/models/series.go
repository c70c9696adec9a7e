package models

import "time"

// Frequency is the native publication frequency of a logical series.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// Point is a single dated observation. A nil Value means the provider
// reported the date without a usable number.
type Point struct {
	Date  time.Time `json:"date"`
	Value *float64  `json:"value"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// RawSeries is provider output before canonicalization. Points may be
// unsorted and contain duplicate dates.
type RawSeries struct {
	Name   string            `json:"name"`
	Source string            `json:"source"`
	Points []Point           `json:"points"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// ValidCount returns the number of points carrying a value.
func (r RawSeries) ValidCount() int {
	n := 0
	for _, p := range r.Points {
		if p.Value != nil {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the series has no usable values.
func (r RawSeries) IsEmpty() bool { return r.ValidCount() == 0 }

// NormalizedSeries holds strictly increasing month-end points, one per
// calendar month. Values may still be nil before the first observation.
type NormalizedSeries struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// ValidCount returns the number of month-end points carrying a value.
func (s NormalizedSeries) ValidCount() int {
	n := 0
	for _, p := range s.Points {
		if p.Value != nil {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the series has no usable values.
func (s NormalizedSeries) IsEmpty() bool { return s.ValidCount() == 0 }

// Candidate is one entry in a fallback chain: which adapter to ask, for what
// identifier, and the factor applied to its values.
type Candidate struct {
	Source string  `json:"source"`
	ID     string  `json:"id"`
	Scale  float64 `json:"scale,omitempty"`
}

// ValueRange bounds the plausible values of a series in its declared unit.
// A zero range disables the check.
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// IsZero reports whether no range was declared.
func (r ValueRange) IsZero() bool { return r.Min == 0 && r.Max == 0 }

// Contains reports whether v lies within the range.
func (r ValueRange) Contains(v float64) bool {
	return r.IsZero() || (v >= r.Min && v <= r.Max)
}

// LogicalSeries is a named conceptual quantity satisfied by an ordered list
// of candidate sources.
type LogicalSeries struct {
	Name       string      `json:"name"`
	Label      string      `json:"label"`
	Group      string      `json:"group"`
	Kind       MetricKind  `json:"kind"`
	Frequency  Frequency   `json:"frequency"`
	Unit       string      `json:"unit"`
	Range      ValueRange  `json:"range"`
	Candidates []Candidate `json:"candidates"`
}
