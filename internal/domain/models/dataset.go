package models

import (
	"sort"
	"time"
)

// Attempt outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// Attempt records one adapter invocation inside a fallback chain.
type Attempt struct {
	Adapter  string        `json:"adapter"`
	ID       string        `json:"id"`
	Outcome  string        `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// SeriesResult is the per-series entry of a Dataset.
type SeriesResult struct {
	Name      string           `json:"name"`
	Label     string           `json:"label"`
	Group     string           `json:"group"`
	Unit      string           `json:"unit"`
	Available bool             `json:"available"`
	Source    string           `json:"source,omitempty"`
	Attempts  []Attempt        `json:"attempts"`
	History   NormalizedSeries `json:"history"`
	Metric    Metric           `json:"metric"`
}

// Dataset is the product of one run, handed to reporting consumers.
type Dataset struct {
	RunID       string                   `json:"run_id"`
	Window      MonthWindow              `json:"window"`
	GeneratedAt time.Time                `json:"generated_at"`
	Order       []string                 `json:"order"`
	Series      map[string]*SeriesResult `json:"series"`
}

// NewDataset creates an empty dataset for the window.
func NewDataset(runID string, w MonthWindow, at time.Time) *Dataset {
	return &Dataset{
		RunID:       runID,
		Window:      w,
		GeneratedAt: at,
		Series:      make(map[string]*SeriesResult),
	}
}

// Add appends a result, preserving insertion order.
func (d *Dataset) Add(r *SeriesResult) {
	if r == nil {
		return
	}
	if _, exists := d.Series[r.Name]; !exists {
		d.Order = append(d.Order, r.Name)
	}
	d.Series[r.Name] = r
}

// Get returns the result for name, if present.
func (d *Dataset) Get(name string) (*SeriesResult, bool) {
	r, ok := d.Series[name]
	return r, ok
}

// Unavailable lists series whose fallback chain was exhausted.
func (d *Dataset) Unavailable() []string {
	var out []string
	for _, name := range d.Order {
		if r := d.Series[name]; r != nil && !r.Available {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// CacheRecord is the metadata persisted next to each diagnostic payload.
type CacheRecord struct {
	Name     string    `json:"name"`
	RowCount int       `json:"rows"`
	CachedAt time.Time `json:"cached_at"`
	RunID    string    `json:"run_id"`
	Window   string    `json:"window"`
	Source   string    `json:"source,omitempty"`
}
