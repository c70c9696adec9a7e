package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceEmpty marks a reachable provider that returned no usable rows.
	ErrSourceEmpty = errors.New("source returned no usable rows")

	// ErrInvalidWindowSpec is returned for month specifiers other than YYYY-MM or auto.
	ErrInvalidWindowSpec = errors.New("month must be in YYYY-MM format or 'auto'")

	// ErrInvalidConfiguration wraps unreadable or inconsistent static configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNoMarketsSelected is returned when the market selection matches nothing.
	ErrNoMarketsSelected = errors.New("no markets selected")

	// ErrSeriesNotFound is returned for lookups of series absent from a dataset.
	ErrSeriesNotFound = errors.New("series not found")
)

// SourceError is a transient provider failure: network, non-2xx status,
// malformed payload or schema mismatch.
type SourceError struct {
	Adapter string
	ID      string
	Err     error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Adapter, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError wraps err for adapter and id.
func NewSourceError(adapter, id string, err error) *SourceError {
	return &SourceError{Adapter: adapter, ID: id, Err: err}
}

// Empty returns an error wrapping ErrSourceEmpty with a reason.
func Empty(adapter, id, reason string) error {
	return fmt.Errorf("%s %s: %s: %w", adapter, id, reason, ErrSourceEmpty)
}
