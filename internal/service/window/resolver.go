package window

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/util"
)

// Auto selects the month immediately preceding the current one.
const Auto = "auto"

var monthSpec = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

type Option func(*Resolver)

// WithClock overrides the clock used to resolve "auto".
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

type Resolver struct {
	now func() time.Time
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve parses YYYY-MM or "auto" (empty means auto).
func (r *Resolver) Resolve(spec string) (models.MonthWindow, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, Auto) {
		current := util.MonthStart(r.now().UTC())
		return ForMonth(current.AddDate(0, -1, 0)), nil
	}

	m := monthSpec.FindStringSubmatch(spec)
	if m == nil {
		return models.MonthWindow{}, fmt.Errorf("%q: %w", spec, models.ErrInvalidWindowSpec)
	}
	start, err := time.Parse("2006-01", spec)
	if err != nil {
		return models.MonthWindow{}, fmt.Errorf("%q: %w", spec, models.ErrInvalidWindowSpec)
	}
	return ForMonth(start), nil
}

// ForMonth builds the window for the month containing t.
func ForMonth(t time.Time) models.MonthWindow {
	start := util.MonthStart(t)
	return models.MonthWindow{
		Label:   start.Format("2006-01"),
		Start:   start,
		End:     util.MonthEnd(start),
		PrevEnd: start.AddDate(0, 0, -1),
	}
}

// LookbackStart is the window start moved back by months calendar months.
func LookbackStart(w models.MonthWindow, months int) time.Time {
	if months < 0 {
		months = 0
	}
	return w.Start.AddDate(0, -months, 0)
}
