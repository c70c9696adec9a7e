package models

import "time"

// MonthWindow holds the calendar boundaries of one reporting month.
// All fields are UTC midnight; Start is the first day of the month, End the
// last, PrevEnd the last day of the preceding month.
type MonthWindow struct {
	Label   string    `json:"label"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	PrevEnd time.Time `json:"prev_end"`
}

// FetchEnd is the upper bound used when requesting daily history, padded so
// that a late-published month-end print is still captured.
func (w MonthWindow) FetchEnd() time.Time {
	return w.End.AddDate(0, 0, 7)
}
