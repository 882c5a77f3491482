package model

import (
	"strings"
	"time"
)

const (
	// DateLayout parses portal dates; month and day may be one or two digits.
	DateLayout = "2006/1/2"
	// CanonicalDateLayout is the zero-padded form used for lookups and output.
	CanonicalDateLayout = "2006/01/02"
	// ClockLayout parses one side of a punch time range.
	ClockLayout = "15:04:05"

	// StatusUnknown marks an approval row whose status cell was missing.
	StatusUnknown = "未知"
)

// RawPunchRecord is one attendance grid row: a date and the punch time
// range rendered next to it ("HH:MM:SS~HH:MM:SS").
type RawPunchRecord struct {
	Date      string `json:"date"`
	TimeRange string `json:"time_range"`
}

// Key is the composite natural key used for deduplication across pages.
func (r RawPunchRecord) Key() string {
	return r.Date + "_" + r.TimeRange
}

// OvertimeRecord is the derived per-day figure.
type OvertimeRecord struct {
	Date          string  `json:"date"`
	ClockIn       string  `json:"clock_in"`
	ClockOut      string  `json:"clock_out"`
	TotalMinutes  int     `json:"total_minutes"`
	OvertimeHours float64 `json:"overtime_hours"`
}

// SubmittedStatusRecord is one row of the overtime approval grid.
type SubmittedStatusRecord struct {
	Date            string  `json:"date"`
	Status          string  `json:"status"`
	OvertimeMinutes float64 `json:"overtime_minutes"`
	ChangeMinutes   float64 `json:"change_minutes"`
}

// Key returns the date; later pages overwrite earlier ones for the same key.
func (s SubmittedStatusRecord) Key() string {
	return s.Date
}

// ParseDate parses a portal date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// NormalizeDate returns the zero-padded form of a portal date, or the
// trimmed input unchanged when it does not parse.
func NormalizeDate(s string) string {
	t, err := ParseDate(s, time.UTC)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return t.Format(CanonicalDateLayout)
}
