package overtime

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q (want HH:MM): %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant of c on day's date, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// Policy holds the workplace constants the overtime arithmetic runs on.
// Durations are minutes; MaxOvertime is hours.
type Policy struct {
	LunchBreak    int
	StandardWork  int
	RestTime      int
	StandardStart Clock
	MaxOvertime   float64
}

// DefaultPolicy: 70 min lunch, 8h standard day, 30 min rest, 09:00 start,
// at most 4h of overtime per day.
func DefaultPolicy() Policy {
	return Policy{
		LunchBreak:    70,
		StandardWork:  480,
		RestTime:      30,
		StandardStart: Clock{Hour: 9},
		MaxOvertime:   4.0,
	}
}

// Deductions is the number of minutes subtracted from presence time before
// anything counts as overtime.
func (p Policy) Deductions() int {
	return p.LunchBreak + p.StandardWork + p.RestTime
}

func (p Policy) Validate() error {
	if p.LunchBreak < 0 || p.StandardWork < 0 || p.RestTime < 0 {
		return fmt.Errorf("policy minutes must not be negative (lunch=%d work=%d rest=%d)",
			p.LunchBreak, p.StandardWork, p.RestTime)
	}
	if p.StandardStart.Hour < 0 || p.StandardStart.Hour > 23 || p.StandardStart.Minute < 0 || p.StandardStart.Minute > 59 {
		return fmt.Errorf("invalid standard start %s", p.StandardStart)
	}
	if p.MaxOvertime < 0 {
		return fmt.Errorf("max overtime must not be negative, got %v", p.MaxOvertime)
	}
	return nil
}
