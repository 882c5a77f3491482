// Package overtime turns extracted punch records into per-day overtime
// figures under a fixed workplace policy.
package overtime

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// ErrMalformedRange is returned for a time range that is not exactly two
// "~"-separated tokens.
var ErrMalformedRange = errors.New("malformed time range")

type Calculator struct {
	policy Policy
	logger util.LoggerInterface
}

func NewCalculator(policy Policy, logger util.LoggerInterface) *Calculator {
	return &Calculator{policy: policy, logger: util.OrNop(logger)}
}

// Calculate derives an OvertimeRecord for every parseable record and
// returns them most recent first. Records that fail to parse are logged and
// skipped.
func (c *Calculator) Calculate(records []model.RawPunchRecord) []model.OvertimeRecord {
	type dated struct {
		day time.Time
		rec model.OvertimeRecord
	}
	results := make([]dated, 0, len(records))

	for idx, record := range records {
		rec, day, err := c.calculate(record)
		if err != nil {
			c.logger.Warn("skipping punch record",
				util.F("index", idx+1), util.F("date", record.Date),
				util.F("time_range", record.TimeRange), util.F("error", err.Error()))
			continue
		}
		c.logger.Debug("overtime computed",
			util.F("date", rec.Date), util.F("range", rec.ClockIn+"~"+rec.ClockOut),
			util.F("total_minutes", rec.TotalMinutes), util.F("overtime_hours", rec.OvertimeHours))
		results = append(results, dated{day: day, rec: rec})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].day.After(results[j].day)
	})

	out := make([]model.OvertimeRecord, len(results))
	for i, r := range results {
		out[i] = r.rec
	}
	return out
}

func (c *Calculator) calculate(record model.RawPunchRecord) (model.OvertimeRecord, time.Time, error) {
	parts := strings.Split(record.TimeRange, "~")
	if len(parts) != 2 {
		return model.OvertimeRecord{}, time.Time{}, fmt.Errorf("%w: %q", ErrMalformedRange, record.TimeRange)
	}
	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])

	// Portal times are naive local wall clock; UTC keeps the subtraction free
	// of zone transitions.
	day, err := model.ParseDate(record.Date, time.UTC)
	if err != nil {
		return model.OvertimeRecord{}, time.Time{}, fmt.Errorf("parse date %q: %w", record.Date, err)
	}
	clockIn, err := onDay(day, startStr)
	if err != nil {
		return model.OvertimeRecord{}, time.Time{}, err
	}
	clockOut, err := onDay(day, endStr)
	if err != nil {
		return model.OvertimeRecord{}, time.Time{}, err
	}

	effectiveStart := EffectiveStart(clockIn, c.policy.StandardStart.On(day))
	total := clockOut.Sub(effectiveStart).Minutes()
	overtimeMinutes := total - float64(c.policy.Deductions())

	return model.OvertimeRecord{
		Date:          record.Date,
		ClockIn:       startStr,
		ClockOut:      endStr,
		TotalMinutes:  int(math.Trunc(total)),
		OvertimeHours: clampHours(roundOneDecimal(overtimeMinutes/60), c.policy.MaxOvertime),
	}, day, nil
}

// EffectiveStart is the earlier of the actual clock-in and the standard
// start: a late arrival is counted from the standard start.
func EffectiveStart(clockIn, standardStart time.Time) time.Time {
	if clockIn.After(standardStart) {
		return standardStart
	}
	return clockIn
}

func onDay(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(model.ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", clock, err)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
}

// roundOneDecimal rounds the exact binary value of v to one decimal, ties to
// even, via strconv's correctly rounded formatting.
func roundOneDecimal(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return 0
	}
	return r
}

func clampHours(h, max float64) float64 {
	if h <= 0 {
		return 0
	}
	if h > max {
		return max
	}
	return h
}
