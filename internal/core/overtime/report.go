package overtime

import (
	"time"

	"github.com/penwyp/go-ssp-overtime/internal/core/model"
)

// ReportRow is an overtime record optionally cross-referenced with the
// approval status submitted for the same day.
type ReportRow struct {
	model.OvertimeRecord
	Submitted *model.SubmittedStatusRecord `json:"submitted,omitempty"`
}

// StatusText returns the approval status, or "" when nothing was submitted.
func (r ReportRow) StatusText() string {
	if r.Submitted == nil {
		return ""
	}
	return r.Submitted.Status
}

// Summary aggregates a report the way the portal's users read it.
type Summary struct {
	Days         int     `json:"days"`
	OvertimeDays int     `json:"overtime_days"`
	TotalHours   float64 `json:"total_hours"`
	AverageHours float64 `json:"average_hours"`
	MaxHours     float64 `json:"max_hours"`
	MaxDate      string  `json:"max_date,omitempty"`
}

// Report is the final output of one run.
type Report struct {
	Account     string      `json:"account,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
	Rows        []ReportRow `json:"rows"`
	Summary     Summary     `json:"summary"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// NewReport annotates records with statuses and summarises them. records
// are expected most recent first, as Calculate returns them.
func NewReport(records []model.OvertimeRecord, statuses map[string]model.SubmittedStatusRecord, generatedAt time.Time) *Report {
	rows := Annotate(records, statuses)
	return &Report{
		GeneratedAt: generatedAt,
		Rows:        rows,
		Summary:     Summarize(records),
	}
}

// Annotate pairs each record with the status submitted for its date.
// Dates are compared in zero-padded form since the two grids do not format
// them identically.
func Annotate(records []model.OvertimeRecord, statuses map[string]model.SubmittedStatusRecord) []ReportRow {
	index := make(map[string]model.SubmittedStatusRecord, len(statuses))
	for date, s := range statuses {
		index[model.NormalizeDate(date)] = s
	}

	rows := make([]ReportRow, 0, len(records))
	for _, r := range records {
		row := ReportRow{OvertimeRecord: r}
		if s, ok := index[model.NormalizeDate(r.Date)]; ok {
			s := s
			row.Submitted = &s
		}
		rows = append(rows, row)
	}
	return rows
}

// OnlyOvertime keeps the rows that carry any overtime.
func OnlyOvertime(rows []ReportRow) []ReportRow {
	out := make([]ReportRow, 0, len(rows))
	for _, r := range rows {
		if r.OvertimeHours > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Summarize computes the report summary. MaxDate is the first record (in
// the given order) that reaches the maximum, and only set when it is > 0.
func Summarize(records []model.OvertimeRecord) Summary {
	s := Summary{Days: len(records)}
	if len(records) == 0 {
		return s
	}
	for _, r := range records {
		s.TotalHours += r.OvertimeHours
		if r.OvertimeHours > 0 {
			s.OvertimeDays++
		}
		if r.OvertimeHours > s.MaxHours {
			s.MaxHours = r.OvertimeHours
			s.MaxDate = r.Date
		}
	}
	s.TotalHours = roundOneDecimal(s.TotalHours)
	s.AverageHours = roundOneDecimal(s.TotalHours / float64(len(records)))
	return s
}
