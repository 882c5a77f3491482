package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-ssp-overtime/internal/core/overtime"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

const summaryWidth = 60

// SummaryFormatter prints the statistics block without the per-day rows.
type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) Format(w io.Writer, report *overtime.Report) error {
	tw := &tableWriter{w: w}
	rule := strings.Repeat("=", summaryWidth)

	tw.printf("%s\n", rule)
	tw.printf("%s\n", util.CenterText("Overtime Summary Report", summaryWidth))
	if report.Account != "" {
		tw.printf("%s\n", util.CenterText("Account: "+report.Account, summaryWidth))
	}
	tw.printf("%s\n", util.CenterText("Generated: "+report.GeneratedAt.Format("2006-01-02 15:04:05"), summaryWidth))
	tw.printf("%s\n\n", rule)

	if len(report.Rows) > 0 {
		first, last := report.Rows[len(report.Rows)-1].Date, report.Rows[0].Date
		if first == last {
			tw.printf("Date Range: %s\n\n", first)
		} else {
			tw.printf("Date Range: %s to %s\n\n", first, last)
		}
	}

	s := report.Summary
	if s.Days == 0 {
		tw.printf("No attendance records found\n\n")
		tw.printf("%s\n", rule)
		return tw.err
	}

	tw.printf("Days Recorded:    %d\n", s.Days)
	tw.printf("Overtime Days:    %d\n", s.OvertimeDays)
	tw.printf("Total Overtime:   %s h\n", util.FormatHours(s.TotalHours))
	tw.printf("Daily Average:    %s h\n", util.FormatHours(s.AverageHours))
	tw.printf("Longest Overtime: %s h\n", util.FormatHours(s.MaxHours))
	if s.MaxDate != "" {
		tw.printf("Longest On:       %s\n", s.MaxDate)
	}

	if counts := statusCounts(report.Rows); len(counts) > 0 {
		tw.printf("\nApproval Status:\n")
		for _, c := range counts {
			tw.printf("  %s %d\n", util.PadString(c.status, 12, true), c.days)
		}
	}

	if len(report.Warnings) > 0 {
		tw.printf("\nWarnings:\n")
		for _, warning := range report.Warnings {
			tw.printf("  - %s\n", warning)
		}
	}

	tw.printf("\n%s\n", rule)
	return tw.err
}

type statusCount struct {
	status string
	days   int
}

// statusCounts tallies annotated rows per status in first-seen order.
func statusCounts(rows []overtime.ReportRow) []statusCount {
	var counts []statusCount
	index := map[string]int{}
	for _, r := range rows {
		if r.Submitted == nil {
			continue
		}
		i, ok := index[r.Submitted.Status]
		if !ok {
			i = len(counts)
			index[r.Submitted.Status] = i
			counts = append(counts, statusCount{status: r.Submitted.Status})
		}
		counts[i].days++
	}
	return counts
}

// summaryLines is shared with the xlsx export.
func summaryLines(s overtime.Summary) [][2]string {
	lines := [][2]string{
		{"Days Recorded", fmt.Sprintf("%d", s.Days)},
		{"Overtime Days", fmt.Sprintf("%d", s.OvertimeDays)},
		{"Total Overtime", util.FormatHours(s.TotalHours) + " h"},
		{"Daily Average", util.FormatHours(s.AverageHours) + " h"},
		{"Longest Overtime", util.FormatHours(s.MaxHours) + " h"},
	}
	if s.MaxDate != "" {
		lines = append(lines, [2]string{"Longest On", s.MaxDate})
	}
	return lines
}
