package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/core/overtime"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

type TableFormatter struct {
	minWidth int
	// maxWidth caps a cell; longer text is cut with an ellipsis.
	maxWidth int
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{minWidth: 8, maxWidth: 30}
}

func (f *TableFormatter) Format(w io.Writer, report *overtime.Report) error {
	withStatus := hasStatus(report.Rows)
	hdr := headers(withStatus)

	rows := make([][]string, 0, len(report.Rows))
	for _, r := range report.Rows {
		rows = append(rows, rowValues(r, withStatus))
	}

	total := make([]string, len(hdr))
	total[0] = "Total"
	total[4] = util.FormatHours(report.Summary.TotalHours)

	return f.render(w, hdr, rows, total, numericReportColumn)
}

// FormatStatuses renders the approval grid records in date order.
func (f *TableFormatter) FormatStatuses(w io.Writer, statuses []model.SubmittedStatusRecord) error {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, statusValues(s))
	}
	return f.render(w, statusHeaders, rows, nil, func(i int) bool { return i >= 2 })
}

func numericReportColumn(i int) bool {
	return i == 3 || i == 4
}

func (f *TableFormatter) render(w io.Writer, hdr []string, rows [][]string, total []string, numeric func(int) bool) error {
	for _, r := range rows {
		for i, v := range r {
			r[i] = util.Truncate(v, f.maxWidth)
		}
	}
	widths := f.calculateColumnWidths(hdr, rows, total)
	tw := &tableWriter{w: w}

	tw.border(widths, "top")
	tw.row(hdr, widths, func(int) bool { return false })
	tw.border(widths, "middle")
	for _, r := range rows {
		tw.row(r, widths, numeric)
	}
	if total != nil {
		tw.border(widths, "middle")
		tw.row(total, widths, numeric)
	}
	tw.border(widths, "bottom")
	return tw.err
}

// calculateColumnWidths sizes each column by display width, so CJK status
// labels line up.
func (f *TableFormatter) calculateColumnWidths(hdr []string, rows [][]string, total []string) []int {
	widths := make([]int, len(hdr))
	measure := func(values []string) {
		for i, v := range values {
			if w := util.GetDisplayWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(hdr)
	for _, r := range rows {
		measure(r)
	}
	measure(total)

	for i := range widths {
		if widths[i] < f.minWidth {
			widths[i] = f.minWidth
		}
	}
	return widths
}

// tableWriter keeps the first write error so rendering code stays linear.
type tableWriter struct {
	w   io.Writer
	err error
}

func (t *tableWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *tableWriter) border(widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("─", width+2)
	}
	t.printf("%s%s%s\n", left, strings.Join(parts, middle), right)
}

func (t *tableWriter) row(values []string, widths []int, numeric func(int) bool) {
	var b strings.Builder
	b.WriteString("│")
	for i, v := range values {
		b.WriteString(" ")
		b.WriteString(util.PadString(v, widths[i], !numeric(i)))
		b.WriteString(" │")
	}
	t.printf("%s\n", b.String())
}
