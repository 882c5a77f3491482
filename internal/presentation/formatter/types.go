package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/core/overtime"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// Formatter renders a finished report.
type Formatter interface {
	Format(w io.Writer, report *overtime.Report) error
}

// Formats lists the accepted --output values.
var Formats = []string{"table", "json", "csv", "summary", "xlsx"}

// New returns the formatter for an --output value.
func New(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "table":
		return NewTableFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	case "summary":
		return NewSummaryFormatter(), nil
	case "xlsx":
		return NewXLSXFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

var reportHeaders = []string{"Date", "Clock In", "Clock Out", "Total (min)", "Overtime (h)"}

const statusHeader = "Status"

// hasStatus reports whether any row was matched with an approval record.
func hasStatus(rows []overtime.ReportRow) bool {
	for _, r := range rows {
		if r.Submitted != nil {
			return true
		}
	}
	return false
}

func headers(withStatus bool) []string {
	h := append([]string(nil), reportHeaders...)
	if withStatus {
		h = append(h, statusHeader)
	}
	return h
}

func rowValues(r overtime.ReportRow, withStatus bool) []string {
	values := []string{
		r.Date,
		r.ClockIn,
		r.ClockOut,
		strconv.Itoa(r.TotalMinutes),
		util.FormatHours(r.OvertimeHours),
	}
	if withStatus {
		values = append(values, statusCell(r))
	}
	return values
}

func statusCell(r overtime.ReportRow) string {
	if r.Submitted == nil {
		return "-"
	}
	return r.Submitted.Status
}

var statusHeaders = []string{"Date", "Status", "Overtime (min)", "Change (min)"}

func statusValues(s model.SubmittedStatusRecord) []string {
	return []string{
		s.Date,
		s.Status,
		util.FormatMinutes(s.OvertimeMinutes),
		util.FormatMinutes(s.ChangeMinutes),
	}
}
