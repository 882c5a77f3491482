package formatter

import (
	"encoding/csv"
	"io"

	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/core/overtime"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format writes one line per row. The status column is always present so
// the header is stable for spreadsheets.
func (f *CSVFormatter) Format(w io.Writer, report *overtime.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(headers(true)); err != nil {
		return err
	}
	for _, r := range report.Rows {
		values := rowValues(r, true)
		if r.Submitted == nil {
			values[len(values)-1] = ""
		}
		if err := cw.Write(values); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (f *CSVFormatter) FormatStatuses(w io.Writer, statuses []model.SubmittedStatusRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statusHeaders); err != nil {
		return err
	}
	for _, s := range statuses {
		if err := cw.Write(statusValues(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
