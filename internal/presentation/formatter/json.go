package formatter

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/core/overtime"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(w io.Writer, report *overtime.Report) error {
	return writeJSON(w, report)
}

func (f *JSONFormatter) FormatStatuses(w io.Writer, statuses []model.SubmittedStatusRecord) error {
	if statuses == nil {
		statuses = []model.SubmittedStatusRecord{}
	}
	return writeJSON(w, statuses)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
