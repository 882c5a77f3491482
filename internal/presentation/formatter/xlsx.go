package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-ssp-overtime/internal/core/overtime"
	"github.com/xuri/excelize/v2"
)

// XLSXSheet is the name of the single worksheet written by XLSXFormatter.
const XLSXSheet = "Overtime"

// XLSXFormatter writes the report as a workbook: one row per day followed
// by the statistics block.
type XLSXFormatter struct{}

func NewXLSXFormatter() *XLSXFormatter {
	return &XLSXFormatter{}
}

func (f *XLSXFormatter) Format(w io.Writer, report *overtime.Report) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", XLSXSheet); err != nil {
		return err
	}

	headerStyle, err := book.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	hoursStyle, err := book.NewStyle(&excelize.Style{CustomNumFmt: strPtr("0.0")})
	if err != nil {
		return err
	}

	hdr := headers(true)
	if err := setRow(book, 1, toCells(hdr)); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(hdr))
	if err := book.SetCellStyle(XLSXSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, r := range report.Rows {
		cells := []interface{}{r.Date, r.ClockIn, r.ClockOut, r.TotalMinutes, r.OvertimeHours, ""}
		if r.Submitted != nil {
			cells[5] = r.Submitted.Status
		}
		if err := setRow(book, row, cells); err != nil {
			return err
		}
		row++
	}
	if row > 2 {
		if err := book.SetCellStyle(XLSXSheet, "E2", fmt.Sprintf("E%d", row-1), hoursStyle); err != nil {
			return err
		}
	}

	// statistics block, one blank row below the data
	row++
	if err := setRow(book, row, []interface{}{"Statistics"}); err != nil {
		return err
	}
	if err := book.SetCellStyle(XLSXSheet, cell(1, row), cell(2, row), headerStyle); err != nil {
		return err
	}
	for _, line := range summaryLines(report.Summary) {
		row++
		if err := setRow(book, row, []interface{}{line[0], line[1]}); err != nil {
			return err
		}
	}

	for col, width := range map[string]float64{"A": 15, "B": 12, "C": 12, "D": 12, "E": 14, "F": 14} {
		if err := book.SetColWidth(XLSXSheet, col, col, width); err != nil {
			return err
		}
	}

	return book.Write(w)
}

func setRow(book *excelize.File, row int, cells []interface{}) error {
	return book.SetSheetRow(XLSXSheet, cell(1, row), &cells)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func strPtr(s string) *string {
	return &s
}
