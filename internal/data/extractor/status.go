package extractor

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// Span id suffixes of the approval grid, one per data row.
const (
	statusDateField   = "lblOT_Date"
	statusFlagField   = "lblProcess_Flag_Text"
	statusMinuteField = "lblOT_Minute"
	statusChangeField = "lblChange_Minute"
)

// StatusExtraction is the outcome of reading one page of the approval grid.
type StatusExtraction struct {
	Records    []model.SubmittedStatusRecord
	Matcher    string
	Candidates []TableInfo
	Skipped    int
}

func (e StatusExtraction) Found() bool {
	return e.Matcher != ""
}

// Statuses extracts approval rows in document order. Rows are numbered
// from 0 after the header row, matching the server's span ids.
func (e *Extractor) Statuses(doc *goquery.Document) StatusExtraction {
	table, matcher := e.Locate(doc)
	if matcher == "" {
		return StatusExtraction{Candidates: Candidates(doc)}
	}

	prefix := table.AttrOr("id", e.layout.TableID)
	span := func(row *goquery.Selection, field string, i int) *goquery.Selection {
		id := prefix + "_" + field + "_" + strconv.Itoa(i)
		return row.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.AttrOr("id", "") == id
		}).First()
	}

	result := StatusExtraction{Matcher: matcher}
	rows := ownRows(table)
	if rows.Length() < 2 {
		return result
	}
	rows.Slice(1, goquery.ToEnd).Each(func(i int, row *goquery.Selection) {
		dateSpan := span(row, statusDateField, i)
		if dateSpan.Length() == 0 {
			return
		}
		date := CleanText(dateSpan.Text())
		if date == "" {
			return
		}

		status := model.StatusUnknown
		if s := span(row, statusFlagField, i); s.Length() > 0 {
			status = CleanText(s.Text())
		}

		overtime, err := minutes(span(row, statusMinuteField, i))
		if err == nil {
			var change float64
			change, err = minutes(span(row, statusChangeField, i))
			if err == nil {
				result.Records = append(result.Records, model.SubmittedStatusRecord{
					Date:            date,
					Status:          status,
					OvertimeMinutes: overtime,
					ChangeMinutes:   change,
				})
				return
			}
		}
		result.Skipped++
		e.logger.Warn("status row skipped",
			util.F("row", i), util.F("date", date), util.F("error", err.Error()))
	})
	return result
}

// minutes parses a minutes cell; a missing or blank cell is zero.
func minutes(s *goquery.Selection) (float64, error) {
	if s.Length() == 0 {
		return 0, nil
	}
	text := CleanText(s.Text())
	if text == "" {
		return 0, nil
	}
	return strconv.ParseFloat(text, 64)
}
