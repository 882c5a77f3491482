package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

var datePattern = regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}`)

// Extraction is the outcome of reading one page of the attendance grid.
type Extraction struct {
	Records []model.RawPunchRecord
	// Matcher names the lookup step that found the grid; "" if none did.
	Matcher string
	// Candidates is filled only when the grid was not found.
	Candidates []TableInfo
	Skipped    int
}

// Found reports whether the grid was located on the page.
func (e Extraction) Found() bool {
	return e.Matcher != ""
}

type Extractor struct {
	layout   GridLayout
	matchers []Matcher
	logger   util.LoggerInterface
}

func New(layout GridLayout, logger util.LoggerInterface) *Extractor {
	return &Extractor{
		layout:   layout,
		matchers: DefaultMatchers(),
		logger:   util.OrNop(logger).With(util.F("grid", layout.Name)),
	}
}

func (e *Extractor) Layout() GridLayout {
	return e.layout
}

// Locate finds the grid table on doc.
func (e *Extractor) Locate(doc *goquery.Document) (*goquery.Selection, string) {
	return Locate(doc, e.layout, e.matchers)
}

// Records extracts the punch records of one attendance page in document
// order. A page without the grid yields no records and no error.
func (e *Extractor) Records(doc *goquery.Document) Extraction {
	table, matcher := e.Locate(doc)
	if matcher == "" {
		return Extraction{Candidates: Candidates(doc)}
	}

	result := Extraction{Matcher: matcher}
	e.dataRows(table).Each(func(idx int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < e.layout.MinCells {
			result.Skipped++
			e.logger.Debug("row skipped: too few cells",
				util.F("row", idx+1), util.F("cells", cells.Length()))
			return
		}
		cell := cells.First()
		date := e.field(cell, e.layout.DateFragment, func(text string) bool {
			return datePattern.MatchString(text)
		})
		timeRange := e.field(cell, e.layout.TimeFragment, func(text string) bool {
			return strings.Contains(text, "~") && strings.Contains(text, ":")
		})
		timeRange = strings.ReplaceAll(timeRange, " ", "")

		if date == "" || !strings.Contains(timeRange, "~") {
			result.Skipped++
			e.logger.Debug("row skipped",
				util.F("row", idx+1), util.F("date", date), util.F("time_range", timeRange))
			return
		}
		result.Records = append(result.Records, model.RawPunchRecord{Date: date, TimeRange: timeRange})
	})
	return result
}

// dataRows keeps the grid's normal and alternating data rows.
func (e *Extractor) dataRows(table *goquery.Selection) *goquery.Selection {
	return ownRows(table).FilterFunction(func(_ int, row *goquery.Selection) bool {
		if row.Find("th").Length() > 0 {
			return false
		}
		class := row.AttrOr("class", "")
		if e.layout.PagerClass != "" && strings.Contains(class, e.layout.PagerClass) {
			return false
		}
		return e.layout.DataRowClass == "" || strings.Contains(class, e.layout.DataRowClass)
	})
}

// field reads the span whose id contains fragment, falling back to the
// first span of cell whose text satisfies shape.
func (e *Extractor) field(cell *goquery.Selection, fragment string, shape func(string) bool) string {
	if fragment != "" {
		if span := cell.Find("span[id*='" + fragment + "']").First(); span.Length() > 0 {
			return CleanText(span.Text())
		}
	}
	var found string
	cell.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := CleanText(span.Text())
		if shape(text) {
			found = text
			return false
		}
		return true
	})
	return found
}

// HasNext reports whether the grid's pager links to page current+1.
func (e *Extractor) HasNext(doc *goquery.Document, current int) bool {
	table, matcher := e.Locate(doc)
	if matcher == "" || e.layout.PagerClass == "" {
		return false
	}
	found := false
	table.Find("tr." + e.layout.PagerClass).First().Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if n, ok := pageNumber(strings.TrimSpace(a.Text())); ok && n == current+1 {
			found = true
			return false
		}
		return true
	})
	return found
}

// PageCount is the largest numeric pager link on doc, at least 1.
func (e *Extractor) PageCount(doc *goquery.Document) int {
	if e.layout.PagerClass == "" {
		return 1
	}
	max := 1
	doc.Find("tr." + e.layout.PagerClass).First().Find("a").Each(func(_ int, a *goquery.Selection) {
		if n, ok := pageNumber(strings.TrimSpace(a.Text())); ok && n > max {
			max = n
		}
	})
	return max
}

// CleanText strips the non-breaking and ideographic spaces the portal pads
// cells with, then surrounding whitespace.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\u3000", "")
	return strings.TrimSpace(s)
}

// pageNumber parses a pager label made only of ASCII digits.
func pageNumber(label string) (int, bool) {
	if label == "" {
		return 0, false
	}
	for _, r := range label {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(label)
	return n, err == nil
}
