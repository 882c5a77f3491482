package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxCandidates bounds the table listing returned when nothing matched.
const maxCandidates = 10

// Matcher is one step of the grid lookup chain. Match returns an empty
// selection when it does not apply.
type Matcher struct {
	Name  string
	Match func(doc *goquery.Document, layout GridLayout) *goquery.Selection
}

// TableInfo identifies a table seen on a page where the grid was not found.
type TableInfo struct {
	ID    string
	Class string
}

func (t TableInfo) String() string {
	id, class := t.ID, t.Class
	if id == "" {
		id = "-"
	}
	if class == "" {
		class = "-"
	}
	return fmt.Sprintf("id=%s class=%s", id, class)
}

// DefaultMatchers is the lookup chain, most specific first.
func DefaultMatchers() []Matcher {
	return []Matcher{
		{Name: "exact-id", Match: matchExactID},
		{Name: "id-pattern", Match: matchIDPattern},
		{Name: "structure", Match: matchStructure},
		{Name: "header-text", Match: matchHeaderText},
	}
}

// Locate runs matchers in order and returns the first hit with the name of
// the matcher that found it. On a miss the selection is empty and name is "".
func Locate(doc *goquery.Document, layout GridLayout, matchers []Matcher) (*goquery.Selection, string) {
	for _, m := range matchers {
		if table := m.Match(doc, layout); table != nil && table.Length() > 0 {
			return table.First(), m.Name
		}
	}
	return doc.Selection.Slice(0, 0), ""
}

// Candidates lists the first tables of the page for diagnostics.
func Candidates(doc *goquery.Document) []TableInfo {
	var out []TableInfo
	doc.Find("table").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = append(out, TableInfo{
			ID:    s.AttrOr("id", ""),
			Class: s.AttrOr("class", ""),
		})
		return len(out) < maxCandidates
	})
	return out
}

// scope returns the layout's search scope when present, else the document.
func scope(doc *goquery.Document, layout GridLayout) *goquery.Selection {
	if layout.Scope != "" {
		if s := doc.Find(layout.Scope).First(); s.Length() > 0 {
			return s
		}
	}
	return doc.Selection
}

func matchExactID(doc *goquery.Document, layout GridLayout) *goquery.Selection {
	if layout.TableID == "" {
		return nil
	}
	id := layout.TableID
	return scope(doc, layout).Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	})
}

func matchIDPattern(doc *goquery.Document, layout GridLayout) *goquery.Selection {
	if layout.IDFragment == "" {
		return nil
	}
	frag := layout.IDFragment
	return scope(doc, layout).Find("table[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.AttrOr("id", ""), frag)
	})
}

func matchStructure(doc *goquery.Document, layout GridLayout) *goquery.Selection {
	if layout.CellSpacing == "" && layout.CellPadding == "" && layout.Rules == "" {
		return nil
	}
	return scope(doc, layout).Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return attrIs(s, "cellspacing", layout.CellSpacing) &&
			attrIs(s, "cellpadding", layout.CellPadding) &&
			attrIs(s, "rules", layout.Rules)
	})
}

// matchHeaderText scans every table of the document. A layout table that
// wraps the grid also contains the phrase, so the innermost hit wins.
func matchHeaderText(doc *goquery.Document, layout GridLayout) *goquery.Selection {
	if layout.HeaderPhrase == "" {
		return nil
	}
	phrase := layout.HeaderPhrase
	hasPhrase := func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), phrase)
	}
	return doc.Find("table").FilterFunction(func(i int, s *goquery.Selection) bool {
		return hasPhrase(i, s) && s.Find("table").FilterFunction(hasPhrase).Length() == 0
	})
}

func attrIs(s *goquery.Selection, name, want string) bool {
	if want == "" {
		return true
	}
	got, ok := s.Attr(name)
	return ok && strings.TrimSpace(got) == want
}

// ownRows returns the rows that belong to table itself, not to tables
// nested in its cells (the pager renders one).
func ownRows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return row.Closest("table").IsSelection(table)
	})
}
