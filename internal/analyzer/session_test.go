package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/portal"
)

const testStatusPath = "/FW21001Z.aspx"

// fakeSession serves one page list per path.
type fakeSession struct {
	mu        sync.Mutex
	pages     map[string][]string
	loginErr  error
	logins    int
	requests  []string
	failPath  string
	failPage  int
	failError error
}

func newFakeSession() *fakeSession {
	return &fakeSession{pages: map[string][]string{}}
}

func (s *fakeSession) Login(_ context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins++
	if s.loginErr != nil {
		return s.loginErr
	}
	if username == "" || password == "" {
		return portal.ErrLoginFailed
	}
	return nil
}

func (s *fakeSession) Get(_ context.Context, path string) (*goquery.Document, error) {
	return s.serve(path, 1)
}

func (s *fakeSession) PostBack(_ context.Context, path string, form url.Values) (*goquery.Document, error) {
	var n int
	if _, err := fmt.Sscanf(form.Get(model.FieldEventArgument), "Page$%d", &n); err != nil {
		return nil, err
	}
	return s.serve(path, n)
}

func (s *fakeSession) serve(path string, page int) (*goquery.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, fmt.Sprintf("%s#%d", path, page))
	if path == s.failPath && page == s.failPage {
		return nil, s.failError
	}
	pages := s.pages[path]
	if page < 1 || page > len(pages) {
		return nil, errors.New("not found")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(pages[page-1]))
}

type punch struct {
	date, timeRange string
}

func hidden(page int) string {
	return fmt.Sprintf(`<input type="hidden" name="__VIEWSTATE" value="vs-%d" />`+
		`<input type="hidden" name="__EVENTVALIDATION" value="ev-%d" />`, page, page)
}

// attendancePage renders page n of the punch grid; next adds a link to n+1.
func attendancePage(n int, next bool, punches ...punch) string {
	var b strings.Builder
	b.WriteString("<html><body><form>")
	b.WriteString(hidden(n))
	b.WriteString(`<div id="tabs-2"><table id="ContentPlaceHolder1_gvWeb012" cellspacing="0" cellpadding="3" rules="rows">`)
	b.WriteString(`<tr><th>出勤日期</th></tr>`)
	for i, p := range punches {
		fmt.Fprintf(&b, `<tr class="RowStyle"><td><span id="ContentPlaceHolder1_gvWeb012_lblWork_Date_%d">%s</span>`+
			`<span id="ContentPlaceHolder1_gvWeb012_lblCard_Time_%d">%s</span></td><td>加班</td><td></td></tr>`, i, p.date, i, p.timeRange)
	}
	if next {
		fmt.Fprintf(&b, `<tr class="PagerStyle"><td><table><tr><td><span>%d</span></td><td><a href="#">%d</a></td></tr></table></td></tr>`, n, n+1)
	}
	b.WriteString("</table></div></form></body></html>")
	return b.String()
}

type approval struct {
	date, status, minutes string
}

// statusPage renders page n of the approval grid with links up to total.
func statusPage(n, total int, rows ...approval) string {
	const id = "ContentPlaceHolder1_gvFlow211"
	var b strings.Builder
	b.WriteString("<html><body><form>")
	b.WriteString(hidden(n))
	fmt.Fprintf(&b, `<table id="%s"><tr><th>加班日期</th><th>狀態</th></tr>`, id)
	for i, r := range rows {
		fmt.Fprintf(&b, `<tr><td><span id="%s_lblOT_Date_%d">%s</span></td>`+
			`<td><span id="%s_lblProcess_Flag_Text_%d">%s</span></td>`+
			`<td><span id="%s_lblOT_Minute_%d">%s</span></td></tr>`,
			id, i, r.date, id, i, r.status, id, i, r.minutes)
	}
	if total > 1 {
		b.WriteString(`<tr class="FlowPagerStyle"><td><table><tr>`)
		for p := 1; p <= total; p++ {
			if p == n {
				fmt.Fprintf(&b, `<td><span>%d</span></td>`, p)
			} else {
				fmt.Fprintf(&b, `<td><a href="#">%d</a></td>`, p)
			}
		}
		b.WriteString(`</tr></table></td></tr>`)
	}
	b.WriteString("</table></form></body></html>")
	return b.String()
}
