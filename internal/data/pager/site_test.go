package pager

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/penwyp/go-ssp-overtime/internal/core/model"
)

// fakeSite serves pre-rendered pages and checks that every postback echoes
// the view state of the page it came from.
type fakeSite struct {
	mu      sync.Mutex
	pages   []string
	fetches int
	forms   []url.Values
	failAt  int // page number whose request fails
	failErr error
	current int
}

func (s *fakeSite) Get(_ context.Context, path string) (*goquery.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.failAt == 1 {
		return nil, s.failErr
	}
	s.current = 1
	return goquery.NewDocumentFromReader(strings.NewReader(s.pages[0]))
}

func (s *fakeSite) PostBack(_ context.Context, path string, form url.Values) (*goquery.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	s.forms = append(s.forms, form)

	var n int
	if _, err := fmt.Sscanf(form.Get(model.FieldEventArgument), "Page$%d", &n); err != nil {
		return nil, fmt.Errorf("bad event argument %q", form.Get(model.FieldEventArgument))
	}
	if want := viewState(s.current); form.Get(model.FieldViewState) != want {
		return nil, fmt.Errorf("stale view state %q, want %q", form.Get(model.FieldViewState), want)
	}
	if n == s.failAt {
		return nil, s.failErr
	}
	if n < 1 || n > len(s.pages) {
		return nil, fmt.Errorf("no page %d", n)
	}
	s.current = n
	return goquery.NewDocumentFromReader(strings.NewReader(s.pages[n-1]))
}

func viewState(page int) string {
	return fmt.Sprintf("vs-%d", page)
}

type row struct {
	date, timeRange string
}

type pageOpts struct {
	noToken bool
	noGrid  bool
	links   []int
}

// attendanceHTML renders one page of the punch grid.
func attendanceHTML(page int, opts pageOpts, rows ...row) string {
	var b strings.Builder
	b.WriteString("<html><body><form>")
	if !opts.noToken {
		fmt.Fprintf(&b, `<input type="hidden" name="__VIEWSTATE" value="%s" />`, viewState(page))
		fmt.Fprintf(&b, `<input type="hidden" name="__VIEWSTATEGENERATOR" value="GEN" />`)
		fmt.Fprintf(&b, `<input type="hidden" name="__EVENTVALIDATION" value="ev-%d" />`, page)
	}
	if opts.noGrid {
		b.WriteString(`<table id="maintenance"><tr><td>系統維護中</td></tr></table></form></body></html>`)
		return b.String()
	}
	b.WriteString(`<div id="tabs-2"><table id="ContentPlaceHolder1_gvWeb012" cellspacing="0" cellpadding="3" rules="rows">`)
	b.WriteString(`<tr><th>出勤日期</th><th>說明</th></tr>`)
	for i, r := range rows {
		class := "RowStyle"
		if i%2 == 1 {
			class = "AlternatingRowStyle"
		}
		fmt.Fprintf(&b, `<tr class="%s"><td><span id="ContentPlaceHolder1_gvWeb012_lblWork_Date_%d">%s</span>`+
			`<span id="ContentPlaceHolder1_gvWeb012_lblCard_Time_%d">%s</span></td><td></td><td></td></tr>`,
			class, i, r.date, i, r.timeRange)
	}
	b.WriteString(`<tr class="PagerStyle"><td colspan="2"><table><tr>`)
	for _, l := range opts.links {
		if l == page {
			fmt.Fprintf(&b, `<td><span>%d</span></td>`, l)
			continue
		}
		fmt.Fprintf(&b, `<td><a href="javascript:__doPostBack('ctl00$ContentPlaceHolder1$gvWeb012','Page$%d')">%d</a></td>`, l, l)
	}
	b.WriteString(`</tr></table></td></tr></table></div></form></body></html>`)
	return b.String()
}

type statusRow struct {
	date, status, minutes string
}

// statusHTML renders one page of the approval grid.
func statusHTML(page int, links []int, rows ...statusRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><input type="hidden" name="__VIEWSTATE" value="%s" />`, viewState(page))
	b.WriteString(`<table id="ContentPlaceHolder1_gvFlow211"><tr><th>加班日期</th><th>狀態</th><th>分鐘</th></tr>`)
	for i, r := range rows {
		fmt.Fprintf(&b, `<tr><td><span id="ContentPlaceHolder1_gvFlow211_lblOT_Date_%d">%s</span></td>`+
			`<td><span id="ContentPlaceHolder1_gvFlow211_lblProcess_Flag_Text_%d">%s</span></td>`+
			`<td><span id="ContentPlaceHolder1_gvFlow211_lblOT_Minute_%d">%s</span></td></tr>`,
			i, r.date, i, r.status, i, r.minutes)
	}
	b.WriteString(`<tr class="FlowPagerStyle"><td colspan="3"><table><tr>`)
	for _, l := range links {
		fmt.Fprintf(&b, `<td><a href="#">%d</a></td>`, l)
	}
	b.WriteString(`</tr></table></td></tr></table></body></html>`)
	return b.String()
}

type memRecorder struct {
	pages []string
	err   error
}

func (m *memRecorder) RecordPage(grid string, page int, doc *goquery.Document) error {
	m.pages = append(m.pages, fmt.Sprintf("%s#%d", grid, page))
	return m.err
}
