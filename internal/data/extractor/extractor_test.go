package extractor

import (
	"testing"

	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecords_ExactID(t *testing.T) {
	ex := New(AttendanceGrid, nil)
	got := ex.Records(parse(t, attendancePage))

	assert.True(t, got.Found())
	assert.Equal(t, "exact-id", got.Matcher)
	assert.Equal(t, []model.RawPunchRecord{
		{Date: "2024/3/1", TimeRange: "08:30:00~19:50:00"},
		{Date: "2024/3/2", TimeRange: "09:30:00~18:30:00"},
	}, got.Records)
	assert.Equal(t, 1, got.Skipped)
	assert.Empty(t, got.Candidates)
}

func TestRecords_FallbackFields(t *testing.T) {
	ex := New(AttendanceGrid, nil)
	got := ex.Records(parse(t, fallbackPage))

	assert.Equal(t, "id-pattern", got.Matcher)
	require.Len(t, got.Records, 1)
	assert.Equal(t, model.RawPunchRecord{Date: "2024/03/05", TimeRange: "08:00:00~18:00:00"}, got.Records[0])
	// second row has a date but no "~" range
	assert.Equal(t, 1, got.Skipped)
}

func TestRecords_SkipsRowsWithTooFewCells(t *testing.T) {
	html := `<table id="ContentPlaceHolder1_gvWeb012">
<tr><th>出勤日期</th><th>異常原因</th><th>處理</th></tr>
<tr class="RowStyle"><td><span id="a_lblWork_Date_0">2024/3/1</span><span id="a_lblCard_Time_0">08:30:00~19:50:00</span></td><td>加班</td><td></td></tr>
<tr class="AlternatingRowStyle"><td><span id="a_lblWork_Date_1">2024/3/2</span><span id="a_lblCard_Time_1">09:00:00~18:00:00</span></td><td>加班</td></tr>
</table>`
	got := New(AttendanceGrid, nil).Records(parse(t, html))

	assert.Equal(t, []model.RawPunchRecord{{Date: "2024/3/1", TimeRange: "08:30:00~19:50:00"}}, got.Records)
	assert.Equal(t, 1, got.Skipped)
}

func TestRecords_StructureMatcher(t *testing.T) {
	ex := New(AttendanceGrid, nil)
	got := ex.Records(parse(t, structurePage))

	assert.Equal(t, "structure", got.Matcher)
	assert.Equal(t, []model.RawPunchRecord{{Date: "2024/4/1", TimeRange: "08:00:00~17:40:00"}}, got.Records)
}

func TestRecords_HeaderTextPicksInnermostTable(t *testing.T) {
	ex := New(AttendanceGrid, nil)
	doc := parse(t, headerTextPage)

	table, matcher := ex.Locate(doc)
	assert.Equal(t, "header-text", matcher)
	assert.Equal(t, "grid", table.AttrOr("class", ""))

	got := ex.Records(doc)
	assert.Equal(t, []model.RawPunchRecord{{Date: "2024/5/2", TimeRange: "08:15:00~19:00:00"}}, got.Records)
}

func TestRecords_ScopePrefersTab(t *testing.T) {
	ex := New(AttendanceGrid, nil)
	ex.matchers = []Matcher{{Name: "structure", Match: matchStructure}}
	table, matcher := ex.Locate(parse(t, attendancePage))

	assert.Equal(t, "structure", matcher)
	assert.Equal(t, "ContentPlaceHolder1_gvWeb012", table.AttrOr("id", ""))
}

func TestRecords_NoGrid(t *testing.T) {
	ex := New(AttendanceGrid, nil)
	got := ex.Records(parse(t, noGridPage))

	assert.False(t, got.Found())
	assert.Empty(t, got.Records)
	assert.Equal(t, []TableInfo{{ID: "menu", Class: "nav"}, {Class: "footer"}}, got.Candidates)
	assert.Equal(t, "id=- class=footer", got.Candidates[1].String())
}

func TestCandidates_Bounded(t *testing.T) {
	html := "<html><body>"
	for i := 0; i < 15; i++ {
		html += "<table><tr><td>x</td></tr></table>"
	}
	html += "</body></html>"

	assert.Len(t, Candidates(parse(t, html)), maxCandidates)
}

func TestHasNext(t *testing.T) {
	ex := New(AttendanceGrid, nil)
	doc := parse(t, attendancePage)

	assert.True(t, ex.HasNext(doc, 1))
	assert.True(t, ex.HasNext(doc, 2))
	assert.False(t, ex.HasNext(doc, 3))
	// the "..." link is not a page number
	assert.False(t, ex.HasNext(doc, 10))

	assert.False(t, ex.HasNext(parse(t, structurePage), 1))
	assert.False(t, ex.HasNext(parse(t, noGridPage), 1))
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, New(StatusGrid, nil).PageCount(parse(t, statusPage)))
	assert.Equal(t, 1, New(StatusGrid, nil).PageCount(parse(t, noGridPage)))
	assert.Equal(t, 3, New(AttendanceGrid, nil).PageCount(parse(t, attendancePage)))
}

func TestStatuses(t *testing.T) {
	ex := New(StatusGrid, nil)
	got := ex.Statuses(parse(t, statusPage))

	assert.Equal(t, "exact-id", got.Matcher)
	assert.Equal(t, []model.SubmittedStatusRecord{
		{Date: "2024/03/01", Status: "已核准", OvertimeMinutes: 100, ChangeMinutes: 0},
		{Date: "2024/03/04", Status: model.StatusUnknown, OvertimeMinutes: 0, ChangeMinutes: 30.5},
	}, got.Records)
	assert.Equal(t, 1, got.Skipped)
}

func TestStatuses_NoGrid(t *testing.T) {
	got := New(StatusGrid, nil).Statuses(parse(t, noGridPage))
	assert.False(t, got.Found())
	assert.Empty(t, got.Records)
	assert.Len(t, got.Candidates, 2)
}

func TestStatuses_HeaderOnly(t *testing.T) {
	html := `<table id="ContentPlaceHolder1_gvFlow211"><tr><th>加班日期</th></tr></table>`
	got := New(StatusGrid, nil).Statuses(parse(t, html))
	assert.True(t, got.Found())
	assert.Empty(t, got.Records)
}

func TestToken(t *testing.T) {
	tok, err := Token(parse(t, attendancePage))
	require.NoError(t, err)
	assert.Equal(t, "vs-page-1", tok.ViewState)
	assert.Equal(t, "A1B2C3D4", tok.ViewStateGenerator)
	assert.Equal(t, "ev-page-1", tok.EventValidation)
	assert.False(t, tok.Consumed())
}

func TestToken_OptionalFieldsDefaultEmpty(t *testing.T) {
	tok, err := Token(parse(t, fallbackPage))
	require.NoError(t, err)
	assert.Equal(t, "vs-fallback", tok.ViewState)
	assert.Empty(t, tok.ViewStateGenerator)
	assert.Empty(t, tok.EventValidation)
}

func TestToken_Missing(t *testing.T) {
	_, err := Token(parse(t, noGridPage))
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024/3/1", "2024/3/1"},
		{"\u00a02024/3/1\u00a0", "2024/3/1"},
		{"\u30002024/3/1", "2024/3/1"},
		{"08:00:00\u00a0~\u00a017:00:00", "08:00:00~17:00:00"},
		{"  \n\t", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in))
	}
}
