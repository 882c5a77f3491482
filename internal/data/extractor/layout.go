// Package extractor locates the portal's data grids inside a rendered page
// and turns their rows into records. Every function is pure over the
// document it is given; nothing is fetched here.
package extractor

// GridLayout names the markup landmarks of one server-rendered grid.
// Empty fields disable the matcher or check that would use them.
type GridLayout struct {
	Name string

	// Scope narrows the id and structure matchers when it matches.
	Scope string

	TableID      string
	IDFragment   string
	CellSpacing  string
	CellPadding  string
	Rules        string
	HeaderPhrase string

	DataRowClass string
	PagerClass   string
	// MinCells is the fewest cells a data row may have.
	MinCells int

	// EventTarget is the postback target that pages this grid.
	EventTarget string

	DateFragment string
	TimeFragment string
}

// AttendanceGrid is the punch history grid on the attendance page.
var AttendanceGrid = GridLayout{
	Name:         "attendance",
	Scope:        "div#tabs-2",
	TableID:      "ContentPlaceHolder1_gvWeb012",
	IDFragment:   "gvWeb012",
	CellSpacing:  "0",
	CellPadding:  "3",
	Rules:        "rows",
	HeaderPhrase: "出勤日期",
	DataRowClass: "RowStyle",
	PagerClass:   "PagerStyle",
	MinCells:     3,
	EventTarget:  "ctl00$ContentPlaceHolder1$gvWeb012",
	DateFragment: "lblWork_Date",
	TimeFragment: "lblCard_Time",
}

// StatusGrid is the overtime approval grid.
var StatusGrid = GridLayout{
	Name:        "status",
	TableID:     "ContentPlaceHolder1_gvFlow211",
	IDFragment:  "gvFlow211",
	PagerClass:  "FlowPagerStyle",
	EventTarget: "ctl00$ContentPlaceHolder1$gvFlow211",
}
