package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// GetDisplayWidth returns the terminal column width of text. Portal status
// labels are CJK and occupy two columns per rune.
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadString pads s with spaces to the given display width.
func PadString(s string, width int, leftAlign bool) string {
	actual := GetDisplayWidth(s)
	if actual >= width {
		return s
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// Truncate shortens s to at most width display columns, appending an
// ellipsis when it cut something.
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

// CenterText centers text within the given display width
func CenterText(text string, width int) string {
	w := GetDisplayWidth(text)
	if w >= width {
		return text
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-left-w)
}
