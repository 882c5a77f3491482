package util

import (
	"fmt"
	"strconv"
	"time"
)

// FormatHours renders an hour figure with one decimal.
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 1, 64)
}

// FormatMinutes renders a minute figure, dropping a zero fraction.
func FormatMinutes(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
