package utils

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds as H:MM:SS when there are hours, else M:SS
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatViews renders a view count the way the listing cards show it
func FormatViews(views int64) string {
	switch {
	case views >= 1000000:
		return fmt.Sprintf("%.1fM views", math.Round(float64(views)/100000)/10)
	case views >= 1000:
		return fmt.Sprintf("%dK views", int64(math.Round(float64(views)/1000)))
	default:
		return fmt.Sprintf("%d views", views)
	}
}
