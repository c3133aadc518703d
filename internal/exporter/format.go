package exporter

import (
	"strconv"
)

// formatFloat formats a float64 with the fewest digits that round-trip.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatValue formats a numeric cell, empty when the value is missing.
func formatValue(f float64, ok bool) string {
	if !ok {
		return ""
	}
	return formatFloat(f)
}

// formatInt formats an int for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
