package exporter

import (
	"fmt"
	"math"
)

// formatMark formats a mark for export with exactly 2 decimal places.
// A NaN mark (malformed feed cell) exports as an empty string rather than
// a fake number.
func formatMark(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return fmt.Sprintf("%.2f", f)
}

// formatRank formats a rank ordinal, empty when unassigned.
func formatRank(rank int) string {
	if rank <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", rank)
}
