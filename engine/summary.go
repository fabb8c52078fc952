package engine

import (
	"fmt"
)

// ============================================================================
// SUMMARY BUILDER — Panel captions and log lines
// ============================================================================

// Describe builds the short panel caption: "2 series over 3 axes".
func Describe(r *Radar) string {
	if r.Empty() {
		return "No data"
	}
	return fmt.Sprintf("%s over %s",
		plural(len(r.Datasets), "series", "series"),
		plural(len(r.AxisLabels), "axis", "axes"))
}

// DescribeLong adds the row count, for logs and tooltips.
func DescribeLong(r *Radar) string {
	if r.Empty() {
		return "No data"
	}
	return fmt.Sprintf("%s from %s",
		Describe(r),
		plural(r.RowCount, "row", "rows"))
}

// RangeNote returns a footer note when any mean exceeds the fixed axis
// maximum, or "" when everything fits the 0-5 scale.
func RangeNote(r *Radar) string {
	if max := MaxValue(r); max > 5 {
		return fmt.Sprintf("values up to %.2f render clipped at 5", max)
	}
	return ""
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}
