package table

import (
	"encoding/json"
	"fmt"
	"math"
)

// ============================================================================
// TABLE — Typed data model for pushed tables
// ============================================================================
// Hosts push tables as field metadata plus rows. Dimension cells carry both
// a display string and the raw value; metric cells arrive untyped from the
// wire and go through MetricNumber before any arithmetic.
// ============================================================================

// Field is a named column reference. ID is the host's stable identifier;
// Name is the display label (and the radar axis label for metrics).
type Field struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Fields describes the shape of a table.
type Fields struct {
	Dimensions []Field `json:"dimensions"`
	Metrics    []Field `json:"metrics"`
}

// DimensionValue is a single dimension cell.
type DimensionValue struct {
	Formatted string `json:"formatted"`
	Raw       any    `json:"raw,omitempty"`
}

// Row is one data row. Metrics are positional, matching Fields.Metrics.
type Row struct {
	Dimensions []DimensionValue `json:"dimensions"`
	Metrics    []any            `json:"metrics"`
}

// Table is a complete pushed table.
type Table struct {
	Name   string `json:"name,omitempty"`
	Fields Fields `json:"fields"`
	Rows   []Row  `json:"rows"`
}

// ============================================================================
// COERCION — the single policy for untyped metric cells
// ============================================================================

// MetricNumber coerces an untyped metric cell to a float64.
// Numeric values pass through; everything else, including non-finite
// numbers, strings, booleans, and nil, coerces to 0. Total — never panics.
func MetricNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case float32:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ============================================================================
// GROUPING KEY
// ============================================================================

// KeyOf returns the grouping key for a row: the first dimension's formatted
// value. An empty formatted value falls back to the raw value's string form;
// a row with no dimension cells keys to "All".
func KeyOf(r Row) string {
	if len(r.Dimensions) == 0 {
		return "All"
	}
	d := r.Dimensions[0]
	if d.Formatted != "" {
		return d.Formatted
	}
	if d.Raw != nil {
		if s := fmt.Sprintf("%v", d.Raw); s != "" {
			return s
		}
	}
	return "All"
}

// ============================================================================
// FIELD ACCESSORS
// ============================================================================

// MetricNames returns metric display names in field order.
func (f Fields) MetricNames() []string {
	names := make([]string, len(f.Metrics))
	for i, m := range f.Metrics {
		names[i] = m.Name
	}
	return names
}

// DimensionNames returns dimension display names in field order.
func (f Fields) DimensionNames() []string {
	names := make([]string, len(f.Dimensions))
	for i, d := range f.Dimensions {
		names[i] = d.Name
	}
	return names
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate reports rows whose metric-cell count differs from the metric
// field count. Aggregation tolerates the mismatch (missing cells read as
// zero); callers use this to log a warning per table.
func (t *Table) Validate() error {
	want := len(t.Fields.Metrics)
	mismatched := 0
	for _, r := range t.Rows {
		if len(r.Metrics) != want {
			mismatched++
		}
	}
	if mismatched > 0 {
		return fmt.Errorf("%d of %d rows have metric arity != %d", mismatched, len(t.Rows), want)
	}
	return nil
}
