package schema

import (
	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// SCHEMA — Describes the shape of a preview dataset
// ============================================================================
// Live tables arrive from the host feed already shaped. File-based preview
// sources (CSV, workbook sheets) have no shape metadata, so discovery
// classifies their columns into dimensions and metrics before a table is
// built. The first dimension becomes the grouping key; metrics become the
// radar axes.
// ============================================================================

// Config describes the classified shape of a preview dataset.
type Config struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Metrics    []MetricMeta    `json:"metrics"`

	// Discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty"`

	// Columns skipped during discovery
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty"`
}

// DimensionMeta describes a string column used for grouping.
type DimensionMeta struct {
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	SampleValues    []string `json:"sampleValues"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// MetricMeta describes a numeric column rendered as a radar axis.
// FitsScale reports whether every sampled value landed inside the panel's
// fixed 0-5 axis range; out-of-range metrics still render, clipped.
type MetricMeta struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"displayName"`
	FitsScale   bool    `json:"fitsScale"`
	MinSeen     float64 `json:"minSeen"`
	MaxSeen     float64 `json:"maxSeen"`
}

// SkippedColumn records why a column was excluded during discovery.
type SkippedColumn struct {
	Column      string `json:"column"`
	Reason      string `json:"reason"`
	Recoverable bool   `json:"recoverable"`
}

// Fields converts the classification into table field metadata, preserving
// column order. This is the bridge between preview files and the engine.
func (c Config) Fields() table.Fields {
	f := table.Fields{
		Dimensions: make([]table.Field, len(c.Dimensions)),
		Metrics:    make([]table.Field, len(c.Metrics)),
	}
	for i, d := range c.Dimensions {
		f.Dimensions[i] = table.Field{ID: d.Key, Name: d.DisplayName}
	}
	for i, m := range c.Metrics {
		f.Metrics[i] = table.Field{ID: m.Key, Name: m.DisplayName}
	}
	return f
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MetricKeys returns all metric keys.
func (c Config) MetricKeys() []string {
	keys := make([]string, len(c.Metrics))
	for i, m := range c.Metrics {
		keys[i] = m.Key
	}
	return keys
}
