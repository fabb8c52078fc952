package engine

import (
	"time"
)

// ============================================================================
// ENGINE TYPES — Render-Ready Radar Output
// ============================================================================
// The engine turns a pushed table into a Radar: one dataset per group of
// rows, one axis per metric field. Colors are assigned here so every
// renderer (chart page, JSON config, PNG export) draws the same series in
// the same color.
// ============================================================================

// Dataset is one radar series: a labeled group of per-metric means.
// Border and Fill are rgba strings sharing the same channels; the raw
// channels ride along for renderers that need numeric color values.
type Dataset struct {
	Label  string    `json:"label"`
	Data   []float64 `json:"data"`
	Border string    `json:"borderColor"`
	Fill   string    `json:"backgroundColor"`

	R uint8 `json:"-"`
	G uint8 `json:"-"`
	B uint8 `json:"-"`
}

// Radar is the engine's render-ready output for one pushed table.
type Radar struct {
	Title      string    `json:"title,omitempty"`
	AxisLabels []string  `json:"axisLabels"`
	Datasets   []Dataset `json:"datasets"`
	RowCount   int       `json:"rowCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Empty reports whether the radar has nothing to draw.
func (r *Radar) Empty() bool {
	return r == nil || len(r.Datasets) == 0
}
