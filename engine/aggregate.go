package engine

import (
	"log"
	"math"
	"time"

	"github.com/spiderviz-org/spiderviz/palette"
	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// AGGREGATOR — Table → Radar datasets
// ============================================================================
// Rows group by the first dimension's formatted value (tables without
// dimension fields collapse into a single "All" group). Each group's data
// is the per-metric mean over its rows. Group order is first-seen row
// order, so datasets stay stable across re-pushes of the same table.
// ============================================================================

// Aggregate turns a pushed table into a render-ready Radar.
// Invalid metric cells coerce to 0 and still count toward the mean's
// denominator. Rows short on metric cells contribute 0 for the missing
// positions (logged once per table). Values are not clamped — the 0-5
// axis scale is fixed at render time.
func Aggregate(tbl *table.Table, fillAlpha float64) *Radar {
	radar := &Radar{UpdatedAt: time.Now()}
	if tbl == nil {
		return radar
	}

	radar.Title = tbl.Name
	radar.AxisLabels = tbl.Fields.MetricNames()
	radar.RowCount = len(tbl.Rows)

	if len(tbl.Rows) == 0 {
		return radar
	}

	if err := tbl.Validate(); err != nil {
		log.Printf("⚠️ Spiderviz: %v — missing cells read as 0", err)
	}

	metricCount := len(tbl.Fields.Metrics)

	// Group rows, preserving first-seen key order
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i, row := range tbl.Rows {
		key := table.KeyOf(row)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	// One dataset per group: per-metric means
	radar.Datasets = make([]Dataset, 0, len(order))
	for _, key := range order {
		indices := grouped[key]
		sums := make([]float64, metricCount)

		for _, idx := range indices {
			row := tbl.Rows[idx]
			for m := 0; m < metricCount; m++ {
				if m < len(row.Metrics) {
					sums[m] += table.MetricNumber(row.Metrics[m])
				}
			}
		}

		data := make([]float64, metricCount)
		n := float64(len(indices))
		for m := range sums {
			data[m] = sums[m] / n
		}

		pair := palette.ColorFor(key, fillAlpha)
		radar.Datasets = append(radar.Datasets, Dataset{
			Label:  key,
			Data:   data,
			Border: pair.Border,
			Fill:   pair.Fill,
			R:      pair.R,
			G:      pair.G,
			B:      pair.B,
		})
	}

	return radar
}

// RoundTo2 rounds to 2 decimal places. Display layers round; the engine
// keeps means exact.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MaxValue returns the largest mean across all datasets, or 0 when empty.
func MaxValue(r *Radar) float64 {
	if r == nil {
		return 0
	}
	var m float64
	for _, ds := range r.Datasets {
		for _, v := range ds.Data {
			if v > m {
				m = v
			}
		}
	}
	return m
}
