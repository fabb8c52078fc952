package engine

// ============================================================================
// CHART CONFIG BUILDER — Radar → client-side chart config
// ============================================================================
// Hosts that render client-side consume this dialect from /datasets.json:
// labels + datasets with rgba background/border colors, plus the fixed
// radial scale the panel itself uses (0-5, integer ticks, circular grid,
// legend above, tooltips on, slight line curvature).
// ============================================================================

// ChartJSConfig builds a complete chart configuration map from a Radar.
// Returns nil when there is nothing to draw.
func ChartJSConfig(r *Radar) map[string]any {
	if r.Empty() {
		return nil
	}

	datasets := make([]map[string]any, 0, len(r.Datasets))
	for _, ds := range r.Datasets {
		data := make([]float64, len(ds.Data))
		for i, v := range ds.Data {
			data[i] = RoundTo2(v)
		}
		datasets = append(datasets, map[string]any{
			"label":           ds.Label,
			"data":            data,
			"backgroundColor": ds.Fill,
			"borderColor":     ds.Border,
			"borderWidth":     2,
		})
	}

	return map[string]any{
		"type": "radar",
		"data": map[string]any{
			"labels":   r.AxisLabels,
			"datasets": datasets,
		},
		"options": map[string]any{
			"responsive": true,
			"scales": map[string]any{
				"r": map[string]any{
					"min":   0,
					"max":   5,
					"ticks": map[string]any{"stepSize": 1},
					"grid":  map[string]any{"circular": true},
				},
			},
			"plugins": map[string]any{
				"legend":  map[string]any{"position": "top"},
				"tooltip": map[string]any{"enabled": true},
			},
			"elements": map[string]any{
				"line": map[string]any{"tension": 0.1},
			},
		},
	}
}
