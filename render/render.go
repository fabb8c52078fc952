package render

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/spiderviz-org/spiderviz/engine"
	"github.com/spiderviz-org/spiderviz/palette"
)

// ============================================================================
// RENDERER — radar snapshots on a fixed 0-5 scale
// ============================================================================
//
// Every push rebuilds the chart from scratch: a brand-new chart object,
// rendered to an HTML fragment, swapped in under a lock. No chart state
// survives a push, so there is never a half-updated chart to serve. The
// version counter increments on every swap; live clients compare versions
// to decide when to refresh.
// ============================================================================

const placeholderHTML = `<div class="spiderviz-empty">Waiting for data…</div>`

// Renderer holds the current chart snapshot and the one-time assets loader.
type Renderer struct {
	cfg    *config
	loader *assetLoader

	mu       sync.RWMutex
	snapshot []byte
	version  uint64
}

// New builds a renderer. The snapshot starts as a placeholder fragment at
// version 0.
func New(options ...Option) *Renderer {
	cfg := applyOptions(options)
	return &Renderer{
		cfg:      cfg,
		loader:   newAssetLoader(cfg.AssetsHost),
		snapshot: []byte(placeholderHTML),
	}
}

// Render rebuilds the chart snapshot from an aggregated radar. A radar
// without datasets swaps the placeholder back in. When the one-time assets
// load has failed, the error comes back unwrapped to ErrAssetsUnavailable
// and the snapshot is left untouched.
func (r *Renderer) Render(radar *engine.Radar) error {
	if radar == nil || radar.Empty() {
		r.swap([]byte(placeholderHTML))
		return nil
	}

	if err := r.loader.ensure(context.Background()); err != nil {
		return err
	}

	chart := r.buildChart(radar)

	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		return fmt.Errorf("radar render failed: %w", err)
	}

	r.swap(buf.Bytes())
	return nil
}

// Snapshot returns the current chart fragment and its version. The fragment
// is shared — callers serve it, they don't modify it.
func (r *Renderer) Snapshot() ([]byte, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot, r.version
}

// Version returns the current snapshot version without the fragment.
func (r *Renderer) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// EnsureAssets triggers the one-time charting library load. Calling it at
// bootstrap surfaces connectivity problems before the first push; renders
// call it implicitly otherwise.
func (r *Renderer) EnsureAssets(ctx context.Context) error {
	return r.loader.ensure(ctx)
}

// Script returns the fetched charting library for serving to the panel
// page, loading it first if needed.
func (r *Renderer) Script(ctx context.Context) ([]byte, error) {
	if err := r.loader.ensure(ctx); err != nil {
		return nil, err
	}
	return r.loader.script, nil
}

func (r *Renderer) swap(html []byte) {
	r.mu.Lock()
	r.snapshot = html
	r.version++
	r.mu.Unlock()
}

// ============================================================================
// CHART CONSTRUCTION
// ============================================================================

func (r *Renderer) buildChart(radar *engine.Radar) *charts.Radar {
	chart := charts.NewRadar()

	indicators := make([]*opts.Indicator, 0, len(radar.AxisLabels))
	for _, axis := range radar.AxisLabels {
		indicators = append(indicators, &opts.Indicator{Name: axis, Min: 0, Max: 5})
	}

	title := r.cfg.Title
	if title == "" {
		title = radar.Title
	}

	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  r.cfg.Width,
			Height: r.cfg.Height,
		}),
		charts.WithRadarComponentOpts(opts.RadarComponent{
			Indicator:   indicators,
			SplitNumber: 5,
			Shape:       "circle",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "top"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	}
	if title != "" {
		global = append(global, charts.WithTitleOpts(opts.Title{Title: title}))
	}
	chart.SetGlobalOptions(global...)

	for _, ds := range radar.Datasets {
		border, fill := ds.Border, ds.Fill
		if border == "" {
			// Hand-built radars arrive uncolored; assign from the label
			pair := palette.ColorFor(ds.Label, r.cfg.FillAlpha)
			border, fill = pair.Border, pair.Fill
		}

		chart.AddSeries(ds.Label, []opts.RadarData{{Name: ds.Label, Value: ds.Data}},
			charts.WithLineStyleOpts(opts.LineStyle{Color: border, Width: 2}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: fill, Opacity: 1}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: border}),
		)
	}

	chart.Renderer = newEmbedRender(chart, chart.Validate)
	return chart
}
