package panel

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spiderviz-org/spiderviz/engine"
)

// ============================================================================
// PNG EXPORT — raster fallback for reports and chat embeds
// ============================================================================
// The raster library has no radar shape, so the export draws the radar as a
// profile chart: the metric axes left to right, one line per dataset, the
// same fixed 0-5 scale and palette colors as the live chart.
// ============================================================================

func (a *App) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	radar := a.latestRadar()
	if radar.Empty() {
		http.Error(w, "no data to export", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := WriteRadarPNG(w, radar, a.cfg.fillAlpha(), a.cfg.Title); err != nil {
		log.Printf("⚠️ Spiderviz: PNG export failed: %v", err)
	}
}

// WriteRadarPNG renders the profile chart. title overrides the radar's own
// when non-empty, matching the live chart's precedence.
func WriteRadarPNG(w io.Writer, r *engine.Radar, fillAlpha float64, title string) error {
	if r.Empty() {
		return errors.New("no data to export")
	}
	if title == "" {
		title = r.Title
	}

	n := len(r.AxisLabels)
	xs := make([]float64, n)
	xTicks := make([]chart.Tick, 0, n+1)
	for i, name := range r.AxisLabels {
		xs[i] = float64(i)
		xTicks = append(xTicks, chart.Tick{Value: float64(i), Label: name})
	}
	xRange := &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5}
	if n == 1 {
		// The axis layout needs a second tick to size itself.
		xTicks = append(xTicks, chart.Tick{Value: 1, Label: ""})
		xRange.Max = 1.5
	}

	series := make([]chart.Series, 0, len(r.Datasets))
	for _, ds := range r.Datasets {
		col := drawing.Color{R: ds.R, G: ds.G, B: ds.B, A: 230}
		ys := make([]float64, n)
		for i := range ys {
			if i < len(ds.Data) {
				ys[i] = engine.RoundTo2(ds.Data[i])
			}
		}
		series = append(series, chart.ContinuousSeries{
			Name:    ds.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    3,
				FillColor:   col.WithAlpha(alphaByte(fillAlpha)),
			},
		})
	}

	ch := chart.Chart{
		Title:      title,
		Width:      720,
		Height:     480,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 28}},
		XAxis:      chart.XAxis{Ticks: xTicks, Range: xRange},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: 5}, Ticks: scaleTicks()},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// scaleTicks returns the fixed 0-5 integer ticks.
func scaleTicks() []chart.Tick {
	ticks := make([]chart.Tick, 0, 6)
	for v := 0; v <= 5; v++ {
		ticks = append(ticks, chart.Tick{Value: float64(v), Label: strconv.Itoa(v)})
	}
	return ticks
}

func alphaByte(alpha float64) uint8 {
	if alpha <= 0 {
		return 0
	}
	if alpha >= 1 {
		return 255
	}
	return uint8(alpha * 255)
}
