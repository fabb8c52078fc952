package render

import (
	"github.com/spiderviz-org/spiderviz/palette"
)

// ============================================================================
// RENDERER OPTIONS — Functional options for New()
// ============================================================================

// Option configures renderer behavior via functional options pattern.
type Option func(*config)

type config struct {
	Title      string  // chart title (empty → use the table's name)
	Width      string  // CSS width of the chart container
	Height     string  // CSS height of the chart container
	AssetsHost string  // base URL the charting library is fetched from
	FillAlpha  float64 // fill opacity for datasets arriving without colors
}

// WithTitle overrides the chart title. When unset, each render takes the
// title from the pushed table's name.
func WithTitle(title string) Option {
	return func(c *config) {
		c.Title = title
	}
}

// WithSize sets the chart container dimensions as CSS lengths
// (e.g., "800px", "100%").
func WithSize(width, height string) Option {
	return func(c *config) {
		c.Width = width
		c.Height = height
	}
}

// WithAssetsHost points the one-time library load at a different host.
// The URL must end with a slash.
func WithAssetsHost(host string) Option {
	return func(c *config) {
		c.AssetsHost = host
	}
}

// WithFillAlpha sets the fill opacity used when a dataset carries no
// preassigned colors.
func WithFillAlpha(alpha float64) Option {
	return func(c *config) {
		c.FillAlpha = alpha
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Width:      "600px",
		Height:     "460px",
		AssetsHost: DefaultAssetsHost,
		FillAlpha:  palette.DefaultFillAlpha,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
