// Package palette assigns deterministic pastel colors to dataset labels.
// Colors come from the hsl colour space so every distinct label lands on a
// stable, distinct hue without any stored state.
package palette

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf16"
)

// ============================================================================
// COLOR ASSIGNER — label → pastel border/fill pair
// ============================================================================
// Hue is a rolling hash of the label's UTF-16 code units, mod 360.
// Saturation and lightness are fixed in the pastel band. The border alpha
// is fixed at 0.9; fill alpha is the caller's.
// ============================================================================

const (
	saturation  = 0.55
	lightness   = 0.68
	borderAlpha = "0.9"
)

// DefaultFillAlpha is the fill opacity used when the caller does not pick
// one. Borders keep their fixed alpha regardless.
const DefaultFillAlpha = 0.2

// Pair is the color assignment for one dataset label.
// Border and Fill share the same RGB channels and differ only in alpha.
type Pair struct {
	R, G, B uint8
	Border  string
	Fill    string
}

// ColorFor returns the color pair for a label. Same label, same pair —
// regardless of fillAlpha, the RGB channels and Border never change.
func ColorFor(label string, fillAlpha float64) Pair {
	hue := float64(hashLabel(label) % 360)
	r, g, b := hslToRGB(hue, saturation, lightness)

	return Pair{
		R:      r,
		G:      g,
		B:      b,
		Border: fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, borderAlpha),
		Fill:   fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, formatAlpha(fillAlpha)),
	}
}

// hashLabel is a multiplicative rolling hash over the label's UTF-16 code
// units. Surrogate pairs contribute two units, so astral characters hash
// the same way the wire's string encoding sees them. uint32 wraparound
// keeps the result non-negative.
func hashLabel(label string) uint32 {
	var h uint32
	for _, u := range utf16.Encode([]rune(label)) {
		h = h*31 + uint32(u)
	}
	return h
}

// hslToRGB converts an HSL color (hue in degrees, s/l in [0,1]) to 8-bit
// RGB channels using the standard six-sector conversion.
func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return channel(r + m), channel(g + m), channel(b + m)
}

func channel(v float64) uint8 {
	n := math.Round(v * 255)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// formatAlpha renders an alpha value minimally: 0.35 → "0.35", 1 → "1".
func formatAlpha(a float64) string {
	return strconv.FormatFloat(a, 'g', -1, 64)
}
