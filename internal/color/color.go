// Package color implements the color model shared by every effect: an 8-bit
// RGB triple, HSV conversion and palette generators.
//
// Colors are always kept in true RGB order. Any device specific channel
// reordering happens once, at the frame sink.
package color

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a color with 8-bit red, green and blue components.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Common colors.
var (
	Black = RGB{}
	White = RGB{255, 255, 255}
)

// Hex formats the color as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// IsBlack reports whether all components are zero.
func (c RGB) IsBlack() bool {
	return c == Black
}

// Scale multiplies every component by f, truncating like an integer cast.
// The result is clamped to [0,255].
func (c RGB) Scale(f float64) RGB {
	return RGB{
		R: clamp8(float64(c.R) * f),
		G: clamp8(float64(c.G) * f),
		B: clamp8(float64(c.B) * f),
	}
}

// Colorful converts to a go-colorful color with components in [0,1].
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// FromColorful converts a go-colorful color, clamping out of gamut values.
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return FromColorful(c), nil
}

// Lerp interpolates each component linearly from a to b. The result of each
// component is truncated toward zero and clamped.
func Lerp(a, b RGB, t float64) RGB {
	return RGB{
		R: clamp8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: clamp8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: clamp8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

// Blend mixes a and b in the perceptual HCL space. Used for previews where
// the exact truncating arithmetic of Lerp is not required.
func Blend(a, b RGB, t float64) RGB {
	return FromColorful(a.Colorful().BlendHcl(b.Colorful(), clamp01(t)))
}

// HSVToRGB converts hue, saturation and value, each in [0,1], to RGB.
// Hue wraps modulo 1.0; saturation and value are clamped.
func HSVToRGB(h, s, v float64) RGB {
	h -= math.Floor(h)
	s = clamp01(s)
	v = clamp01(v)

	scaled := h * 6.0
	sector := math.Floor(scaled)
	f := scaled - sector

	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	// h*6 can round up to exactly 6 for h just below 1.0, hence the modulo.
	var r, g, b float64
	switch int(sector) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}

	return RGB{R: clamp8(r * 255), G: clamp8(g * 255), B: clamp8(b * 255)}
}

// Hue returns the fully saturated, full value color for hue h.
func Hue(h float64) RGB {
	return HSVToRGB(h, 1, 1)
}

// RGBToHSV converts a color to hue, saturation and value in [0,1].
func RGBToHSV(c RGB) (h, s, v float64) {
	h, s, v = c.Colorful().Hsv()
	return h / 360.0, s, v
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return 1
	default:
		return v
	}
}

func clamp8(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
