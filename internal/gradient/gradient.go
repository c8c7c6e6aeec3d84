// Package gradient maps a sequence of (position, color) stops onto a strip of
// discrete LEDs by piecewise-linear interpolation.
package gradient

import (
	"errors"
	"fmt"
	"math"

	"github.com/smazurov/lightnode/internal/color"
)

var (
	// ErrTooFewStops is returned when a palette has fewer than two stops.
	ErrTooFewStops = errors.New("gradient needs at least two stops")
	// ErrUnsortedStops is returned when stop positions decrease.
	ErrUnsortedStops = errors.New("gradient stop positions must be non-decreasing")
	// ErrRenderGap is returned when an LED position falls outside the range
	// covered by the stops. Animations that slide stops must insert a
	// wrap-around stop before that happens or accept the error for the frame.
	ErrRenderGap = errors.New("no gradient segment covers position")
)

// Stop is a control point of a gradient.
type Stop struct {
	Pos   float64   `json:"pos"`
	Color color.RGB `json:"color"`
}

// Palette is an ordered list of stops.
type Palette []Stop

// Validate checks the stop count and ordering.
func (p Palette) Validate() error {
	if len(p) < 2 {
		return ErrTooFewStops
	}
	for i := 1; i < len(p); i++ {
		if p[i].Pos < p[i-1].Pos {
			return fmt.Errorf("%w: stop %d at %.4f after %.4f", ErrUnsortedStops, i, p[i].Pos, p[i-1].Pos)
		}
	}
	return nil
}

// At returns the color at position pos.
func (p Palette) At(pos float64) (color.RGB, error) {
	if len(p) < 2 {
		return color.RGB{}, ErrTooFewStops
	}
	if pos < p[0].Pos {
		return color.RGB{}, fmt.Errorf("%w: %.4f below first stop %.4f", ErrRenderGap, pos, p[0].Pos)
	}

	// The first stop only anchors the first segment; the search starts at 1.
	for k := 1; k < len(p); k++ {
		if p[k].Pos < pos {
			continue
		}
		begin, end := p[k-1], p[k]
		width := end.Pos - begin.Pos
		if width <= 0 {
			return end.Color, nil
		}
		return color.Lerp(begin.Color, end.Color, (pos-begin.Pos)/width), nil
	}

	return color.RGB{}, fmt.Errorf("%w: %.4f beyond last stop %.4f", ErrRenderGap, pos, p[len(p)-1].Pos)
}

// Gradient renders a palette with optional scale and offset.
//
// Scale stretches the position axis around 0.5; values above 1 zoom in.
// Offset phase-shifts the axis and wraps modulo 1.0. A zero Scale means 1.
type Gradient struct {
	Stops  Palette
	Scale  float64
	Offset float64
}

// New returns a gradient over stops with unit scale and no offset.
func New(stops Palette) *Gradient {
	return &Gradient{Stops: stops, Scale: 1}
}

// position maps the normalized LED offset through scale and offset.
func (g *Gradient) position(p float64) float64 {
	scale := g.Scale
	if scale == 0 {
		scale = 1
	}
	p = (p-0.5)/scale + 0.5

	if g.Offset != 0 {
		p += g.Offset
		if p < 0 || p > 1 {
			p -= math.Floor(p)
		}
	}
	return p
}

// Render fills dst. LED i sits at i/(len(dst)-1); a single LED sits at 0.
// On error dst is left untouched.
func (g *Gradient) Render(dst []color.RGB) error {
	if err := g.Stops.Validate(); err != nil {
		return err
	}

	n := len(dst)
	scratch := make([]color.RGB, n)
	for i := range scratch {
		offset := 0.0
		if n > 1 {
			offset = float64(i) / float64(n-1)
		}
		c, err := g.Stops.At(g.position(offset))
		if err != nil {
			return fmt.Errorf("led %d: %w", i, err)
		}
		scratch[i] = c
	}

	copy(dst, scratch)
	return nil
}

// RenderAll renders the same gradient into every buffer. Buffers rendered
// before a failing one keep their new content.
func (g *Gradient) RenderAll(dsts ...[]color.RGB) error {
	for ch, dst := range dsts {
		if err := g.Render(dst); err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
	}
	return nil
}
