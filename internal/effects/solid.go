package effects

import (
	"math"

	"github.com/smazurov/lightnode/internal/color"
)

// Solid fills the strip with one color. It draws once after Setup, SetColor
// or Nudge and then leaves the strip alone.
type Solid struct {
	tuning *Tuning
	color  color.RGB
	hue    float64
	dirty  bool
	nudges int
}

// NewSolid creates the solid effect with the tuned default color.
func NewSolid(t *Tuning) *Solid {
	s := &Solid{tuning: t, color: t.SolidColor}
	s.hue, _, _ = color.RGBToHSV(s.color)
	return s
}

func (s *Solid) Name() string { return "solid" }

func (s *Solid) Setup() { s.dirty = true }

func (s *Solid) Invalidate() { s.dirty = true }

// SetColor replaces the fill color immediately.
func (s *Solid) SetColor(c color.RGB) {
	s.color = c
	s.hue, _, _ = color.RGBToHSV(c)
	s.dirty = true
}

// Nudge jumps the hue forward by 0.1 to 0.2 of a turn. The jump is drawn
// from the frame's random source on the next render.
func (s *Solid) Nudge() {
	s.nudges++
	s.dirty = true
}

// Color returns the current fill color.
func (s *Solid) Color() color.RGB { return s.color }

func (s *Solid) Render(f Frame) error {
	if !s.dirty {
		return nil
	}
	for ; s.nudges > 0; s.nudges-- {
		s.hue = math.Mod(s.hue+0.1+f.Rand().Float64()*0.1, 1.0)
		s.color = color.Hue(s.hue)
	}

	Fill(f, s.color)
	if err := f.Show(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
