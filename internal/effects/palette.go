package effects

import (
	"math"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/gradient"
)

// StaticPalette spreads PalettePoints analogous colors evenly over the strip,
// closes the loop with a copy of the first color at 1.0, and then breathes
// by oscillating the gradient's scale and offset.
type StaticPalette struct {
	tuning *Tuning
	stops  gradient.Palette
	t      float64
	scale  float64
	offset float64
}

// NewStaticPalette creates the static palette effect.
func NewStaticPalette(t *Tuning) *StaticPalette {
	return &StaticPalette{tuning: t}
}

func (p *StaticPalette) Name() string { return "test" }

// Setup discards the palette; the first Render draws a new one.
func (p *StaticPalette) Setup() {
	p.stops = nil
	p.t = 0
	p.scale = 1
	p.offset = 0
}

// SetColor is ignored.
func (p *StaticPalette) SetColor(color.RGB) {}

func (p *StaticPalette) build(f Frame) {
	n := p.tuning.PalettePoints
	spacing := 1.0 / float64(n)

	var source []color.RGB
	p.stops = make(gradient.Palette, 0, n+1)
	for i := range n {
		if len(source) == 0 {
			source = color.MakePalette(color.Analogous, f.Rand().Float64(), f.Rand().Float64()*color.MaxAnalogousSpread)
		}
		p.stops = append(p.stops, gradient.Stop{Pos: float64(i) * spacing, Color: source[0]})
		source = source[1:]
	}
	p.stops = append(p.stops, gradient.Stop{Pos: 1, Color: p.stops[0].Color})
}

func (p *StaticPalette) Render(f Frame) error {
	if p.stops == nil {
		p.build(f)
	}

	g := &gradient.Gradient{Stops: p.stops, Scale: p.scale, Offset: p.offset}
	gap := renderChannels(f, func(int) *gradient.Gradient { return g })
	if err := f.Show(); err != nil {
		return err
	}

	p.t += p.tuning.PaletteStep
	p.scale = 2 + math.Sin(p.t)
	p.offset = 0.5 + math.Cos(p.t)/4

	f.Pause(p.tuning.PaletteDelay)
	return gap
}
