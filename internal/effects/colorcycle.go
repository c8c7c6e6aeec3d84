package effects

import (
	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/gradient"
)

// ColorCycle scrolls a window of evenly spaced stops along the strip. When
// the first stop moves past 0 a new stop is inserted one spacing behind it,
// and stops that have left the far end are dropped, so the window always
// covers [0,1]. Colors come from a rotating palette source that is replaced
// after CycleRefill insertions.
type ColorCycle struct {
	tuning     *Tuning
	stops      gradient.Palette
	source     []color.RGB
	insertions int
}

// NewColorCycle creates the color cycle effect.
func NewColorCycle(t *Tuning) *ColorCycle {
	return &ColorCycle{tuning: t}
}

func (c *ColorCycle) Name() string { return "colorcycle" }

// Setup discards the window; the first Render rebuilds it.
func (c *ColorCycle) Setup() {
	c.stops = nil
	c.source = nil
	c.insertions = 0
}

// SetColor is ignored; colors come from the palette source.
func (c *ColorCycle) SetColor(color.RGB) {}

// Stops returns the current window.
func (c *ColorCycle) Stops() gradient.Palette { return c.stops }

func (c *ColorCycle) spacing() float64 {
	return 1.0 / float64(c.tuning.CyclePoints)
}

func (c *ColorCycle) nextColor(f Frame) color.RGB {
	if len(c.source) == 0 {
		c.source = color.RandomPalette(f.Rand())
	}
	next := c.source[0]
	c.source = c.source[1:]
	return next
}

func (c *ColorCycle) build(f Frame) {
	spacing := c.spacing()
	c.stops = make(gradient.Palette, 0, c.tuning.CyclePoints+2)
	for i := range c.tuning.CyclePoints {
		c.stops = append(c.stops, gradient.Stop{Pos: float64(i) * spacing, Color: c.nextColor(f)})
	}
	c.stops = append(c.stops, gradient.Stop{Pos: 1, Color: c.nextColor(f)})
}

// advance moves the window forward by one increment.
func (c *ColorCycle) advance(f Frame) {
	for i := range c.stops {
		c.stops[i].Pos += c.tuning.CycleIncrement
	}

	if c.stops[0].Pos > 0 {
		stop := gradient.Stop{Pos: c.stops[0].Pos - c.spacing(), Color: c.nextColor(f)}
		c.stops = append(gradient.Palette{stop}, c.stops...)

		c.insertions++
		if c.insertions >= c.tuning.CycleRefill {
			c.source = nil
			c.insertions = 0
		}
	}

	for len(c.stops) > 2 && c.stops[len(c.stops)-2].Pos >= 1 {
		c.stops = c.stops[:len(c.stops)-1]
	}
}

func (c *ColorCycle) Render(f Frame) error {
	if len(c.stops) < 2 {
		c.build(f)
	}

	g := gradient.New(c.stops)
	gap := renderChannels(f, func(int) *gradient.Gradient { return g })
	if err := f.Show(); err != nil {
		return err
	}

	c.advance(f)
	f.Pause(c.tuning.CycleDelay)
	return gap
}
