package effects

import (
	"math"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/gradient"
)

// Undulating renders a four-stop gradient whose inner band swings back and
// forth. Even channels move one way, odd channels the other.
type Undulating struct {
	tuning *Tuning
	colors [2]color.RGB
	slot   int
	phase  float64
}

// NewUndulating creates the undulating effect with the tuned colors.
func NewUndulating(t *Tuning) *Undulating {
	return &Undulating{tuning: t, colors: t.UndulatingColors}
}

func (u *Undulating) Name() string { return "undulating colors" }

func (u *Undulating) Setup() {
	u.slot = 0
	u.phase = 0
}

// SetColor overwrites the older of the two colors.
func (u *Undulating) SetColor(c color.RGB) {
	u.colors[u.slot] = c
	u.slot = (u.slot + 1) % len(u.colors)
}

// Colors returns the edge and band colors.
func (u *Undulating) Colors() [2]color.RGB { return u.colors }

func (u *Undulating) stops(jitter float64) gradient.Palette {
	edge, band := u.colors[0], u.colors[1]
	return gradient.Palette{
		{Pos: 0, Color: edge},
		{Pos: 0.45 + jitter, Color: band},
		{Pos: 0.65 + jitter, Color: band},
		{Pos: 1, Color: edge},
	}
}

func (u *Undulating) Render(f Frame) error {
	jitter := math.Sin(u.phase*2*math.Pi) / 4

	gap := renderChannels(f, func(ch int) *gradient.Gradient {
		if ch%2 == 1 {
			return gradient.New(u.stops(-jitter))
		}
		return gradient.New(u.stops(jitter))
	})
	if err := f.Show(); err != nil {
		return err
	}

	u.phase += 1.0 / float64(u.tuning.UndulatingSteps)
	if u.phase > 1.0 {
		u.phase = 0
	}

	f.Pause(u.tuning.UndulatingDelay)
	return gap
}
