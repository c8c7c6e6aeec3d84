package effects

import (
	"math"

	"github.com/smazurov/lightnode/internal/color"
)

// darkPhase is the phase where the pulse reaches zero brightness.
const darkPhase = 0.75

// BootieCall pulses a single hue slowly. Requested colors are adopted only
// on the step that crosses the dark point of the pulse, so the change never
// shows as a jump; without a request a new random hue is chosen there. The
// crossing is detected whatever the increment, once per pulse.
type BootieCall struct {
	tuning  *Tuning
	hue     float64
	phase   float64
	pending *color.RGB
}

// NewBootieCall creates the pulse effect.
func NewBootieCall(t *Tuning) *BootieCall {
	return &BootieCall{tuning: t}
}

func (b *BootieCall) Name() string { return "bootie call" }

func (b *BootieCall) Setup() {
	b.hue = 0
	b.phase = 0
	b.pending = nil
}

// SetColor queues c for the next dark point of the pulse.
func (b *BootieCall) SetColor(c color.RGB) {
	b.pending = &c
}

// Hue returns the hue being pulsed.
func (b *BootieCall) Hue() float64 { return b.hue }

// Value returns the pulse brightness for the current phase.
func (b *BootieCall) Value() float64 {
	return (math.Sin(b.phase*2*math.Pi) + 1) / 3
}

func (b *BootieCall) Render(f Frame) error {
	Fill(f, color.HSVToRGB(b.hue, 1, b.Value()))
	if err := f.Show(); err != nil {
		return err
	}
	if !f.Pause(b.tuning.BootieDelay) {
		return nil
	}

	next := b.phase + b.tuning.BootieIncrement
	if b.phase <= darkPhase && next > darkPhase {
		if b.pending != nil {
			b.hue, _, _ = color.RGBToHSV(*b.pending)
			b.pending = nil
		} else {
			b.hue = f.Rand().Float64()
		}
	}
	if next >= 1 {
		next -= 1
	}
	b.phase = next
	return nil
}
