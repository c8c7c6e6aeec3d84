package effects

import "github.com/smazurov/lightnode/internal/color"

// Strobe flashes the whole strip with StrobeColor for StrobeOn, then holds
// it dark for StrobeOff.
type Strobe struct {
	tuning *Tuning
}

// NewStrobe creates the strobe effect.
func NewStrobe(t *Tuning) *Strobe {
	return &Strobe{tuning: t}
}

func (s *Strobe) Name() string { return "strobe" }

func (s *Strobe) Setup() {}

// SetColor is ignored; the flash color is a tuning value.
func (s *Strobe) SetColor(color.RGB) {}

func (s *Strobe) Render(f Frame) error {
	Fill(f, s.tuning.StrobeColor)
	if err := f.Show(); err != nil {
		return err
	}
	if !f.Pause(s.tuning.StrobeOn) {
		return nil
	}

	Fill(f, color.Black)
	if err := f.Show(); err != nil {
		return err
	}
	f.Pause(s.tuning.StrobeOff)
	return nil
}
