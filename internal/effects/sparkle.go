package effects

import (
	"github.com/smazurov/lightnode/internal/color"
)

// Sparkle lights random pixels from a fresh palette and lets them decay.
// One Render is a full pass of SparklePasses sub-steps; each sub-step lights
// SparkleDots pixels per channel, shows, holds and fades every pixel.
type Sparkle struct {
	tuning *Tuning
}

// NewSparkle creates the sparkle effect.
func NewSparkle(t *Tuning) *Sparkle {
	return &Sparkle{tuning: t}
}

func (s *Sparkle) Name() string { return "sparkle" }

func (s *Sparkle) Setup() {}

// SetColor is ignored; the palette is random.
func (s *Sparkle) SetColor(color.RGB) {}

func (s *Sparkle) Render(f Frame) error {
	rng := f.Rand()
	palette := color.RandomPalette(rng)
	n := f.Len()
	if n == 0 {
		return nil
	}

	for range s.tuning.SparklePasses {
		for range s.tuning.SparkleDots {
			for ch := range f.Channels() {
				f.Pixels(ch)[rng.IntN(n)] = palette[rng.IntN(len(palette))]
			}
		}

		if err := f.Show(); err != nil {
			return err
		}
		if !f.Pause(s.tuning.SparkleHold) {
			return nil
		}
		Fade(f, s.tuning.SparkleFade)
	}
	return nil
}
