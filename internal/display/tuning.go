package display

import (
	"time"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/effects"
)

// Tuning holds the controller's pacing and fade constants together with the
// tuning of every effect.
type Tuning struct {
	// InitialBrightness is the level the first power-on fades up to.
	InitialBrightness int
	// FadeUpStep and FadeDownStep are the brightness increments of the
	// power-on and power-off step-fades.
	FadeUpStep   int
	FadeDownStep int
	// FadeDelay separates two committed frames of a step-fade.
	FadeDelay time.Duration
	// BrightnessStep is the delta of BrightnessUp and BrightnessDown.
	BrightnessStep int
	// PollInterval bounds how long a pause sleeps before it checks for
	// queued commands.
	PollInterval time.Duration
	// FrameInterval is the idle gap the runner leaves between two ticks.
	FrameInterval time.Duration

	IntroDots   int
	IntroDelay  time.Duration
	IntroColors [2]color.RGB

	Effects effects.Tuning
}

// DefaultTuning returns the reference values.
func DefaultTuning() Tuning {
	return Tuning{
		InitialBrightness: 30,
		FadeUpStep:        10,
		FadeDownStep:      5,
		FadeDelay:         10 * time.Millisecond,
		BrightnessStep:    10,
		PollInterval:      50 * time.Millisecond,
		FrameInterval:     time.Millisecond,

		IntroDots:   100,
		IntroDelay:  2 * time.Millisecond,
		IntroColors: [2]color.RGB{{R: 128, B: 128}, {R: 128, G: 30}},

		Effects: effects.DefaultTuning(),
	}
}

// Sanitize replaces values that would stall the controller with the
// defaults and sanitizes the effect tuning.
func (t *Tuning) Sanitize() {
	def := DefaultTuning()
	if t.InitialBrightness <= 0 || t.InitialBrightness > 100 {
		t.InitialBrightness = def.InitialBrightness
	}
	if t.FadeUpStep <= 0 {
		t.FadeUpStep = def.FadeUpStep
	}
	if t.FadeDownStep <= 0 {
		t.FadeDownStep = def.FadeDownStep
	}
	if t.BrightnessStep <= 0 || t.BrightnessStep > 100 {
		t.BrightnessStep = def.BrightnessStep
	}
	if t.PollInterval <= 0 {
		t.PollInterval = def.PollInterval
	}
	if t.FadeDelay < 0 {
		t.FadeDelay = 0
	}
	if t.FrameInterval < 0 {
		t.FrameInterval = 0
	}
	if t.IntroDots < 0 {
		t.IntroDots = 0
	}
	t.Effects.Sanitize()
}
