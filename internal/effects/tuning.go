package effects

import (
	"time"

	"github.com/smazurov/lightnode/internal/color"
)

// Tuning holds the visual constants of every effect. The display runner
// owns the value and effects read it through a pointer, so changes made on
// the runner goroutine apply from the next tick.
type Tuning struct {
	SolidColor color.RGB

	SparkleFade   float64
	SparklePasses int
	SparkleDots   int
	SparkleHold   time.Duration

	UndulatingColors [2]color.RGB
	UndulatingSteps  int
	UndulatingDelay  time.Duration

	CyclePoints    int
	CycleIncrement float64
	CycleRefill    int
	CycleDelay     time.Duration

	BootieIncrement float64
	BootieDelay     time.Duration

	StrobeColor color.RGB
	StrobeOn    time.Duration
	StrobeOff   time.Duration

	PalettePoints int
	PaletteStep   float64
	PaletteDelay  time.Duration
}

// DefaultTuning returns the reference values.
func DefaultTuning() Tuning {
	return Tuning{
		SolidColor: color.RGB{R: 77, G: 52, B: 25},

		SparkleFade:   0.65,
		SparklePasses: 35,
		SparkleDots:   10,
		SparkleHold:   500 * time.Millisecond,

		UndulatingColors: [2]color.RGB{{R: 255, B: 255}, {R: 255, G: 60}},
		UndulatingSteps:  25,
		UndulatingDelay:  20 * time.Millisecond,

		CyclePoints:    8,
		CycleIncrement: 0.002,
		CycleRefill:    5,
		CycleDelay:     20 * time.Millisecond,

		BootieIncrement: 0.0005,
		BootieDelay:     50 * time.Millisecond,

		StrobeColor: color.White,
		StrobeOn:    50 * time.Millisecond,
		StrobeOff:   100 * time.Millisecond,

		PalettePoints: 16,
		PaletteStep:   0.08,
		PaletteDelay:  5 * time.Millisecond,
	}
}

// Sanitize replaces values that would stall or break an effect with the
// defaults.
func (t *Tuning) Sanitize() {
	def := DefaultTuning()
	if t.SparkleFade < 0 || t.SparkleFade >= 1 {
		t.SparkleFade = def.SparkleFade
	}
	if t.SparklePasses <= 0 {
		t.SparklePasses = def.SparklePasses
	}
	if t.SparkleDots <= 0 {
		t.SparkleDots = def.SparkleDots
	}
	if t.UndulatingSteps <= 0 {
		t.UndulatingSteps = def.UndulatingSteps
	}
	if t.CyclePoints < 2 {
		t.CyclePoints = def.CyclePoints
	}
	if t.CycleIncrement <= 0 || t.CycleIncrement >= 1.0/float64(t.CyclePoints) {
		t.CycleIncrement = def.CycleIncrement
	}
	if t.CycleRefill <= 0 {
		t.CycleRefill = def.CycleRefill
	}
	if t.BootieIncrement <= 0 || t.BootieIncrement >= 0.5 {
		t.BootieIncrement = def.BootieIncrement
	}
	if t.PalettePoints < 1 {
		t.PalettePoints = def.PalettePoints
	}
	if t.PaletteStep <= 0 {
		t.PaletteStep = def.PaletteStep
	}
}
