package color

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// PaletteKind selects a color-theory palette generator.
type PaletteKind int

// Palette kinds.
const (
	Complementary PaletteKind = iota
	Triad
	Analogous
)

// MaxAnalogousSpread bounds the hue step between analogous colors.
const MaxAnalogousSpread = 1.0 / 8.0

func (k PaletteKind) String() string {
	switch k {
	case Complementary:
		return "complementary"
	case Triad:
		return "triad"
	case Analogous:
		return "analogous"
	default:
		return fmt.Sprintf("PaletteKind(%d)", int(k))
	}
}

// ParsePaletteKind is the inverse of PaletteKind.String.
func ParsePaletteKind(s string) (PaletteKind, error) {
	switch s {
	case "complementary":
		return Complementary, nil
	case "triad":
		return Triad, nil
	case "analogous":
		return Analogous, nil
	default:
		return 0, fmt.Errorf("unknown palette kind %q", s)
	}
}

// PaletteHues returns the hues of the palette kind for seed in [0,1).
//
// Complementary yields two hues half a turn apart, Triad three hues a third
// of a turn apart. Analogous yields five hues: a base hue and two steps of
// jitter on either side of it. Jitter is clamped to [0, MaxAnalogousSpread]
// and ignored by the other kinds.
func PaletteHues(kind PaletteKind, seed, jitter float64) []float64 {
	seed -= math.Floor(seed)

	switch kind {
	case Complementary:
		base := seed / 2.0
		return []float64{base, wrap(base + 0.5)}
	case Triad:
		base := seed / 3.0
		return []float64{base, wrap(base + 1.0/3.0), wrap(base + 2.0/3.0)}
	case Analogous:
		spread := math.Max(0, math.Min(jitter, MaxAnalogousSpread))
		return AnalogousHues(seed/2.0, spread)
	default:
		return []float64{seed}
	}
}

// AnalogousHues returns base, base-spread, base-2*spread, base+spread and
// base+2*spread, all modulo 1.0.
func AnalogousHues(base, spread float64) []float64 {
	return []float64{
		wrap(base),
		wrap(base - spread),
		wrap(base - 2*spread),
		wrap(base + spread),
		wrap(base + 2*spread),
	}
}

// MakePalette returns the saturated colors for PaletteHues(kind, seed, jitter).
func MakePalette(kind PaletteKind, seed, jitter float64) []RGB {
	hues := PaletteHues(kind, seed, jitter)
	out := make([]RGB, len(hues))
	for i, h := range hues {
		out[i] = Hue(h)
	}
	return out
}

// randomKinds weights analogous palettes twice as often as the others.
var randomKinds = []PaletteKind{Analogous, Complementary, Triad, Analogous}

// RandomPalette picks a palette kind and seed from rng.
func RandomPalette(rng *rand.Rand) []RGB {
	kind := randomKinds[rng.IntN(len(randomKinds))]
	return MakePalette(kind, rng.Float64(), rng.Float64()*MaxAnalogousSpread)
}

func wrap(h float64) float64 {
	return h - math.Floor(h)
}
