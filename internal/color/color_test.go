package color

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHSVToRGB_Sectors(t *testing.T) {
	tests := []struct {
		name string
		h    float64
		want RGB
	}{
		{"red", 0, RGB{255, 0, 0}},
		{"yellow", 1.0 / 6.0, RGB{255, 255, 0}},
		{"green", 2.0 / 6.0, RGB{0, 255, 0}},
		{"cyan", 3.0 / 6.0, RGB{0, 255, 255}},
		{"blue", 4.0 / 6.0, RGB{0, 0, 255}},
		{"magenta", 5.0 / 6.0, RGB{255, 0, 255}},
		{"wraps at one", 1.0, RGB{255, 0, 0}},
		{"negative hue wraps", -1.0 / 3.0, RGB{0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HSVToRGB(tt.h, 1, 1)
			// Sector boundaries land on exact multiples only up to float error.
			assert.InDelta(t, float64(tt.want.R), float64(got.R), 1)
			assert.InDelta(t, float64(tt.want.G), float64(got.G), 1)
			assert.InDelta(t, float64(tt.want.B), float64(got.B), 1)
		})
	}
}

func TestHSVToRGB_ZeroSaturationIsGray(t *testing.T) {
	got := HSVToRGB(0.4, 0, 0.5)
	assert.Equal(t, got.R, got.G)
	assert.Equal(t, got.G, got.B)
}

func TestHSVToRGB_ZeroValueIsBlack(t *testing.T) {
	assert.Equal(t, Black, HSVToRGB(0.7, 1, 0))
}

func TestHSVToRGB_FullySaturatedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := rapid.Float64Range(0, 0.999999).Draw(t, "h")
		c := HSVToRGB(h, 1, 1)

		hi := max(c.R, c.G, c.B)
		lo := min(c.R, c.G, c.B)
		if hi != 255 {
			t.Fatalf("HSVToRGB(%v,1,1) = %v, max component %d, want 255", h, c, hi)
		}
		if lo != 0 {
			t.Fatalf("HSVToRGB(%v,1,1) = %v, min component %d, want 0", h, c, lo)
		}
	})
}

func TestHSVToRGB_OutOfRangeClamps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := rapid.Float64Range(-10, 10).Draw(t, "h")
		s := rapid.Float64Range(-2, 2).Draw(t, "s")
		v := rapid.Float64Range(-2, 2).Draw(t, "v")
		// Must not panic and must equal the clamped conversion.
		want := HSVToRGB(h-math.Floor(h), clamp01(s), clamp01(v))
		if got := HSVToRGB(h, s, v); got != want {
			t.Fatalf("HSVToRGB(%v,%v,%v) = %v, want %v", h, s, v, got, want)
		}
	})
}

func TestRGBToHSV_RoundTripHue(t *testing.T) {
	h, s, v := RGBToHSV(RGB{0, 0, 255})
	assert.InDelta(t, 4.0/6.0, h, 1e-9)
	assert.InDelta(t, 1.0, s, 1e-9)
	assert.InDelta(t, 1.0, v, 1e-9)

	h, _, v = RGBToHSV(Black)
	assert.Zero(t, h)
	assert.Zero(t, v)
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#ff0000", RGB{255, 0, 0}, false},
		{"00ff7f", RGB{0, 255, 127}, false},
		{" #0a0b0c ", RGB{10, 11, 12}, false},
		{"#zzz", RGB{}, true},
		{"", RGB{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, must(ParseHex(got.Hex())))
		})
	}
}

func TestLerp(t *testing.T) {
	a := RGB{0, 100, 255}
	b := RGB{255, 0, 255}

	assert.Equal(t, a, Lerp(a, b, 0))
	assert.Equal(t, b, Lerp(a, b, 1))
	assert.Equal(t, RGB{127, 50, 255}, Lerp(a, b, 0.5))
}

func TestScale(t *testing.T) {
	c := RGB{200, 100, 3}
	assert.Equal(t, RGB{130, 65, 1}, c.Scale(0.65))
	assert.Equal(t, Black, c.Scale(0))
	assert.Equal(t, White, White.Scale(2))
}

func TestPaletteHues_Complementary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Float64Range(0, 0.999999).Draw(t, "seed")
		hues := PaletteHues(Complementary, seed, 0)
		if len(hues) != 2 {
			t.Fatalf("got %d hues, want 2", len(hues))
		}
		d := math.Abs(hues[0] - hues[1])
		if math.Abs(d-0.5) > 1e-12 {
			t.Fatalf("hue distance %v, want 0.5", d)
		}
	})
}

func TestPaletteHues_Triad(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Float64Range(0, 0.999999).Draw(t, "seed")
		hues := PaletteHues(Triad, seed, 0)
		if len(hues) != 3 {
			t.Fatalf("got %d hues, want 3", len(hues))
		}
		for i := 1; i < 3; i++ {
			d := math.Mod(hues[i]-hues[0]+1, 1)
			if math.Abs(d-float64(i)/3) > 1e-12 {
				t.Fatalf("hue %d is %v from base, want %v", i, d, float64(i)/3)
			}
		}
	})
}

func TestPaletteHues_AnalogousWithinSpread(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Float64Range(0, 0.999999).Draw(t, "seed")
		jitter := rapid.Float64Range(0, 1).Draw(t, "jitter")
		hues := PaletteHues(Analogous, seed, jitter)
		if len(hues) != 5 {
			t.Fatalf("got %d hues, want 5", len(hues))
		}
		for _, h := range hues {
			if h < 0 || h >= 1 {
				t.Fatalf("hue %v outside [0,1)", h)
			}
			d := math.Abs(h - hues[0])
			d = math.Min(d, 1-d)
			if d > 2*MaxAnalogousSpread+1e-12 {
				t.Fatalf("hue %v is %v from base %v", h, d, hues[0])
			}
		}
	})
}

func TestMakePalette_Deterministic(t *testing.T) {
	a := MakePalette(Analogous, 0.3, 0.05)
	b := MakePalette(Analogous, 0.3, 0.05)
	assert.Equal(t, a, b)
	assert.Len(t, a, 5)
}

func TestRandomPalette(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		p := RandomPalette(rng)
		assert.Contains(t, []int{2, 3, 5}, len(p))
	}
}

func TestParsePaletteKind(t *testing.T) {
	for _, k := range []PaletteKind{Complementary, Triad, Analogous} {
		got, err := ParsePaletteKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParsePaletteKind("tetrad")
	assert.Error(t, err)
}

func must(c RGB, err error) RGB {
	if err != nil {
		panic(err)
	}
	return c
}
