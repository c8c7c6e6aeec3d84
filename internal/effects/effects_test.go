package effects

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/gradient"
)

// fakeFrame records shows and pauses. pauseOK decides the Pause result for
// each call; when it runs out Pause returns true.
type fakeFrame struct {
	buffers [][]color.RGB
	rng     *rand.Rand
	shows   int
	pauses  []time.Duration
	pauseOK []bool
	showErr error
}

func newFakeFrame(channels, n int) *fakeFrame {
	f := &fakeFrame{rng: rand.New(rand.NewPCG(7, 11))}
	for range channels {
		f.buffers = append(f.buffers, make([]color.RGB, n))
	}
	return f
}

func (f *fakeFrame) Channels() int             { return len(f.buffers) }
func (f *fakeFrame) Len() int                  { return len(f.buffers[0]) }
func (f *fakeFrame) Pixels(ch int) []color.RGB { return f.buffers[ch] }
func (f *fakeFrame) Rand() *rand.Rand          { return f.rng }

func (f *fakeFrame) Show() error {
	if f.showErr != nil {
		return f.showErr
	}
	f.shows++
	return nil
}

func (f *fakeFrame) Pause(d time.Duration) bool {
	f.pauses = append(f.pauses, d)
	if len(f.pauseOK) == 0 {
		return true
	}
	ok := f.pauseOK[0]
	f.pauseOK = f.pauseOK[1:]
	return ok
}

func (f *fakeFrame) all(c color.RGB) bool {
	for _, buf := range f.buffers {
		for _, px := range buf {
			if px != c {
				return false
			}
		}
	}
	return true
}

func tuning() *Tuning {
	t := DefaultTuning()
	return &t
}

func TestRegistryNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range Registry(tuning()) {
		require.False(t, seen[e.Name()], "duplicate effect name %q", e.Name())
		seen[e.Name()] = true
	}
	assert.Len(t, seen, 7)
}

func TestSolid_DrawsOnceUntilChanged(t *testing.T) {
	f := newFakeFrame(2, 10)
	s := NewSolid(tuning())
	s.Setup()

	require.NoError(t, s.Render(f))
	require.NoError(t, s.Render(f))
	assert.Equal(t, 1, f.shows)

	red := color.RGB{R: 255}
	s.SetColor(red)
	require.NoError(t, s.Render(f))
	assert.Equal(t, 2, f.shows)
	assert.True(t, f.all(red))

	s.Invalidate()
	require.NoError(t, s.Render(f))
	assert.Equal(t, 3, f.shows)
}

func TestSolid_StaysDirtyWhenShowFails(t *testing.T) {
	f := newFakeFrame(1, 4)
	f.showErr = errors.New("unplugged")
	s := NewSolid(tuning())
	s.Setup()

	require.Error(t, s.Render(f))
	f.showErr = nil
	require.NoError(t, s.Render(f))
	assert.Equal(t, 1, f.shows)
}

func TestSolid_NudgeMovesHue(t *testing.T) {
	f := newFakeFrame(1, 4)
	s := NewSolid(tuning())
	s.SetColor(color.RGB{R: 255})
	require.NoError(t, s.Render(f))

	s.Nudge()
	require.NoError(t, s.Render(f))

	h, _, _ := color.RGBToHSV(s.Color())
	assert.InDelta(t, 0.15, h, 0.06)
}

func TestSparkle_FullPass(t *testing.T) {
	tn := tuning()
	tn.SparklePasses = 4
	f := newFakeFrame(2, 50)
	s := NewSparkle(tn)
	s.Setup()

	require.NoError(t, s.Render(f))
	assert.Equal(t, 4, f.shows)
	assert.Len(t, f.pauses, 4)
	assert.Equal(t, tn.SparkleHold, f.pauses[0])
}

func TestSparkle_AbortsAtSubStep(t *testing.T) {
	f := newFakeFrame(2, 50)
	f.pauseOK = []bool{true, false}
	s := NewSparkle(tuning())

	require.NoError(t, s.Render(f))
	assert.Equal(t, 2, f.shows, "pass must stop at the sub-step whose pause reported abort")
}

func TestSparkle_IgnoresColor(t *testing.T) {
	tn := tuning()
	tn.SparklePasses = 1

	a := newFakeFrame(1, 30)
	b := newFakeFrame(1, 30)

	s := NewSparkle(tn)
	s.SetColor(color.RGB{R: 255})
	require.NoError(t, s.Render(a))
	require.NoError(t, NewSparkle(tn).Render(b))

	assert.Equal(t, a.buffers, b.buffers)
}

func TestSparkle_Fades(t *testing.T) {
	tn := tuning()
	tn.SparklePasses = 1
	tn.SparkleDots = 1
	f := newFakeFrame(1, 1)

	require.NoError(t, NewSparkle(tn).Render(f))
	lit := f.buffers[0][0]
	// The only pixel was lit with a saturated color and faded once.
	assert.Equal(t, uint8(165), max(lit.R, lit.G, lit.B))
}

func TestUndulating_OppositeChannels(t *testing.T) {
	f := newFakeFrame(2, 144)
	u := NewUndulating(tuning())
	u.Setup()

	// Move to a quarter phase so the band is displaced.
	for range 6 {
		require.NoError(t, u.Render(f))
	}
	assert.NotEqual(t, f.buffers[0], f.buffers[1])
	assert.Equal(t, u.colors[0], f.buffers[0][0])
	assert.Equal(t, u.colors[0], f.buffers[1][143])
}

func TestUndulating_PhaseWraps(t *testing.T) {
	tn := tuning()
	f := newFakeFrame(1, 10)
	u := NewUndulating(tn)
	u.Setup()
	for range tn.UndulatingSteps + 1 {
		require.NoError(t, u.Render(f))
	}
	assert.LessOrEqual(t, u.phase, 1.0)
}

func TestUndulating_ColorRing(t *testing.T) {
	u := NewUndulating(tuning())
	u.Setup()
	a := color.RGB{R: 1}
	b := color.RGB{G: 2}
	c := color.RGB{B: 3}

	u.SetColor(a)
	u.SetColor(b)
	assert.Equal(t, [2]color.RGB{a, b}, u.Colors())
	u.SetColor(c)
	assert.Equal(t, [2]color.RGB{c, b}, u.Colors())
}

func TestColorCycle_WindowCoversStrip(t *testing.T) {
	tn := tuning()
	tn.CycleRefill = 2
	f := newFakeFrame(2, 60)
	c := NewColorCycle(tn)
	c.Setup()

	for i := range 2000 {
		require.NoError(t, c.Render(f), "tick %d", i)

		stops := c.Stops()
		require.NoError(t, stops.Validate())
		require.LessOrEqual(t, stops[0].Pos, 0.0, "tick %d", i)
		require.GreaterOrEqual(t, stops[len(stops)-1].Pos, 1.0, "tick %d", i)
		require.LessOrEqual(t, len(stops), tn.CyclePoints+2)
	}
	assert.Equal(t, f.buffers[0], f.buffers[1])
}

func TestBootieCall_PendingColorAdoptedWhenDark(t *testing.T) {
	tn := tuning()
	tn.BootieIncrement = 0.25
	f := newFakeFrame(1, 4)
	b := NewBootieCall(tn)
	b.Setup()

	blue := color.RGB{B: 255}
	b.SetColor(blue)

	// Phases 0, 0.25 and 0.5 are lit; the color must not change yet.
	for range 3 {
		require.NoError(t, b.Render(f))
		assert.Zero(t, b.Hue())
	}

	// Phase 0.75 is the dark point of the pulse.
	require.NoError(t, b.Render(f))
	assert.True(t, f.all(color.Black))
	assert.InDelta(t, 4.0/6.0, b.Hue(), 1e-9)
	assert.Nil(t, b.pending)
}

func TestBootieCall_AdoptsColorAtAnyIncrement(t *testing.T) {
	for _, inc := range []float64{DefaultTuning().BootieIncrement, 0.0007, 0.003, 0.3} {
		t.Run(fmt.Sprint(inc), func(t *testing.T) {
			tn := tuning()
			tn.BootieIncrement = inc
			f := newFakeFrame(1, 2)
			b := NewBootieCall(tn)
			b.Setup()

			steps := int(math.Ceil(1/inc)) + 1
			// The step that adopts a color ends at most inc past the dark point.
			darkest := (1 - math.Cos(2*math.Pi*inc)) / 3

			for pulse, c := range []color.RGB{{G: 255}, {B: 255}, {R: 255, G: 255}} {
				b.SetColor(c)
				want, _, _ := color.RGBToHSV(c)

				n := 0
				for b.pending != nil {
					require.NoError(t, b.Render(f))
					n++
					require.LessOrEqual(t, n, steps, "pulse %d: color still pending after a full pulse", pulse)
				}
				assert.InDelta(t, want, b.Hue(), 1e-9, "pulse %d", pulse)
				assert.LessOrEqual(t, b.Value(), darkest+1e-12, "pulse %d adopted while lit", pulse)
			}
		})
	}
}

func TestBootieCall_ValueRange(t *testing.T) {
	b := NewBootieCall(tuning())
	for i := range 1000 {
		b.phase = float64(i) / 1000
		v := b.Value()
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 2.0/3.0+1e-12)
	}
}

func TestStrobe_DutyCycle(t *testing.T) {
	tn := tuning()
	f := newFakeFrame(1, 3)
	s := NewStrobe(tn)

	require.NoError(t, s.Render(f))
	assert.Equal(t, 2, f.shows)
	assert.Equal(t, []time.Duration{tn.StrobeOn, tn.StrobeOff}, f.pauses)
	assert.True(t, f.all(color.Black))

	f.pauseOK = []bool{false}
	require.NoError(t, s.Render(f))
	assert.True(t, f.all(tn.StrobeColor), "aborted flash leaves the lit frame")
}

func TestStaticPalette_WrapStop(t *testing.T) {
	f := newFakeFrame(2, 100)
	p := NewStaticPalette(tuning())
	p.Setup()

	for range 200 {
		require.NoError(t, p.Render(f))
	}
	require.Len(t, p.stops, 17)
	assert.Equal(t, 1.0, p.stops[16].Pos)
	assert.Equal(t, p.stops[0].Color, p.stops[16].Color)
}

func TestStaticPalette_ReportsGap(t *testing.T) {
	f := newFakeFrame(1, 10)
	p := NewStaticPalette(tuning())
	p.Setup()
	p.stops = gradient.Palette{{Pos: 0.3}, {Pos: 0.4}}

	err := p.Render(f)
	assert.ErrorIs(t, err, gradient.ErrRenderGap)
	assert.Equal(t, 1, f.shows)
}

func TestSanitize(t *testing.T) {
	tn := Tuning{SparkleFade: 1.5, CyclePoints: 4, CycleIncrement: 0.5}
	tn.Sanitize()
	def := DefaultTuning()
	assert.Equal(t, def.SparkleFade, tn.SparkleFade)
	assert.Equal(t, def.SparklePasses, tn.SparklePasses)
	assert.Equal(t, 4, tn.CyclePoints)
	assert.Equal(t, def.CycleIncrement, tn.CycleIncrement)
}
