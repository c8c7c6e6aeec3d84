// Package effects implements the animations shown on the strip. An effect
// owns only its animation state; pixels belong to the Frame it is handed on
// every tick.
package effects

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/gradient"
)

// Frame is the rendering surface the display controller hands to effects.
type Frame interface {
	// Channels returns the number of strips.
	Channels() int
	// Len returns the number of pixels per strip.
	Len() int
	// Pixels returns the live buffer of channel ch.
	Pixels(ch int) []color.RGB
	// Show commits every channel as one logical frame.
	Show() error
	// Pause waits for d while handling queued commands. It returns false
	// when the effect must stop rendering because the strip was turned off
	// or another effect was selected.
	Pause(d time.Duration) bool
	// Rand returns the random source for this frame.
	Rand() *rand.Rand
}

// Effect is one animation.
type Effect interface {
	Name() string
	// Setup resets the animation. It runs every time the effect becomes
	// active, including re-selection of the active effect.
	Setup()
	// Render draws and shows one step of the animation.
	Render(f Frame) error
	// SetColor hands a user color to the effect. Each effect decides when,
	// and whether, to use it.
	SetColor(c color.RGB)
}

// Nudger is implemented by effects that react to a nudge request.
type Nudger interface {
	Nudge()
}

// Invalidator is implemented by effects that skip redundant renders and
// need telling when the strip contents were lost.
type Invalidator interface {
	Invalidate()
}

// Fill sets every pixel on every channel to c.
func Fill(f Frame, c color.RGB) {
	for ch := range f.Channels() {
		px := f.Pixels(ch)
		for i := range px {
			px[i] = c
		}
	}
}

// Fade multiplies every pixel on every channel by factor.
func Fade(f Frame, factor float64) {
	for ch := range f.Channels() {
		px := f.Pixels(ch)
		for i := range px {
			px[i] = px[i].Scale(factor)
		}
	}
}

// renderChannels renders the gradient built for each channel into it. A
// channel whose gradient fails keeps its previous content; the first error is
// returned after every channel was attempted.
func renderChannels(f Frame, build func(ch int) *gradient.Gradient) error {
	var first error
	for ch := range f.Channels() {
		if err := build(ch).Render(f.Pixels(ch)); err != nil && first == nil {
			first = fmt.Errorf("channel %d: %w", ch, err)
		}
	}
	return first
}

// Registry returns every effect in registration order: the first one is
// active at startup.
func Registry(t *Tuning) []Effect {
	return []Effect{
		NewSparkle(t),
		NewSolid(t),
		NewColorCycle(t),
		NewUndulating(t),
		NewBootieCall(t),
		NewStrobe(t),
		NewStaticPalette(t),
	}
}
