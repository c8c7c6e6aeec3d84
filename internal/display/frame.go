package display

import (
	"math/rand/v2"
	"time"

	"github.com/smazurov/lightnode/internal/color"
)

// frame is the surface handed to the active effect for one tick. gen is the
// controller generation the tick started in; any power-off or effect change
// bumps the generation and makes Pause report false.
type frame struct {
	c   *Controller
	gen uint64
}

func (f frame) Channels() int             { return len(f.c.channels) }
func (f frame) Len() int                  { return f.c.channels[0].Len() }
func (f frame) Pixels(ch int) []color.RGB { return f.c.channels[ch].Pixels() }
func (f frame) Rand() *rand.Rand          { return f.c.rng }

// Show commits the buffers unless the tick was superseded, which keeps a
// cleared strip from being overwritten by a stale frame.
func (f frame) Show() error {
	if !f.live() {
		return nil
	}
	return f.c.show()
}

func (f frame) live() bool {
	return f.c.on && f.c.gen == f.gen && !f.c.stopped()
}

// Pause sleeps for d in slices of at most PollInterval and handles queued
// commands after every slice.
func (f frame) Pause(d time.Duration) bool {
	for {
		step := min(d, f.c.tuning.PollInterval)
		if step > 0 {
			f.c.sleep(step)
			d -= step
		}
		f.c.Drain()
		if !f.live() {
			return false
		}
		if d <= 0 {
			return true
		}
	}
}
