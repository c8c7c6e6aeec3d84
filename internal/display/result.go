package display

import (
	"errors"

	"github.com/smazurov/lightnode/internal/command"
	"github.com/smazurov/lightnode/internal/gradient"
)

// Outcome classifies one tick.
type Outcome int

const (
	// OK means a frame was rendered and committed.
	OK Outcome = iota
	// Idle means the strip is off and nothing was rendered.
	Idle
	// InvalidInput means the frame was fine but a command handled during
	// the tick was rejected.
	InvalidInput
	// RenderGap means a gradient had no stop pair for some LED; the other
	// channels were still committed.
	RenderGap
	// HardwareWriteFailure means a sink refused a frame.
	HardwareWriteFailure
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Idle:
		return "idle"
	case InvalidInput:
		return "invalid_input"
	case RenderGap:
		return "render_gap"
	case HardwareWriteFailure:
		return "hardware_write_failure"
	default:
		return "unknown"
	}
}

// Result is what Tick reports.
type Result struct {
	Outcome Outcome
	Err     error
}

// classify maps a render error to its outcome.
func classify(err error) Outcome {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, gradient.ErrRenderGap), errors.Is(err, gradient.ErrTooFewStops),
		errors.Is(err, gradient.ErrUnsortedStops):
		return RenderGap
	case errors.Is(err, command.ErrInvalidInput):
		return InvalidInput
	default:
		return HardwareWriteFailure
	}
}
