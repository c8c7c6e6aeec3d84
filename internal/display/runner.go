package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/smazurov/lightnode/internal/command"
)

// ErrQueueFull is returned by Submit when the command queue has no room.
var ErrQueueFull = errors.New("command queue full")

// DefaultQueueSize is the command queue capacity.
const DefaultQueueSize = 64

// Recorder receives runner telemetry. Implementations must not block.
type Recorder interface {
	RecordTick(outcome string, d time.Duration)
	RecordCommand(kind string, err error)
	RecordFrame(err error)
	RecordState(on bool, brightness int, effect string)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRecorder sends telemetry to rec.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithIntro plays the intro before the first tick.
func WithIntro(enabled bool) RunnerOption {
	return func(r *Runner) { r.intro = enabled }
}

// WithPowerOnAtStart turns the strip on before the first tick.
func WithPowerOnAtStart(enabled bool) RunnerOption {
	return func(r *Runner) { r.powerOn = enabled }
}

// WithQueueSize sets the command queue capacity.
func WithQueueSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.queue = make(chan command.Command, n)
		}
	}
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// Runner owns a Controller and drives it from a single goroutine. Other
// goroutines talk to it only through Submit, SubmitTuning and State.
type Runner struct {
	ctrl     *Controller
	effects  []string
	queue    chan command.Command
	tunings  chan Tuning
	state    atomic.Pointer[State]
	recorder Recorder
	intro    bool
	powerOn  bool
	logger   *slog.Logger
}

// NewRunner wraps ctrl. ctrl must not be used directly once Run started.
func NewRunner(ctrl *Controller, opts ...RunnerOption) *Runner {
	r := &Runner{
		ctrl:    ctrl,
		effects: ctrl.Effects(),
		queue:   make(chan command.Command, DefaultQueueSize),
		tunings: make(chan Tuning, 1),
		logger:  ctrl.logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	s := ctrl.State()
	r.state.Store(&s)
	return r
}

// Submit validates cmd and queues it. Invalid commands and unknown effect
// names are rejected here so callers get the error synchronously.
func (r *Runner) Submit(cmd command.Command) error {
	if err := cmd.Validate(); err != nil {
		r.record(cmd, err)
		return err
	}
	if cmd.Kind == command.SelectEffect && !slices.Contains(r.effects, cmd.Effect) {
		err := fmt.Errorf("%w %q", ErrUnknownEffect, cmd.Effect)
		r.record(cmd, err)
		return err
	}

	select {
	case r.queue <- cmd:
		return nil
	default:
		r.record(cmd, ErrQueueFull)
		return ErrQueueFull
	}
}

// SubmitTuning replaces the tuning at the next tick boundary. A tuning that
// was submitted but not yet applied is superseded.
func (r *Runner) SubmitTuning(t Tuning) {
	for {
		select {
		case r.tunings <- t:
			return
		default:
		}
		select {
		case <-r.tunings:
		default:
		}
	}
}

// State returns the latest published snapshot.
func (r *Runner) State() State {
	return *r.state.Load()
}

// Effects returns the registered effect names.
func (r *Runner) Effects() []string {
	return slices.Clone(r.effects)
}

// Run drives the controller until ctx is done, then fades the strip out.
func (r *Runner) Run(ctx context.Context) error {
	c := r.ctrl
	c.inbox = r.queue
	c.done = ctx.Done()
	c.SetHooks(Hooks{
		StateChanged:   r.publishState,
		CommandHandled: r.record,
		FrameCommitted: r.recordFrame,
	})

	if r.intro {
		if err := c.Intro(); err != nil {
			r.logger.Warn("Intro failed", "error", err)
		}
	}
	if r.powerOn {
		if err := c.SetPower(true); err != nil {
			r.logger.Warn("Power on at start failed", "error", err)
		}
	}
	r.publishState(c.State())
	r.logger.Info("Display runner started", "effects", len(r.effects), "channels", len(c.channels))

	for ctx.Err() == nil {
		r.applyTuning()
		c.Drain()

		start := time.Now()
		res := c.Tick()
		if r.recorder != nil {
			r.recorder.RecordTick(res.Outcome.String(), time.Since(start))
		}

		switch res.Outcome {
		case Idle:
			r.waitIdle(ctx)
			continue
		case OK:
		case InvalidInput:
			r.logger.Debug("Tick handled a rejected command", "error", res.Err)
		default:
			r.logger.Warn("Tick failed", "outcome", res.Outcome.String(), "effect", c.effects[c.active].Name(), "error", res.Err)
		}
		r.wait(ctx, c.tuning.FrameInterval)
	}

	// Pauses must not be cut short by the cancelled context during the fade.
	c.done = nil
	err := c.Shutdown()
	r.publishState(c.State())
	r.logger.Info("Display runner stopped")
	return err
}

func (r *Runner) applyTuning() {
	select {
	case t := <-r.tunings:
		r.ctrl.SetTuning(t)
	default:
	}
}

// waitIdle blocks until a command or tuning arrives or ctx is done.
func (r *Runner) waitIdle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case cmd := <-r.queue:
		r.ctrl.handle(cmd)
	case t := <-r.tunings:
		r.ctrl.SetTuning(t)
	}
}

func (r *Runner) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (r *Runner) publishState(s State) {
	r.state.Store(&s)
	if r.recorder != nil {
		r.recorder.RecordState(s.On, s.Brightness, s.Effect)
	}
}

func (r *Runner) record(cmd command.Command, err error) {
	if r.recorder != nil {
		r.recorder.RecordCommand(string(cmd.Kind), err)
	}
}

func (r *Runner) recordFrame(err error) {
	if r.recorder != nil {
		r.recorder.RecordFrame(err)
	}
}
