// Package display owns the strip channels and the effect registry. The
// Controller is driven by exactly one goroutine: commands, step-fades and
// render ticks all run there, so no field is guarded by a lock.
package display

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/command"
	"github.com/smazurov/lightnode/internal/effects"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/strip"
)

// ErrUnknownEffect is returned when a command names an effect that is not
// registered.
var ErrUnknownEffect = fmt.Errorf("%w: unknown effect", command.ErrInvalidInput)

// State is a snapshot of the controller.
type State struct {
	On         bool      `json:"on" doc:"Whether the strip is lit"`
	Brightness int       `json:"brightness" minimum:"0" maximum:"100" doc:"Visible brightness, 0 while off"`
	Level      int       `json:"level" minimum:"0" maximum:"100" doc:"Brightness the next power-on fades up to"`
	Effect     string    `json:"effect" example:"sparkle" doc:"Active effect"`
	Color      color.RGB `json:"color" doc:"Last requested color"`
	Effects    []string  `json:"effects" doc:"Registered effects in registration order"`
}

// Hooks observe the controller. Every hook runs on the controller goroutine
// and must not block.
type Hooks struct {
	StateChanged   func(State)
	CommandHandled func(cmd command.Command, err error)
	FrameCommitted func(err error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithEffects replaces the effect registry. build receives the tuning the
// effects must read.
func WithEffects(build func(*effects.Tuning) []effects.Effect) Option {
	return func(c *Controller) { c.build = build }
}

// WithBus publishes state events on bus.
func WithBus(bus *events.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithRand sets the random source handed to effects.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// WithSleep replaces time.Sleep for fades and pauses.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// Controller drives the channels with the active effect.
type Controller struct {
	channels []*strip.Channel
	effects  []effects.Effect
	active   int

	on             bool
	brightness     int
	lastBrightness int
	color          color.RGB
	saved          [][]color.RGB

	tuning   Tuning
	fxTuning *effects.Tuning
	build    func(*effects.Tuning) []effects.Effect

	// gen changes whenever the running render must stop: power off or
	// effect change.
	gen      uint64
	ticking  bool
	rejected error

	inbox <-chan command.Command
	done  <-chan struct{}

	rng    *rand.Rand
	sleep  func(time.Duration)
	bus    *events.Bus
	hooks  Hooks
	logger *slog.Logger
}

// New creates a controller for channels. All channels must have the same
// non-zero length. The strip starts off with the first effect active.
func New(channels []*strip.Channel, tuning Tuning, opts ...Option) (*Controller, error) {
	if len(channels) == 0 {
		return nil, errors.New("no channels")
	}
	n := channels[0].Len()
	if n == 0 {
		return nil, errors.New("channels have no pixels")
	}
	for _, ch := range channels[1:] {
		if ch.Len() != n {
			return nil, fmt.Errorf("channel %d has %d pixels, want %d", ch.ID(), ch.Len(), n)
		}
	}

	tuning.Sanitize()
	fx := tuning.Effects
	c := &Controller{
		channels: channels,
		tuning:   tuning,
		fxTuning: &fx,
		build:    effects.Registry,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		sleep:    time.Sleep,
		logger:   logging.GetLogger("display"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.effects = c.build(c.fxTuning)
	if len(c.effects) == 0 {
		return nil, errors.New("no effects registered")
	}
	seen := make(map[string]bool, len(c.effects))
	for _, e := range c.effects {
		if seen[e.Name()] {
			return nil, fmt.Errorf("duplicate effect %q", e.Name())
		}
		seen[e.Name()] = true
	}

	c.brightness = tuning.InitialBrightness
	c.lastBrightness = tuning.InitialBrightness
	c.color = c.fxTuning.SolidColor
	c.setChannelBrightness(0)
	c.effects[0].Setup()
	return c, nil
}

// SetHooks installs observation hooks.
func (c *Controller) SetHooks(h Hooks) { c.hooks = h }

// Effects returns the registered effect names in registration order.
func (c *Controller) Effects() []string {
	names := make([]string, len(c.effects))
	for i, e := range c.effects {
		names[i] = e.Name()
	}
	return names
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	s := State{
		On:      c.on,
		Level:   c.brightness,
		Effect:  c.effects[c.active].Name(),
		Color:   c.color,
		Effects: c.Effects(),
	}
	if c.on {
		s.Brightness = c.brightness
	}
	return s
}

// Tuning returns the tuning in use.
func (c *Controller) Tuning() Tuning {
	t := c.tuning
	t.Effects = *c.fxTuning
	return t
}

// SetTuning replaces the tuning. Effects see the new values from their next
// render step on.
func (c *Controller) SetTuning(t Tuning) {
	t.Sanitize()
	c.tuning = t
	*c.fxTuning = t.Effects
	c.logger.Info("Tuning updated")
}

// SetPower turns the strip on or off with a step-fade. Turning off saves
// the brightness, fades to 0, clears every channel and then restores the
// brightness register so the next power-on fades back to the same level.
func (c *Controller) SetPower(on bool) error {
	if on == c.on {
		return nil
	}

	var err error
	if on {
		err = c.fadeIn()
	} else {
		err = c.fadeOut()
	}

	c.logger.Info("Power changed", "on", on, "brightness", c.brightness)
	c.changed(events.PowerChangedEvent{On: on, Brightness: c.State().Brightness, Timestamp: time.Now()})
	return err
}

func (c *Controller) fadeIn() error {
	target := c.lastBrightness
	if target <= 0 {
		target = c.tuning.InitialBrightness
	}

	c.restore()
	c.on = true
	c.invalidate()

	var first error
	for b := c.tuning.FadeUpStep; b < target; b += c.tuning.FadeUpStep {
		keep(&first, c.fadeStep(b))
	}
	c.setChannelBrightness(target)
	keep(&first, c.show())
	c.brightness = target
	return first
}

func (c *Controller) fadeOut() error {
	c.lastBrightness = c.brightness

	var first error
	for b := c.brightness - c.tuning.FadeDownStep; b > 0; b -= c.tuning.FadeDownStep {
		keep(&first, c.fadeStep(b))
	}

	c.save()
	c.on = false
	c.gen++
	keep(&first, c.blank())
	c.brightness = c.lastBrightness
	return first
}

func (c *Controller) fadeStep(b int) error {
	c.setChannelBrightness(b)
	err := c.show()
	c.sleep(c.tuning.FadeDelay)
	return err
}

// SetBrightness sets the brightness without a fade, clamped to [0,100].
// Reaching 0 turns the strip off and leaving 0 turns it on.
func (c *Controller) SetBrightness(v int) error {
	v = max(0, min(v, strip.MaxBrightness))

	switch {
	case v == 0:
		if !c.on {
			return nil
		}
		c.lastBrightness = c.brightness
		c.save()
		c.on = false
		c.gen++
		err := c.blank()
		c.brightness = c.lastBrightness
		c.logger.Info("Power changed", "on", false, "brightness", 0)
		c.changed(events.PowerChangedEvent{On: false, Timestamp: time.Now()})
		c.changed(events.BrightnessChangedEvent{Brightness: 0, Timestamp: time.Now()})
		return err

	case !c.on:
		c.restore()
		c.on = true
		c.brightness = v
		c.lastBrightness = v
		c.invalidate()
		c.setChannelBrightness(v)
		err := c.show()
		c.logger.Info("Power changed", "on", true, "brightness", v)
		c.changed(events.PowerChangedEvent{On: true, Brightness: v, Timestamp: time.Now()})
		c.changed(events.BrightnessChangedEvent{Brightness: v, Timestamp: time.Now()})
		return err

	default:
		if v == c.brightness {
			return nil
		}
		c.brightness = v
		c.setChannelBrightness(v)
		err := c.show()
		c.logger.Debug("Brightness changed", "brightness", v)
		c.changed(events.BrightnessChangedEvent{Brightness: v, Timestamp: time.Now()})
		return err
	}
}

// BrightnessUp raises the brightness by one step. An off strip comes on at
// one step.
func (c *Controller) BrightnessUp() error {
	if !c.on {
		return c.SetBrightness(c.tuning.BrightnessStep)
	}
	if c.brightness >= strip.MaxBrightness {
		return nil
	}
	return c.SetBrightness(c.brightness + c.tuning.BrightnessStep)
}

// BrightnessDown lowers the brightness by one step. Stepping below the
// lowest step turns the strip off and remembers one step as the level to
// come back to.
func (c *Controller) BrightnessDown() error {
	if !c.on {
		return nil
	}
	if c.brightness > c.tuning.BrightnessStep {
		return c.SetBrightness(c.brightness - c.tuning.BrightnessStep)
	}

	err := c.SetBrightness(0)
	c.lastBrightness = c.tuning.BrightnessStep
	c.brightness = c.lastBrightness
	c.notify()
	return err
}

// SelectEffect activates the named effect. A lit strip is faded out first
// and faded back in once the effect was reset, so no frame of the old
// effect shows under the new one. Re-selecting the active effect resets it.
func (c *Controller) SelectEffect(name string) error {
	idx := slices.IndexFunc(c.effects, func(e effects.Effect) bool { return e.Name() == name })
	if idx < 0 {
		return fmt.Errorf("%w %q", ErrUnknownEffect, name)
	}

	prev := c.effects[c.active].Name()
	wasOn := c.on

	var first error
	if wasOn {
		keep(&first, c.fadeOut())
	}
	c.saved = nil
	c.active = idx
	c.gen++
	c.effects[idx].Setup()
	if wasOn {
		keep(&first, c.fadeIn())
	}

	c.logger.Info("Effect changed", "effect", name, "previous", prev)
	c.changed(events.EffectChangedEvent{Effect: name, Previous: prev, Timestamp: time.Now()})
	return first
}

// NextEffect activates the effect registered after the active one,
// wrapping around.
func (c *Controller) NextEffect() error {
	n := len(c.effects)
	if n < 2 {
		return nil
	}
	return c.SelectEffect(c.effects[(c.active+1)%n].Name())
}

// PreviousEffect activates the effect registered before the active one,
// wrapping around.
func (c *Controller) PreviousEffect() error {
	n := len(c.effects)
	if n < 2 {
		return nil
	}
	return c.SelectEffect(c.effects[(c.active-1+n)%n].Name())
}

// SetColor hands col to the active effect.
func (c *Controller) SetColor(col color.RGB) {
	c.color = col
	eff := c.effects[c.active]
	eff.SetColor(col)
	c.logger.Debug("Color set", "color", col.Hex(), "effect", eff.Name())
	c.changed(events.ColorChangedEvent{Color: col, Effect: eff.Name(), Timestamp: time.Now()})
}

// Nudge asks the active effect for a small variation, if it supports one.
func (c *Controller) Nudge() {
	if !c.on {
		return
	}
	if n, ok := c.effects[c.active].(effects.Nudger); ok {
		n.Nudge()
	}
}

// Apply executes cmd. Invalid commands are rejected with an error wrapping
// command.ErrInvalidInput and leave the state unchanged.
func (c *Controller) Apply(cmd command.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	switch cmd.Kind {
	case command.PowerOn:
		return c.SetPower(true)
	case command.PowerOff:
		return c.SetPower(false)
	case command.Toggle:
		return c.SetPower(!c.on)
	case command.SetBrightness:
		return c.SetBrightness(cmd.Brightness)
	case command.SelectEffect:
		return c.SelectEffect(cmd.Effect)
	case command.SetColor:
		c.SetColor(cmd.Color)
		return nil
	case command.BrightnessUp:
		return c.BrightnessUp()
	case command.BrightnessDown:
		return c.BrightnessDown()
	case command.NextEffect:
		return c.NextEffect()
	case command.PreviousEffect:
		return c.PreviousEffect()
	case command.Nudge:
		c.Nudge()
		return nil
	}
	return fmt.Errorf("%w: unhandled command %q", command.ErrInvalidInput, cmd.Kind)
}

// Drain applies every command waiting in the inbox.
func (c *Controller) Drain() {
	for {
		select {
		case cmd, ok := <-c.inbox:
			if !ok {
				c.inbox = nil
				return
			}
			c.handle(cmd)
		default:
			return
		}
	}
}

func (c *Controller) handle(cmd command.Command) {
	err := c.Apply(cmd)
	switch {
	case err == nil:
		c.logger.Debug("Command applied", "command", cmd.String())
	case errors.Is(err, command.ErrInvalidInput):
		c.logger.Warn("Command rejected", "command", cmd.String(), "error", err)
		c.publish(events.CommandRejectedEvent{Command: string(cmd.Kind), Error: err.Error(), Timestamp: time.Now()})
		if c.ticking {
			c.rejected = err
		}
	default:
		c.logger.Error("Command failed", "command", cmd.String(), "error", err)
	}
	if c.hooks.CommandHandled != nil {
		c.hooks.CommandHandled(cmd, err)
	}
}

// Tick renders one step of the active effect. An off strip is idle.
func (c *Controller) Tick() Result {
	if !c.on {
		return Result{Outcome: Idle}
	}

	eff := c.effects[c.active]
	c.ticking, c.rejected = true, nil
	err := eff.Render(frame{c: c, gen: c.gen})
	c.ticking = false
	if err == nil {
		err = c.rejected
	}

	out := classify(err)
	if out == RenderGap || out == HardwareWriteFailure {
		c.publish(events.FrameErrorEvent{Effect: eff.Name(), Outcome: out.String(), Error: err.Error(), Timestamp: time.Now()})
	}
	return Result{Outcome: out, Err: err}
}

// Intro scatters dots of the two intro colors over every channel at the
// current level, then clears the strip.
func (c *Controller) Intro() error {
	c.setChannelBrightness(c.brightness)
	n := c.channels[0].Len()

	var first error
	for range c.tuning.IntroDots {
		for _, ch := range c.channels {
			ch.Pixels()[c.rng.IntN(n)] = c.tuning.IntroColors[c.rng.IntN(2)]
		}
		keep(&first, c.show())
		c.sleep(c.tuning.IntroDelay)
		if c.stopped() {
			break
		}
	}
	keep(&first, c.blank())
	return first
}

// Shutdown fades the strip out and leaves every channel cleared.
func (c *Controller) Shutdown() error {
	if c.on {
		return c.SetPower(false)
	}
	return c.blank()
}

// show commits every channel and returns the first failure.
func (c *Controller) show() error {
	var first error
	for _, ch := range c.channels {
		keep(&first, ch.Show())
	}
	if c.hooks.FrameCommitted != nil {
		c.hooks.FrameCommitted(first)
	}
	return first
}

// blank clears every channel and commits it at the visible brightness.
func (c *Controller) blank() error {
	for _, ch := range c.channels {
		ch.Clear()
	}
	visible := 0
	if c.on {
		visible = c.brightness
	}
	c.setChannelBrightness(visible)
	return c.show()
}

func (c *Controller) setChannelBrightness(b int) {
	for _, ch := range c.channels {
		ch.SetBrightness(uint8(max(0, min(b, strip.MaxBrightness))))
	}
}

// save keeps the buffers shown before a power-off so the next power-on
// fades the same picture back in.
func (c *Controller) save() {
	c.saved = c.saved[:0]
	for _, ch := range c.channels {
		c.saved = append(c.saved, slices.Clone(ch.Pixels()))
	}
}

func (c *Controller) restore() {
	if len(c.saved) == len(c.channels) {
		for i, ch := range c.channels {
			copy(ch.Pixels(), c.saved[i])
		}
	}
	c.saved = nil
}

func (c *Controller) invalidate() {
	if inv, ok := c.effects[c.active].(effects.Invalidator); ok {
		inv.Invalidate()
	}
}

func (c *Controller) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Controller) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

// changed stores the snapshot before publishing so bus subscribers that
// read State see the new values.
func (c *Controller) changed(ev events.Event) {
	c.notify()
	c.publish(ev)
}

func (c *Controller) notify() {
	if c.hooks.StateChanged != nil {
		c.hooks.StateChanged(c.State())
	}
}

func keep(first *error, err error) {
	if *first == nil && err != nil {
		*first = err
	}
}
