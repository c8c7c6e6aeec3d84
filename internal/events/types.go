package events

import (
	"time"

	"github.com/smazurov/lightnode/internal/color"
)

// Event type constants for kelindar/event.
const (
	TypePowerChanged uint32 = iota + 1
	TypeBrightnessChanged
	TypeEffectChanged
	TypeColorChanged
	TypeCommandRejected
	TypeFrameError
	TypeTuningReloaded
)

// Event is implemented by every event published on the bus.
type Event interface {
	Type() uint32
}

// PowerChangedEvent is published when the strip turns on or off.
type PowerChangedEvent struct {
	On         bool      `json:"on" doc:"Whether the strip is lit"`
	Brightness int       `json:"brightness" example:"70" doc:"Brightness after the change (0-100)"`
	Timestamp  time.Time `json:"timestamp" doc:"Time of the change"`
}

// Type returns the event type identifier for PowerChangedEvent.
func (e PowerChangedEvent) Type() uint32 { return TypePowerChanged }

// BrightnessChangedEvent is published when the brightness register changes.
type BrightnessChangedEvent struct {
	Brightness int       `json:"brightness" example:"70" doc:"New brightness (0-100)"`
	Timestamp  time.Time `json:"timestamp" doc:"Time of the change"`
}

// Type returns the event type identifier for BrightnessChangedEvent.
func (e BrightnessChangedEvent) Type() uint32 { return TypeBrightnessChanged }

// EffectChangedEvent is published when another effect becomes active.
type EffectChangedEvent struct {
	Effect    string    `json:"effect" example:"sparkle" doc:"Name of the active effect"`
	Previous  string    `json:"previous,omitempty" example:"solid color" doc:"Name of the replaced effect"`
	Timestamp time.Time `json:"timestamp" doc:"Time of the change"`
}

// Type returns the event type identifier for EffectChangedEvent.
func (e EffectChangedEvent) Type() uint32 { return TypeEffectChanged }

// ColorChangedEvent is published when a color command is accepted.
type ColorChangedEvent struct {
	Color     color.RGB `json:"color" doc:"Requested color"`
	Effect    string    `json:"effect" example:"solid color" doc:"Effect that received the color"`
	Timestamp time.Time `json:"timestamp" doc:"Time of the change"`
}

// Type returns the event type identifier for ColorChangedEvent.
func (e ColorChangedEvent) Type() uint32 { return TypeColorChanged }

// CommandRejectedEvent is published when a command fails validation.
type CommandRejectedEvent struct {
	Command   string    `json:"command" example:"select_effect" doc:"Command kind"`
	Error     string    `json:"error" example:"unknown effect \"disco\"" doc:"Why the command was rejected"`
	Timestamp time.Time `json:"timestamp" doc:"Time of the rejection"`
}

// Type returns the event type identifier for CommandRejectedEvent.
func (e CommandRejectedEvent) Type() uint32 { return TypeCommandRejected }

// FrameErrorEvent is published when a tick does not produce a frame.
type FrameErrorEvent struct {
	Effect    string    `json:"effect" example:"test" doc:"Active effect"`
	Outcome   string    `json:"outcome" example:"render_gap" doc:"Tick outcome"`
	Error     string    `json:"error" doc:"Error detail"`
	Timestamp time.Time `json:"timestamp" doc:"Time of the failure"`
}

// Type returns the event type identifier for FrameErrorEvent.
func (e FrameErrorEvent) Type() uint32 { return TypeFrameError }

// TuningReloadedEvent is published after the tuning table was reloaded from
// the configuration file.
type TuningReloadedEvent struct {
	Path      string    `json:"path" doc:"Configuration file"`
	Timestamp time.Time `json:"timestamp" doc:"Time of the reload"`
}

// Type returns the event type identifier for TuningReloadedEvent.
func (e TuningReloadedEvent) Type() uint32 { return TypeTuningReloaded }
