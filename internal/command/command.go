// Package command defines the typed commands accepted by the display
// controller and parses them from transport payloads.
package command

import (
	"errors"
	"fmt"

	"github.com/smazurov/lightnode/internal/color"
)

// ErrInvalidInput marks commands rejected before they touch any state.
var ErrInvalidInput = errors.New("invalid input")

// Kind identifies a command.
type Kind string

// Command kinds.
const (
	PowerOn        Kind = "power_on"
	PowerOff       Kind = "power_off"
	Toggle         Kind = "toggle"
	SetBrightness  Kind = "set_brightness"
	SelectEffect   Kind = "select_effect"
	SetColor       Kind = "set_color"
	BrightnessUp   Kind = "brightness_up"
	BrightnessDown Kind = "brightness_down"
	NextEffect     Kind = "next_effect"
	PreviousEffect Kind = "previous_effect"
	Nudge          Kind = "nudge"
)

// Kinds lists every command kind.
var Kinds = []Kind{
	PowerOn, PowerOff, Toggle, SetBrightness, SelectEffect, SetColor,
	BrightnessUp, BrightnessDown, NextEffect, PreviousEffect, Nudge,
}

// Command is a single request to the display controller. Only the field
// matching Kind is meaningful.
type Command struct {
	Kind       Kind      `json:"kind"`
	Brightness int       `json:"brightness,omitempty"`
	Effect     string    `json:"effect,omitempty"`
	Color      color.RGB `json:"color,omitzero"`
}

// On returns a PowerOn command.
func On() Command { return Command{Kind: PowerOn} }

// Off returns a PowerOff command.
func Off() Command { return Command{Kind: PowerOff} }

// Brightness returns a SetBrightness command.
func Brightness(v int) Command { return Command{Kind: SetBrightness, Brightness: v} }

// Effect returns a SelectEffect command.
func Effect(name string) Command { return Command{Kind: SelectEffect, Effect: name} }

// Color returns a SetColor command.
func Color(c color.RGB) Command { return Command{Kind: SetColor, Color: c} }

// Validate checks the kind and its argument. Brightness outside [0,100] is
// rejected here; the controller clamps only values it computes itself.
func (c Command) Validate() error {
	switch c.Kind {
	case PowerOn, PowerOff, Toggle, SetColor, BrightnessUp, BrightnessDown,
		NextEffect, PreviousEffect, Nudge:
		return nil
	case SetBrightness:
		if c.Brightness < 0 || c.Brightness > 100 {
			return fmt.Errorf("%w: brightness %d out of range 0-100", ErrInvalidInput, c.Brightness)
		}
		return nil
	case SelectEffect:
		if c.Effect == "" {
			return fmt.Errorf("%w: empty effect name", ErrInvalidInput)
		}
		return nil
	case "":
		return fmt.Errorf("%w: missing command kind", ErrInvalidInput)
	default:
		return fmt.Errorf("%w: unknown command kind %q", ErrInvalidInput, c.Kind)
	}
}

func (c Command) String() string {
	switch c.Kind {
	case SetBrightness:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Brightness)
	case SelectEffect:
		return fmt.Sprintf("%s(%q)", c.Kind, c.Effect)
	case SetColor:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Color.Hex())
	default:
		return string(c.Kind)
	}
}
