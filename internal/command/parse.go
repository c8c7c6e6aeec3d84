package command

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/smazurov/lightnode/internal/color"
)

// Topic names the inbound channel a raw payload arrived on.
type Topic string

// Inbound topics. The last path element of a transport subject maps to one
// of these.
const (
	TopicCommand    Topic = "command"
	TopicBrightness Topic = "brightness"
	TopicEffect     Topic = "effect"
	TopicColor      Topic = "color"
	TopicDimmer     Topic = "dimmer"
	TopicJSON       Topic = "json"
)

// Topics lists the topics handled by ParseTopic.
var Topics = []Topic{TopicCommand, TopicBrightness, TopicEffect, TopicColor, TopicDimmer}

// dimmerActions maps the four-button dimmer remote to commands.
var dimmerActions = map[string]Command{
	"on-press":   On(),
	"on-hold":    Brightness(100),
	"off-press":  Off(),
	"off-hold":   {Kind: Nudge},
	"up-press":   {Kind: BrightnessUp},
	"down-press": {Kind: BrightnessDown},
	"up-hold":    {Kind: NextEffect},
	"down-hold":  {Kind: PreviousEffect},
}

// ParseTopic decodes a plain text payload received on topic.
//
//	command     on | off | toggle | mode
//	brightness  0-100
//	effect      effect name
//	color       #rrggbb | r,g,b
//	dimmer      on-press | on-hold | off-press | off-hold |
//	            up-press | up-hold | down-press | down-hold
func ParseTopic(topic Topic, payload []byte) (Command, error) {
	text := string(bytes.TrimSpace(payload))

	switch topic {
	case TopicCommand:
		switch strings.ToLower(text) {
		case "on":
			return On(), nil
		case "off":
			return Off(), nil
		case "toggle":
			return Command{Kind: Toggle}, nil
		case "mode":
			return Command{Kind: NextEffect}, nil
		}
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrInvalidInput, text)

	case TopicBrightness:
		v, err := strconv.Atoi(text)
		if err != nil {
			return Command{}, fmt.Errorf("%w: brightness %q is not an integer", ErrInvalidInput, text)
		}
		cmd := Brightness(v)
		return cmd, cmd.Validate()

	case TopicEffect:
		cmd := Effect(text)
		return cmd, cmd.Validate()

	case TopicColor:
		c, err := ParseColor(text)
		if err != nil {
			return Command{}, err
		}
		return Color(c), nil

	case TopicDimmer:
		if cmd, ok := dimmerActions[strings.ToLower(text)]; ok {
			return cmd, nil
		}
		return Command{}, fmt.Errorf("%w: unknown dimmer action %q", ErrInvalidInput, text)
	}

	return Command{}, fmt.Errorf("%w: unknown topic %q", ErrInvalidInput, topic)
}

// ParseColor accepts "#rrggbb", "rrggbb" or "r,g,b" with components 0-255.
func ParseColor(s string) (color.RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ",") {
		c, err := color.ParseHex(s)
		if err != nil {
			return color.RGB{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return c, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGB{}, fmt.Errorf("%w: color %q needs three components", ErrInvalidInput, s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return color.RGB{}, fmt.Errorf("%w: color component %q out of range 0-255", ErrInvalidInput, p)
		}
		rgb[i] = uint8(v)
	}
	return color.RGB{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
}

// ParseJSON decodes a JSON light command and returns the commands it implies,
// in the order they must be applied:
//
//	{"state": "ON", "brightness": 70, "effect": "sparkle", "color": {"r": 255, "g": 0, "b": 0}}
//
// "state" is ON, OFF or TOGGLE. OFF ignores every other field. "color" may
// also be a hex string. "action" carries a dimmer action. A document without
// any recognized field is rejected.
func ParseJSON(payload []byte) ([]Command, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidInput)
	}
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: JSON command must be an object", ErrInvalidInput)
	}

	var cmds []Command

	if state := doc.Get("state"); state.Exists() {
		switch strings.ToUpper(state.String()) {
		case "ON":
			cmds = append(cmds, On())
		case "OFF":
			return []Command{Off()}, nil
		case "TOGGLE":
			cmds = append(cmds, Command{Kind: Toggle})
		default:
			return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidInput, state.String())
		}
	}

	if action := doc.Get("action"); action.Exists() {
		cmd, err := ParseTopic(TopicDimmer, []byte(action.String()))
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}

	if effect := doc.Get("effect"); effect.Exists() {
		if effect.Type != gjson.String {
			return nil, fmt.Errorf("%w: effect must be a string", ErrInvalidInput)
		}
		cmd := Effect(effect.String())
		if err := cmd.Validate(); err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}

	if c := doc.Get("color"); c.Exists() {
		rgb, err := jsonColor(c)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, Color(rgb))
	}

	if b := doc.Get("brightness"); b.Exists() {
		if b.Type != gjson.Number || b.Num != math.Trunc(b.Num) {
			return nil, fmt.Errorf("%w: brightness must be an integer", ErrInvalidInput)
		}
		cmd := Brightness(int(b.Num))
		if err := cmd.Validate(); err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}

	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: JSON command has no known fields", ErrInvalidInput)
	}
	return cmds, nil
}

func jsonColor(v gjson.Result) (color.RGB, error) {
	if v.Type == gjson.String {
		return ParseColor(v.String())
	}
	if !v.IsObject() {
		return color.RGB{}, fmt.Errorf("%w: color must be an object or string", ErrInvalidInput)
	}

	var rgb [3]uint8
	for i, key := range []string{"r", "g", "b"} {
		c := v.Get(key)
		if c.Type != gjson.Number || c.Num < 0 || c.Num > 255 || c.Num != math.Trunc(c.Num) {
			return color.RGB{}, fmt.Errorf("%w: color.%s must be an integer 0-255", ErrInvalidInput, key)
		}
		rgb[i] = uint8(c.Num)
	}
	return color.RGB{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
}
