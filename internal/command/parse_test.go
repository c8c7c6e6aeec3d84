package command

import (
	"errors"
	"testing"

	"github.com/smazurov/lightnode/internal/color"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   Topic
		payload string
		want    Command
		wantErr bool
	}{
		{"on", TopicCommand, "ON", On(), false},
		{"off", TopicCommand, "off\n", Off(), false},
		{"toggle", TopicCommand, "toggle", Command{Kind: Toggle}, false},
		{"mode", TopicCommand, "mode", Command{Kind: NextEffect}, false},
		{"bad command", TopicCommand, "dance", Command{}, true},
		{"brightness", TopicBrightness, "70", Brightness(70), false},
		{"brightness zero", TopicBrightness, "0", Brightness(0), false},
		{"brightness high", TopicBrightness, "101", Command{}, true},
		{"brightness negative", TopicBrightness, "-1", Command{}, true},
		{"brightness text", TopicBrightness, "bright", Command{}, true},
		{"effect", TopicEffect, "sparkle", Effect("sparkle"), false},
		{"effect with spaces", TopicEffect, "solid color", Effect("solid color"), false},
		{"empty effect", TopicEffect, "  ", Command{}, true},
		{"hex color", TopicColor, "#ff8000", Color(color.RGB{R: 255, G: 128}), false},
		{"csv color", TopicColor, "1, 2,3", Color(color.RGB{R: 1, G: 2, B: 3}), false},
		{"csv color overflow", TopicColor, "256,0,0", Command{}, true},
		{"csv color short", TopicColor, "1,2", Command{}, true},
		{"bad hex", TopicColor, "#ggg", Command{}, true},
		{"dimmer on-press", TopicDimmer, "on-press", On(), false},
		{"dimmer on-hold", TopicDimmer, "on-hold", Brightness(100), false},
		{"dimmer off-hold", TopicDimmer, "off-hold", Command{Kind: Nudge}, false},
		{"dimmer up-hold", TopicDimmer, "up-hold", Command{Kind: NextEffect}, false},
		{"dimmer down-hold", TopicDimmer, "down-hold", Command{Kind: PreviousEffect}, false},
		{"dimmer down-press", TopicDimmer, "down-press", Command{Kind: BrightnessDown}, false},
		{"dimmer unknown", TopicDimmer, "side-press", Command{}, true},
		{"unknown topic", Topic("weather"), "sunny", Command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopic(tt.topic, []byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseTopic() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTopic() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTopic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []Command
		wantErr bool
	}{
		{
			name:    "full light command",
			payload: `{"state":"ON","brightness":70,"effect":"sparkle","color":{"r":255,"g":0,"b":0}}`,
			want:    []Command{On(), Effect("sparkle"), Color(color.RGB{R: 255}), Brightness(70)},
		},
		{
			name:    "off ignores the rest",
			payload: `{"state":"off","brightness":70}`,
			want:    []Command{Off()},
		},
		{
			name:    "hex color",
			payload: `{"color":"#00ff00"}`,
			want:    []Command{Color(color.RGB{G: 255})},
		},
		{
			name:    "dimmer action",
			payload: `{"action":"up-hold"}`,
			want:    []Command{{Kind: NextEffect}},
		},
		{name: "malformed", payload: `{"state":`, wantErr: true},
		{name: "not an object", payload: `[1,2]`, wantErr: true},
		{name: "empty object", payload: `{}`, wantErr: true},
		{name: "bad state", payload: `{"state":"MAYBE"}`, wantErr: true},
		{name: "fractional brightness", payload: `{"brightness":50.5}`, wantErr: true},
		{name: "string brightness", payload: `{"brightness":"50"}`, wantErr: true},
		{name: "brightness out of range", payload: `{"brightness":255}`, wantErr: true},
		{name: "color component out of range", payload: `{"color":{"r":300,"g":0,"b":0}}`, wantErr: true},
		{name: "color missing component", payload: `{"color":{"r":3,"g":0}}`, wantErr: true},
		{name: "numeric effect", payload: `{"effect":3}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseJSON() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseJSON() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseJSON() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("command %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		cmd     Command
		wantErr bool
	}{
		{On(), false},
		{Brightness(100), false},
		{Brightness(-5), true},
		{Effect(""), true},
		{Command{}, true},
		{Command{Kind: "explode"}, true},
		{Color(color.White), false},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Validate() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
