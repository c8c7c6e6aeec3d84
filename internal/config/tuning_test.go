package config

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/display"
)

func TestLoadTuning_Defaults(t *testing.T) {
	for name, path := range map[string]string{
		"empty path":   "",
		"missing file": filepath.Join(t.TempDir(), "absent.toml"),
		"no table":     writeConfig(t, "[node]\nname = \"x\"\n"),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := LoadTuning(path)
			if err != nil {
				t.Fatalf("LoadTuning() error = %v", err)
			}
			if !reflect.DeepEqual(got, display.DefaultTuning()) {
				t.Errorf("LoadTuning() = %+v, want defaults", got)
			}
		})
	}
}

func TestLoadTuning_Overrides(t *testing.T) {
	path := writeConfig(t, `
[tuning]
initial_brightness = 50
fade_down_step = 10
fade_delay = "5ms"
intro_colors = ["#ff0000", "00ff00"]

[tuning.solid]
color = "#102030"

[tuning.sparkle]
fade = 0.5
passes = 20
hold = "250ms"

[tuning.undulating]
colors = ["#0000ff", "#ffffff"]
steps = 50

[tuning.colorcycle]
points = 4
increment = 0.01

[tuning.bootie]
increment = 0.001

[tuning.strobe]
color = "#ff8800"
on = "30ms"
off = "1s"

[tuning.palette]
points = 8
`)
	got, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning() error = %v", err)
	}

	want := display.DefaultTuning()
	want.InitialBrightness = 50
	want.FadeDownStep = 10
	want.FadeDelay = 5 * time.Millisecond
	want.IntroColors = [2]color.RGB{{R: 255}, {G: 255}}
	want.Effects.SolidColor = color.RGB{R: 0x10, G: 0x20, B: 0x30}
	want.Effects.SparkleFade = 0.5
	want.Effects.SparklePasses = 20
	want.Effects.SparkleHold = 250 * time.Millisecond
	want.Effects.UndulatingColors = [2]color.RGB{{B: 255}, color.White}
	want.Effects.UndulatingSteps = 50
	want.Effects.CyclePoints = 4
	want.Effects.CycleIncrement = 0.01
	want.Effects.BootieIncrement = 0.001
	want.Effects.StrobeColor = color.RGB{R: 255, G: 0x88}
	want.Effects.StrobeOn = 30 * time.Millisecond
	want.Effects.StrobeOff = time.Second
	want.Effects.PalettePoints = 8

	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadTuning() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestLoadTuning_SanitizesOutOfRange(t *testing.T) {
	path := writeConfig(t, "[tuning]\nfade_up_step = 0\n[tuning.sparkle]\nfade = 3.0\n")
	got, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning() error = %v", err)
	}
	def := display.DefaultTuning()
	if got.FadeUpStep != def.FadeUpStep || got.Effects.SparkleFade != def.Effects.SparkleFade {
		t.Errorf("LoadTuning() step=%d fade=%v, want defaults", got.FadeUpStep, got.Effects.SparkleFade)
	}
}

func TestLoadTuning_Errors(t *testing.T) {
	tests := map[string]string{
		"syntax":          "[tuning\n",
		"bad duration":    "[tuning.strobe]\non = \"fast\"\n",
		"bad color":       "[tuning.solid]\ncolor = \"#zzzzzz\"\n",
		"wrong pair size": "[tuning.undulating]\ncolors = [\"#ffffff\"]\n",
		"wrong type":      "[tuning]\nintro_dots = \"many\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadTuning(writeConfig(t, content)); err == nil {
				t.Error("LoadTuning() error = nil, want error")
			}
		})
	}
}
