package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/display"
)

// tuningFile mirrors the [tuning] table. Every key is optional; a missing
// key keeps the default. Durations are strings such as "20ms" and colors
// are "#rrggbb".
type tuningFile struct {
	Tuning struct {
		InitialBrightness *int      `toml:"initial_brightness"`
		FadeUpStep        *int      `toml:"fade_up_step"`
		FadeDownStep      *int      `toml:"fade_down_step"`
		FadeDelay         *string   `toml:"fade_delay"`
		BrightnessStep    *int      `toml:"brightness_step"`
		PollInterval      *string   `toml:"poll_interval"`
		FrameInterval     *string   `toml:"frame_interval"`
		IntroDots         *int      `toml:"intro_dots"`
		IntroDelay        *string   `toml:"intro_delay"`
		IntroColors       *[]string `toml:"intro_colors"`

		Solid struct {
			Color *string `toml:"color"`
		} `toml:"solid"`

		Sparkle struct {
			Fade   *float64 `toml:"fade"`
			Passes *int     `toml:"passes"`
			Dots   *int     `toml:"dots"`
			Hold   *string  `toml:"hold"`
		} `toml:"sparkle"`

		Undulating struct {
			Colors *[]string `toml:"colors"`
			Steps  *int      `toml:"steps"`
			Delay  *string   `toml:"delay"`
		} `toml:"undulating"`

		ColorCycle struct {
			Points    *int     `toml:"points"`
			Increment *float64 `toml:"increment"`
			Refill    *int     `toml:"refill"`
			Delay     *string  `toml:"delay"`
		} `toml:"colorcycle"`

		Bootie struct {
			Increment *float64 `toml:"increment"`
			Delay     *string  `toml:"delay"`
		} `toml:"bootie"`

		Strobe struct {
			Color *string `toml:"color"`
			On    *string `toml:"on"`
			Off   *string `toml:"off"`
		} `toml:"strobe"`

		Palette struct {
			Points *int     `toml:"points"`
			Step   *float64 `toml:"step"`
			Delay  *string  `toml:"delay"`
		} `toml:"palette"`
	} `toml:"tuning"`
}

// LoadTuning reads the [tuning] table of the file at path on top of
// display.DefaultTuning. A missing file or table yields the defaults.
func LoadTuning(path string) (display.Tuning, error) {
	t := display.DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}

	var f tuningFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return t, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := f.apply(&t); err != nil {
		return display.DefaultTuning(), err
	}
	t.Sanitize()
	return t, nil
}

func (f *tuningFile) apply(t *display.Tuning) error {
	in := &f.Tuning
	fx := &t.Effects
	var errs []error
	dur := func(key string, src *string, dst *time.Duration) {
		if src == nil {
			return
		}
		d, err := time.ParseDuration(*src)
		if err != nil {
			errs = append(errs, fmt.Errorf("tuning.%s: %w", key, err))
			return
		}
		*dst = d
	}
	col := func(key string, src *string, dst *color.RGB) {
		if src == nil {
			return
		}
		c, err := color.ParseHex(*src)
		if err != nil {
			errs = append(errs, fmt.Errorf("tuning.%s: %w", key, err))
			return
		}
		*dst = c
	}
	pair := func(key string, src *[]string, dst *[2]color.RGB) {
		if src == nil {
			return
		}
		if len(*src) != 2 {
			errs = append(errs, fmt.Errorf("tuning.%s: want 2 colors, got %d", key, len(*src)))
			return
		}
		for i := range *src {
			col(fmt.Sprintf("%s[%d]", key, i), &(*src)[i], &dst[i])
		}
	}

	setInt(&t.InitialBrightness, in.InitialBrightness)
	setInt(&t.FadeUpStep, in.FadeUpStep)
	setInt(&t.FadeDownStep, in.FadeDownStep)
	dur("fade_delay", in.FadeDelay, &t.FadeDelay)
	setInt(&t.BrightnessStep, in.BrightnessStep)
	dur("poll_interval", in.PollInterval, &t.PollInterval)
	dur("frame_interval", in.FrameInterval, &t.FrameInterval)
	setInt(&t.IntroDots, in.IntroDots)
	dur("intro_delay", in.IntroDelay, &t.IntroDelay)
	pair("intro_colors", in.IntroColors, &t.IntroColors)

	col("solid.color", in.Solid.Color, &fx.SolidColor)

	setFloat(&fx.SparkleFade, in.Sparkle.Fade)
	setInt(&fx.SparklePasses, in.Sparkle.Passes)
	setInt(&fx.SparkleDots, in.Sparkle.Dots)
	dur("sparkle.hold", in.Sparkle.Hold, &fx.SparkleHold)

	pair("undulating.colors", in.Undulating.Colors, &fx.UndulatingColors)
	setInt(&fx.UndulatingSteps, in.Undulating.Steps)
	dur("undulating.delay", in.Undulating.Delay, &fx.UndulatingDelay)

	setInt(&fx.CyclePoints, in.ColorCycle.Points)
	setFloat(&fx.CycleIncrement, in.ColorCycle.Increment)
	setInt(&fx.CycleRefill, in.ColorCycle.Refill)
	dur("colorcycle.delay", in.ColorCycle.Delay, &fx.CycleDelay)

	setFloat(&fx.BootieIncrement, in.Bootie.Increment)
	dur("bootie.delay", in.Bootie.Delay, &fx.BootieDelay)

	col("strobe.color", in.Strobe.Color, &fx.StrobeColor)
	dur("strobe.on", in.Strobe.On, &fx.StrobeOn)
	dur("strobe.off", in.Strobe.Off, &fx.StrobeOff)

	setInt(&fx.PalettePoints, in.Palette.Points)
	setFloat(&fx.PaletteStep, in.Palette.Step)
	dur("palette.delay", in.Palette.Delay, &fx.PaletteDelay)

	return errors.Join(errs...)
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
