package cmd

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/gradient"
	"github.com/smazurov/lightnode/internal/strip"
)

// CreatePaletteCmd creates the palette command.
func CreatePaletteCmd() *cobra.Command {
	var kind string
	var seed, jitter float64
	var width int

	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Preview a color palette and its gradient in the terminal",
		Long: `Renders the colors of a palette kind (complementary, triad, analogous or random)
followed by the wrapped gradient the palette effect slides along the strip.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if width <= 0 {
				width = strip.DefaultPreviewWidth
			}
			colors, label, err := pickPalette(kind, seed, jitter)
			if err != nil {
				return err
			}

			stops := paletteStops(colors)
			px := make([]color.RGB, width)
			if err := gradient.New(stops).Render(px); err != nil {
				return err
			}

			preview := strip.NewTerminalSink(os.Stdout, 1, width)
			fmt.Fprintln(os.Stdout, label)
			fmt.Fprintln(os.Stdout, preview.RenderRow(swatches(colors, width), 255))
			fmt.Fprintln(os.Stdout, preview.RenderRow(px, 255))
			hexes := make([]string, len(colors))
			for i, c := range colors {
				hexes[i] = c.Hex()
			}
			fmt.Fprintln(os.Stdout, strings.Join(hexes, " "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "random", "Palette kind: complementary, triad, analogous or random")
	cmd.Flags().Float64VarP(&seed, "seed", "s", 0, "Base hue in [0,1)")
	cmd.Flags().Float64VarP(&jitter, "jitter", "j", color.MaxAnalogousSpread, "Hue step of analogous palettes")
	cmd.Flags().IntVarP(&width, "width", "w", strip.DefaultPreviewWidth, "Preview width in cells")
	return cmd
}

func pickPalette(kind string, seed, jitter float64) ([]color.RGB, string, error) {
	if kind == "random" {
		return color.RandomPalette(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))), "random", nil
	}
	k, err := color.ParsePaletteKind(kind)
	if err != nil {
		return nil, "", err
	}
	return color.MakePalette(k, seed, jitter), fmt.Sprintf("%s seed=%.3f", k, seed), nil
}

// paletteStops spreads colors evenly and repeats the first color at the end
// so the gradient wraps.
func paletteStops(colors []color.RGB) gradient.Palette {
	stops := make(gradient.Palette, 0, len(colors)+1)
	for i, c := range colors {
		stops = append(stops, gradient.Stop{Pos: float64(i) / float64(len(colors)), Color: c})
	}
	return append(stops, gradient.Stop{Pos: 1, Color: colors[0]})
}

// swatches lays colors out as equal blocks across width cells.
func swatches(colors []color.RGB, width int) []color.RGB {
	px := make([]color.RGB, width)
	for i := range px {
		px[i] = colors[i*len(colors)/width]
	}
	return px
}
