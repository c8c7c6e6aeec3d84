// Package strip models physical LED channels and the sinks that commit
// their pixel buffers to hardware.
//
// Pixel buffers are always in true RGB order. Sinks apply brightness and the
// device wire order when they encode a frame, so nothing upstream of a sink
// ever sees swapped channels.
package strip

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smazurov/lightnode/internal/color"
)

// ErrWriteFailed wraps every error raised while committing a frame.
var ErrWriteFailed = errors.New("strip write failed")

// MaxBrightness is the top of the brightness scale.
const MaxBrightness = 100

// Sink commits a full pixel buffer for one channel.
type Sink interface {
	Commit(channel int, px []color.RGB, brightness uint8) error
	Close() error
}

// WireOrder is the byte order a device expects for each pixel.
type WireOrder int

// Wire orders. WS2812 strips are usually GRB.
const (
	OrderRGB WireOrder = iota
	OrderRBG
	OrderGRB
	OrderGBR
	OrderBRG
	OrderBGR
)

var wireOrderNames = []string{"rgb", "rbg", "grb", "gbr", "brg", "bgr"}

func (o WireOrder) String() string {
	if int(o) < 0 || int(o) >= len(wireOrderNames) {
		return fmt.Sprintf("WireOrder(%d)", int(o))
	}
	return wireOrderNames[o]
}

// ParseWireOrder parses names like "grb", case-insensitively.
func ParseWireOrder(s string) (WireOrder, error) {
	for i, name := range wireOrderNames {
		if strings.EqualFold(s, name) {
			return WireOrder(i), nil
		}
	}
	return 0, fmt.Errorf("unknown wire order %q", s)
}

// Encode appends px to dst as three bytes per pixel in wire order, scaled by
// brightness out of MaxBrightness.
func (o WireOrder) Encode(dst []byte, px []color.RGB, brightness uint8) []byte {
	for _, c := range px {
		r, g, b := Dim(c.R, brightness), Dim(c.G, brightness), Dim(c.B, brightness)
		switch o {
		case OrderRBG:
			dst = append(dst, r, b, g)
		case OrderGRB:
			dst = append(dst, g, r, b)
		case OrderGBR:
			dst = append(dst, g, b, r)
		case OrderBRG:
			dst = append(dst, b, r, g)
		case OrderBGR:
			dst = append(dst, b, g, r)
		default:
			dst = append(dst, r, g, b)
		}
	}
	return dst
}

// Dim scales one component by brightness out of MaxBrightness.
func Dim(v, brightness uint8) uint8 {
	if brightness >= MaxBrightness {
		return v
	}
	return uint8(uint16(v) * uint16(brightness) / MaxBrightness)
}

// Channel is one physical strip: a fixed-length buffer, a brightness in
// [0,100] and the sink that shows it. The buffer is never shared.
type Channel struct {
	id         int
	pixels     []color.RGB
	brightness uint8
	sink       Sink
}

// NewChannel creates channel id with n pixels, full brightness and all
// pixels black.
func NewChannel(id, n int, sink Sink) *Channel {
	return &Channel{
		id:         id,
		pixels:     make([]color.RGB, n),
		brightness: MaxBrightness,
		sink:       sink,
	}
}

// ID returns the channel number handed to the sink.
func (c *Channel) ID() int { return c.id }

// Len returns the number of pixels.
func (c *Channel) Len() int { return len(c.pixels) }

// Pixels returns the live buffer.
func (c *Channel) Pixels() []color.RGB { return c.pixels }

// Brightness returns the current brightness.
func (c *Channel) Brightness() uint8 { return c.brightness }

// SetBrightness sets the brightness used by the next Show, clamped to 100.
func (c *Channel) SetBrightness(b uint8) {
	c.brightness = min(b, MaxBrightness)
}

// Fill sets every pixel to col.
func (c *Channel) Fill(col color.RGB) {
	for i := range c.pixels {
		c.pixels[i] = col
	}
}

// Clear sets every pixel to black.
func (c *Channel) Clear() {
	c.Fill(color.Black)
}

// Show commits the buffer through the sink.
func (c *Channel) Show() error {
	if err := c.sink.Commit(c.id, c.pixels, c.brightness); err != nil {
		if errors.Is(err, ErrWriteFailed) {
			return err
		}
		return fmt.Errorf("%w: channel %d: %w", ErrWriteFailed, c.id, err)
	}
	return nil
}

// Sink returns the channel's sink.
func (c *Channel) Sink() Sink { return c.sink }

// CloseAll closes every distinct sink used by channels.
func CloseAll(channels []*Channel) error {
	seen := make(map[Sink]bool)
	var errs []error
	for _, ch := range channels {
		if seen[ch.sink] {
			continue
		}
		seen[ch.sink] = true
		if err := ch.sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
