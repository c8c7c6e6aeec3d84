package strip

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/smazurov/lightnode/internal/color"
)

// nrzSPIFreq is the only SPI clock nrzled accepts: three SPI bits per NRZ
// bit at 800kHz, rounded up.
const nrzSPIFreq = 2500 * physic.KiloHertz

// SPIConfig describes one WS2812 strip driven through an SPI MOSI line.
type SPIConfig struct {
	Port      string // spireg name, e.g. "/dev/spidev0.0"; empty picks the first port
	NumPixels int    // LEDs on the strip
}

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

type spiDevice struct {
	port spi.PortCloser
	dev  *nrzled.Dev
	buf  []byte
}

// SPISink drives WS2812 strips with periph's NRZ encoder. Each strip channel
// owns its own SPI port.
//
// nrzled always puts the second input byte first on the wire (it assumes RGB
// in, GRB out). Commit encodes to the configured wire order and then swaps
// the first two bytes of every pixel so nrzled's reorder lands on it.
type SPISink struct {
	order   WireOrder
	mu      sync.Mutex
	devices map[int]*spiDevice
}

// NewSPISink opens one SPI port per entry; entry i serves strip channel i.
func NewSPISink(configs []SPIConfig, order WireOrder) (*SPISink, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("initialize periph host: %w", err)
	}

	ports := make([]spi.PortCloser, 0, len(configs))
	pixels := make([]int, 0, len(configs))
	for ch, cfg := range configs {
		port, err := spireg.Open(cfg.Port)
		if err != nil {
			for _, p := range ports {
				_ = p.Close()
			}
			return nil, fmt.Errorf("open SPI port %q for channel %d: %w", cfg.Port, ch, err)
		}
		ports = append(ports, port)
		pixels = append(pixels, cfg.NumPixels)
	}
	return newSPISink(ports, pixels, order)
}

// newSPISink wraps already opened ports. It takes ownership of every port,
// closing them all on error.
func newSPISink(ports []spi.PortCloser, pixels []int, order WireOrder) (*SPISink, error) {
	s := &SPISink{order: order, devices: make(map[int]*spiDevice)}
	for ch, port := range ports {
		dev, err := nrzled.NewSPI(port, nrzOpts(pixels[ch]))
		if err != nil {
			for _, p := range ports[ch:] {
				_ = p.Close()
			}
			_ = s.Close()
			return nil, fmt.Errorf("create NRZ LED device on %s: %w", port, err)
		}
		s.devices[ch] = &spiDevice{port: port, dev: dev}
	}
	return s, nil
}

func nrzOpts(numPixels int) *nrzled.Opts {
	opts := nrzled.DefaultOpts
	opts.NumPixels = numPixels
	opts.Channels = 3
	opts.Freq = nrzSPIFreq
	return &opts
}

// Commit implements Sink.
func (s *SPISink) Commit(channel int, px []color.RGB, brightness uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[channel]
	if !ok {
		return fmt.Errorf("%w: no SPI device for channel %d", ErrWriteFailed, channel)
	}

	d.buf = s.order.Encode(d.buf[:0], px, brightness)
	for i := 0; i+1 < len(d.buf); i += 3 {
		d.buf[i], d.buf[i+1] = d.buf[i+1], d.buf[i]
	}
	if _, err := d.dev.Write(d.buf); err != nil {
		return fmt.Errorf("%w: channel %d: %w", ErrWriteFailed, channel, err)
	}
	return nil
}

// Close blanks and releases every strip.
func (s *SPISink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for ch, d := range s.devices {
		if err := d.dev.Halt(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := d.port.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.devices, ch)
	}
	return firstErr
}
