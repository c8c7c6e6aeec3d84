package strip

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kellydunn/go-opc"

	"github.com/smazurov/lightnode/internal/color"
)

// OPCSink streams frames to an Open Pixel Control server such as fcserver.
// Strip channel n is sent as OPC channel n+1; OPC channel 0 is broadcast.
// The client connects lazily and is replaced after a failed send. Dial
// attempts are spaced by redial so a missing server costs one attempt per
// interval, not one per frame.
type OPCSink struct {
	addr   string
	order  WireOrder
	redial time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	client   *opc.Client
	nextDial time.Time
	messages map[int]*opc.Message
	buf      []byte
}

// NewOPCSink creates a sink for the OPC server at addr.
func NewOPCSink(addr string, order WireOrder, logger *slog.Logger) *OPCSink {
	return &OPCSink{
		addr:     addr,
		order:    order,
		redial:   time.Second,
		logger:   logger,
		messages: make(map[int]*opc.Message),
	}
}

// Commit implements Sink.
func (s *OPCSink) Commit(channel int, px []color.RGB, brightness uint8) error {
	if channel < 0 || channel > 254 {
		return fmt.Errorf("%w: OPC channel %d out of range", ErrWriteFailed, channel)
	}
	if len(px)*3 > opc.MAX_MESSAGE_SIZE {
		return fmt.Errorf("%w: %d pixels exceed one OPC message", ErrWriteFailed, len(px))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		if err := s.connect(); err != nil {
			return err
		}
	}

	m, ok := s.messages[channel]
	if !ok {
		m = opc.NewMessage(uint8(channel + 1))
		s.messages[channel] = m
	}
	s.buf = fillOPCMessage(m, s.buf[:0], s.order, px, brightness)

	if err := s.client.Send(m); err != nil {
		s.logger.Warn("OPC send failed, reconnecting", "addr", s.addr, "error", err)
		s.client = nil
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, s.addr, err)
	}
	return nil
}

func (s *OPCSink) connect() error {
	now := time.Now()
	if now.Before(s.nextDial) {
		return fmt.Errorf("%w: not connected to %s", ErrWriteFailed, s.addr)
	}
	client := opc.NewClient()
	if err := client.Connect("tcp", s.addr); err != nil {
		s.nextDial = now.Add(s.redial)
		return fmt.Errorf("%w: connect %s: %w", ErrWriteFailed, s.addr, err)
	}
	s.logger.Info("Connected to OPC server", "addr", s.addr)
	s.client = client
	return nil
}

// Close drops the client. opc.Client does not expose its connection, so the
// socket is released when the client is collected.
func (s *OPCSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	return nil
}

// fillOPCMessage writes px into m in wire order with brightness applied. buf
// is scratch space and is returned for reuse.
func fillOPCMessage(m *opc.Message, buf []byte, order WireOrder, px []color.RGB, brightness uint8) []byte {
	buf = order.Encode(buf, px, brightness)
	m.SetLength(uint16(len(buf)))
	for i := 0; i+2 < len(buf); i += 3 {
		m.SetPixelColor(i/3, buf[i], buf[i+1], buf[i+2])
	}
	return buf
}
