package strip

import (
	"errors"
	"slices"
	"sync"

	"github.com/smazurov/lightnode/internal/color"
)

// Frame is a committed buffer as seen by a MemorySink.
type Frame struct {
	Pixels     []color.RGB
	Brightness uint8
}

// MemorySink keeps the last committed frame of every channel. It backs
// simulation mode and tests.
type MemorySink struct {
	mu      sync.Mutex
	frames  map[int]Frame
	commits int
	failErr error
	closed  bool
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{frames: make(map[int]Frame)}
}

// Commit implements Sink.
func (m *MemorySink) Commit(channel int, px []color.RGB, brightness uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("memory sink closed")
	}
	if m.failErr != nil {
		return m.failErr
	}
	m.frames[channel] = Frame{Pixels: slices.Clone(px), Brightness: brightness}
	m.commits++
	return nil
}

// Close implements Sink.
func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Last returns the last frame committed for channel.
func (m *MemorySink) Last(channel int) (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.frames[channel]
	return f, ok
}

// Commits returns the number of successful commits.
func (m *MemorySink) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// FailWith makes every following commit return err. Nil restores success.
func (m *MemorySink) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}
