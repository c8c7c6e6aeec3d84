package strip

import (
	"errors"

	"github.com/smazurov/lightnode/internal/color"
)

// MultiSink commits every frame to all of its sinks, for example hardware
// plus a terminal preview. A failing sink does not stop the others.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink fans out to sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Commit implements Sink.
func (m *MultiSink) Commit(channel int, px []color.RGB, brightness uint8) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Commit(channel, px, brightness); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
