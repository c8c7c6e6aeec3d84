// Package led drives the board's status LED so the node's state is visible
// even when the strip is dark.
package led

// Patterns understood by every Controller.
const (
	PatternSolid     = "solid"
	PatternBlink     = "blink"
	PatternHeartbeat = "heartbeat"
)

// Controller abstracts LED hardware control across different SBC boards.
type Controller interface {
	// Set switches the LED named name. An empty pattern leaves the current
	// pattern in place.
	Set(name string, enabled bool, pattern string) error

	// Available returns the LED names this board exposes.
	Available() []string

	// Patterns returns the supported patterns.
	Patterns() []string
}
