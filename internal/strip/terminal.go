package strip

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/smazurov/lightnode/internal/color"
)

// DefaultPreviewWidth is the number of terminal cells per channel row.
const DefaultPreviewWidth = 72

// TerminalSink draws every channel as a row of colored cells. Each commit
// redraws all rows in place.
type TerminalSink struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *lipgloss.Renderer
	width    int
	rows     map[int]string
	channels int
	drawn    int
}

// NewTerminalSink creates a preview sink for channels rows. Width <= 0 uses
// DefaultPreviewWidth.
func NewTerminalSink(w io.Writer, channels, width int) *TerminalSink {
	if width <= 0 {
		width = DefaultPreviewWidth
	}
	return &TerminalSink{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
		width:    width,
		rows:     make(map[int]string),
		channels: channels,
	}
}

// Commit implements Sink.
func (t *TerminalSink) Commit(channel int, px []color.RGB, brightness uint8) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows[channel] = t.RenderRow(px, brightness)
	if len(t.rows) < t.channels {
		return nil
	}

	var sb strings.Builder
	if t.drawn > 0 {
		fmt.Fprintf(&sb, "\x1b[%dA", t.drawn)
	}
	for ch := range t.channels {
		fmt.Fprintf(&sb, "%d %s\n", ch, t.rows[ch])
	}
	t.drawn = t.channels

	if _, err := io.WriteString(t.w, sb.String()); err != nil {
		return fmt.Errorf("%w: terminal: %w", ErrWriteFailed, err)
	}
	return nil
}

// RenderRow renders px as one row of cells, sampling evenly when the strip
// is longer than the row.
func (t *TerminalSink) RenderRow(px []color.RGB, brightness uint8) string {
	n := min(len(px), t.width)
	var sb strings.Builder
	for i := range n {
		c := px[i*len(px)/n]
		c = color.RGB{R: Dim(c.R, brightness), G: Dim(c.G, brightness), B: Dim(c.B, brightness)}
		sb.WriteString(t.renderer.NewStyle().Background(lipgloss.Color(c.Hex())).Render(" "))
	}
	return sb.String()
}

// Close implements Sink.
func (t *TerminalSink) Close() error {
	return nil
}
