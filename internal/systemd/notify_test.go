package systemd

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/color"
	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/events"
)

type recorder struct {
	mu   sync.Mutex
	sent []string
}

func (r *recorder) notify(state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, state)
	return true, nil
}

func (r *recorder) states() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sent)
}

func (r *recorder) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if slices.Contains(r.states(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("never sent %q, sent %v", want, r.states())
}

func newTestNotifier() (*Notifier, *recorder) {
	rec := &recorder{}
	n := NewNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.notify = rec.notify
	return n, rec
}

type fixedState struct {
	mu sync.Mutex
	s  display.State
}

func (f *fixedState) State() display.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s
}

func (f *fixedState) set(s display.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.s = s
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name  string
		state display.State
		want  string
	}{
		{"off", display.State{Effect: "sparkle"}, "off, effect sparkle"},
		{"on", display.State{On: true, Brightness: 70, Effect: "solid color", Color: color.RGB{R: 255, G: 136}}, "on at 70%, effect solid color, color #ff8800"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusLine(tt.state); got != tt.want {
				t.Errorf("StatusLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotifier_Lifecycle(t *testing.T) {
	n, rec := newTestNotifier()
	bus := events.New()
	source := &fixedState{s: display.State{Effect: "sparkle"}}

	n.Ready()
	n.Follow(bus, source)
	rec.waitFor(t, "STATUS=off, effect sparkle")

	source.set(display.State{On: true, Brightness: 40, Effect: "sparkle"})
	bus.Publish(events.PowerChangedEvent{On: true})
	rec.waitFor(t, "STATUS=on at 40%, effect sparkle, color #000000")

	bus.Publish(events.FrameErrorEvent{Error: "write failed"})
	rec.waitFor(t, "STATUS=frame error: write failed")

	n.Stopping()
	got := rec.states()
	if got[0] != "READY=1" {
		t.Errorf("first notification = %q, want READY=1", got[0])
	}
	if got[len(got)-1] != "STOPPING=1" {
		t.Errorf("last notification = %q, want STOPPING=1", got[len(got)-1])
	}
}

func TestNotifier_Watchdog(t *testing.T) {
	n, rec := newTestNotifier()
	var mu sync.Mutex
	healthy := false
	n.startWatchdog(5*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return healthy
	})

	time.Sleep(30 * time.Millisecond)
	if slices.Contains(rec.states(), "WATCHDOG=1") {
		t.Fatal("watchdog pinged while unhealthy")
	}

	mu.Lock()
	healthy = true
	mu.Unlock()
	rec.waitFor(t, "WATCHDOG=1")

	n.Stopping()
	count := strings.Count(strings.Join(rec.states(), "\n"), "WATCHDOG=1")
	time.Sleep(20 * time.Millisecond)
	if after := strings.Count(strings.Join(rec.states(), "\n"), "WATCHDOG=1"); after != count {
		t.Errorf("watchdog pinged %d times after Stopping", after-count)
	}
}

func TestNotifier_NoSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	t.Setenv("WATCHDOG_USEC", "")
	n := NewNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.Ready()
	if n.StartWatchdog(func() bool { return true }) {
		t.Error("StartWatchdog() = true without WATCHDOG_USEC")
	}
	n.Stopping()
}
