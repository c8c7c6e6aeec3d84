// Package systemd reports the service lifecycle to systemd through the
// notify socket: readiness, a status line that follows the strip, the
// watchdog keep-alive and shutdown.
package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/events"
)

// StateSource provides the snapshot shown in the status line.
type StateSource interface {
	State() display.State
}

// Notifier talks to systemd. Every method is a no-op when NOTIFY_SOCKET is
// unset, so the service runs the same outside systemd.
type Notifier struct {
	logger *slog.Logger
	notify func(state string) (bool, error)

	mu     sync.Mutex
	unsubs []func()
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNotifier creates a notifier that writes to $NOTIFY_SOCKET.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		logger: logger,
		notify: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	if err != nil {
		n.logger.Warn("systemd notify failed", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("systemd notified", "state", state)
	}
}

// Ready reports that startup finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Status sets the free-form status shown by systemctl status.
func (n *Notifier) Status(s string) {
	n.send("STATUS=" + s)
}

// Follow keeps the status line in sync with source until Stopping.
func (n *Notifier) Follow(bus *events.Bus, source StateSource) {
	update := func() { n.Status(StatusLine(source.State())) }
	update()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.unsubs = append(n.unsubs,
		bus.Subscribe(func(events.PowerChangedEvent) { update() }),
		bus.Subscribe(func(events.BrightnessChangedEvent) { update() }),
		bus.Subscribe(func(events.EffectChangedEvent) { update() }),
		bus.Subscribe(func(e events.FrameErrorEvent) { n.Status("frame error: " + e.Error) }),
	)
}

// StartWatchdog pings the watchdog at half of WatchdogSec while healthy
// returns true. It returns false when the unit has no watchdog.
func (n *Notifier) StartWatchdog(healthy func() bool) bool {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog settings", "error", err)
		return false
	}
	if interval == 0 {
		return false
	}
	n.startWatchdog(interval/2, healthy)
	n.logger.Info("systemd watchdog enabled", "interval", interval)
	return true
}

func (n *Notifier) startWatchdog(every time.Duration, healthy func() bool) {
	ctx, cancel := context.WithCancel(context.Background())
	n.mu.Lock()
	n.cancel = cancel
	n.mu.Unlock()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if healthy() {
					n.send(daemon.SdNotifyWatchdog)
				}
			}
		}
	}()
}

// Stopping stops following the strip and the watchdog and reports shutdown.
func (n *Notifier) Stopping() {
	n.mu.Lock()
	for _, unsub := range n.unsubs {
		unsub()
	}
	n.unsubs = nil
	cancel := n.cancel
	n.cancel = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	n.wg.Wait()
	n.send(daemon.SdNotifyStopping)
}

// StatusLine summarizes s for systemctl status.
func StatusLine(s display.State) string {
	if !s.On {
		return fmt.Sprintf("off, effect %s", s.Effect)
	}
	return fmt.Sprintf("on at %d%%, effect %s, color %s", s.Brightness, s.Effect, s.Color.Hex())
}
