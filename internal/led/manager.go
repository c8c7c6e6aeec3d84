package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/events"
)

// Manager mirrors the strip on the status LED: solid while lit, heartbeat
// while dark, blink after a sink failed to write a frame. The failure
// pattern holds until the next power change.
type Manager struct {
	controller Controller
	name       string
	eventBus   *events.Bus
	logger     *slog.Logger

	mu      sync.Mutex
	unsubs  []func()
	on      bool
	failing bool
	pattern string
}

// NewManager creates a manager driving the LED called name.
func NewManager(controller Controller, name string, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		name:       name,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start sets the initial pattern and begins listening for events.
func (m *Manager) Start(initial bool) {
	m.mu.Lock()
	m.on = initial
	m.apply()
	m.mu.Unlock()

	m.unsubs = []func(){
		m.eventBus.Subscribe(func(e events.PowerChangedEvent) { m.handlePower(e.On) }),
		m.eventBus.Subscribe(func(e events.FrameErrorEvent) { m.handleFrameError(e) }),
	}
	m.logger.Info("Status LED manager started", "led", m.name)
}

// Stop unsubscribes and switches the LED off.
func (m *Manager) Stop() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.controller.Set(m.name, false, PatternSolid); err != nil {
		m.logger.Warn("Failed to switch status LED off", "error", err)
	}
	m.pattern = ""
	m.logger.Info("Status LED manager stopped")
}

func (m *Manager) handlePower(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.on = on
	m.failing = false
	m.apply()
}

func (m *Manager) handleFrameError(e events.FrameErrorEvent) {
	if e.Outcome != display.HardwareWriteFailure.String() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = true
	m.apply()
}

// Pattern returns the pattern currently shown.
func (m *Manager) Pattern() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pattern
}

// apply must be called with mu held.
func (m *Manager) apply() {
	pattern := PatternHeartbeat
	switch {
	case m.failing:
		pattern = PatternBlink
	case m.on:
		pattern = PatternSolid
	}
	if pattern == m.pattern {
		return
	}
	if err := m.controller.Set(m.name, true, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "pattern", pattern, "error", err)
		return
	}
	m.logger.Debug("Status LED updated", "pattern", pattern)
	m.pattern = pattern
}

// Name returns the name of the status LED.
func (m *Manager) Name() string {
	return m.name
}

// GetController returns the underlying controller for direct API access.
func (m *Manager) GetController() Controller {
	return m.controller
}
