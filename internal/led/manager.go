package led

import (
	"log/slog"
	"sync"

	"github.com/fs-bullard/sl-wb-pi-api/internal/events"
)

// activityLED is the LED the manager drives to reflect capture state.
const activityLED = "act"

// Manager subscribes to capture events and drives the board activity LED:
// heartbeat while an exposure is running, solid when idle, blink after a
// failed capture until the next one starts.
type Manager struct {
	controller   Controller
	eventBus     *events.Bus
	unsubscribes []func()
	logger       *slog.Logger

	mu   sync.Mutex
	busy bool
}

// NewManager creates an LED manager that reacts to capture lifecycle events.
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start subscribes to capture events and sets the idle pattern.
func (m *Manager) Start() {
	m.unsubscribes = append(m.unsubscribes,
		m.eventBus.Subscribe(func(e events.CaptureStartedEvent) {
			m.setState(true, "heartbeat")
		}),
		m.eventBus.Subscribe(func(e events.CaptureSuccessEvent) {
			m.setState(false, "solid")
		}),
		m.eventBus.Subscribe(func(e events.CaptureErrorEvent) {
			m.setState(false, "blink")
		}),
	)
	m.apply("solid")
	m.logger.Info("LED manager started")
}

// Stop unsubscribes from events and turns the activity LED solid.
func (m *Manager) Stop() {
	for _, unsub := range m.unsubscribes {
		unsub()
	}
	m.unsubscribes = nil
	m.apply("solid")
	m.logger.Info("LED manager stopped")
}

func (m *Manager) setState(busy bool, pattern string) {
	m.mu.Lock()
	m.busy = busy
	m.mu.Unlock()
	m.apply(pattern)
}

func (m *Manager) apply(pattern string) {
	if err := m.controller.Set(activityLED, true, pattern); err != nil {
		m.logger.Debug("Failed to set activity LED",
			"pattern", pattern, "error", err)
	}
}

// Busy reports whether a capture is currently in progress, as seen
// through the event stream.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// GetController returns the underlying LED controller for direct API access.
func (m *Manager) GetController() Controller {
	return m.controller
}
