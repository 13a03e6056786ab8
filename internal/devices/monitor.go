// Package devices tracks sensor attach and detach through periodic driver
// enumeration, publishing discovery events and updating the connection gauge.
package devices

import (
	"context"
	"log/slog"
	"time"

	"github.com/fs-bullard/sl-wb-pi-api/internal/events"
	"github.com/fs-bullard/sl-wb-pi-api/internal/metrics"
	"github.com/fs-bullard/sl-wb-pi-api/internal/xdt"
)

// defaultPollInterval is how often the monitor re-enumerates the driver.
const defaultPollInterval = 5 * time.Second

// Monitor polls the driver's device list and publishes DeviceDiscoveryEvent
// when sensors appear or disappear.
type Monitor struct {
	driver   xdt.Driver
	eventBus *events.Bus
	logger   *slog.Logger
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}

	known map[string]xdt.DeviceInfo
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithPollInterval overrides the enumeration interval.
func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

// NewMonitor creates a device monitor. Call Start to begin polling.
func NewMonitor(driver xdt.Driver, eventBus *events.Bus, logger *slog.Logger, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		driver:   driver,
		eventBus: eventBus,
		logger:   logger,
		interval: defaultPollInterval,
		known:    make(map[string]xdt.DeviceInfo),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins polling until the context is canceled or Stop is called.
// The first enumeration runs immediately so startup state is accurate.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	m.poll()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.poll()
			}
		}
	}()
	m.logger.Info("device monitor started", "interval", m.interval)
}

// Stop halts polling and waits for the poll goroutine to exit.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.logger.Info("device monitor stopped")
}

func (m *Monitor) poll() {
	devices, err := m.driver.Devices()
	if err != nil {
		m.logger.Warn("device enumeration failed", "error", err)
		return
	}

	current := make(map[string]xdt.DeviceInfo, len(devices))
	for _, dev := range devices {
		current[dev.ID] = dev
		if _, seen := m.known[dev.ID]; !seen {
			m.announce(dev, "added")
		}
	}
	for id, dev := range m.known {
		if _, still := current[id]; !still {
			m.announce(dev, "removed")
		}
	}
	m.known = current

	metrics.SetDeviceConnected(len(current) > 0)
}

func (m *Monitor) announce(dev xdt.DeviceInfo, action string) {
	m.logger.Info("sensor "+action,
		"device", dev.ID,
		"model", dev.Model,
		"serial", dev.Serial)
	m.eventBus.Publish(events.DeviceDiscoveryEvent{
		DeviceID:  dev.ID,
		Model:     dev.Model,
		Serial:    dev.Serial,
		Action:    action,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
