// Package capture converts the driver's asynchronous, exactly-once frame
// callback into a blocking, deadline-bounded "capture one frame" operation.
// One Session owns the receive buffer, the producer-consumer synchronizer
// and the device handle; nothing in it is shared process-wide, so tests can
// run independent sessions side by side.
package capture

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fs-bullard/sl-wb-pi-api/internal/metrics"
	"github.com/fs-bullard/sl-wb-pi-api/internal/xdt"
)

// Driver-imposed exposure bounds. Values outside are rejected before any
// hardware interaction.
const (
	MinExposure = 10 * time.Millisecond
	MaxExposure = 10 * time.Second
)

// readoutMargin bounds the worst-case sensor readout and USB transfer time
// added on top of the exposure when computing the frame-wait deadline.
var readoutMargin = 10 * time.Second

// bufferCount is the number of driver-side frame buffers requested at open.
// A single in-flight capture needs exactly one.
const bufferCount = 1

// Frame is a snapshot of the last captured frame. Data aliases the session's
// receive buffer: it stays valid until the next CaptureFrame call and must
// not be retained across it.
type Frame struct {
	Width     uint32
	Height    uint32
	PixelSize uint32
	Data      []byte
	Size      int
}

// Session is an open capture device. Create one with Open and release it
// with Close.
type Session struct {
	driver xdt.Driver
	dev    xdt.Session
	sync   *synchronizer
	slot   *slot
	logger *slog.Logger
	info   xdt.DeviceInfo

	maxWidth  uint32
	maxHeight uint32

	// captureMu serializes CaptureFrame: the protocol supports a single
	// in-flight capture, so a second caller waits for the first.
	captureMu sync.Mutex

	stateMu sync.Mutex
	closed  bool
}

// Open initializes the driver, claims the first enumerated sensor and
// allocates the receive buffer sized to the sensor's maximum frame.
func Open(driver xdt.Driver, logger *slog.Logger) (*Session, error) {
	if err := driver.Initialize(); err != nil {
		return nil, fmt.Errorf("driver initialization failed: %w", err)
	}

	devices, err := driver.Devices()
	if err != nil {
		shutdownDriver(driver, logger)
		return nil, fmt.Errorf("device enumeration failed: %w", err)
	}
	if len(devices) == 0 {
		shutdownDriver(driver, logger)
		return nil, xdt.ErrNoDevice
	}

	dev, err := driver.Open(devices[0].ID, bufferCount)
	if err != nil {
		shutdownDriver(driver, logger)
		return nil, fmt.Errorf("failed to open device %s: %w", devices[0].ID, err)
	}

	maxW, maxH, err := dev.MaxFrameSize()
	if err != nil || maxW == 0 || maxH == 0 {
		if closeErr := dev.Close(); closeErr != nil {
			logger.Warn("failed to close device during open unwind", "error", closeErr)
		}
		shutdownDriver(driver, logger)
		if err == nil {
			err = fmt.Errorf("device reported %dx%d frame size", maxW, maxH)
		}
		return nil, fmt.Errorf("failed to read sensor frame size: %w", err)
	}

	logger.Info("capture device opened",
		"device", devices[0].ID,
		"model", devices[0].Model,
		"max_width", maxW,
		"max_height", maxH)

	return &Session{
		driver:    driver,
		dev:       dev,
		sync:      newSynchronizer(),
		slot:      newSlot(maxW, maxH),
		logger:    logger,
		info:      devices[0],
		maxWidth:  maxW,
		maxHeight: maxH,
	}, nil
}

// Device identifies the sensor this session is bound to.
func (s *Session) Device() xdt.DeviceInfo {
	return s.info
}

func shutdownDriver(driver xdt.Driver, logger *slog.Logger) {
	if err := driver.Shutdown(); err != nil {
		logger.Warn("driver shutdown failed", "error", err)
	}
}

// SensorSize reports the maximum frame geometry read at open time.
func (s *Session) SensorSize() (width, height uint32) {
	return s.maxWidth, s.maxHeight
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.closed
}

// CaptureFrame performs one complete capture: it programs a single-frame
// triggered sequence with the given exposure, starts streaming, issues the
// software trigger and blocks until the frame lands in the receive buffer or
// the deadline (exposure + readout margin) passes. Streaming is stopped on
// every exit path. On success the frame is readable through FrameData.
func (s *Session) CaptureFrame(exposure time.Duration) error {
	if s.Closed() {
		return ErrNotInitialized
	}
	if exposure < MinExposure || exposure > MaxExposure {
		return fmt.Errorf("%w: %v not in [%v, %v]",
			ErrInvalidExposure, exposure, MinExposure, MaxExposure)
	}

	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	start := time.Now()

	// Clear readiness before touching hardware. A frame left over from a
	// previous session must never satisfy this capture's wait, and the
	// arm-before-trigger ordering is what prevents a lost wakeup when the
	// callback fires before we reach waitUntil.
	s.sync.arm()

	if err := s.dev.SetAcquisitionMode(xdt.ModeSingleTriggered); err != nil {
		metrics.ObserveCapture("config_error", time.Since(start))
		return fmt.Errorf("%w: set acquisition mode: %v", ErrConfiguration, err)
	}
	cfg := xdt.SequenceConfig{
		FrameCount:   1,
		ExposureTime: exposure,
	}
	if err := s.dev.ConfigureSequence(cfg); err != nil {
		metrics.ObserveCapture("config_error", time.Since(start))
		return fmt.Errorf("%w: configure sequence: %v", ErrConfiguration, err)
	}

	if err := s.dev.StartStreaming(s.frameDelivered); err != nil {
		metrics.ObserveCapture("stream_error", time.Since(start))
		return fmt.Errorf("%w: %v", ErrStreamStart, err)
	}

	if err := s.dev.IssueSoftwareTrigger(); err != nil {
		s.stopStreaming()
		metrics.ObserveCapture("trigger_error", time.Since(start))
		return fmt.Errorf("%w: %v", ErrTrigger, err)
	}

	deadline := time.Now().Add(exposure + readoutMargin)
	waitErr := s.sync.waitUntil(deadline)

	// Streaming must end on every exit path, or the device is left
	// mid-stream. After a delivered frame a stop failure is a warning, not
	// a capture failure.
	s.stopStreaming()

	if waitErr != nil {
		s.logger.Warn("capture timed out",
			"exposure", exposure,
			"deadline", exposure+readoutMargin)
		metrics.ObserveCapture("timeout", time.Since(start))
		return waitErr
	}

	metrics.ObserveCapture("success", time.Since(start))
	return nil
}

// stopStreaming leaves streaming state, logging but never escalating
// failures: stopping an already-broken session must not itself be fatal.
func (s *Session) stopStreaming() {
	if err := s.dev.StopStreaming(); err != nil {
		s.logger.Warn("failed to stop streaming", "error", err)
	}
}

// frameDelivered runs on the driver's delivery goroutine, once per completed
// frame. It copies the borrowed buffer into the slot under the synchronizer
// lock and signals the waiter. Any fault here leaves ready false and
// surfaces upstream as a capture timeout; the deferred Commit returns buffer
// ownership to the driver on every path.
func (s *Session) frameDelivered(fb xdt.FrameBuffer) {
	defer fb.Commit()

	width, height, err := fb.Dimensions()
	if err != nil {
		s.logger.Error("failed to read frame dimensions", "error", err)
		return
	}
	pw, err := fb.PixelWidth()
	if err != nil {
		s.logger.Error("failed to read frame pixel width", "error", err)
		return
	}
	if pw != pixelSize {
		s.logger.Error("unexpected pixel width", "pixel_width", pw, "want", pixelSize)
		return
	}

	required := int(width) * int(height) * int(pw)
	if required > s.slot.capacity() {
		// Protocol violation: the frame is larger than the maximum the
		// sensor reported at open. Dropping it is safe; overflowing the
		// buffer is not.
		s.logger.Error("frame exceeds preallocated buffer",
			"width", width,
			"height", height,
			"required", required,
			"capacity", s.slot.capacity())
		metrics.IncFrameOversized()
		return
	}

	data, err := fb.Data()
	if err != nil {
		s.logger.Error("failed to read frame data", "error", err)
		return
	}
	if len(data) < required {
		s.logger.Error("driver delivered short frame buffer",
			"got", len(data), "required", required)
		return
	}

	s.sync.mu.Lock()
	s.slot.store(width, height, data[:required])
	s.sync.ready = true
	s.sync.mu.Unlock()
	s.sync.signal()
}

// FrameData returns a snapshot of the last captured frame. The returned
// Data slice is a borrowed view of the receive buffer, valid until the next
// CaptureFrame call. Before the first successful capture it reports
// ErrNoFrame instead of empty memory.
func (s *Session) FrameData() (Frame, error) {
	s.sync.mu.Lock()
	defer s.sync.mu.Unlock()

	if s.slot.validSize == 0 {
		return Frame{}, ErrNoFrame
	}
	return Frame{
		Width:     s.slot.width,
		Height:    s.slot.height,
		PixelSize: pixelSize,
		Data:      s.slot.data[:s.slot.validSize],
		Size:      s.slot.validSize,
	}, nil
}

// Close releases the device and shuts the driver down. Calling it again is
// a no-op.
func (s *Session) Close() error {
	s.stateMu.Lock()
	if s.closed {
		s.stateMu.Unlock()
		return nil
	}
	s.closed = true
	s.stateMu.Unlock()

	if err := s.dev.Close(); err != nil {
		s.logger.Warn("failed to close device", "error", err)
	}
	shutdownDriver(s.driver, s.logger)
	s.logger.Info("capture device closed")
	return nil
}
