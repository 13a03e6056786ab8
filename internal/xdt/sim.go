package xdt

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// Simulated sensor defaults, matching the SL-1510 sensor geometry.
const (
	simWidth      = 1920
	simHeight     = 1080
	simPixelWidth = 2
)

// SimOption configures the simulated driver.
type SimOption func(*SimDriver)

// WithSimFrameSize overrides the simulated sensor geometry.
func WithSimFrameSize(width, height uint32) SimOption {
	return func(d *SimDriver) {
		d.width = width
		d.height = height
	}
}

// WithSimReadout adds fixed readout latency between the end of the exposure
// and frame delivery.
func WithSimReadout(latency time.Duration) SimOption {
	return func(d *SimDriver) {
		d.readout = latency
	}
}

// SimDriver is an in-process stand-in for the vendor USB driver. It delivers
// a deterministic 16-bit gradient test pattern from its own goroutine after
// the programmed exposure elapses, reproducing the asynchronous callback
// contract of real hardware.
type SimDriver struct {
	width   uint32
	height  uint32
	readout time.Duration

	mu          sync.Mutex
	initialized bool
}

// NewSim creates a simulated driver exposing a single attached sensor.
func NewSim(opts ...SimOption) *SimDriver {
	d := &SimDriver{
		width:  simWidth,
		height: simHeight,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Initialize implements Driver.
func (d *SimDriver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
	return nil
}

// Shutdown implements Driver.
func (d *SimDriver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	return nil
}

// Devices implements Driver. The simulator always reports one sensor.
func (d *SimDriver) Devices() ([]DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil, fmt.Errorf("simulated driver not initialized")
	}
	return []DeviceInfo{
		{ID: "sim-0", Model: "SL-1510", Serial: "SIM00000"},
	}, nil
}

// Open implements Driver.
func (d *SimDriver) Open(id string, bufferCount int) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil, fmt.Errorf("simulated driver not initialized")
	}
	if id != "sim-0" {
		return nil, fmt.Errorf("unknown device %q: %w", id, ErrNoDevice)
	}
	if bufferCount < 1 {
		return nil, fmt.Errorf("buffer count must be at least 1, got %d", bufferCount)
	}
	return &simSession{driver: d}, nil
}

type simSession struct {
	driver *SimDriver

	mu        sync.Mutex
	closed    bool
	streaming bool
	handler   FrameHandler
	cfg       SequenceConfig
	wg        sync.WaitGroup
}

func (s *simSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.streaming = false
	s.handler = nil
	s.mu.Unlock()

	// Let any in-flight delivery finish before the session goes away.
	s.wg.Wait()
	return nil
}

func (s *simSession) MaxFrameSize() (uint32, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, ErrClosed
	}
	return s.driver.width, s.driver.height, nil
}

func (s *simSession) SetAcquisitionMode(mode AcquisitionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if mode != ModeSingleTriggered && mode != ModeContinuous {
		return fmt.Errorf("unsupported acquisition mode %d", mode)
	}
	return nil
}

func (s *simSession) ConfigureSequence(cfg SequenceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if cfg.FrameCount < 1 {
		return fmt.Errorf("frame count must be at least 1, got %d", cfg.FrameCount)
	}
	s.cfg = cfg
	return nil
}

func (s *simSession) StartStreaming(handler FrameHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.streaming {
		return ErrAlreadyStreaming
	}
	s.streaming = true
	s.handler = handler
	return nil
}

func (s *simSession) StopStreaming() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.streaming {
		return ErrNotStreaming
	}
	s.streaming = false
	s.handler = nil
	return nil
}

func (s *simSession) IssueSoftwareTrigger() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.streaming {
		return ErrNotStreaming
	}

	exposure := s.cfg.ExposureTime
	delay := exposure + s.driver.readout
	width, height := s.driver.width, s.driver.height

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		time.Sleep(delay)

		s.mu.Lock()
		handler := s.handler
		s.mu.Unlock()
		if handler == nil {
			// Streaming stopped before readout completed; the frame is
			// dropped, as real hardware would.
			return
		}
		handler(newSimFrame(width, height))
	}()
	return nil
}

// simFrame is the delivery-side borrowed buffer.
type simFrame struct {
	width  uint32
	height uint32
	data   []byte

	mu        sync.Mutex
	committed bool
}

// newSimFrame renders the test pattern: a horizontal 16-bit gradient with
// saturated grid lines every 100 pixels.
func newSimFrame(width, height uint32) *simFrame {
	data := make([]byte, int(width)*int(height)*simPixelWidth)
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			var v uint16
			switch {
			case x%100 == 0 || y%100 == 0:
				v = 0xFFFF
			default:
				v = uint16(uint64(x) * 0xFFFF / uint64(width-1))
			}
			off := (int(y)*int(width) + int(x)) * simPixelWidth
			binary.LittleEndian.PutUint16(data[off:], v)
		}
	}
	return &simFrame{width: width, height: height, data: data}
}

func (f *simFrame) Dimensions() (uint32, uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.committed {
		return 0, 0, fmt.Errorf("frame buffer already committed")
	}
	return f.width, f.height, nil
}

func (f *simFrame) PixelWidth() (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.committed {
		return 0, fmt.Errorf("frame buffer already committed")
	}
	return simPixelWidth, nil
}

func (f *simFrame) Data() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.committed {
		return nil, fmt.Errorf("frame buffer already committed")
	}
	return f.data, nil
}

func (f *simFrame) Commit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = true
}
