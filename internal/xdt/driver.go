// Package xdt defines the contract consumed from the sensor's USB driver
// layer. The physical transport binding is external to this repository;
// everything above it programs the device exclusively through these
// interfaces, which mirror the vendor SDK's surface (enumerate, open,
// configure, stream with a frame callback, trigger, stop).
package xdt

import "time"

// AcquisitionMode selects how the sensor schedules exposures.
type AcquisitionMode int

const (
	// ModeSingleTriggered exposes one programmed sequence per software trigger.
	ModeSingleTriggered AcquisitionMode = iota
	// ModeContinuous free-runs the sensor. Not used by the capture core.
	ModeContinuous
)

// DeviceInfo identifies an enumerated sensor.
type DeviceInfo struct {
	ID     string
	Model  string
	Serial string
}

// SequenceConfig programs the acquisition sequence for the next trigger.
type SequenceConfig struct {
	FrameCount   int
	ExposureTime time.Duration
	SkipCount    int
	SkipTime     time.Duration
}

// FrameBuffer is a borrowed view of a filled driver-owned buffer. It is only
// valid inside a FrameHandler invocation, until Commit is called. No other
// driver operation may be issued from callback context.
type FrameBuffer interface {
	// Dimensions reports the delivered frame's width and height in pixels.
	Dimensions() (width, height uint32, err error)

	// PixelWidth reports the bytes per pixel of the delivered frame.
	PixelWidth() (uint32, error)

	// Data exposes the driver's buffer read-only. The slice aliases driver
	// memory and must be fully copied out before Commit.
	Data() ([]byte, error)

	// Commit returns buffer ownership to the driver for reuse. Every
	// delivered buffer must be committed exactly once, on every code path,
	// or the driver starves for buffers.
	Commit()
}

// FrameHandler is invoked by the driver's delivery thread once per completed
// frame, outside any application call stack.
type FrameHandler func(fb FrameBuffer)

// Driver is the library-level entry point of the sensor SDK.
type Driver interface {
	// Initialize prepares the driver library. Must be called before any
	// other operation.
	Initialize() error

	// Shutdown releases library resources. Open sessions must be closed
	// first.
	Shutdown() error

	// Devices enumerates currently attached sensors.
	Devices() ([]DeviceInfo, error)

	// Open claims a sensor, allocating bufferCount driver-side frame
	// buffers.
	Open(id string, bufferCount int) (Session, error)
}

// Session is an open handle to one sensor.
type Session interface {
	// Close releases the device. Safe to call once per Open.
	Close() error

	// MaxFrameSize reports the largest frame the sensor can deliver, read
	// from the device at open time and used to size the receive buffer.
	MaxFrameSize() (width, height uint32, err error)

	// SetAcquisitionMode selects the exposure scheduling mode.
	SetAcquisitionMode(mode AcquisitionMode) error

	// ConfigureSequence programs frame count and exposure for the next
	// trigger.
	ConfigureSequence(cfg SequenceConfig) error

	// StartStreaming puts the device into streaming state and registers the
	// frame delivery handler.
	StartStreaming(handler FrameHandler) error

	// StopStreaming leaves streaming state. Must be called before the next
	// StartStreaming.
	StopStreaming() error

	// IssueSoftwareTrigger starts the programmed acquisition.
	IssueSoftwareTrigger() error
}
