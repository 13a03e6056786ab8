package xdt

import "errors"

var (
	// ErrNoDevice indicates enumeration found no attached sensor.
	ErrNoDevice = errors.New("no capture device found")

	// ErrNotStreaming is returned for streaming-state operations issued
	// while the device is idle.
	ErrNotStreaming = errors.New("device is not streaming")

	// ErrAlreadyStreaming is returned when StartStreaming is called twice
	// without an intervening StopStreaming.
	ErrAlreadyStreaming = errors.New("device is already streaming")

	// ErrClosed is returned for operations on a closed session.
	ErrClosed = errors.New("device session is closed")
)
