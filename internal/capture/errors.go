package capture

import "errors"

var (
	// ErrNotInitialized is returned when a capture is attempted before the
	// device has been opened.
	ErrNotInitialized = errors.New("capture device not initialized")

	// ErrInvalidExposure is returned for exposure times outside the
	// sensor's supported range. No hardware operation is issued.
	ErrInvalidExposure = errors.New("exposure time out of range")

	// ErrConfiguration is returned when programming acquisition parameters
	// fails before streaming was started.
	ErrConfiguration = errors.New("acquisition configuration failed")

	// ErrStreamStart is returned when the device could not enter streaming
	// state.
	ErrStreamStart = errors.New("failed to start streaming")

	// ErrTrigger is returned when the software trigger could not be issued.
	ErrTrigger = errors.New("failed to issue software trigger")

	// ErrCaptureTimeout is returned when no frame arrived before the
	// deadline. Any fault inside the delivery callback surfaces as this
	// error, never as a crash or hang.
	ErrCaptureTimeout = errors.New("timed out waiting for frame")

	// ErrNoFrame is reported by FrameData before the first successful
	// capture has populated the buffer.
	ErrNoFrame = errors.New("no frame captured yet")
)
