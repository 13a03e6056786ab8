// Package camera exposes a single-frame capture controller over the
// sensor driver, with persisted default settings and TIFF export.
package camera

import "errors"

// Sensor and protocol limits for the SL-1510 camera head.
const (
	ModelName  = "SL-1510"
	SensorType = "CMOS"
	Interface  = "USB 2.0"

	ExposureMinMs     = 10
	ExposureMaxMs     = 10000
	DefaultExposureMs = 100

	// BitDepth is the sample depth of the sensor output.
	BitDepth = 16
)

// SupportedFormats lists the image formats Capture can produce.
var SupportedFormats = []string{"tif"}

var (
	ErrInvalidExposure   = errors.New("exposure time out of range")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrNotConnected      = errors.New("camera not connected")
)
