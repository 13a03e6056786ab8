package camera

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/image/tiff"

	"github.com/fs-bullard/sl-wb-pi-api/internal/capture"
	"github.com/fs-bullard/sl-wb-pi-api/internal/events"
)

// CaptureDevice is the slice of capture.Session the controller needs.
type CaptureDevice interface {
	CaptureFrame(exposure time.Duration) error
	FrameData() (capture.Frame, error)
	SensorSize() (width, height uint32)
	Closed() bool
}

// Metadata describes a captured image, surfaced as response headers.
type Metadata struct {
	Timestamp  string
	ExposureMs int
	Resolution string
	SizeBytes  int
	Format     string
}

// Capabilities reports the sensor limits and supported output formats.
type Capabilities struct {
	Model            string
	SensorType       string
	Interface        string
	BitDepth         int
	MaxWidth         uint32
	MaxHeight        uint32
	ExposureMinMs    int
	ExposureMaxMs    int
	SupportedFormats []string
}

// Controller orchestrates single-frame captures: it validates the request,
// drives the capture session, encodes the result and publishes lifecycle
// events.
type Controller struct {
	device   CaptureDevice
	settings *SettingsStore
	bus      *events.Bus
	logger   *slog.Logger
}

// NewController wires a capture device to the settings store and event bus.
func NewController(device CaptureDevice, settings *SettingsStore, bus *events.Bus, logger *slog.Logger) *Controller {
	return &Controller{
		device:   device,
		settings: settings,
		bus:      bus,
		logger:   logger,
	}
}

// Connected reports whether the capture device is usable.
func (c *Controller) Connected() bool {
	return c.device != nil && !c.device.Closed()
}

// Capabilities reports the sensor limits for the info endpoint.
func (c *Controller) Capabilities() Capabilities {
	caps := Capabilities{
		Model:            ModelName,
		SensorType:       SensorType,
		Interface:        Interface,
		BitDepth:         BitDepth,
		ExposureMinMs:    ExposureMinMs,
		ExposureMaxMs:    ExposureMaxMs,
		SupportedFormats: SupportedFormats,
	}
	if c.device != nil {
		caps.MaxWidth, caps.MaxHeight = c.device.SensorSize()
	}
	return caps
}

// Settings returns the persisted camera defaults.
func (c *Controller) Settings() Settings {
	return c.settings.Get()
}

// UpdateSettings validates and persists new defaults, then announces the
// change. Source identifies who made it ("api", "file").
func (c *Controller) UpdateSettings(settings Settings, source string) error {
	if err := c.settings.Update(settings); err != nil {
		return err
	}
	c.bus.Publish(events.SettingsUpdatedEvent{
		ExposureMs: settings.ExposureMs,
		Source:     source,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// Capture acquires one frame and returns it encoded in the requested
// format. exposureMs <= 0 selects the persisted default exposure.
func (c *Controller) Capture(exposureMs int, format string) ([]byte, Metadata, error) {
	if !c.Connected() {
		return nil, Metadata{}, ErrNotConnected
	}

	if format == "" {
		format = "tif"
	}
	if !formatSupported(format) {
		return nil, Metadata{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if exposureMs <= 0 {
		exposureMs = c.settings.Get().ExposureMs
	}
	if exposureMs < ExposureMinMs || exposureMs > ExposureMaxMs {
		return nil, Metadata{}, fmt.Errorf("%w: %dms not in [%d, %d]",
			ErrInvalidExposure, exposureMs, ExposureMinMs, ExposureMaxMs)
	}

	started := time.Now().UTC()
	c.bus.Publish(events.CaptureStartedEvent{
		ExposureMs: exposureMs,
		Timestamp:  started.Format(time.RFC3339),
	})
	c.logger.Info("capture started", "exposure_ms", exposureMs, "format", format)

	exposure := time.Duration(exposureMs) * time.Millisecond
	if err := c.device.CaptureFrame(exposure); err != nil {
		c.publishError(exposureMs, "Capture failed", err)
		return nil, Metadata{}, err
	}

	frame, err := c.device.FrameData()
	if err != nil {
		c.publishError(exposureMs, "Frame retrieval failed", err)
		return nil, Metadata{}, err
	}

	encoded, err := encodeTIFF(frame)
	if err != nil {
		c.publishError(exposureMs, "Image encoding failed", err)
		return nil, Metadata{}, fmt.Errorf("failed to encode frame: %w", err)
	}

	meta := Metadata{
		Timestamp:  started.Format(time.RFC3339),
		ExposureMs: exposureMs,
		Resolution: fmt.Sprintf("%dx%d", frame.Width, frame.Height),
		SizeBytes:  len(encoded),
		Format:     format,
	}

	c.bus.Publish(events.CaptureSuccessEvent{
		ExposureMs: exposureMs,
		Resolution: meta.Resolution,
		SizeBytes:  meta.SizeBytes,
		Timestamp:  meta.Timestamp,
	})
	c.logger.Info("capture complete",
		"exposure_ms", exposureMs,
		"resolution", meta.Resolution,
		"size_bytes", meta.SizeBytes)

	return encoded, meta, nil
}

func (c *Controller) publishError(exposureMs int, message string, err error) {
	c.logger.Error("capture failed", "exposure_ms", exposureMs, "error", err)
	c.bus.Publish(events.CaptureErrorEvent{
		ExposureMs: exposureMs,
		Message:    message,
		Error:      err.Error(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

func formatSupported(format string) bool {
	for _, f := range SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// encodeTIFF packs the sensor's little-endian 16-bit samples into a
// Gray16 image (big-endian pixel order) and writes an uncompressed TIFF.
func encodeTIFF(frame capture.Frame) ([]byte, error) {
	if frame.PixelSize != 2 {
		return nil, fmt.Errorf("unexpected pixel size %d", frame.PixelSize)
	}
	width, height := int(frame.Width), int(frame.Height)
	if width <= 0 || height <= 0 || frame.Size < width*height*2 {
		return nil, fmt.Errorf("frame geometry %dx%d does not match %d bytes",
			width, height, frame.Size)
	}

	img := image.NewGray16(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		v := binary.LittleEndian.Uint16(frame.Data[2*i:])
		img.Pix[2*i] = byte(v >> 8)
		img.Pix[2*i+1] = byte(v)
	}

	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
