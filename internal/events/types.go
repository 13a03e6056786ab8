package events

// Event type constants for kelindar/event.
const (
	TypeCaptureStarted uint32 = iota + 1
	TypeCaptureSuccess
	TypeCaptureError
	TypeDeviceDiscovery
	TypeSettingsUpdated
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CaptureStartedEvent is published when an exposure begins.
type CaptureStartedEvent struct {
	ExposureMs int    `json:"exposure_ms" example:"100" doc:"Exposure time in milliseconds"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CaptureStartedEvent.
func (e CaptureStartedEvent) Type() uint32 { return TypeCaptureStarted }

// CaptureSuccessEvent represents a completed frame capture.
type CaptureSuccessEvent struct {
	ExposureMs int    `json:"exposure_ms" example:"100" doc:"Exposure time in milliseconds"`
	Resolution string `json:"resolution" example:"1920x1080" doc:"Captured frame resolution"`
	SizeBytes  int    `json:"size_bytes" example:"4147200" doc:"Encoded image size in bytes"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Capture timestamp"`
}

// Type returns the event type identifier for CaptureSuccessEvent.
func (e CaptureSuccessEvent) Type() uint32 { return TypeCaptureSuccess }

// CaptureErrorEvent represents a failed frame capture.
type CaptureErrorEvent struct {
	ExposureMs int    `json:"exposure_ms" example:"100" doc:"Exposure time in milliseconds"`
	Message    string `json:"message" example:"Capture failed" doc:"Error message"`
	Error      string `json:"error" example:"timed out waiting for frame" doc:"Detailed error description"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Error timestamp"`
}

// Type returns the event type identifier for CaptureErrorEvent.
func (e CaptureErrorEvent) Type() uint32 { return TypeCaptureError }

// DeviceDiscoveryEvent represents sensor attach/detach events.
type DeviceDiscoveryEvent struct {
	DeviceID  string `json:"device_id" example:"xdt-0" doc:"Sensor identifier"`
	Model     string `json:"model" example:"SL-1510" doc:"Sensor model"`
	Serial    string `json:"serial,omitempty" doc:"Sensor serial number"`
	Action    string `json:"action" example:"added" doc:"Action type: added, removed"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceDiscoveryEvent.
func (e DeviceDiscoveryEvent) Type() uint32 { return TypeDeviceDiscovery }

// SettingsUpdatedEvent is published when persisted camera settings change,
// either through the API or by an edit of the settings file on disk.
type SettingsUpdatedEvent struct {
	ExposureMs int    `json:"exposure_ms" example:"100" doc:"New default exposure in milliseconds"`
	Source     string `json:"source" example:"api" doc:"What changed the settings: api, file"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SettingsUpdatedEvent.
func (e SettingsUpdatedEvent) Type() uint32 { return TypeSettingsUpdated }
