// Package models holds the request and response shapes shared across API
// route registrations.
package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit,omitempty" doc:"Git commit hash"`
	BuildDate string `json:"build_date,omitempty" doc:"Build timestamp"`
	BuildID   string `json:"build_id,omitempty" doc:"CI build identifier"`
	GoVersion string `json:"go_version,omitempty" doc:"Go toolchain version"`
	Compiler  string `json:"compiler,omitempty" doc:"Go compiler"`
	Platform  string `json:"platform,omitempty" example:"linux/arm64" doc:"Build platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Status models
type CaptureCounts struct {
	Success  uint64 `json:"success" example:"42" doc:"Successful captures since start"`
	Failed   uint64 `json:"failed" example:"1" doc:"Failed captures since start"`
	Timeouts uint64 `json:"timeouts" example:"0" doc:"Captures that timed out waiting for a frame"`
}

type StatusData struct {
	CameraConnected bool          `json:"camera_connected" example:"true" doc:"Whether the sensor is open and usable"`
	Model           string        `json:"model" example:"SL-1510" doc:"Sensor model"`
	Serial          string        `json:"serial,omitempty" doc:"Sensor serial number"`
	CaptureBusy     bool          `json:"capture_busy" example:"false" doc:"Whether an exposure is currently running"`
	Captures        CaptureCounts `json:"captures" doc:"Capture outcome counters"`
	UptimeSeconds   int64         `json:"uptime_seconds" example:"3600" doc:"Seconds since the service started"`
}

type StatusResponse struct {
	Body StatusData
}

// Settings models
type SettingsData struct {
	ExposureMs int `json:"exposure_time" example:"100" minimum:"10" maximum:"10000" doc:"Default exposure time in milliseconds"`
}

type SettingsResponse struct {
	Body SettingsData
}

type SettingsUpdateRequest struct {
	Body SettingsData
}

// Info models
type InfoData struct {
	Model            string   `json:"model" example:"SL-1510" doc:"Camera model"`
	SensorType       string   `json:"sensor_type" example:"CMOS" doc:"Sensor technology"`
	Interface        string   `json:"interface" example:"USB 2.0" doc:"Host interface"`
	BitDepth         int      `json:"bit_depth" example:"16" doc:"Sample bit depth"`
	MaxWidth         uint32   `json:"max_width" example:"1920" doc:"Maximum frame width in pixels"`
	MaxHeight        uint32   `json:"max_height" example:"1080" doc:"Maximum frame height in pixels"`
	ExposureMinMs    int      `json:"exposure_min_ms" example:"10" doc:"Minimum exposure in milliseconds"`
	ExposureMaxMs    int      `json:"exposure_max_ms" example:"10000" doc:"Maximum exposure in milliseconds"`
	SupportedFormats []string `json:"supported_formats" example:"[\"tif\"]" doc:"Image formats the capture endpoint can produce"`
}

type InfoResponse struct {
	Body InfoData
}
