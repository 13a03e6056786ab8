package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fs-bullard/sl-wb-pi-api/internal/api/models"
	"github.com/fs-bullard/sl-wb-pi-api/internal/camera"
	"github.com/fs-bullard/sl-wb-pi-api/internal/metrics"
)

// registerStatusRoutes registers the camera status endpoint.
func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Camera Status",
		Description: "Get sensor connection state and capture counters",
		Tags:        []string{"status"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		success, failed, timeouts := metrics.CaptureCounts()
		status := models.StatusData{
			CameraConnected: s.camera.Connected(),
			Model:           camera.ModelName,
			Captures: models.CaptureCounts{
				Success:  success,
				Failed:   failed,
				Timeouts: timeouts,
			},
			UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		}
		if s.options.BusyFunc != nil {
			status.CaptureBusy = s.options.BusyFunc()
		}
		if s.options.DeviceSerial != "" {
			status.Serial = s.options.DeviceSerial
		}
		return &models.StatusResponse{Body: status}, nil
	})
}
