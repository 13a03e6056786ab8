package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fs-bullard/sl-wb-pi-api/internal/camera"
	"github.com/fs-bullard/sl-wb-pi-api/internal/capture"
)

// CaptureInput carries optional capture parameters. Zero exposure selects
// the persisted default.
type CaptureInput struct {
	ExposureMs int    `query:"exposure_time" minimum:"0" maximum:"10000" example:"100" doc:"Exposure time in milliseconds, 0 or omitted uses the saved default"`
	Format     string `query:"format" enum:"tif" example:"tif" doc:"Output image format"`
}

// CaptureOutput is the encoded image plus capture metadata headers.
type CaptureOutput struct {
	ContentType string `header:"Content-Type"`
	Timestamp   string `header:"X-Camera-Timestamp"`
	ExposureMs  int    `header:"X-Camera-Exposure"`
	Resolution  string `header:"X-Camera-Resolution"`
	SizeBytes   int    `header:"X-Image-Size-Bytes"`
	Body        []byte
}

// registerCaptureRoutes registers the frame capture endpoint.
func (s *Server) registerCaptureRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "capture-frame",
		Method:      http.MethodPost,
		Path:        "/api/capture",
		Summary:     "Capture Frame",
		Description: "Trigger a single exposure and return the frame as a 16-bit grayscale TIFF. Blocks until the frame arrives or the capture times out.",
		Tags:        []string{"capture"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 503, 504},
	}, func(ctx context.Context, input *CaptureInput) (*CaptureOutput, error) {
		data, meta, err := s.camera.Capture(input.ExposureMs, input.Format)
		if err != nil {
			return nil, captureError(err)
		}

		return &CaptureOutput{
			ContentType: "image/tiff",
			Timestamp:   meta.Timestamp,
			ExposureMs:  meta.ExposureMs,
			Resolution:  meta.Resolution,
			SizeBytes:   meta.SizeBytes,
			Body:        data,
		}, nil
	})
}

// captureError maps capture failures onto HTTP status codes.
func captureError(err error) error {
	switch {
	case errors.Is(err, camera.ErrInvalidExposure),
		errors.Is(err, camera.ErrUnsupportedFormat),
		errors.Is(err, capture.ErrInvalidExposure):
		return huma.Error400BadRequest("Invalid capture request", err)
	case errors.Is(err, camera.ErrNotConnected),
		errors.Is(err, capture.ErrNotInitialized):
		return huma.Error503ServiceUnavailable("Camera not connected", err)
	case errors.Is(err, capture.ErrCaptureTimeout):
		return huma.Error504GatewayTimeout("Timed out waiting for frame", err)
	default:
		return huma.Error500InternalServerError("Capture failed", err)
	}
}
