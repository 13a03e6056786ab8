package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fs-bullard/sl-wb-pi-api/internal/api/models"
)

// registerInfoRoutes registers the camera capability endpoint.
func (s *Server) registerInfoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-info",
		Method:      http.MethodGet,
		Path:        "/api/info",
		Summary:     "Camera Info",
		Description: "Get camera model, sensor limits and supported output formats",
		Tags:        []string{"status"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.InfoResponse, error) {
		caps := s.camera.Capabilities()
		return &models.InfoResponse{
			Body: models.InfoData{
				Model:            caps.Model,
				SensorType:       caps.SensorType,
				Interface:        caps.Interface,
				BitDepth:         caps.BitDepth,
				MaxWidth:         caps.MaxWidth,
				MaxHeight:        caps.MaxHeight,
				ExposureMinMs:    caps.ExposureMinMs,
				ExposureMaxMs:    caps.ExposureMaxMs,
				SupportedFormats: caps.SupportedFormats,
			},
		}, nil
	})
}
