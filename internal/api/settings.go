package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fs-bullard/sl-wb-pi-api/internal/api/models"
	"github.com/fs-bullard/sl-wb-pi-api/internal/camera"
)

// registerSettingsRoutes registers the persisted camera settings endpoints.
func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Get Settings",
		Description: "Get the persisted camera defaults",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.SettingsResponse, error) {
		settings := s.camera.Settings()
		return &models.SettingsResponse{
			Body: models.SettingsData{ExposureMs: settings.ExposureMs},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-settings",
		Method:      http.MethodPut,
		Path:        "/api/settings",
		Summary:     "Update Settings",
		Description: "Validate, persist and apply new camera defaults",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(ctx context.Context, input *models.SettingsUpdateRequest) (*models.SettingsResponse, error) {
		settings := camera.Settings{ExposureMs: input.Body.ExposureMs}
		if err := s.camera.UpdateSettings(settings, "api"); err != nil {
			if errors.Is(err, camera.ErrInvalidExposure) {
				return nil, huma.Error400BadRequest("Invalid settings", err)
			}
			return nil, huma.Error500InternalServerError("Failed to save settings", err)
		}
		applied := s.camera.Settings()
		return &models.SettingsResponse{
			Body: models.SettingsData{ExposureMs: applied.ExposureMs},
		}, nil
	})
}
