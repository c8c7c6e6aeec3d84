package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightnode/internal/api/models"
)

// registerLEDRoutes registers board LED endpoints.
func (s *Server) registerLEDRoutes() {
	if s.options.LEDs == nil {
		s.logger.Debug("LED manager not available, skipping LED routes")
		return
	}
	mgr := s.options.LEDs

	huma.Register(s.api, huma.Operation{
		OperationID: "control-led",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Control LED",
		Description: "Set a board LED directly. The status LED is overwritten again on the next power change.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.LEDRequest) (*struct{}, error) {
		pattern := ""
		if input.Body.Pattern != nil {
			pattern = *input.Body.Pattern
		}
		if err := mgr.GetController().Set(input.Body.Name, input.Body.Enabled, pattern); err != nil {
			return nil, huma.Error400BadRequest("Failed to control LED", err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/leds/capabilities",
		Summary:     "Get LED Capabilities",
		Description: "Board LEDs, supported patterns and the status LED",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.LEDCapabilitiesResponse, error) {
		ctrl := mgr.GetController()
		return &models.LEDCapabilitiesResponse{
			Body: models.LEDCapabilitiesData{
				Available: ctrl.Available(),
				Patterns:  ctrl.Patterns(),
				Status:    mgr.Name(),
				Pattern:   mgr.Pattern(),
			},
		}, nil
	})
}
