package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightnode/internal/api/models"
	"github.com/smazurov/lightnode/internal/command"
	"github.com/smazurov/lightnode/internal/display"
)

func (s *Server) registerDisplayRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/api/state",
		Summary:     "State",
		Description: "Current power, brightness, effect and color",
		Tags:        []string{"display"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.StateResponse, error) {
		return &models.StateResponse{Body: s.options.Runner.State()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-effects",
		Method:      http.MethodGet,
		Path:        "/api/effects",
		Summary:     "Effects",
		Description: "Registered effects in cycle order and the active one",
		Tags:        []string{"display"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.EffectsResponse, error) {
		return &models.EffectsResponse{
			Body: models.EffectsData{
				Effects: s.options.Runner.Effects(),
				Active:  s.options.Runner.State().Effect,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "post-command",
		Method:        http.MethodPost,
		Path:          "/api/commands",
		Summary:       "Send Command",
		Description:   "Queue one typed command. The command is applied on the next tick; poll /api/state or listen on /api/events for the result.",
		Tags:          []string{"display"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{401, 422, 503},
	}, func(ctx context.Context, input *models.CommandRequest) (*models.AcceptedResponse, error) {
		cmd, err := toCommand(input.Body)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return s.submit([]command.Command{cmd})
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "post-light",
		Method:        http.MethodPost,
		Path:          "/api/light",
		Summary:       "Light Command",
		Description:   `Queue a JSON light command such as {"state":"ON","brightness":70,"effect":"sparkle","color":{"r":255,"g":0,"b":0}}.`,
		Tags:          []string{"display"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{401, 422, 503},
	}, func(ctx context.Context, input *models.LightRequest) (*models.AcceptedResponse, error) {
		cmds, err := command.ParseJSON(input.RawBody)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return s.submit(cmds)
	})
}

func toCommand(in models.CommandData) (command.Command, error) {
	cmd := command.Command{Kind: command.Kind(in.Kind), Effect: in.Effect}
	switch cmd.Kind {
	case command.SetBrightness:
		if in.Brightness == nil {
			return cmd, errors.New("set_brightness needs brightness")
		}
		cmd.Brightness = *in.Brightness
	case command.SetColor:
		c, err := command.ParseColor(in.Color)
		if err != nil {
			return cmd, err
		}
		cmd.Color = c
	}
	return cmd, cmd.Validate()
}

// submit queues cmds in order and maps runner errors to HTTP errors.
func (s *Server) submit(cmds []command.Command) (*models.AcceptedResponse, error) {
	resp := &models.AcceptedResponse{Status: http.StatusAccepted}
	resp.Body.Commands = []string{}
	for _, cmd := range cmds {
		if err := s.options.Runner.Submit(cmd); err != nil {
			s.logger.Warn("Command rejected", "command", cmd.String(), "error", err)
			if errors.Is(err, display.ErrQueueFull) {
				return nil, huma.Error503ServiceUnavailable(err.Error())
			}
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		resp.Body.Commands = append(resp.Body.Commands, cmd.String())
	}
	return resp, nil
}
