package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/lightnode/internal/events"
)

// StateSnapshotEvent is sent first on every event stream so clients start
// from the current state.
type StateSnapshotEvent struct {
	On         bool   `json:"on"`
	Brightness int    `json:"brightness"`
	Level      int    `json:"level"`
	Effect     string `json:"effect"`
	Color      string `json:"color"`
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	if s.options.EventBus == nil {
		s.logger.Debug("No event bus, skipping event stream")
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time state changes, rejected commands, frame errors and tuning reloads",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"state":              StateSnapshotEvent{},
		"power-changed":      events.PowerChangedEvent{},
		"brightness-changed": events.BrightnessChangedEvent{},
		"effect-changed":     events.EffectChangedEvent{},
		"color-changed":      events.ColorChangedEvent{},
		"command-rejected":   events.CommandRejectedEvent{},
		"frame-error":        events.FrameErrorEvent{},
		"tuning-reloaded":    events.TuningReloadedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan events.Event, 32)

		bus := s.options.EventBus
		unsubscribers := []func(){
			bus.SubscribeState(eventCh),
			events.SubscribeToChannel[events.CommandRejectedEvent](bus, eventCh),
			events.SubscribeToChannel[events.FrameErrorEvent](bus, eventCh),
			events.SubscribeToChannel[events.TuningReloadedEvent](bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		st := s.options.Runner.State()
		if err := send.Data(StateSnapshotEvent{
			On:         st.On,
			Brightness: st.Brightness,
			Level:      st.Level,
			Effect:     st.Effect,
			Color:      st.Color.Hex(),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
