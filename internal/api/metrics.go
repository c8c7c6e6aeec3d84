package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightnode/internal/api/models"
)

// registerMetricsRoutes registers the JSON metrics summary. The Prometheus
// exposition lives on /metrics.
func (s *Server) registerMetricsRoutes() {
	if s.options.Metrics == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-metrics",
		Method:      http.MethodGet,
		Path:        "/api/metrics",
		Summary:     "Metrics Summary",
		Description: "Frame, tick and command counters since start",
		Tags:        []string{"metrics"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.MetricsResponse, error) {
		return &models.MetricsResponse{Body: s.options.Metrics.Snapshot()}, nil
	})
}
