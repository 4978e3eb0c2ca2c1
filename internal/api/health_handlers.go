package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status and whether a pipeline result is loaded",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status       string `json:"status" doc:"Overall status: healthy"`
	ResultLoaded bool   `json:"result_loaded" doc:"Whether a pipeline run has completed"`
	RunID        string `json:"run_id,omitempty" doc:"ID of the loaded pipeline run"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{Body: HealthResponse{Status: "healthy"}}

	// A missing result just means no run has succeeded yet; the server
	// itself is still healthy.
	if result, err := s.club.Result(); err == nil {
		out.Body.ResultLoaded = true
		out.Body.RunID = result.RunID
	}

	return out, nil
}
