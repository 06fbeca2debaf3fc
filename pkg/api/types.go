package api

import (
	"github.com/faultline-io/faultline/pkg/scenario"
)

// CreateScenarioRequest is the body of POST /v1/scenarios.
type CreateScenarioRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	TotalDuration float64         `json:"totalDuration"`
	Steps         []scenario.Step `json:"steps"`
}

// UpdateScenarioRequest is the body of PUT /v1/scenarios/{id}. Nil fields
// keep their stored value.
type UpdateScenarioRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	TotalDuration *float64         `json:"totalDuration,omitempty"`
	Steps         *[]scenario.Step `json:"steps,omitempty"`
}

// RunStartedResponse is returned by POST /v1/scenarios/{id}/run.
type RunStartedResponse struct {
	RunID      string `json:"runId"`
	ScenarioID string `json:"scenarioId"`
}

// LayoutResponse is the derived row packing, one entry per lane.
type LayoutResponse struct {
	Lanes map[string]LaneLayout `json:"lanes"`
}

// LaneLayout is one lane's row assignment and rendered height.
type LaneLayout struct {
	RowOf       map[string]int `json:"rowOf"`
	Rows        int            `json:"rows"`
	TotalHeight float64        `json:"totalHeight"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
