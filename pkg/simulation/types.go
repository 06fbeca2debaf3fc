package simulation

import (
	"github.com/faultline-io/faultline/pkg/scenario"
)

// PlannedStep is one entry in a dry-run plan: what would be dispatched,
// and when relative to run start.
type PlannedStep struct {
	Index  int               `json:"index"`
	StepID string            `json:"stepId"`
	Type   scenario.StepType `json:"type"`

	// Offset is the simulated wall-clock time at dispatch, in seconds.
	// Only waits advance it; injector calls are treated as instantaneous.
	Offset float64 `json:"offset"`

	Detail  string `json:"detail"`
	Warning string `json:"warning,omitempty"`
}

// Plan is the result of dry-running a scenario: the dispatch sequence in
// declared order, without touching any injector.
type Plan struct {
	ScenarioID string        `json:"scenarioId"`
	Steps      []PlannedStep `json:"steps"`

	// WallClock is the total suspended time across all waits, in seconds.
	WallClock float64 `json:"wallClock"`
	Warnings  int     `json:"warnings"`
}
