package runner

import (
	"time"

	"github.com/faultline-io/faultline/pkg/scenario"
)

// RunState is the run-level state machine:
// running -> completed | failed | cancelled.
type RunState string

const (
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Terminal reports whether the run has finished.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// Event is one step status transition, emitted as it happens so callers can
// render live progress.
type Event struct {
	RunID      string              `json:"runId"`
	ScenarioID string              `json:"scenarioId"`
	StepIndex  int                 `json:"stepIndex"`
	StepID     string              `json:"stepId"`
	Status     scenario.StepStatus `json:"status"`
	Error      string              `json:"error,omitempty"`
	At         time.Time           `json:"at"`
}

// StepResult is a step's status as seen in a run snapshot.
type StepResult struct {
	StepID string              `json:"stepId"`
	Type   scenario.StepType   `json:"type"`
	Status scenario.StepStatus `json:"status"`
	Error  string              `json:"error,omitempty"`
}

// Snapshot is a point-in-time view of a run for status endpoints.
type Snapshot struct {
	RunID       string       `json:"runId"`
	ScenarioID  string       `json:"scenarioId"`
	State       RunState     `json:"state"`
	CurrentStep int          `json:"currentStep"`
	Steps       []StepResult `json:"steps"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  *time.Time   `json:"finishedAt,omitempty"`
}
