package scenario

import (
	"time"
)

// StepType is the kind of schedulable action a step performs.
type StepType string

const (
	// StepChaosAction applies a fault-injection condition to a node.
	StepChaosAction StepType = "chaos-action"
	// StepWait pauses the run for the step's duration.
	StepWait StepType = "wait"
	// StepClearAll removes every active condition in the scenario's scope.
	StepClearAll StepType = "clear-all"
)

// StepStatus is the per-step execution state. It exists only while a run is
// in flight and is never persisted.
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusRunning   StepStatus = "running"
	StatusCompleted StepStatus = "completed"
	StatusFailed    StepStatus = "failed"
)

// Terminal reports whether the status is final for the step.
func (s StepStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Step is one schedulable unit of a scenario. StartAt and Duration are in
// seconds and describe the step's position on the visual timeline; the
// execution engine walks steps in declared slice order and never consults
// them (waits suspend for Duration, which is the one place it matters).
type Step struct {
	ID       string   `json:"id"`
	Type     StepType `json:"type"`
	LaneID   string   `json:"laneId"`
	TargetID string   `json:"targetNodeId,omitempty"`
	StartAt  float64  `json:"startAt"`
	Duration float64  `json:"duration"`
	Params   Params   `json:"params,omitempty"`

	// Execution-only fields, reset at the start of every run.
	RunStatus StepStatus `json:"-"`
	RunError  string     `json:"-"`
}

// Params is the open key-value map whose shape depends on the chaos-action
// subtype (the "type" key selects it, e.g. "delay" or "loss").
type Params map[string]any

// String returns the string value for key, or "" when absent or non-string.
func (p Params) String(key string) string {
	if p == nil {
		return ""
	}
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Scenario is a named, ordered collection of steps. Slice order is the
// execution order and is significant; it is independent of StartAt.
type Scenario struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Steps         []Step    `json:"steps"`
	TotalDuration float64   `json:"totalDuration"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ResetRunState puts every step back to pending with no error. Called at the
// start of each run so state from a previous run never leaks through.
func (sc *Scenario) ResetRunState() {
	for i := range sc.Steps {
		sc.Steps[i].RunStatus = StatusPending
		sc.Steps[i].RunError = ""
	}
}

// End returns the timeline end of the latest step, in seconds.
func (sc *Scenario) End() float64 {
	var end float64
	for _, st := range sc.Steps {
		if e := st.StartAt + st.Duration; e > end {
			end = e
		}
	}
	return end
}

// StepByID returns a pointer into the scenario's step slice, or nil.
func (sc *Scenario) StepByID(id string) *Step {
	for i := range sc.Steps {
		if sc.Steps[i].ID == id {
			return &sc.Steps[i]
		}
	}
	return nil
}
