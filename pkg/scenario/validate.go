package scenario

import (
	"fmt"
)

// MinStepDuration is the smallest step length the timeline accepts, in
// seconds. Move/resize gestures clamp against it; validation rejects
// anything below it so a malformed step never reaches persistence or a run.
const MinStepDuration = 1.0

// ValidationError describes a malformed step or scenario field. It is an
// edit-time error: steps that fail validation are rejected before they are
// saved or executed.
type ValidationError struct {
	StepID string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("invalid scenario: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid step %s: %s: %s", e.StepID, e.Field, e.Reason)
}

// ValidateStep checks the structural invariants of a single step.
func ValidateStep(st Step) error {
	if st.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	switch st.Type {
	case StepChaosAction, StepWait, StepClearAll:
	default:
		return &ValidationError{StepID: st.ID, Field: "type", Reason: fmt.Sprintf("unknown step type %q", st.Type)}
	}
	if st.StartAt < 0 {
		return &ValidationError{StepID: st.ID, Field: "startAt", Reason: "must be >= 0"}
	}
	if st.Duration < MinStepDuration {
		return &ValidationError{StepID: st.ID, Field: "duration", Reason: fmt.Sprintf("must be >= %g", MinStepDuration)}
	}
	if st.Type == StepChaosAction {
		if st.LaneID == "" {
			return &ValidationError{StepID: st.ID, Field: "laneId", Reason: "chaos-action requires a target lane"}
		}
		if st.Params.String("type") == "" {
			return &ValidationError{StepID: st.ID, Field: "params.type", Reason: "chaos-action requires an action subtype"}
		}
	}
	return nil
}

// Validate checks a whole scenario: name, per-step invariants, and step id
// uniqueness (ids are the join key for layout and run status tracking).
func Validate(sc *Scenario) error {
	if sc.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	seen := make(map[string]struct{}, len(sc.Steps))
	for _, st := range sc.Steps {
		if err := ValidateStep(st); err != nil {
			return err
		}
		if _, dup := seen[st.ID]; dup {
			return &ValidationError{StepID: st.ID, Field: "id", Reason: "duplicate step id"}
		}
		seen[st.ID] = struct{}{}
	}
	return nil
}
