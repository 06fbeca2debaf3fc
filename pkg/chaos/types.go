package chaos

import (
	"fmt"
	"time"

	"github.com/faultline-io/faultline/pkg/scenario"
)

// Type identifies a kind of fault-injection condition.
type Type string

const (
	TypeDelay     Type = "delay"
	TypeLoss      Type = "loss"
	TypeBandwidth Type = "bandwidth"
	TypeCorrupt   Type = "corrupt"
	TypeDuplicate Type = "duplicate"
	TypePartition Type = "partition"
	TypeCPUStress Type = "cpu_stress"
	TypePodKill   Type = "pod_kill"
	TypeIODelay   Type = "io_delay"
	TypeHTTPError Type = "http_error"
)

// ParseType validates an action subtype string.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeDelay, TypeLoss, TypeBandwidth, TypeCorrupt, TypeDuplicate,
		TypePartition, TypeCPUStress, TypePodKill, TypeIODelay, TypeHTTPError:
		return t, nil
	default:
		return "", fmt.Errorf("unknown chaos type %q", s)
	}
}

// Direction selects which traffic a network condition affects.
type Direction string

const (
	DirectionTo   Direction = "to"
	DirectionFrom Direction = "from"
	DirectionBoth Direction = "both"
)

// Request describes one condition to apply. SourceID is the node the
// condition originates from; TargetID narrows it to traffic with one peer
// and is optional.
type Request struct {
	Scope     string          `json:"scope"`
	SourceID  string          `json:"sourceNodeId"`
	TargetID  string          `json:"targetNodeId,omitempty"`
	Type      Type            `json:"type"`
	Direction Direction       `json:"direction"`
	Duration  string          `json:"duration,omitempty"`
	Params    scenario.Params `json:"params,omitempty"`
}

// Handle identifies an applied condition so it can be inspected or removed.
type Handle struct {
	ConditionID string `json:"conditionId"`
	Resource    string `json:"resource"`
}

// Condition is an applied condition as reported by the injector.
type Condition struct {
	ID        string          `json:"id"`
	Scope     string          `json:"scope"`
	SourceID  string          `json:"sourceNodeId"`
	TargetID  string          `json:"targetNodeId,omitempty"`
	Type      Type            `json:"type"`
	Direction Direction       `json:"direction"`
	Duration  string          `json:"duration,omitempty"`
	Params    scenario.Params `json:"params,omitempty"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
}

// RequestFromStep turns a chaos-action step into an injector request.
// The step's Params carry the subtype under "type" and an optional
// "direction"; the remaining keys pass through untouched.
func RequestFromStep(st scenario.Step, scope string) (Request, error) {
	if st.Type != scenario.StepChaosAction {
		return Request{}, fmt.Errorf("step %s is not a chaos-action", st.ID)
	}
	t, err := ParseType(st.Params.String("type"))
	if err != nil {
		return Request{}, fmt.Errorf("step %s: %w", st.ID, err)
	}
	dir := Direction(st.Params.String("direction"))
	if dir == "" {
		dir = DirectionBoth
	}
	params := make(scenario.Params, len(st.Params))
	for k, v := range st.Params {
		if k == "type" || k == "direction" {
			continue
		}
		params[k] = v
	}
	return Request{
		Scope:     scope,
		SourceID:  st.LaneID,
		TargetID:  st.TargetID,
		Type:      t,
		Direction: dir,
		Duration:  fmt.Sprintf("%gs", st.Duration),
		Params:    params,
	}, nil
}
