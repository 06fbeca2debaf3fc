package chaos

import (
	"context"
	"testing"

	"github.com/faultline-io/faultline/pkg/scenario"
)

func TestParseType(t *testing.T) {
	if _, err := ParseType("delay"); err != nil {
		t.Errorf("delay should parse: %v", err)
	}
	if _, err := ParseType("meteor"); err == nil {
		t.Errorf("unknown type should fail")
	}
}

func TestRequestFromStep(t *testing.T) {
	st := scenario.Step{
		ID:       "s1",
		Type:     scenario.StepChaosAction,
		LaneID:   "node-1",
		TargetID: "node-2",
		StartAt:  5,
		Duration: 30,
		Params: scenario.Params{
			"type":      "delay",
			"direction": "to",
			"latency":   "100ms",
		},
	}
	req, err := RequestFromStep(st, "run-1")
	if err != nil {
		t.Fatalf("RequestFromStep: %v", err)
	}
	if req.Type != TypeDelay {
		t.Errorf("type = %s", req.Type)
	}
	if req.Direction != DirectionTo {
		t.Errorf("direction = %s", req.Direction)
	}
	if req.SourceID != "node-1" || req.TargetID != "node-2" {
		t.Errorf("source/target = %s/%s", req.SourceID, req.TargetID)
	}
	if req.Duration != "30s" {
		t.Errorf("duration = %q", req.Duration)
	}
	if req.Scope != "run-1" {
		t.Errorf("scope = %q", req.Scope)
	}
	// type/direction are routing keys, not condition params.
	if _, ok := req.Params["type"]; ok {
		t.Errorf("params should not carry the subtype key")
	}
	if req.Params.String("latency") != "100ms" {
		t.Errorf("latency param lost: %v", req.Params)
	}
	if st.Params.String("type") != "delay" {
		t.Errorf("source step params must be untouched")
	}
}

func TestRequestFromStep_DefaultsDirection(t *testing.T) {
	st := scenario.Step{
		ID: "s1", Type: scenario.StepChaosAction, LaneID: "node-1", Duration: 10,
		Params: scenario.Params{"type": "loss", "loss": "25"},
	}
	req, err := RequestFromStep(st, "")
	if err != nil {
		t.Fatalf("RequestFromStep: %v", err)
	}
	if req.Direction != DirectionBoth {
		t.Errorf("direction = %s, want both", req.Direction)
	}
}

func TestRequestFromStep_Rejects(t *testing.T) {
	if _, err := RequestFromStep(scenario.Step{ID: "w", Type: scenario.StepWait, Duration: 5}, ""); err == nil {
		t.Errorf("wait steps have no injector request")
	}
	st := scenario.Step{
		ID: "s1", Type: scenario.StepChaosAction, LaneID: "node-1", Duration: 10,
		Params: scenario.Params{"type": "meteor"},
	}
	if _, err := RequestFromStep(st, ""); err == nil {
		t.Errorf("unknown subtype should fail")
	}
}

func TestMockInjector(t *testing.T) {
	ctx := context.Background()
	m := NewMockInjector()

	h1, err := m.Apply(ctx, Request{Scope: "run-1", SourceID: "node-1", Type: TypeDelay, Direction: DirectionBoth})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if h1.ConditionID == "" {
		t.Errorf("expected a condition id")
	}
	if _, err := m.Apply(ctx, Request{Scope: "run-2", SourceID: "node-2", Type: TypeLoss, Direction: DirectionBoth}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	active, err := m.ListActive(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != h1.ConditionID {
		t.Errorf("ListActive(run-1) = %+v", active)
	}

	n, err := m.ClearAll(ctx, "run-1")
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if n != 1 {
		t.Errorf("cleared %d, want 1", n)
	}
	// Second clear of the same scope is a no-op, not an error.
	n, err = m.ClearAll(ctx, "run-1")
	if err != nil || n != 0 {
		t.Errorf("second ClearAll = (%d, %v), want (0, nil)", n, err)
	}

	all, _ := m.ListActive(ctx, "")
	if len(all) != 1 {
		t.Errorf("run-2 condition should survive, got %d", len(all))
	}
}

func TestMockInjector_FailNext(t *testing.T) {
	ctx := context.Background()
	m := NewMockInjector()
	m.FailNext("collaborator down")

	if _, err := m.Apply(ctx, Request{Type: TypeDelay, Direction: DirectionBoth}); err == nil {
		t.Fatalf("armed failure should fire")
	}
	if _, err := m.Apply(ctx, Request{Type: TypeDelay, Direction: DirectionBoth}); err != nil {
		t.Errorf("failure is one-shot, got %v", err)
	}
}

func TestMockInjector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMockInjector()
	if _, err := m.Apply(ctx, Request{Type: TypeDelay, Direction: DirectionBoth}); err == nil {
		t.Errorf("cancelled context should reject Apply")
	}
}
