package timeline

import (
	"errors"
	"testing"

	"github.com/faultline-io/faultline/pkg/scenario"
)

func TestMove_ClampsToLane(t *testing.T) {
	c := NewController(100)
	st := step("a", 20, 10)
	if err := c.BeginMove(st); err != nil {
		t.Fatalf("BeginMove failed: %v", err)
	}

	// Drag far left: start clamps to 0.
	draft, err := c.UpdateMove(-500)
	if err != nil {
		t.Fatalf("UpdateMove failed: %v", err)
	}
	if draft.StartAt != 0 {
		t.Errorf("expected start clamped to 0, got %v", draft.StartAt)
	}

	// Drag far right: start clamps to laneCap - duration.
	draft, _ = c.UpdateMove(500)
	if draft.StartAt != 90 {
		t.Errorf("expected start clamped to 90, got %v", draft.StartAt)
	}

	// Duration never changes during a move.
	if draft.Duration != 10 {
		t.Errorf("move changed duration: %v", draft.Duration)
	}
}

func TestMove_DeltaIsRelativeToGestureStart(t *testing.T) {
	c := NewController(100)
	if err := c.BeginMove(step("a", 20, 10)); err != nil {
		t.Fatalf("BeginMove failed: %v", err)
	}

	// Updates are absolute against the snapshot, not cumulative.
	c.UpdateMove(5)
	draft, _ := c.UpdateMove(5)
	if draft.StartAt != 25 {
		t.Errorf("expected 25 (20+5), got %v", draft.StartAt)
	}
}

func TestResizeEnd_Clamps(t *testing.T) {
	c := NewController(100)
	if err := c.BeginResize(step("a", 20, 10), EdgeEnd); err != nil {
		t.Fatalf("BeginResize failed: %v", err)
	}

	draft, _ := c.UpdateResize(-500)
	if draft.Duration != scenario.MinStepDuration {
		t.Errorf("expected duration clamped to minimum, got %v", draft.Duration)
	}

	draft, _ = c.UpdateResize(500)
	if draft.Duration != 80 {
		t.Errorf("expected duration clamped to laneCap-startAt=80, got %v", draft.Duration)
	}
	if draft.StartAt != 20 {
		t.Errorf("end resize moved the start: %v", draft.StartAt)
	}
}

func TestResizeStart_HoldsFarEdge(t *testing.T) {
	c := NewController(100)
	if err := c.BeginResize(step("a", 20, 10), EdgeStart); err != nil {
		t.Fatalf("BeginResize failed: %v", err)
	}

	draft, _ := c.UpdateResize(4)
	if draft.StartAt != 24 || draft.Duration != 6 {
		t.Errorf("expected [24,30), got start=%v dur=%v", draft.StartAt, draft.Duration)
	}
	if end := draft.StartAt + draft.Duration; end != 30 {
		t.Errorf("start resize moved the far edge: end=%v", end)
	}

	// Shrinking past the minimum pins duration at MinStepDuration.
	draft, _ = c.UpdateResize(500)
	if draft.Duration != scenario.MinStepDuration {
		t.Errorf("expected minimum duration, got %v", draft.Duration)
	}
	if end := draft.StartAt + draft.Duration; end != 30 {
		t.Errorf("far edge drifted: end=%v", end)
	}

	// Growing past zero pins the start at 0.
	draft, _ = c.UpdateResize(-500)
	if draft.StartAt != 0 || draft.Duration != 30 {
		t.Errorf("expected [0,30), got start=%v dur=%v", draft.StartAt, draft.Duration)
	}
}

func TestGesture_InvariantsHoldMidGesture(t *testing.T) {
	// Any interleaving of updates keeps startAt >= 0 and duration >=
	// minimum, so a layout recompute mid-gesture never sees a bad step.
	c := NewController(60)
	c.BeginResize(step("a", 5, 10), EdgeStart)
	for _, delta := range []float64{-100, 3, 50, -2, 9.5, -9.5, 1000} {
		draft, err := c.UpdateResize(delta)
		if err != nil {
			t.Fatalf("UpdateResize(%v) failed: %v", delta, err)
		}
		if draft.StartAt < 0 {
			t.Errorf("delta %v: startAt went negative: %v", delta, draft.StartAt)
		}
		if draft.Duration < scenario.MinStepDuration {
			t.Errorf("delta %v: duration under minimum: %v", delta, draft.Duration)
		}
	}
}

func TestGesture_SecondBeginRejected(t *testing.T) {
	c := NewController(100)
	if err := c.BeginMove(step("a", 0, 10)); err != nil {
		t.Fatalf("BeginMove failed: %v", err)
	}
	if err := c.BeginMove(step("b", 20, 10)); !errors.Is(err, ErrGestureActive) {
		t.Errorf("expected ErrGestureActive, got %v", err)
	}
	if err := c.BeginResize(step("b", 20, 10), EdgeEnd); !errors.Is(err, ErrGestureActive) {
		t.Errorf("expected ErrGestureActive for resize too, got %v", err)
	}

	// The original gesture is untouched by the rejected begins.
	draft, ok := c.Draft()
	if !ok || draft.ID != "a" {
		t.Errorf("active gesture corrupted: %+v ok=%v", draft, ok)
	}
}

func TestGesture_CommitAndCancel(t *testing.T) {
	c := NewController(100)
	c.BeginMove(step("a", 0, 10))
	c.UpdateMove(7)

	committed, err := c.Commit()
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if committed.StartAt != 7 {
		t.Errorf("expected committed start 7, got %v", committed.StartAt)
	}
	if c.Active() {
		t.Errorf("controller still active after commit")
	}
	if _, err := c.Commit(); !errors.Is(err, ErrNoGesture) {
		t.Errorf("expected ErrNoGesture on double commit, got %v", err)
	}

	c.BeginMove(step("b", 5, 10))
	c.Cancel()
	if c.Active() {
		t.Errorf("controller still active after cancel")
	}
	if _, err := c.UpdateMove(1); !errors.Is(err, ErrNoGesture) {
		t.Errorf("expected ErrNoGesture after cancel, got %v", err)
	}
}

func TestGesture_UpdateKindMismatch(t *testing.T) {
	c := NewController(100)
	c.BeginMove(step("a", 0, 10))
	if _, err := c.UpdateResize(5); !errors.Is(err, ErrNoGesture) {
		t.Errorf("expected ErrNoGesture for resize update during move, got %v", err)
	}
}

func TestScale_RoundTrip(t *testing.T) {
	s := Scale{PixelsPerSecond: 4}
	if got := s.Pixels(2.5); got != 10 {
		t.Errorf("Pixels(2.5) = %v, want 10", got)
	}
	if got := s.Seconds(10); got != 2.5 {
		t.Errorf("Seconds(10) = %v, want 2.5", got)
	}
	zero := Scale{}
	if got := zero.Seconds(100); got != 0 {
		t.Errorf("zero scale should yield 0 seconds, got %v", got)
	}
}
