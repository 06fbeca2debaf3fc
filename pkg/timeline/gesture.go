package timeline

import (
	"errors"

	"github.com/faultline-io/faultline/pkg/scenario"
)

// Edge selects which end of a step a resize gesture grabs.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

var (
	// ErrGestureActive is returned when a second gesture begins before the
	// active one is committed or cancelled. Gestures never interleave.
	ErrGestureActive = errors.New("a gesture is already active")
	// ErrNoGesture is returned by updates and commits without a Begin.
	ErrNoGesture = errors.New("no active gesture")
)

type gestureKind int

const (
	gestureMove gestureKind = iota
	gestureResize
)

// Controller translates drag gestures into time-domain step mutations. It
// works purely in seconds; callers convert pointer deltas with a Scale
// before feeding them in. During a gesture the controller holds a draft
// copy of the step, clamped so that startAt >= 0 and duration >=
// scenario.MinStepDuration at every intermediate update, and the
// authoritative step is only replaced on Commit.
//
// laneCap bounds the step's end time (usually the scenario's total
// duration); zero or negative means unbounded.
type Controller struct {
	laneCap float64

	active        bool
	kind          gestureKind
	edge          Edge
	draft         scenario.Step
	originalStart float64
	originalDur   float64
}

// NewController creates a gesture controller with the given lane capacity
// in seconds.
func NewController(laneCap float64) *Controller {
	return &Controller{laneCap: laneCap}
}

// SetLaneCap updates the capacity used for clamping. It does not affect a
// gesture already in progress.
func (c *Controller) SetLaneCap(laneCap float64) {
	c.laneCap = laneCap
}

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool {
	return c.active
}

// Draft returns the current draft step. Valid only while a gesture is
// active.
func (c *Controller) Draft() (scenario.Step, bool) {
	return c.draft, c.active
}

// BeginMove starts a move gesture on step. A second Begin while a gesture
// is active is rejected, never interleaved.
func (c *Controller) BeginMove(st scenario.Step) error {
	if c.active {
		return ErrGestureActive
	}
	c.active = true
	c.kind = gestureMove
	c.draft = st
	c.originalStart = st.StartAt
	return nil
}

// UpdateMove offsets the step by deltaSeconds relative to where the gesture
// began, clamped to [0, laneCap-duration]. Only the draft changes.
func (c *Controller) UpdateMove(deltaSeconds float64) (scenario.Step, error) {
	if !c.active || c.kind != gestureMove {
		return scenario.Step{}, ErrNoGesture
	}
	upper := c.originalStart + deltaSeconds
	if c.laneCap > 0 {
		upper = clamp(0, c.laneCap-c.draft.Duration, c.originalStart+deltaSeconds)
	} else if upper < 0 {
		upper = 0
	}
	c.draft.StartAt = upper
	return c.draft, nil
}

// BeginResize starts a resize gesture grabbing the given edge of step.
func (c *Controller) BeginResize(st scenario.Step, edge Edge) error {
	if c.active {
		return ErrGestureActive
	}
	c.active = true
	c.kind = gestureResize
	c.edge = edge
	c.draft = st
	c.originalStart = st.StartAt
	c.originalDur = st.Duration
	return nil
}

// UpdateResize applies deltaSeconds to the grabbed edge.
//
// Dragging the end edge changes duration, clamped to
// [MinStepDuration, laneCap-startAt]. Dragging the start edge shifts the
// start while holding the far edge fixed: the applied delta is clamped so
// the start never goes below zero and the duration never drops under the
// minimum.
func (c *Controller) UpdateResize(deltaSeconds float64) (scenario.Step, error) {
	if !c.active || c.kind != gestureResize {
		return scenario.Step{}, ErrNoGesture
	}
	switch c.edge {
	case EdgeEnd:
		upper := c.originalDur + deltaSeconds
		if c.laneCap > 0 {
			upper = clamp(scenario.MinStepDuration, c.laneCap-c.draft.StartAt, upper)
		} else if upper < scenario.MinStepDuration {
			upper = scenario.MinStepDuration
		}
		c.draft.Duration = upper
	case EdgeStart:
		applied := clamp(-c.originalStart, c.originalDur-scenario.MinStepDuration, deltaSeconds)
		c.draft.StartAt = c.originalStart + applied
		c.draft.Duration = c.originalDur - applied
	}
	return c.draft, nil
}

// Commit ends the gesture and returns the final draft for the caller to
// write back as the authoritative step, followed by a layout recompute.
func (c *Controller) Commit() (scenario.Step, error) {
	if !c.active {
		return scenario.Step{}, ErrNoGesture
	}
	c.active = false
	return c.draft, nil
}

// Cancel abandons the gesture; the authoritative step is untouched.
func (c *Controller) Cancel() {
	c.active = false
}

func clamp(lo, hi, v float64) float64 {
	if hi < lo {
		// Degenerate range (step longer than the lane); pin to the lower
		// bound so the invariants on start and duration still hold.
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
