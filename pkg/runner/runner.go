package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/faultline-io/faultline/pkg/chaos"
	"github.com/faultline-io/faultline/pkg/scenario"
)

// ErrRunActive is returned when a scenario already has a run in flight.
var ErrRunActive = errors.New("scenario already has an active run")

// Runner starts and tracks scenario runs. Steps within one run execute
// strictly sequentially in declared slice order; startAt/duration on the
// timeline are advisory and never consulted (a wait's duration is the one
// exception, it is the suspend time). Different scenarios may run
// concurrently; a second run of the same scenario is rejected while the
// first is in flight.
type Runner struct {
	injector chaos.Injector

	mu       sync.Mutex
	runs     map[string]*Run // by run id, terminal runs retained
	active   map[string]*Run // by scenario id, in-flight only
	onStart  func(*Run)
}

// OnRunStart registers a callback invoked for every run as it starts,
// before the first step dispatches. The callback typically claims the run's
// event stream (which has a single consumer) to forward it elsewhere.
func (r *Runner) OnRunStart(fn func(*Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStart = fn
}

// New creates a Runner dispatching against the given injector.
func New(injector chaos.Injector) *Runner {
	return &Runner{
		injector: injector,
		runs:     make(map[string]*Run),
		active:   make(map[string]*Run),
	}
}

// Run is the handle for one execution of a scenario. The handle is the
// re-entrancy token: while it is unfinished, Start rejects the scenario.
type Run struct {
	ID         string
	ScenarioID string

	runner *Runner
	cancel context.CancelFunc
	events chan Event
	done   chan struct{}

	mu          sync.Mutex
	state       RunState
	currentStep int
	steps       []scenario.Step
	startedAt   time.Time
	finishedAt  *time.Time
}

// Start begins executing sc in a background goroutine and returns its run
// handle. The scenario's step slice is copied and all execution state reset
// to pending, so the caller's scenario is never mutated mid-run.
func (r *Runner) Start(ctx context.Context, sc *scenario.Scenario) (*Run, error) {
	if err := scenario.Validate(sc); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, busy := r.active[sc.ID]; busy {
		r.mu.Unlock()
		return nil, ErrRunActive
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		ID:          uuid.NewString(),
		ScenarioID:  sc.ID,
		runner:      r,
		cancel:      cancel,
		events:      make(chan Event, 2*len(sc.Steps)+4),
		done:        make(chan struct{}),
		state:       RunRunning,
		currentStep: -1,
		steps:       make([]scenario.Step, len(sc.Steps)),
		startedAt:   time.Now().UTC(),
	}
	copy(run.steps, sc.Steps)
	for i := range run.steps {
		run.steps[i].RunStatus = scenario.StatusPending
		run.steps[i].RunError = ""
	}

	r.active[sc.ID] = run
	r.runs[run.ID] = run
	onStart := r.onStart
	r.mu.Unlock()

	FaultlineActiveRuns.Inc()
	log.Printf("run %s started for scenario %s (%d steps)", run.ID, sc.ID, len(run.steps))

	if onStart != nil {
		onStart(run)
	}
	go run.execute(runCtx, r.injector)
	return run, nil
}

// Get returns a run by id, including finished ones.
func (r *Runner) Get(runID string) (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	return run, ok
}

// ActiveFor returns the in-flight run for a scenario, if any.
func (r *Runner) ActiveFor(scenarioID string) (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.active[scenarioID]
	return run, ok
}

// Events is the run's step transition stream. The channel is buffered for
// the whole run and closed once the run reaches a terminal state, so a
// caller that only wants the outcome can drain it afterwards. It has a
// single consumer; concurrent readers would each see a subset.
func (run *Run) Events() <-chan Event {
	return run.events
}

// Done is closed when the run reaches a terminal state.
func (run *Run) Done() <-chan struct{} {
	return run.done
}

// Stop requests cancellation and returns immediately. The request is
// honored at the next suspension point: during a wait, or just before the
// next step dispatches. An already-dispatched injector call is not
// preempted. Steps not yet reached stay pending.
func (run *Run) Stop() {
	run.cancel()
}

// State returns the run-level state.
func (run *Run) State() RunState {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.state
}

// Snapshot returns a copy of the run's current progress.
func (run *Run) Snapshot() Snapshot {
	run.mu.Lock()
	defer run.mu.Unlock()

	snap := Snapshot{
		RunID:       run.ID,
		ScenarioID:  run.ScenarioID,
		State:       run.state,
		CurrentStep: run.currentStep,
		StartedAt:   run.startedAt,
		FinishedAt:  run.finishedAt,
		Steps:       make([]StepResult, len(run.steps)),
	}
	for i, st := range run.steps {
		snap.Steps[i] = StepResult{
			StepID: st.ID,
			Type:   st.Type,
			Status: st.RunStatus,
			Error:  st.RunError,
		}
	}
	return snap
}

// execute walks the steps in declared order, stopping at the first failure
// or cancellation.
func (run *Run) execute(ctx context.Context, injector chaos.Injector) {
	defer run.cancel()

	for i := range run.steps {
		// Cancellation is checked at the suspension point before each
		// dispatch; untouched steps stay pending.
		select {
		case <-ctx.Done():
			run.finish(RunCancelled)
			return
		default:
		}

		run.setStepStatus(i, scenario.StatusRunning, "")

		err := run.dispatch(ctx, injector, i)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				// Cancelled mid-wait: the step never reached a terminal
				// state on its own, leave it pending rather than failed.
				run.setStepStatus(i, scenario.StatusPending, "")
				run.finish(RunCancelled)
				return
			}
			run.setStepStatus(i, scenario.StatusFailed, err.Error())
			run.finish(RunFailed)
			return
		}
		run.setStepStatus(i, scenario.StatusCompleted, "")
	}

	run.finish(RunCompleted)
}

// dispatch performs one step against the collaborator. No per-step timeout
// is enforced here; a hung injector call blocks the run until the injector
// itself gives up.
func (run *Run) dispatch(ctx context.Context, injector chaos.Injector, i int) error {
	st := run.steps[i]
	switch st.Type {
	case scenario.StepChaosAction:
		req, err := chaos.RequestFromStep(st, run.ScenarioID)
		if err != nil {
			return err
		}
		handle, err := injector.Apply(ctx, req)
		if err != nil {
			return err
		}
		log.Printf("run %s: applied %s on %s (condition %s)", run.ID, req.Type, req.SourceID, handle.ConditionID)
		return nil

	case scenario.StepWait:
		timer := time.NewTimer(time.Duration(st.Duration * float64(time.Second)))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}

	case scenario.StepClearAll:
		n, err := injector.ClearAll(ctx, run.ScenarioID)
		if err != nil {
			return err
		}
		log.Printf("run %s: cleared %d conditions", run.ID, n)
		return nil

	default:
		return fmt.Errorf("unknown step type %q", st.Type)
	}
}

func (run *Run) setStepStatus(i int, status scenario.StepStatus, errMsg string) {
	run.mu.Lock()
	if status == scenario.StatusRunning {
		run.currentStep = i
	}
	run.steps[i].RunStatus = status
	run.steps[i].RunError = errMsg
	ev := Event{
		RunID:      run.ID,
		ScenarioID: run.ScenarioID,
		StepIndex:  i,
		StepID:     run.steps[i].ID,
		Status:     status,
		Error:      errMsg,
		At:         time.Now().UTC(),
	}
	run.mu.Unlock()

	if status.Terminal() {
		FaultlineStepsTotal.WithLabelValues(string(run.steps[i].Type), string(status)).Inc()
	}

	// The channel is sized for every transition of the run, so this never
	// blocks; the guard covers the pending rewind on cancellation.
	select {
	case run.events <- ev:
	default:
	}
}

func (run *Run) finish(state RunState) {
	run.mu.Lock()
	run.state = state
	now := time.Now().UTC()
	run.finishedAt = &now
	started := run.startedAt
	run.mu.Unlock()

	run.runner.mu.Lock()
	delete(run.runner.active, run.ScenarioID)
	run.runner.mu.Unlock()

	FaultlineActiveRuns.Dec()
	FaultlineRunsTotal.WithLabelValues(string(state)).Inc()
	FaultlineRunDuration.Observe(now.Sub(started).Seconds())

	log.Printf("run %s finished: %s", run.ID, state)
	close(run.events)
	close(run.done)
}
