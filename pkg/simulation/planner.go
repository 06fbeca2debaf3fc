package simulation

import (
	"fmt"

	"github.com/faultline-io/faultline/pkg/chaos"
	"github.com/faultline-io/faultline/pkg/scenario"
)

// BuildPlan dry-runs a scenario: it walks the steps in declared order and
// records what each one would dispatch, surfacing per-step problems (an
// unknown chaos subtype, for instance) as warnings instead of aborting. A
// real run stops at the first failure; the plan reports all of them so the
// operator can fix the scenario in one pass.
func BuildPlan(sc *scenario.Scenario) Plan {
	plan := Plan{
		ScenarioID: sc.ID,
		Steps:      make([]PlannedStep, 0, len(sc.Steps)),
	}

	var offset float64
	for i, st := range sc.Steps {
		ps := PlannedStep{
			Index:  i,
			StepID: st.ID,
			Type:   st.Type,
			Offset: offset,
		}

		switch st.Type {
		case scenario.StepChaosAction:
			req, err := chaos.RequestFromStep(st, sc.ID)
			if err != nil {
				ps.Warning = err.Error()
				ps.Detail = "unresolvable chaos action"
				break
			}
			if req.TargetID != "" {
				ps.Detail = fmt.Sprintf("apply %s on %s toward %s (%s)", req.Type, req.SourceID, req.TargetID, req.Direction)
			} else {
				ps.Detail = fmt.Sprintf("apply %s on %s (%s)", req.Type, req.SourceID, req.Direction)
			}

		case scenario.StepWait:
			ps.Detail = fmt.Sprintf("suspend for %gs", st.Duration)
			offset += st.Duration
			plan.WallClock += st.Duration

		case scenario.StepClearAll:
			ps.Detail = "remove every active condition"

		default:
			ps.Warning = fmt.Sprintf("unknown step type %q", st.Type)
			ps.Detail = "undispatchable step"
		}

		if ps.Warning != "" {
			plan.Warnings++
		}
		plan.Steps = append(plan.Steps, ps)
	}
	return plan
}
