package timeline

import (
	"sort"

	"github.com/faultline-io/faultline/pkg/scenario"
)

// Rendering constants for lane geometry. Heights are in pixels; the layout
// itself is unit-agnostic and only the TotalHeight computation uses them.
const (
	RowHeight     = 28.0
	RowGap        = 6.0
	LanePadding   = 12.0
	MinLaneHeight = RowHeight + LanePadding
)

// Layout maps each step to a display row inside its lane so that no two
// steps sharing a row overlap in time. It is derived state, recomputed after
// every mutation and never persisted.
type Layout struct {
	RowOf       map[string]int
	Rows        int
	TotalHeight float64
}

// Compute packs steps into rows greedily: steps sorted by start time (ties
// broken by id so the result is deterministic) each take the first row whose
// previous occupant has already ended. Intervals are half-open, so a step
// starting exactly where another ends shares its row. For the fixed ordering
// this uses the minimum possible number of rows.
func Compute(steps []scenario.Step) Layout {
	l := Layout{RowOf: make(map[string]int, len(steps))}
	if len(steps) == 0 {
		l.TotalHeight = MinLaneHeight
		return l
	}

	order := make([]scenario.Step, len(steps))
	copy(order, steps)
	sort.Slice(order, func(i, j int) bool {
		if order[i].StartAt != order[j].StartAt {
			return order[i].StartAt < order[j].StartAt
		}
		return order[i].ID < order[j].ID
	})

	var rowEnds []float64
	for _, st := range order {
		placed := false
		for r := range rowEnds {
			if rowEnds[r] <= st.StartAt {
				rowEnds[r] = st.StartAt + st.Duration
				l.RowOf[st.ID] = r
				placed = true
				break
			}
		}
		if !placed {
			rowEnds = append(rowEnds, st.StartAt+st.Duration)
			l.RowOf[st.ID] = len(rowEnds) - 1
		}
	}

	l.Rows = len(rowEnds)
	l.TotalHeight = float64(l.Rows)*(RowHeight+RowGap) + LanePadding
	if l.TotalHeight < MinLaneHeight {
		l.TotalHeight = MinLaneHeight
	}
	return l
}

// ComputeLanes groups steps by lane and lays each lane out independently.
// Steps with an empty lane id (waits, clear-alls) collect under the "" key.
func ComputeLanes(steps []scenario.Step) map[string]Layout {
	byLane := make(map[string][]scenario.Step)
	for _, st := range steps {
		byLane[st.LaneID] = append(byLane[st.LaneID], st)
	}
	out := make(map[string]Layout, len(byLane))
	for lane, laneSteps := range byLane {
		out[lane] = Compute(laneSteps)
	}
	return out
}
