package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// NetworkDegradation returns a scenario that degrades one node's network,
// waits for the condition to bite, then clears everything.
func NetworkDegradation(laneID string) *Scenario {
	now := time.Now().UTC()
	return &Scenario{
		ID:          uuid.NewString(),
		Name:        "network-degradation",
		Description: "Add latency then packet loss to one node, observe, clear",
		Steps: []Step{
			{ID: uuid.NewString(), Type: StepChaosAction, LaneID: laneID, StartAt: 0, Duration: 30,
				Params: Params{"type": "delay", "latency": "150ms", "jitter": "20ms"}},
			{ID: uuid.NewString(), Type: StepWait, StartAt: 30, Duration: 10},
			{ID: uuid.NewString(), Type: StepChaosAction, LaneID: laneID, StartAt: 40, Duration: 30,
				Params: Params{"type": "loss", "loss": "25"}},
			{ID: uuid.NewString(), Type: StepWait, StartAt: 70, Duration: 10},
			{ID: uuid.NewString(), Type: StepClearAll, StartAt: 80, Duration: MinStepDuration},
		},
		TotalDuration: 90,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Partition returns a scenario that splits two nodes apart and heals them.
func Partition(laneA, laneB string) *Scenario {
	now := time.Now().UTC()
	return &Scenario{
		ID:          uuid.NewString(),
		Name:        "partition",
		Description: "Partition two nodes, hold, then heal",
		Steps: []Step{
			{ID: uuid.NewString(), Type: StepChaosAction, LaneID: laneA, TargetID: laneB, StartAt: 0, Duration: 60,
				Params: Params{"type": "partition", "direction": "both"}},
			{ID: uuid.NewString(), Type: StepWait, StartAt: 60, Duration: 15},
			{ID: uuid.NewString(), Type: StepClearAll, StartAt: 75, Duration: MinStepDuration},
		},
		TotalDuration: 80,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Presets returns the built-in scenarios keyed by name, targeted at
// placeholder lanes the operator is expected to retarget.
func Presets() map[string]*Scenario {
	return map[string]*Scenario{
		"network-degradation": NetworkDegradation("node-1"),
		"partition":           Partition("node-1", "node-2"),
	}
}

// presetFile is the YAML shape of an operator-authored scenario file.
type presetFile struct {
	Name          string  `yaml:"name"`
	Description   string  `yaml:"description"`
	TotalDuration float64 `yaml:"totalDuration"`
	Steps         []struct {
		Type     string         `yaml:"type"`
		LaneID   string         `yaml:"laneId"`
		TargetID string         `yaml:"targetNodeId"`
		StartAt  float64        `yaml:"startAt"`
		Duration float64        `yaml:"duration"`
		Params   map[string]any `yaml:"params"`
	} `yaml:"steps"`
}

// LoadFile reads a scenario from a YAML file, assigning fresh ids to the
// scenario and each step. The result is validated before it is returned.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	now := time.Now().UTC()
	sc := &Scenario{
		ID:            uuid.NewString(),
		Name:          pf.Name,
		Description:   pf.Description,
		TotalDuration: pf.TotalDuration,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, ps := range pf.Steps {
		sc.Steps = append(sc.Steps, Step{
			ID:       uuid.NewString(),
			Type:     StepType(ps.Type),
			LaneID:   ps.LaneID,
			TargetID: ps.TargetID,
			StartAt:  ps.StartAt,
			Duration: ps.Duration,
			Params:   Params(ps.Params),
		})
	}
	if sc.TotalDuration == 0 {
		sc.TotalDuration = sc.End()
	}
	if err := Validate(sc); err != nil {
		return nil, err
	}
	return sc, nil
}
