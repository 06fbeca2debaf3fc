package reports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/faultline-io/faultline/pkg/blob"
	"github.com/faultline-io/faultline/pkg/chaos"
	"github.com/faultline-io/faultline/pkg/runner"
	"github.com/faultline-io/faultline/pkg/scenario"
)

func sampleSnapshot() runner.Snapshot {
	finished := time.Date(2026, 8, 30, 12, 5, 0, 0, time.UTC)
	return runner.Snapshot{
		RunID:       "run-1",
		ScenarioID:  "sc-1",
		State:       runner.RunFailed,
		CurrentStep: 1,
		StartedAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		FinishedAt:  &finished,
		Steps: []runner.StepResult{
			{StepID: "s1", Type: scenario.StepChaosAction, Status: scenario.StatusCompleted},
			{StepID: "s2", Type: scenario.StepWait, Status: scenario.StatusFailed, Error: "boom"},
			{StepID: "s3", Type: scenario.StepClearAll, Status: scenario.StatusPending},
		},
	}
}

func TestGenerateCSV(t *testing.T) {
	rd, err := Generate(sampleSnapshot(), FormatCSV)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rows, err := csv.NewReader(rd).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	// Summary header + summary + step header + 3 steps.
	if len(rows) != 6 {
		t.Fatalf("rows = %d: %v", len(rows), rows)
	}
	if rows[1][0] != "run-1" || rows[1][2] != "failed" {
		t.Errorf("summary row = %v", rows[1])
	}
	if rows[4][1] != "s2" || rows[4][4] != "boom" {
		t.Errorf("failed step row = %v", rows[4])
	}
}

func TestGenerateJSON(t *testing.T) {
	rd, err := Generate(sampleSnapshot(), FormatJSON)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, _ := io.ReadAll(rd)
	var snap runner.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.RunID != "run-1" || len(snap.Steps) != 3 {
		t.Errorf("round trip = %+v", snap)
	}
}

func TestParseFormat(t *testing.T) {
	if f, ok := ParseFormat(""); !ok || f != FormatJSON {
		t.Errorf("empty = %v, %v", f, ok)
	}
	if f, ok := ParseFormat("csv"); !ok || f != FormatCSV {
		t.Errorf("csv = %v, %v", f, ok)
	}
	if _, ok := ParseFormat("xml"); ok {
		t.Errorf("xml should be rejected")
	}
}

func TestArchiveWhenDone(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewLocalStore(t.TempDir())
	arch := NewArchiver(blobs)

	rn := runner.New(chaos.NewMockInjector())
	sc := &scenario.Scenario{ID: "sc-1", Name: "archive", Steps: []scenario.Step{
		{ID: "s1", Type: scenario.StepChaosAction, LaneID: "node-1", Duration: 10,
			Params: scenario.Params{"type": "delay"}},
	}}
	run, err := rn.Start(ctx, sc)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := arch.ArchiveWhenDone(ctx, run); err != nil {
		t.Fatalf("ArchiveWhenDone: %v", err)
	}

	rc, err := blobs.Get(ctx, Key(run.ID))
	if err != nil {
		t.Fatalf("Get archived report: %v", err)
	}
	defer rc.Close()
	var snap runner.Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != runner.RunCompleted {
		t.Errorf("archived state = %s", snap.State)
	}
}
