package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faultline-io/faultline/pkg/blob"
	"github.com/faultline-io/faultline/pkg/chaos"
	"github.com/faultline-io/faultline/pkg/reports"
	"github.com/faultline-io/faultline/pkg/runner"
	"github.com/faultline-io/faultline/pkg/scenario"
	"github.com/faultline-io/faultline/pkg/simulation"
	"github.com/faultline-io/faultline/pkg/store"
)

const presetYAML = `name: integration-latency
description: latency burst with cleanup
steps:
  - type: chaos-action
    laneId: node-1
    startAt: 0
    duration: 10
    params:
      type: delay
      latency: 100ms
  - type: wait
    startAt: 10
    duration: 1
  - type: clear-all
    startAt: 11
    duration: 1
`

// The path a YAML preset takes in the daemon: loaded from disk, persisted,
// dry-run planned, executed, and its final report archived.
func TestPresetThroughFullPipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	dir := t.TempDir()

	path := filepath.Join(dir, "latency.yaml")
	if err := os.WriteFile(path, []byte(presetYAML), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	sc, err := scenario.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	st, err := store.NewStore(filepath.Join(dir, "faultline.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()
	if err := st.SaveScenario(ctx, sc); err != nil {
		t.Fatalf("SaveScenario: %v", err)
	}

	stored, err := st.GetScenario(ctx, sc.ID)
	if err != nil {
		t.Fatalf("GetScenario: %v", err)
	}

	plan := simulation.BuildPlan(stored)
	if plan.Warnings != 0 {
		t.Fatalf("plan has warnings: %+v", plan.Steps)
	}
	if plan.WallClock != 1 {
		t.Errorf("planned wall clock = %v, want 1", plan.WallClock)
	}

	inj := chaos.NewMockInjector()
	rn := runner.New(inj)
	blobs := blob.NewLocalStore(filepath.Join(dir, "archive"))
	arch := reports.NewArchiver(blobs)

	run, err := rn.Start(ctx, stored)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := arch.ArchiveWhenDone(ctx, run); err != nil {
		t.Fatalf("ArchiveWhenDone: %v", err)
	}

	if got := run.State(); got != runner.RunCompleted {
		t.Fatalf("state = %s", got)
	}

	rc, err := blobs.Get(ctx, reports.Key(run.ID))
	if err != nil {
		t.Fatalf("archived report missing: %v", err)
	}
	defer rc.Close()
	var snap runner.Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		t.Fatalf("decode archived report: %v", err)
	}
	if snap.RunID != run.ID || snap.State != runner.RunCompleted {
		t.Errorf("archived snapshot = %+v", snap)
	}
	if len(snap.Steps) != 3 {
		t.Errorf("archived steps = %d", len(snap.Steps))
	}
}
