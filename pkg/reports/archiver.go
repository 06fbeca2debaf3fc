package reports

import (
	"context"
	"fmt"
	"log"

	"github.com/faultline-io/faultline/pkg/blob"
	"github.com/faultline-io/faultline/pkg/runner"
)

// Archiver writes the final report of every run to blob storage, so run
// outcomes survive daemon restarts (runs themselves are tracked in memory
// only).
type Archiver struct {
	blobs blob.Store
}

// NewArchiver creates an Archiver writing into the given store.
func NewArchiver(blobs blob.Store) *Archiver {
	return &Archiver{blobs: blobs}
}

// Key returns the archive key for a run.
func Key(runID string) string {
	return "runs/" + runID + ".json"
}

// ArchiveWhenDone blocks until the run reaches a terminal state, then writes
// its final snapshot as a JSON report. Callers run it in a goroutine per run.
func (a *Archiver) ArchiveWhenDone(ctx context.Context, run *runner.Run) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-run.Done():
	}

	snap := run.Snapshot()
	rd, err := Generate(snap, FormatJSON)
	if err != nil {
		return err
	}
	if err := a.blobs.Put(ctx, Key(snap.RunID), rd); err != nil {
		return fmt.Errorf("failed to archive run %s: %w", snap.RunID, err)
	}
	log.Printf("run %s archived (%s)", snap.RunID, snap.State)
	return nil
}
