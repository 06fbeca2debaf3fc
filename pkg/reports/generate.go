package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/faultline-io/faultline/pkg/runner"
)

// Generate renders a run snapshot in the requested format.
func Generate(snap runner.Snapshot, format Format) (io.Reader, error) {
	switch format {
	case FormatCSV:
		return generateCSV(snap)
	case FormatJSON:
		return generateJSON(snap)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// generateCSV writes one row per step, preceded by a run summary row. The
// shape suits spreadsheet import after a game day.
func generateCSV(snap runner.Snapshot) (io.Reader, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err := w.Write([]string{"run_id", "scenario_id", "state", "started_at", "finished_at"}); err != nil {
		return nil, err
	}
	finished := ""
	if snap.FinishedAt != nil {
		finished = snap.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if err := w.Write([]string{
		snap.RunID, snap.ScenarioID, string(snap.State),
		snap.StartedAt.Format("2006-01-02T15:04:05Z07:00"), finished,
	}); err != nil {
		return nil, err
	}

	if err := w.Write([]string{"step_index", "step_id", "type", "status", "error"}); err != nil {
		return nil, err
	}
	for i, st := range snap.Steps {
		if err := w.Write([]string{
			strconv.Itoa(i), st.StepID, string(st.Type), string(st.Status), st.Error,
		}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf, nil
}

func generateJSON(snap runner.Snapshot) (io.Reader, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run report: %w", err)
	}
	return bytes.NewReader(data), nil
}
