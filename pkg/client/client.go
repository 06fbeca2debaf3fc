package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/faultline-io/faultline/pkg/runner"
	"github.com/faultline-io/faultline/pkg/scenario"
)

// Client is the faultline SDK client.
type Client struct {
	endpoint string
	http     *http.Client
	backoff  BackoffStrategy
}

// NewClient creates a new faultline client.
// endpoint defaults to "http://127.0.0.1:8080" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8080"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		backoff: DefaultBackoff(),
	}
}

// ListScenarios fetches every stored scenario.
func (c *Client) ListScenarios(ctx context.Context) ([]*scenario.Scenario, error) {
	var out []*scenario.Scenario
	if err := c.doJSON(ctx, http.MethodGet, "/v1/scenarios", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetScenario fetches one scenario by id.
func (c *Client) GetScenario(ctx context.Context, id string) (*scenario.Scenario, error) {
	var out scenario.Scenario
	if err := c.doJSON(ctx, http.MethodGet, "/v1/scenarios/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveScenario creates a scenario on the daemon and returns the stored
// form (server-assigned ids included).
func (c *Client) SaveScenario(ctx context.Context, sc *scenario.Scenario) (*scenario.Scenario, error) {
	var out scenario.Scenario
	if err := c.doJSON(ctx, http.MethodPost, "/v1/scenarios", sc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateScenario overwrites an existing scenario in place.
func (c *Client) UpdateScenario(ctx context.Context, sc *scenario.Scenario) (*scenario.Scenario, error) {
	var out scenario.Scenario
	if err := c.doJSON(ctx, http.MethodPut, "/v1/scenarios/"+sc.ID, sc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteScenario removes a scenario by id.
func (c *Client) DeleteScenario(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/scenarios/"+id, nil, nil)
}

// StartRun starts executing a scenario and returns the run id.
func (c *Client) StartRun(ctx context.Context, scenarioID string) (string, error) {
	var out struct {
		RunID string `json:"runId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/scenarios/"+scenarioID+"/run", nil, &out); err != nil {
		return "", err
	}
	return out.RunID, nil
}

// GetRun fetches a run's progress snapshot.
func (c *Client) GetRun(ctx context.Context, runID string) (*runner.Snapshot, error) {
	var out runner.Snapshot
	if err := c.doJSON(ctx, http.MethodGet, "/v1/runs/"+runID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StopRun requests cancellation of a run. It returns once the daemon has
// accepted the request, not once the run has stopped.
func (c *Client) StopRun(ctx context.Context, runID string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/runs/"+runID+"/stop", nil, nil)
}

// WaitForRun polls the run until it reaches a terminal state, backing off
// between polls, and returns the final snapshot.
func (c *Client) WaitForRun(ctx context.Context, runID string) (*runner.Snapshot, error) {
	for attempt := 0; ; attempt++ {
		snap, err := c.GetRun(ctx, runID)
		if err == nil && snap.State.Terminal() {
			return snap, nil
		}
		// Transient fetch errors fall through to the backoff sleep and
		// retry; only context expiry ends the wait.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff.Next(attempt)):
		}
	}
}

// doJSON performs one request, decoding a JSON response into out when out
// is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
