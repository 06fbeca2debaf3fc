package chaos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPInjector talks to a fault-injection controller over its JSON API.
// The controller owns the actual mechanism (Chaos Mesh, tc, iptables); this
// client only moves requests and handles across the wire.
type HTTPInjector struct {
	endpoint string
	http     *http.Client
}

// NewHTTPInjector creates a client for the controller at endpoint.
// endpoint defaults to "http://127.0.0.1:8070" if empty.
func NewHTTPInjector(endpoint string) *HTTPInjector {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8070"
	}
	return &HTTPInjector{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Apply posts the condition to the controller.
func (c *HTTPInjector) Apply(ctx context.Context, req Request) (Handle, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to marshal condition request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/conditions", bytes.NewReader(body))
	if err != nil {
		return Handle{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Handle{}, fmt.Errorf("injector unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Handle{}, fmt.Errorf("injector returned status %d", resp.StatusCode)
	}

	var h Handle
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Handle{}, fmt.Errorf("failed to decode condition handle: %w", err)
	}
	return h, nil
}

// ClearAll deletes every condition in scope.
func (c *HTTPInjector) ClearAll(ctx context.Context, scope string) (int, error) {
	u := c.endpoint + "/v1/conditions"
	if scope != "" {
		u += "?scope=" + url.QueryEscape(scope)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("injector unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("injector returned status %d", resp.StatusCode)
	}

	var out struct {
		Cleared int `json:"cleared"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode clear response: %w", err)
	}
	return out.Cleared, nil
}

// ListActive fetches the conditions currently applied in scope.
func (c *HTTPInjector) ListActive(ctx context.Context, scope string) ([]Condition, error) {
	u := c.endpoint + "/v1/conditions"
	if scope != "" {
		u += "?scope=" + url.QueryEscape(scope)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("injector unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("injector returned status %d", resp.StatusCode)
	}

	var conds []Condition
	if err := json.NewDecoder(resp.Body).Decode(&conds); err != nil {
		return nil, fmt.Errorf("failed to decode conditions: %w", err)
	}
	return conds, nil
}
