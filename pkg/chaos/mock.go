package chaos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockInjector keeps applied conditions in memory. It is the default
// injector for local development and the fixture for engine tests.
type MockInjector struct {
	mu         sync.Mutex
	conditions map[string]Condition

	// FailNext makes the next Apply call fail with the given message,
	// simulating a collaborator outage.
	failNext string
}

// NewMockInjector creates an empty in-memory injector.
func NewMockInjector() *MockInjector {
	return &MockInjector{conditions: make(map[string]Condition)}
}

// FailNext arms a one-shot Apply failure.
func (m *MockInjector) FailNext(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = msg
}

// Apply records the condition and returns a fresh handle.
func (m *MockInjector) Apply(ctx context.Context, req Request) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != "" {
		msg := m.failNext
		m.failNext = ""
		return Handle{}, fmt.Errorf("injector failure: %s", msg)
	}

	id := uuid.NewString()
	m.conditions[id] = Condition{
		ID:        id,
		Scope:     req.Scope,
		SourceID:  req.SourceID,
		TargetID:  req.TargetID,
		Type:      req.Type,
		Direction: req.Direction,
		Duration:  req.Duration,
		Params:    req.Params,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	return Handle{ConditionID: id, Resource: "mock/" + id}, nil
}

// ClearAll drops every condition in scope.
func (m *MockInjector) ClearAll(ctx context.Context, scope string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, c := range m.conditions {
		if scope == "" || c.Scope == scope {
			delete(m.conditions, id)
			n++
		}
	}
	return n, nil
}

// ListActive returns the conditions in scope, unordered.
func (m *MockInjector) ListActive(ctx context.Context, scope string) ([]Condition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Condition
	for _, c := range m.conditions {
		if scope == "" || c.Scope == scope {
			out = append(out, c)
		}
	}
	return out, nil
}
