package chaos

import (
	"context"
)

// Injector is the fault-injection collaborator boundary. The execution
// engine dispatches against it and never knows how conditions are realized
// (tc rules, Chaos Mesh CRDs, a stub in tests).
//
// ClearAll is idempotent: clearing with nothing active succeeds with a
// count of zero.
type Injector interface {
	// Apply creates one condition and returns a handle to it.
	Apply(ctx context.Context, req Request) (Handle, error)

	// ClearAll removes every active condition in scope and returns how
	// many were removed.
	ClearAll(ctx context.Context, scope string) (int, error)

	// ListActive returns the conditions currently applied in scope.
	ListActive(ctx context.Context, scope string) ([]Condition, error)
}
