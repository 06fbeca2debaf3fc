package chaos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func fakeController(t *testing.T) (*httptest.Server, *HTTPInjector) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/conditions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req Request
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if req.Type == "" || req.SourceID == "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(Handle{ConditionID: "c-1", Resource: "tc/node-1"})
		case http.MethodDelete:
			if r.URL.Query().Get("scope") != "run-1" {
				json.NewEncoder(w).Encode(map[string]int{"cleared": 0})
				return
			}
			json.NewEncoder(w).Encode(map[string]int{"cleared": 2})
		case http.MethodGet:
			json.NewEncoder(w).Encode([]Condition{{ID: "c-1", Scope: "run-1", Type: TypeDelay, Active: true}})
		}
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, NewHTTPInjector(ts.URL)
}

func TestHTTPInjector_Apply(t *testing.T) {
	_, inj := fakeController(t)

	h, err := inj.Apply(context.Background(), Request{
		Scope: "run-1", SourceID: "node-1", Type: TypeDelay, Direction: DirectionBoth,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if h.ConditionID != "c-1" || h.Resource != "tc/node-1" {
		t.Errorf("handle = %+v", h)
	}
}

func TestHTTPInjector_ApplyRejected(t *testing.T) {
	_, inj := fakeController(t)

	// Controller rejects a request with no source node; that surfaces as an
	// error, which fails the dispatching step.
	if _, err := inj.Apply(context.Background(), Request{Type: TypeDelay}); err == nil {
		t.Errorf("expected controller rejection")
	}
}

func TestHTTPInjector_ClearAllAndList(t *testing.T) {
	_, inj := fakeController(t)
	ctx := context.Background()

	n, err := inj.ClearAll(ctx, "run-1")
	if err != nil || n != 2 {
		t.Errorf("ClearAll = %d, %v", n, err)
	}

	conds, err := inj.ListActive(ctx, "run-1")
	if err != nil || len(conds) != 1 || conds[0].Type != TypeDelay {
		t.Errorf("ListActive = %+v, %v", conds, err)
	}
}

func TestHTTPInjector_Unreachable(t *testing.T) {
	inj := NewHTTPInjector("http://127.0.0.1:1")
	if _, err := inj.Apply(context.Background(), Request{SourceID: "n", Type: TypeDelay}); err == nil {
		t.Errorf("expected unreachable error")
	}
}
