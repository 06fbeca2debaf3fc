package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faultline-io/faultline/pkg/chaos"
	"github.com/faultline-io/faultline/pkg/reports"
	"github.com/faultline-io/faultline/pkg/runner"
	"github.com/faultline-io/faultline/pkg/scenario"
	"github.com/faultline-io/faultline/pkg/simulation"
	"github.com/faultline-io/faultline/pkg/store"
	"github.com/faultline-io/faultline/pkg/timeline"
)

// Context keys
type contextKey string

const traceIDKey contextKey = "trace_id"

// ScenarioStore is the persistence dependency, an interface to enable
// mocking in handler tests.
type ScenarioStore interface {
	SaveScenario(ctx context.Context, sc *scenario.Scenario) error
	GetScenario(ctx context.Context, id string) (*scenario.Scenario, error)
	ListScenarios(ctx context.Context) ([]*scenario.Scenario, error)
	DeleteScenario(ctx context.Context, id string) error
}

// Server encapsulates the HTTP API server.
type Server struct {
	store    ScenarioStore
	runner   *runner.Runner
	injector chaos.Injector
	server   *http.Server
}

// NewServer creates a new API server instance.
func NewServer(st ScenarioStore, rn *runner.Runner, injector chaos.Injector, addr string) *Server {
	s := &Server{
		store:    st,
		runner:   rn,
		injector: injector,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/scenarios", s.handleScenarios)
	mux.HandleFunc("/v1/scenarios/", s.handleScenarioByID)
	mux.HandleFunc("/v1/runs/", s.handleRunByID)
	mux.HandleFunc("/v1/conditions", s.handleConditions)

	// Middleware: Logging, Panic Recovery
	handler := withLogging(withRecovery(mux))

	if addr == "" {
		addr = ":8080"
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	return s
}

// Start runs the HTTP server (blocking).
func (s *Server) Start() error {
	fmt.Printf(`{"level":"info","msg":"server_starting","addr":"%s"}`+"\n", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println(`{"level":"info","msg":"server_stopping"}`)
	return s.server.Shutdown(ctx)
}

// Handler exposes the configured handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// handleScenarios serves GET (list) and POST (create) on /v1/scenarios.
func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		scs, err := s.store.ListScenarios(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list scenarios")
			return
		}
		if scs == nil {
			scs = []*scenario.Scenario{}
		}
		writeJSON(w, http.StatusOK, scs)

	case http.MethodPost:
		var req CreateScenarioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json_body")
			return
		}
		now := time.Now().UTC()
		sc := &scenario.Scenario{
			ID:            uuid.NewString(),
			Name:          req.Name,
			Description:   req.Description,
			Steps:         req.Steps,
			TotalDuration: req.TotalDuration,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		for i := range sc.Steps {
			if sc.Steps[i].ID == "" {
				sc.Steps[i].ID = uuid.NewString()
			}
		}
		if sc.TotalDuration == 0 {
			sc.TotalDuration = sc.End()
		}
		if err := s.store.SaveScenario(r.Context(), sc); err != nil {
			writeValidationAware(w, err, "failed to save scenario")
			return
		}
		writeJSON(w, http.StatusCreated, sc)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

// handleScenarioByID serves /v1/scenarios/{id} plus the /run and /layout
// sub-resources.
func (s *Server) handleScenarioByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/scenarios/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	switch sub {
	case "":
		s.handleScenario(w, r, id)
	case "run":
		s.handleRunScenario(w, r, id)
	case "layout":
		s.handleLayout(w, r, id)
	case "plan":
		s.handlePlan(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not_found")
	}
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		sc, err := s.store.GetScenario(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)

	case http.MethodPut:
		sc, err := s.store.GetScenario(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		var req UpdateScenarioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json_body")
			return
		}
		if req.Name != nil {
			sc.Name = *req.Name
		}
		if req.Description != nil {
			sc.Description = *req.Description
		}
		if req.TotalDuration != nil {
			sc.TotalDuration = *req.TotalDuration
		}
		if req.Steps != nil {
			sc.Steps = *req.Steps
			for i := range sc.Steps {
				if sc.Steps[i].ID == "" {
					sc.Steps[i].ID = uuid.NewString()
				}
			}
		}
		if err := s.store.SaveScenario(r.Context(), sc); err != nil {
			writeValidationAware(w, err, "failed to save scenario")
			return
		}
		writeJSON(w, http.StatusOK, sc)

	case http.MethodDelete:
		if err := s.store.DeleteScenario(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

// handleRunScenario starts a run. The run executes in the background; the
// response carries the run id for status polling and stop requests.
func (s *Server) handleRunScenario(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	sc, err := s.store.GetScenario(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	// The run outlives the HTTP request; detach it from the request
	// context so client disconnect does not cancel it.
	run, err := s.runner.Start(context.Background(), sc)
	if err != nil {
		if errors.Is(err, runner.ErrRunActive) {
			writeError(w, http.StatusConflict, "run_already_active")
			return
		}
		writeValidationAware(w, err, "failed to start run")
		return
	}
	writeJSON(w, http.StatusAccepted, RunStartedResponse{RunID: run.ID, ScenarioID: sc.ID})
}

// handleLayout returns the derived row packing for every lane of a
// scenario.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	sc, err := s.store.GetScenario(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := LayoutResponse{Lanes: make(map[string]LaneLayout)}
	for lane, l := range timeline.ComputeLanes(sc.Steps) {
		resp.Lanes[lane] = LaneLayout{RowOf: l.RowOf, Rows: l.Rows, TotalHeight: l.TotalHeight}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePlan dry-runs a scenario without touching the injector.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	sc, err := s.store.GetScenario(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, simulation.BuildPlan(sc))
}

// handleRunByID serves GET /v1/runs/{id}, POST /v1/runs/{id}/stop and
// GET /v1/runs/{id}/report.
func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	id, sub, _ := strings.Cut(rest, "/")
	run, ok := s.runner.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run_not_found")
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, run.Snapshot())
	case sub == "stop" && r.Method == http.MethodPost:
		run.Stop()
		w.WriteHeader(http.StatusAccepted)
	case sub == "report" && r.Method == http.MethodGet:
		format, ok := reports.ParseFormat(r.URL.Query().Get("format"))
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown_report_format")
			return
		}
		rd, err := reports.Generate(run.Snapshot(), format)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "report_failed")
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.WriteHeader(http.StatusOK)
		io.Copy(w, rd)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

// handleConditions proxies the injector's active condition list.
func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	conds, err := s.injector.ListActive(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, http.StatusBadGateway, "injector_unavailable")
		return
	}
	if conds == nil {
		conds = []chaos.Condition{}
	}
	writeJSON(w, http.StatusOK, conds)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scenario_not_found")
		return
	}
	writeError(w, http.StatusInternalServerError, "store_error")
}

// writeValidationAware maps validation failures to 400 and everything else
// to 500 with the fallback message.
func writeValidationAware(w http.ResponseWriter, err error, fallback string) {
	var ve *scenario.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, fallback)
}

// Middleware

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				fmt.Printf(`{"level":"error","msg":"panic_recovered","error":"%v","path":"%s"}`+"\n", err, r.URL.Path)
				http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = generateTraceID()
		}
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)
		r = r.WithContext(ctx)

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		fmt.Printf(`{"level":"info","msg":"http_request","trace_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`+"\n",
			traceID, r.Method, r.URL.Path, ww.status, duration.Milliseconds())
	})
}

func generateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// Fallback if random fails (unlikely)
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
