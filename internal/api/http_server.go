package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ssdfair/ssdsim/pkg/config"
	"github.com/ssdfair/ssdsim/pkg/logger"
)

// HTTPServer exposes the run store and executor over JSON-over-HTTP,
// scoped down from the teacher's HTTPServer to the endpoints this domain
// needs: submit, list, get, stop, and fetch the results CSV. There is no
// SSE metrics stream or time-series endpoint here — a completed run's
// only output is its per-tenant CSV, not an evolving series.
type HTTPServer struct {
	mux      *http.ServeMux
	store    *RunStore
	Executor *Executor
}

// NewHTTPServer wires a ServeMux over store and executor.
func NewHTTPServer(store *RunStore, executor *Executor) *HTTPServer {
	s := &HTTPServer{mux: http.NewServeMux(), store: store, Executor: executor}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunByID)

	return s
}

// Handler returns the server's http.Handler, for embedding in an
// http.Server or httptest.Server.
func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	if strings.HasSuffix(path, ":stop") {
		runID := strings.TrimSuffix(path, ":stop")
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleStopRun(w, runID)
		return
	}

	if strings.HasSuffix(path, "/results") {
		runID := strings.TrimSuffix(path, "/results")
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleResults(w, runID)
		return
	}

	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleGetRun(w, path)
}

// createRunRequest is the POST /v1/runs body. Options mirrors the fields a
// CLI `run` invocation accepts; TracePath must reference a trace file
// readable by the server process, the same contract the `run` subcommand
// has with its --trace flag.
type createRunRequest struct {
	TracePath   string    `json:"trace_path"`
	Scheduler   string    `json:"scheduler"`
	Quantum     float64   `json:"quantum"`
	Users       int       `json:"users"`
	Channels    int       `json:"channels"`
	ReadBWMBps  float64   `json:"read_bw_mbps"`
	WriteBWMBps float64   `json:"write_bw_mbps"`
	Weights     []float64 `json:"weights"`
	SGFSRotate  int       `json:"sgfs_rotate_every"`
	SGFSGap     int       `json:"sgfs_gap"`
}

func (req createRunRequest) toOptions() config.Options {
	opts := config.Defaults()
	opts.TracePath = req.TracePath
	if req.Scheduler != "" {
		opts.Scheduler = req.Scheduler
	}
	if req.Quantum > 0 {
		opts.Quantum = req.Quantum
	}
	if req.Users > 0 {
		opts.Users = req.Users
	}
	if req.Channels > 0 {
		opts.Channels = req.Channels
	}
	if req.ReadBWMBps > 0 {
		opts.ReadBWMBps = req.ReadBWMBps
	}
	if req.WriteBWMBps > 0 {
		opts.WriteBWMBps = req.WriteBWMBps
	}
	if len(req.Weights) > 0 {
		opts.Weights = req.Weights
	}
	if req.SGFSRotate > 0 {
		opts.SGFSRotate = req.SGFSRotate
	}
	if req.SGFSGap > 0 {
		opts.SGFSGap = req.SGFSGap
	}
	return opts
}

func (s *HTTPServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.TracePath == "" {
		s.writeError(w, http.StatusBadRequest, "trace_path is required")
		return
	}

	opts := req.toOptions()
	if err := config.ValidateOptions(opts); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.Create(opts, req.TracePath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	started, err := s.Executor.Start(rec.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("run created", "run_id", rec.ID)
	s.writeJSON(w, http.StatusCreated, map[string]any{"run": convertRunToJSON(started)})
}

func (s *HTTPServer) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	records := s.store.List()
	runs := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		runs = append(runs, convertRunToJSON(rec))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *HTTPServer) handleGetRun(w http.ResponseWriter, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": convertRunToJSON(rec)})
}

func (s *HTTPServer) handleStopRun(w http.ResponseWriter, runID string) {
	updated, err := s.Executor.Stop(runID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": convertRunToJSON(updated)})
}

func (s *HTTPServer) handleResults(w http.ResponseWriter, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if rec.Status != StatusCompleted {
		s.writeError(w, http.StatusPreconditionFailed, "run has not completed")
		return
	}
	collector, ok := s.store.Collector(runID)
	if !ok {
		s.writeError(w, http.StatusPreconditionFailed, "results not available")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	if err := collector.WriteCSV(w); err != nil {
		logger.Error("failed to write results CSV", "run_id", runID, "error", err)
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"error": message})
}

func convertRunToJSON(rec RunRecord) map[string]any {
	out := map[string]any{
		"id":         rec.ID,
		"status":     string(rec.Status),
		"created_at": rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if rec.Error != "" {
		out["error"] = rec.Error
	}
	if rec.Summary != nil {
		out["summary"] = map[string]any{
			"fairness":     rec.Summary.Fairness,
			"mean_latency": rec.Summary.MeanLatency,
			"completed":    rec.Summary.Completed,
			"total_bytes":  rec.Summary.TotalBytes,
		}
	}
	return out
}

// ListenAndServe is a convenience wrapper the `serve` subcommand uses to
// start the HTTP server on addr.
func (s *HTTPServer) ListenAndServe(addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Handler()}
	logger.Info("run service listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("run service stopped: %w", err)
	}
	return nil
}
