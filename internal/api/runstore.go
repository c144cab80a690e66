// Package api is the async run-submission service spec.md's DOMAIN STACK
// expansion adds: a small HTTP surface for submitting a simulation run,
// polling its status, and fetching its results, scoped down from
// _examples/GoSim-25-26J-441-simulation-core/internal/simd's RunStore and
// HTTPServer. grpc_server.go, notifier.go's websocket push, and
// workload_state.go's continuous workload generator have no equivalent
// here: this domain replays a fixed, pre-parsed trace to completion rather
// than generating an open-ended live workload, so there is nothing for
// them to drive. See DESIGN.md for the per-file justification.
package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/ssdfair/ssdsim/internal/metrics"
	"github.com/ssdfair/ssdsim/pkg/config"
)

// Status is a run's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Summary is the headline result of a completed run, enough for a client
// polling /v1/runs/{id} to see the outcome without fetching the full CSV.
type Summary struct {
	Fairness    float64
	MeanLatency float64
	Completed   int64
	TotalBytes  uint64
}

// RunRecord is one submitted run and everything known about its outcome.
type RunRecord struct {
	ID        string
	Options   config.Options
	TracePath string
	Status    Status
	Error     string
	Summary   *Summary
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time

	collector *metrics.Collector
}

// RunStore is a mutex-protected map of run records, the same shape as the
// teacher's internal/simd.RunStore.
type RunStore struct {
	mu      sync.RWMutex
	records map[string]*RunRecord
}

// NewRunStore returns an empty RunStore.
func NewRunStore() *RunStore {
	return &RunStore{records: make(map[string]*RunRecord)}
}

// Create registers a new pending run under a generated id and returns its
// record.
func (s *RunStore) Create(opts config.Options, tracePath string) (*RunRecord, error) {
	id, err := newRunID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	rec := &RunRecord{
		ID:        id,
		Options:   opts,
		TracePath: tracePath,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.records[id] = rec
	s.mu.Unlock()
	return rec, nil
}

// Get returns a copy of the record for id.
func (s *RunStore) Get(id string) (RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return RunRecord{}, false
	}
	return *rec, true
}

// List returns every record, in no particular order.
func (s *RunStore) List() []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	return out
}

// SetStatus transitions a run's status, recording reason as its error
// message when non-empty.
func (s *RunStore) SetStatus(id string, status Status, reason string) (RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	rec.Status = status
	if reason != "" {
		rec.Error = reason
	}
	switch status {
	case StatusRunning:
		rec.StartedAt = time.Now()
	case StatusCompleted, StatusFailed, StatusCancelled:
		rec.EndedAt = time.Now()
	}
	return *rec, nil
}

// SetResult attaches the completed summary and the underlying collector
// (kept for CSV export) to a run.
func (s *RunStore) SetResult(id string, collector *metrics.Collector, numUsers int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	var completed int64
	var totalBytes uint64
	var totalLatency float64
	for u := 0; u < numUsers; u++ {
		completed += collector.Completed(u)
		totalBytes += collector.TotalBytes(u)
		totalLatency += collector.AvgLatency(u) * float64(collector.Completed(u))
	}
	mean := 0.0
	if completed > 0 {
		mean = totalLatency / float64(completed)
	}

	rec.collector = collector
	rec.Summary = &Summary{
		Fairness:    collector.FairnessIndex(),
		MeanLatency: mean,
		Completed:   completed,
		TotalBytes:  totalBytes,
	}
	return nil
}

// Collector returns the run's metrics collector, if the run has finished
// executing.
func (s *RunStore) Collector(id string) (*metrics.Collector, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok || rec.collector == nil {
		return nil, false
	}
	return rec.collector, true
}

func newRunID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "run_" + hex.EncodeToString(buf), nil
}
