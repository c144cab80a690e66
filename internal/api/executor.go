package api

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ssdfair/ssdsim/internal/channel"
	"github.com/ssdfair/ssdsim/internal/metrics"
	"github.com/ssdfair/ssdsim/internal/scheduler"
	"github.com/ssdfair/ssdsim/internal/sim"
	"github.com/ssdfair/ssdsim/pkg/logger"
	"github.com/ssdfair/ssdsim/pkg/trace"
)

// Executor runs submitted simulations asynchronously and tracks their
// per-run cancellation funcs, mirroring the teacher's RunExecutor.
type Executor struct {
	store *RunStore

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
)

// NewExecutor constructs an Executor over store.
func NewExecutor(store *RunStore) *Executor {
	return &Executor{store: store, cancels: make(map[string]context.CancelFunc)}
}

// Start transitions a pending run to running and launches it in its own
// goroutine. Returns the updated record, or an error if the run is unknown
// or terminal; a run that is already running is returned unchanged.
func (e *Executor) Start(runID string) (RunRecord, error) {
	if runID == "" {
		return RunRecord{}, ErrRunIDMissing
	}

	rec, ok := e.store.Get(runID)
	if !ok {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Status.terminal() {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}
	if rec.Status == StatusRunning {
		return rec, nil
	}

	updated, err := e.store.SetStatus(runID, StatusRunning, "")
	if err != nil {
		return RunRecord{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancels[runID] = cancel
	e.mu.Unlock()

	go e.runSimulation(ctx, runID)
	return updated, nil
}

// Stop cancels a running run and marks it cancelled.
func (e *Executor) Stop(runID string) (RunRecord, error) {
	if runID == "" {
		return RunRecord{}, ErrRunIDMissing
	}

	e.mu.Lock()
	cancel, ok := e.cancels[runID]
	e.mu.Unlock()
	if ok {
		cancel()
	}

	return e.store.SetStatus(runID, StatusCancelled, "")
}

func (e *Executor) cleanup(runID string) {
	e.mu.Lock()
	delete(e.cancels, runID)
	e.mu.Unlock()
}

func (e *Executor) runSimulation(ctx context.Context, runID string) {
	defer e.cleanup(runID)

	rec, ok := e.store.Get(runID)
	if !ok {
		logger.Error("run not found", "run_id", runID)
		return
	}
	opts := rec.Options

	requests, err := trace.Load(rec.TracePath)
	if err != nil {
		e.fail(runID, fmt.Sprintf("failed to load trace: %v", err))
		return
	}

	numUsers := opts.Users
	for _, r := range requests {
		if r.UserID+1 > numUsers {
			numUsers = r.UserID + 1
		}
	}

	sched := scheduler.New(opts.Scheduler, opts.SGFSRotate, opts.SGFSGap)
	if sched == nil {
		e.fail(runID, fmt.Sprintf("unknown scheduler policy: %s", opts.Scheduler))
		return
	}
	sched.SetUsers(numUsers)
	sched.SetQuantum(opts.Quantum)
	if len(opts.Weights) > 0 {
		sched.SetWeights(opts.Weights)
	}

	device := channel.New(opts.Channels, opts.ReadBWMBps, opts.WriteBWMBps)
	collector := metrics.NewCollector(numUsers)
	driver := sim.New(sched, device, collector, requests)

	driver.RunContext(ctx)

	if ctx.Err() != nil {
		logger.Info("simulation cancelled", "run_id", runID)
		return
	}

	if err := e.store.SetResult(runID, collector, numUsers); err != nil {
		logger.Error("failed to store run result", "run_id", runID, "error", err)
	}
	if _, err := e.store.SetStatus(runID, StatusCompleted, ""); err != nil {
		logger.Error("failed to set completed status", "run_id", runID, "error", err)
		return
	}
	logger.Info("run completed", "run_id", runID)
}

func (e *Executor) fail(runID, reason string) {
	logger.Error("simulation failed", "run_id", runID, "reason", reason)
	if _, err := e.store.SetStatus(runID, StatusFailed, reason); err != nil {
		logger.Error("failed to set failed status", "run_id", runID, "error", err)
	}
}
