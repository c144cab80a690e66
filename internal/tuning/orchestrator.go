package tuning

import (
	"fmt"
	"sync"

	"github.com/ssdfair/ssdsim/pkg/config"
	"github.com/ssdfair/ssdsim/pkg/models"
)

// Candidate pairs a candidate configuration with its evaluated score.
type Candidate struct {
	Options   config.Options
	Score     float64
	Evaluated bool
}

// Orchestrator evaluates a batch of candidate configurations concurrently,
// bounded by maxParallelRuns, mirroring the teacher's
// EvaluateConfigurationsParallel semaphore pattern.
type Orchestrator struct {
	objective       Objective
	maxParallelRuns int
}

// NewOrchestrator constructs an Orchestrator. A non-positive
// maxParallelRuns defaults to 4.
func NewOrchestrator(objective Objective, maxParallelRuns int) *Orchestrator {
	if maxParallelRuns <= 0 {
		maxParallelRuns = 4
	}
	return &Orchestrator{objective: objective, maxParallelRuns: maxParallelRuns}
}

// EvaluateAll runs every candidate option set against trace concurrently,
// returning one Candidate per input in input order. A per-candidate
// evaluation failure is reflected in that Candidate's Evaluated flag
// rather than aborting the batch.
func (o *Orchestrator) EvaluateAll(candidates []config.Options, trace []models.Request) ([]*Candidate, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate configurations provided")
	}

	semaphore := make(chan struct{}, o.maxParallelRuns)
	var wg sync.WaitGroup
	results := make([]*Candidate, len(candidates))

	for i, opts := range candidates {
		wg.Add(1)
		go func(idx int, options config.Options) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result := Run(options, trace)
			score, err := o.objective.Evaluate(result)
			if err != nil {
				results[idx] = &Candidate{Options: options, Evaluated: false}
				return
			}
			results[idx] = &Candidate{Options: options, Score: score, Evaluated: true}
		}(i, opts)
	}

	wg.Wait()
	return results, nil
}

// Best returns the lowest-scoring evaluated candidate, or nil if none
// evaluated successfully.
func Best(candidates []*Candidate) *Candidate {
	var best *Candidate
	for _, c := range candidates {
		if !c.Evaluated {
			continue
		}
		if best == nil || c.Score < best.Score {
			best = c
		}
	}
	return best
}
