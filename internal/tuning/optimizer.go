package tuning

import (
	"fmt"

	"github.com/ssdfair/ssdsim/pkg/config"
	"github.com/ssdfair/ssdsim/pkg/models"
)

// Step records one iteration of the search: the configuration tried and
// the score its run achieved.
type Step struct {
	Iteration int
	Score     float64
	Options   config.Options
}

// SearchResult is the final outcome of Optimizer.Search.
type SearchResult struct {
	BestOptions       config.Options
	BestScore         float64
	Iterations        int
	History           []Step
	Converged         bool
	ConvergenceReason string
}

// Optimizer performs hill-climbing search over the quantum and per-tenant
// weight space, evaluating each candidate by running the simulation core
// and scoring it with Objective. Candidates within one round are evaluated
// concurrently through an Orchestrator's bounded goroutine pool; only the
// round-to-round climb itself is sequential.
type Optimizer struct {
	objective     Objective
	maxIterations int
	stepSize      float64
	orchestrator  *Orchestrator
}

// NewOptimizer constructs a hill-climbing Optimizer. A non-positive
// stepSize defaults to 1.0, matching the teacher's defensive default. Each
// round's neighbor batch is evaluated through an Orchestrator bounded to
// parallelism concurrent runs; a non-positive parallelism falls back to
// the Orchestrator's own default of 4.
func NewOptimizer(objective Objective, maxIterations int, stepSize float64, parallelism int) *Optimizer {
	if stepSize <= 0 {
		stepSize = 1.0
	}
	if maxIterations <= 0 {
		maxIterations = 20
	}
	return &Optimizer{
		objective:     objective,
		maxIterations: maxIterations,
		stepSize:      stepSize,
		orchestrator:  NewOrchestrator(objective, parallelism),
	}
}

// Search runs the optimization starting from initial, using trace as the
// fixed workload every candidate is evaluated against.
func (o *Optimizer) Search(initial config.Options, trace []models.Request) (*SearchResult, error) {
	current := initial
	currentScore, err := o.evaluate(current, trace)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate initial configuration: %w", err)
	}

	best := current
	bestScore := currentScore
	history := []Step{{Iteration: 0, Score: currentScore, Options: current}}

	for iteration := 1; iteration <= o.maxIterations; iteration++ {
		neighbors := generateNeighbors(current, o.stepSize)
		if len(neighbors) == 0 {
			return o.result(best, bestScore, iteration, history, true, "no valid neighbors"), nil
		}

		candidates, err := o.orchestrator.EvaluateAll(neighbors, trace)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate round %d neighbors: %w", iteration, err)
		}
		winner := Best(candidates)
		if winner == nil {
			return o.result(best, bestScore, iteration, history, true, "no neighbor evaluated successfully"), nil
		}
		bestNeighbor := winner.Options
		bestNeighborScore := winner.Score

		improved := bestNeighborScore < currentScore
		if improved {
			current = bestNeighbor
			currentScore = bestNeighborScore
			if currentScore < bestScore {
				bestScore = currentScore
				best = current
			}
		}
		history = append(history, Step{Iteration: iteration, Score: currentScore, Options: current})

		if !improved && iteration > 3 && noRecentImprovement(history) {
			return o.result(best, bestScore, iteration, history, true, "no improvement in recent iterations"), nil
		}
	}

	return o.result(best, bestScore, o.maxIterations, history, false, "max iterations reached"), nil
}

func (o *Optimizer) evaluate(opts config.Options, trace []models.Request) (float64, error) {
	result := Run(opts, trace)
	return o.objective.Evaluate(result)
}

func (o *Optimizer) result(best config.Options, bestScore float64, iterations int, history []Step, converged bool, reason string) *SearchResult {
	return &SearchResult{
		BestOptions:       best,
		BestScore:         bestScore,
		Iterations:        iterations,
		History:           history,
		Converged:         converged,
		ConvergenceReason: reason,
	}
}

func noRecentImprovement(history []Step) bool {
	start := len(history) - 3
	if start < 1 {
		start = 1
	}
	for i := len(history) - 1; i >= start; i-- {
		if history[i].Score < history[i-1].Score {
			return false
		}
	}
	return true
}

// generateNeighbors perturbs quantum and each tenant weight by ±stepSize,
// skipping any neighbor outside the domain (quantum > 0, weight >= 0).
func generateNeighbors(opts config.Options, stepSize float64) []config.Options {
	var neighbors []config.Options

	for _, delta := range []float64{stepSize, -stepSize} {
		q := opts.Quantum + delta
		if q > 0 {
			n := opts
			n.Quantum = q
			neighbors = append(neighbors, n)
		}
	}

	for i := range opts.Weights {
		for _, delta := range []float64{stepSize, -stepSize} {
			w := opts.Weights[i] + delta
			if w < 0 {
				continue
			}
			n := opts
			n.Weights = append([]float64(nil), opts.Weights...)
			n.Weights[i] = w
			neighbors = append(neighbors, n)
		}
	}

	return neighbors
}
