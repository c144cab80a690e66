package tuning

import "fmt"

// Objective scores a Result. Lower is always better: an objective over a
// naturally maximized metric returns its negation from Evaluate, so
// callers can always minimize the returned score.
type Objective interface {
	Evaluate(r Result) (float64, error)
	Name() string
}

// ObjectiveType names the recognized objective strings the `tune`
// subcommand and config.TuningProfile accept.
type ObjectiveType string

const (
	ObjectiveMaximizeFairness    ObjectiveType = "maximize_fairness"
	ObjectiveMinimizeTailLatency ObjectiveType = "minimize_tail_latency"
)

// NewObjective constructs the named objective.
func NewObjective(name string) (Objective, error) {
	switch ObjectiveType(name) {
	case ObjectiveMaximizeFairness:
		return fairnessObjective{}, nil
	case ObjectiveMinimizeTailLatency:
		return tailLatencyObjective{}, nil
	default:
		return nil, &UnknownObjectiveError{ObjectiveType: name}
	}
}

// fairnessObjective maximizes Jain's fairness index, so Evaluate returns
// its negation — hill-climbing always minimizes.
type fairnessObjective struct{}

func (fairnessObjective) Name() string { return string(ObjectiveMaximizeFairness) }
func (fairnessObjective) Evaluate(r Result) (float64, error) {
	return -r.Fairness, nil
}

// tailLatencyObjective minimizes the max over tenants of avg_latency(u),
// the tail-latency proxy Result.TailLatency carries in place of a true
// percentile, since the simulator never retains a per-request series.
type tailLatencyObjective struct{}

func (tailLatencyObjective) Name() string { return string(ObjectiveMinimizeTailLatency) }
func (tailLatencyObjective) Evaluate(r Result) (float64, error) {
	if r.Completed == 0 {
		return 0, &InvalidResultError{Reason: "no completed requests"}
	}
	return r.TailLatency, nil
}

// UnknownObjectiveError indicates an unrecognized objective name.
type UnknownObjectiveError struct {
	ObjectiveType string
}

func (e *UnknownObjectiveError) Error() string {
	return fmt.Sprintf("unknown tuning objective: %s", e.ObjectiveType)
}

// InvalidResultError indicates a run produced no usable data for the
// objective to score.
type InvalidResultError struct {
	Reason string
}

func (e *InvalidResultError) Error() string {
	return fmt.Sprintf("invalid tuning result: %s", e.Reason)
}
