// Package tuning adapts the hill-climbing parameter search from
// _examples/GoSim-25-26J-441-simulation-core/internal/improvement to this
// domain: instead of scaling service replicas, it searches the DRR
// quantum and per-tenant weight space for the configuration that best
// satisfies a chosen objective (fairness or tail latency), running the
// simulation core itself as the evaluation function.
package tuning

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ssdfair/ssdsim/internal/channel"
	"github.com/ssdfair/ssdsim/internal/metrics"
	"github.com/ssdfair/ssdsim/internal/scheduler"
	"github.com/ssdfair/ssdsim/internal/sim"
	"github.com/ssdfair/ssdsim/pkg/config"
	"github.com/ssdfair/ssdsim/pkg/models"
)

// Result summarizes one simulation run's outcome for objective scoring.
// The simulator never retains a per-request latency series, so both
// latency fields here are derived from metrics.Collector's per-tenant
// aggregates alone.
type Result struct {
	Fairness    float64
	MeanLatency float64
	TailLatency float64
	TotalBytes  uint64
	Completed   int64
}

// Run replays trace under opts and returns the resulting fairness and
// latency statistics, aggregated per tenant by the metrics collector.
func Run(opts config.Options, trace []models.Request) Result {
	numUsers := opts.Users
	for _, r := range trace {
		if r.UserID+1 > numUsers {
			numUsers = r.UserID + 1
		}
	}

	sched := scheduler.New(opts.Scheduler, opts.SGFSRotate, opts.SGFSGap)
	sched.SetUsers(numUsers)
	sched.SetQuantum(opts.Quantum)
	if len(opts.Weights) > 0 {
		sched.SetWeights(opts.Weights)
	}

	device := channel.New(opts.Channels, opts.ReadBWMBps, opts.WriteBWMBps)
	collector := metrics.NewCollector(numUsers)
	driver := sim.New(sched, device, collector, trace)
	driver.Run()

	var completed int64
	var totalBytes uint64
	var avgLatencies, weights, tailCandidates []float64
	for u := 0; u < numUsers; u++ {
		c := collector.Completed(u)
		completed += c
		totalBytes += collector.TotalBytes(u)
		if c == 0 {
			continue
		}
		avg := collector.AvgLatency(u)
		avgLatencies = append(avgLatencies, avg)
		weights = append(weights, float64(c))
		tailCandidates = append(tailCandidates, avg)
	}

	return Result{
		Fairness:    collector.FairnessIndex(),
		MeanLatency: weightedMean(avgLatencies, weights),
		TailLatency: maxOf(tailCandidates),
		TotalBytes:  totalBytes,
		Completed:   completed,
	}
}

// weightedMean computes the completion-weighted mean of per-tenant average
// latencies, i.e. the overall mean latency recoverable without a
// per-request sample.
func weightedMean(avgLatencies, weights []float64) float64 {
	if len(avgLatencies) == 0 {
		return 0
	}
	return stat.Mean(avgLatencies, weights)
}

// maxOf returns the max over tenants of avg_latency(u), the tail-latency
// proxy this simulator uses in place of a true percentile since it does
// not retain per-request latency series.
func maxOf(values []float64) float64 {
	var m float64
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
