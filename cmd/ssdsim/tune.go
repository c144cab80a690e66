package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssdfair/ssdsim/internal/tuning"
	"github.com/ssdfair/ssdsim/pkg/config"
	"github.com/ssdfair/ssdsim/pkg/logger"
	"github.com/ssdfair/ssdsim/pkg/trace"
)

var tuneFlags struct {
	tracePath     string
	configPath    string
	schedName     string
	channels      int
	readBW        float64
	writeBW       float64
	objective     string
	maxIterations int
	stepSize      float64
	parallel      int
}

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Hill-climb the scheduler's quantum and per-tenant weights against an objective",
	RunE:  runTune,
}

func init() {
	f := tuneCmd.Flags()
	f.StringVar(&tuneFlags.tracePath, "trace", "", "path to the workload trace (required)")
	f.StringVar(&tuneFlags.configPath, "config", "", "optional YAML device profile")
	f.StringVar(&tuneFlags.schedName, "scheduler", "drr", "scheduler policy to tune: drr or qfq")
	f.IntVar(&tuneFlags.channels, "channels", 0, "override channel count")
	f.Float64Var(&tuneFlags.readBW, "read-bw", 0, "aggregate read bandwidth in MB/s")
	f.Float64Var(&tuneFlags.writeBW, "write-bw", 0, "aggregate write bandwidth in MB/s")
	f.StringVar(&tuneFlags.objective, "objective", "", "objective to optimize: maximize_fairness, minimize_tail_latency")
	f.IntVar(&tuneFlags.maxIterations, "max-iterations", 0, "hill-climbing iteration budget")
	f.Float64Var(&tuneFlags.stepSize, "step-size", 0, "perturbation step for quantum and weights")
	f.IntVar(&tuneFlags.parallel, "parallel", 0, "max candidates evaluated concurrently per round")
	_ = tuneCmd.MarkFlagRequired("trace")
}

func runTune(cmd *cobra.Command, args []string) error {
	logger.SetDefault(logger.NewText(logLevel, os.Stderr))

	opts := config.Defaults()
	opts.Scheduler = tuneFlags.schedName
	if tuneFlags.configPath != "" {
		profile, err := config.LoadProfile(tuneFlags.configPath)
		if err != nil {
			return err
		}
		opts = opts.ApplyProfile(profile)
	}
	opts.TracePath = tuneFlags.tracePath
	if cmd.Flags().Changed("scheduler") {
		opts.Scheduler = tuneFlags.schedName
	}
	if cmd.Flags().Changed("channels") {
		opts.Channels = tuneFlags.channels
	}
	if cmd.Flags().Changed("read-bw") {
		opts.ReadBWMBps = tuneFlags.readBW
	}
	if cmd.Flags().Changed("write-bw") {
		opts.WriteBWMBps = tuneFlags.writeBW
	}
	if cmd.Flags().Changed("objective") {
		opts.TuningObjective = tuneFlags.objective
	}
	if cmd.Flags().Changed("max-iterations") {
		opts.TuningMaxIterations = tuneFlags.maxIterations
	}
	if cmd.Flags().Changed("step-size") {
		opts.TuningStepSize = tuneFlags.stepSize
	}
	if cmd.Flags().Changed("parallel") {
		opts.TuningParallelism = tuneFlags.parallel
	}

	if err := config.ValidateOptions(opts); err != nil {
		return err
	}

	requests, err := trace.Load(opts.TracePath)
	if err != nil {
		return err
	}

	numUsers := opts.Users
	for _, r := range requests {
		if r.UserID+1 > numUsers {
			numUsers = r.UserID + 1
		}
	}
	opts.Users = numUsers
	if len(opts.Weights) == 0 {
		opts.Weights = make([]float64, numUsers)
		for i := range opts.Weights {
			opts.Weights[i] = 1
		}
	}

	objective, err := tuning.NewObjective(opts.TuningObjective)
	if err != nil {
		return err
	}

	optimizer := tuning.NewOptimizer(objective, opts.TuningMaxIterations, opts.TuningStepSize, opts.TuningParallelism)
	result, err := optimizer.Search(opts, requests)
	if err != nil {
		return err
	}

	fmt.Println("Tuning complete.")
	fmt.Printf("Objective: %s\n", objective.Name())
	fmt.Printf("Best score: %f (iterations=%d, converged=%v, reason=%q)\n",
		result.BestScore, result.Iterations, result.Converged, result.ConvergenceReason)
	fmt.Printf("Best quantum: %f\n", result.BestOptions.Quantum)
	fmt.Printf("Best weights: %v\n", result.BestOptions.Weights)
	return nil
}
