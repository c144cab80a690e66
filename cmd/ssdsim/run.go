package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssdfair/ssdsim/internal/channel"
	"github.com/ssdfair/ssdsim/internal/metrics"
	"github.com/ssdfair/ssdsim/internal/scheduler"
	"github.com/ssdfair/ssdsim/internal/sim"
	"github.com/ssdfair/ssdsim/pkg/config"
	"github.com/ssdfair/ssdsim/pkg/logger"
	"github.com/ssdfair/ssdsim/pkg/trace"
)

var runFlags struct {
	tracePath   string
	configPath  string
	schedName   string
	quantum     float64
	users       int
	channels    int
	readBW      float64
	writeBW     float64
	weightsCSV  string
	sgfsRotate  int
	sgfsGap     int
	resultsPath string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a trace through the simulator and report per-tenant fairness",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.tracePath, "trace", "", "path to the workload trace (required)")
	f.StringVar(&runFlags.configPath, "config", "", "optional YAML device profile")
	f.StringVar(&runFlags.schedName, "scheduler", "", "scheduler policy: rr, drr, qfq, sgfs")
	f.Float64Var(&runFlags.quantum, "quantum", 0, "DRR quantum in bytes")
	f.IntVar(&runFlags.users, "users", 0, "override tenant count (else inferred from trace)")
	f.IntVar(&runFlags.channels, "channels", 0, "override channel count")
	f.Float64Var(&runFlags.readBW, "read-bw", 0, "aggregate read bandwidth in MB/s")
	f.Float64Var(&runFlags.writeBW, "write-bw", 0, "aggregate write bandwidth in MB/s")
	f.StringVar(&runFlags.weightsCSV, "weights", "", "comma-separated per-tenant weights")
	f.IntVar(&runFlags.sgfsRotate, "sgfs-rotate-every", 0, "SGFS rotation interval")
	f.IntVar(&runFlags.sgfsGap, "sgfs-gap", 0, "SGFS rotation stride")
	f.StringVar(&runFlags.resultsPath, "results", "", "path to write the results CSV")
	_ = runCmd.MarkFlagRequired("trace")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger.SetDefault(logger.NewText(logLevel, os.Stderr))

	opts := config.Defaults()
	if runFlags.configPath != "" {
		profile, err := config.LoadProfile(runFlags.configPath)
		if err != nil {
			return err
		}
		opts = opts.ApplyProfile(profile)
	}
	applyRunFlagOverrides(cmd, &opts)
	opts.TracePath = runFlags.tracePath

	if err := config.ValidateOptions(opts); err != nil {
		return err
	}

	requests, err := trace.Load(opts.TracePath)
	if err != nil {
		return err
	}

	numUsers := opts.Users
	if numUsers <= 0 {
		for _, r := range requests {
			if r.UserID+1 > numUsers {
				numUsers = r.UserID + 1
			}
		}
	}

	sched := scheduler.New(opts.Scheduler, opts.SGFSRotate, opts.SGFSGap)
	if sched == nil {
		return &config.Error{Reason: fmt.Sprintf("unknown scheduler policy: %s", opts.Scheduler)}
	}
	sched.SetUsers(numUsers)
	sched.SetQuantum(opts.Quantum)
	if len(opts.Weights) > 0 {
		sched.SetWeights(opts.Weights)
	}

	device := channel.New(opts.Channels, opts.ReadBWMBps, opts.WriteBWMBps)
	collector := metrics.NewCollector(numUsers)
	driver := sim.New(sched, device, collector, requests)
	driver.Run()

	if err := metrics.WriteCSVFile(opts.ResultsPath, collector); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	fmt.Println("Simulation complete.")
	fmt.Printf("Fairness Index: %f\n", collector.FairnessIndex())
	fmt.Printf("Results saved to %s\n", opts.ResultsPath)
	return nil
}

// applyRunFlagOverrides layers only the flags the user actually set onto
// opts, so a config profile's values survive when a flag is left at its
// zero default.
func applyRunFlagOverrides(cmd *cobra.Command, opts *config.Options) {
	f := cmd.Flags()
	if f.Changed("scheduler") {
		opts.Scheduler = runFlags.schedName
	}
	if f.Changed("quantum") {
		opts.Quantum = runFlags.quantum
	}
	if f.Changed("users") {
		opts.Users = runFlags.users
	}
	if f.Changed("channels") {
		opts.Channels = runFlags.channels
	}
	if f.Changed("read-bw") {
		opts.ReadBWMBps = runFlags.readBW
	}
	if f.Changed("write-bw") {
		opts.WriteBWMBps = runFlags.writeBW
	}
	if f.Changed("weights") {
		opts.Weights = parseWeights(runFlags.weightsCSV)
	}
	if f.Changed("sgfs-rotate-every") {
		opts.SGFSRotate = runFlags.sgfsRotate
	}
	if f.Changed("sgfs-gap") {
		opts.SGFSGap = runFlags.sgfsGap
	}
	if f.Changed("results") {
		opts.ResultsPath = runFlags.resultsPath
	}
}

func parseWeights(csv string) []float64 {
	if csv == "" {
		return nil
	}
	tokens := strings.Split(csv, ",")
	weights := make([]float64, 0, len(tokens))
	for _, t := range tokens {
		w, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			continue
		}
		weights = append(weights, w)
	}
	return weights
}
