package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssdfair/ssdsim/pkg/logger"
	"github.com/ssdfair/ssdsim/pkg/trace"
)

var traceGenFlags struct {
	output    string
	users     int
	requests  int
	sizeBytes int
	meanGapUs float64
	writeFrac float64
	seed      int64
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Generate or inspect workload traces",
}

var traceGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a synthetic Poisson-arrival workload trace",
	RunE:  runTraceGen,
}

func init() {
	f := traceGenCmd.Flags()
	f.StringVar(&traceGenFlags.output, "output", "trace.csv", "path to write the generated trace")
	f.IntVar(&traceGenFlags.users, "users", 4, "number of tenants")
	f.IntVar(&traceGenFlags.requests, "requests", 1000, "number of requests to generate")
	f.IntVar(&traceGenFlags.sizeBytes, "size", 4096, "fixed request size in bytes")
	f.Float64Var(&traceGenFlags.meanGapUs, "mean-gap-us", 500, "mean inter-arrival gap in microseconds")
	f.Float64Var(&traceGenFlags.writeFrac, "write-frac", 0.3, "fraction of requests that are writes")
	f.Int64Var(&traceGenFlags.seed, "seed", 1, "PRNG seed, for reproducible traces")

	traceCmd.AddCommand(traceGenCmd)
}

func runTraceGen(cmd *cobra.Command, args []string) error {
	logger.SetDefault(logger.NewText(logLevel, os.Stderr))

	cfg := trace.GenerateConfig{
		NumUsers:    traceGenFlags.users,
		NumRequests: traceGenFlags.requests,
		SizeBytes:   uint32(traceGenFlags.sizeBytes),
		MeanGapUs:   traceGenFlags.meanGapUs,
		WriteFrac:   traceGenFlags.writeFrac,
		Seed:        traceGenFlags.seed,
	}

	requests := trace.Generate(cfg)

	f, err := os.Create(traceGenFlags.output)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := trace.WriteCSV(f, requests); err != nil {
		return err
	}

	fmt.Printf("Generated %d requests across %d tenants to %s\n", len(requests), cfg.NumUsers, traceGenFlags.output)
	return nil
}
