package main

import (
	"os"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "ssdsim",
	Short: "Discrete-event simulator for multi-tenant SSD scheduling fairness",
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tuneCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(serveCmd)
}
