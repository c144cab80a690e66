package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ssdfair/ssdsim/internal/api"
	"github.com/ssdfair/ssdsim/pkg/logger"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service for submitting and polling simulation runs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", ":8080", "address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.SetDefault(logger.New(logLevel, os.Stdout))

	store := api.NewRunStore()
	executor := api.NewExecutor(store)
	server := api.NewHTTPServer(store, executor)

	return server.ListenAndServe(serveFlags.addr)
}
