package main

import (
	"github.com/spf13/cobra"

	"halomind/internal/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Start the HTTP API and serve until SIGINT or SIGTERM, then shut down gracefully.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	c := bootstrap.NewContainer()
	c.MustInit()

	return c.Serve(cmd.Context())
}
