package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/swrite/internal/config"
	"github.com/jonathan/swrite/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for the handwriting pipeline.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:     servePort,
		Settings: settings,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
