package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/domain"
	"github.com/jonathan/swrite/internal/observability"
)

var statusJobID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of a job and its pages",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusJobID, "job", "", "Job ID (required)")
	_ = statusCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	jobID, err := uuid.Parse(statusJobID)
	if err != nil {
		return fmt.Errorf("invalid job ID %q: %w", statusJobID, err)
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	job, err := database.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job not found: %s", jobID)
	}

	pages, err := database.ListPages(ctx, jobID, domain.PlannedRoles)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintJobSummary(job, pages)
	return nil
}
