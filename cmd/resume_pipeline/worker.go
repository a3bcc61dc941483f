package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pipeline/internal/blob"
	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/db"
	"github.com/jonathan/resume-pipeline/internal/render"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the render worker pool",
	Long:  `Run a pool of render workers that claim queued render jobs, typeset them with pdflatex, and store the resulting PDFs. Safe to run on multiple hosts; the lease protocol keeps claims exclusive.`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	blobs, err := blob.NewFSStore(cfg.BlobDir)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	scheduler := render.NewScheduler(database, blobs, nil, render.Config{
		Workers:     cfg.RenderWorkers,
		Lease:       cfg.RenderLease,
		MaxAttempts: cfg.MaxRenderAttempts,
	})
	return scheduler.Run(ctx)
}
