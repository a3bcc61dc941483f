package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pipeline/internal/blob"
	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/contextstore"
	"github.com/jonathan/resume-pipeline/internal/db"
	"github.com/jonathan/resume-pipeline/internal/fit"
	"github.com/jonathan/resume-pipeline/internal/generation"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/render"
	"github.com/jonathan/resume-pipeline/internal/server"
	"github.com/jonathan/resume-pipeline/internal/snapshot"
	"github.com/jonathan/resume-pipeline/internal/types"
)

var serveWithWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the context log, snapshot, persona, generation, and render endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithWorker, "with-worker", false, "Also run the render worker pool in-process")
	rootCmd.AddCommand(serveCmd)
}

// unavailableGenerator stands in when no GEMINI_API_KEY is configured:
// generation endpoints report the collaborator as down, everything else
// keeps working.
type unavailableGenerator struct{}

func (unavailableGenerator) Generate(context.Context, *types.User, *types.Snapshot, string, *types.Persona) (*generation.Result, error) {
	return nil, fmt.Errorf("%w: GEMINI_API_KEY is not configured", generation.ErrGenerationUnavailable)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	blobs, err := blob.NewFSStore(cfg.BlobDir)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	var generator server.ResumeGenerator = unavailableGenerator{}
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewClient(ctx, nil, cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = client.Close() }()

		generator = generation.NewCompiler(database, generation.NewLLMGenerator(client), nil, generation.Config{
			GroundingThreshold: cfg.GroundingThreshold,
			MaxBulletRetries:   cfg.MaxBulletRetries,
			FitOptions:         fit.Options{RequiredBoost: cfg.RequiredBoost},
		})
	}

	if serveWithWorker {
		scheduler := render.NewScheduler(database, blobs, nil, render.Config{
			Workers:     cfg.RenderWorkers,
			Lease:       cfg.RenderLease,
			MaxAttempts: cfg.MaxRenderAttempts,
		})
		workerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := scheduler.Run(workerCtx); err != nil {
				fmt.Printf("render worker stopped: %v\n", err)
			}
		}()
	}

	srv := server.New(server.Config{Port: cfg.Port, UseBrowser: cfg.UseBrowser},
		database,
		contextstore.New(database),
		snapshot.NewCompiler(database, database, blobs),
		generator,
		blobs,
	)
	return srv.Start()
}
