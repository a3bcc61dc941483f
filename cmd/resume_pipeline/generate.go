package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pipeline/internal/blob"
	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/db"
	"github.com/jonathan/resume-pipeline/internal/fit"
	"github.com/jonathan/resume-pipeline/internal/generation"
	"github.com/jonathan/resume-pipeline/internal/ingestion"
	"github.com/jonathan/resume-pipeline/internal/jd"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/observability"
	"github.com/jonathan/resume-pipeline/internal/snapshot"
	"github.com/jonathan/resume-pipeline/internal/types"
)

var (
	genUserID     string
	genJDFile     string
	genJDURL      string
	genJDText     string
	genPersonaID  string
	genSnapshotID string
	genLatexOut   string
	genUseBrowser bool
	genVerbose    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a resume from the command line",
	Long: `Run the generation pipeline for one job description without going through the HTTP API.

The job description comes from exactly one of --jd (a text, PDF, or DOCX file), --jd-url, or --jd-text. A fresh snapshot is compiled unless --snapshot names an existing one.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genUserID, "user", "u", "", "User ID (required)")
	generateCmd.Flags().StringVarP(&genJDFile, "jd", "j", "", "Path to a job description file")
	generateCmd.Flags().StringVar(&genJDURL, "jd-url", "", "URL of a job posting")
	generateCmd.Flags().StringVar(&genJDText, "jd-text", "", "Inline job description text")
	generateCmd.Flags().StringVarP(&genPersonaID, "persona", "p", "", "Persona ID to apply")
	generateCmd.Flags().StringVarP(&genSnapshotID, "snapshot", "s", "", "Snapshot ID to generate against")
	generateCmd.Flags().StringVar(&genLatexOut, "latex-out", "", "Write the generated LaTeX source to this path")
	generateCmd.Flags().BoolVar(&genUseBrowser, "use-browser", false, "Use a headless browser for SPA job postings (requires Chrome)")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print the parsed JD, snapshot, and rejected candidates")
	_ = generateCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	userID, err := uuid.Parse(genUserID)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	user, err := database.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}

	jdText, err := resolveJDInput(ctx, cfg.UseBrowser || genUseBrowser)
	if err != nil {
		return err
	}

	persona, err := resolvePersonaFlag(ctx, database, userID)
	if err != nil {
		return err
	}

	blobs, err := blob.NewFSStore(cfg.BlobDir)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	snap, err := resolveSnapshotFlag(ctx, database, blobs, userID, persona)
	if err != nil {
		return err
	}

	var printer *observability.Printer
	if genVerbose {
		printer = observability.NewPrinter(os.Stdout)
		printer.PrintParsedJD(jd.Parse(jdText))
		printer.PrintSnapshot(snap)
	}

	client, err := llm.NewClient(ctx, nil, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	compiler := generation.NewCompiler(database, generation.NewLLMGenerator(client), nil, generation.Config{
		GroundingThreshold: cfg.GroundingThreshold,
		MaxBulletRetries:   cfg.MaxBulletRetries,
		FitOptions:         fit.Options{RequiredBoost: cfg.RequiredBoost},
	})

	result, err := compiler.Generate(ctx, user, snap, jdText, persona)
	if err != nil {
		return err
	}

	out := observability.NewPrinter(os.Stdout)
	out.PrintBullets(result.Bullets)
	if genVerbose {
		out.PrintRejections(result.Rejected)
	}
	out.PrintFitReport(result.FitReport)

	if genLatexOut != "" {
		if err := os.WriteFile(genLatexOut, []byte(result.Resume.LatexSource), 0o644); err != nil {
			return fmt.Errorf("failed to write LaTeX source: %w", err)
		}
		fmt.Printf("LaTeX source written to %s\n", genLatexOut)
	}

	fmt.Printf("Resume %s created. Render it with:\n", result.Resume.ID)
	fmt.Printf("  curl -X POST http://localhost:%s/resumes/%s/render\n", cfg.Port, result.Resume.ID)
	return nil
}

func resolveJDInput(ctx context.Context, useBrowser bool) (string, error) {
	set := 0
	for _, v := range []string{genJDFile, genJDURL, genJDText} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return "", fmt.Errorf("exactly one of --jd, --jd-url, or --jd-text is required")
	}

	switch {
	case genJDText != "":
		return genJDText, nil
	case genJDURL != "":
		text, _, err := ingestion.FromURL(ctx, genJDURL, ingestion.URLOptions{UseBrowser: useBrowser})
		return text, err
	default:
		data, err := os.ReadFile(genJDFile)
		if err != nil {
			return "", fmt.Errorf("failed to read job description file: %w", err)
		}
		text, _, err := ingestion.FromUpload(filepath.Base(genJDFile), data)
		return text, err
	}
}

func resolvePersonaFlag(ctx context.Context, database *db.DB, userID uuid.UUID) (*types.Persona, error) {
	if genPersonaID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(genPersonaID)
	if err != nil {
		return nil, fmt.Errorf("invalid --persona: %w", err)
	}
	persona, err := database.GetPersona(ctx, id)
	if err != nil {
		return nil, err
	}
	if persona == nil || persona.UserID != userID {
		return nil, fmt.Errorf("persona %s not found", id)
	}
	return persona, nil
}

func resolveSnapshotFlag(ctx context.Context, database *db.DB, blobs blob.Store, userID uuid.UUID, persona *types.Persona) (*types.Snapshot, error) {
	if genSnapshotID == "" {
		return snapshot.NewCompiler(database, database, blobs).Compile(ctx, userID, persona)
	}
	id, err := uuid.Parse(genSnapshotID)
	if err != nil {
		return nil, fmt.Errorf("invalid --snapshot: %w", err)
	}
	snap, err := database.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil || snap.UserID != userID {
		return nil, fmt.Errorf("snapshot %s not found", id)
	}
	return snap, nil
}
