// Package config loads service configuration from the environment.
// main loads .env via godotenv before calling Load, so local overrides
// live in a dotfile while production supplies real environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the API server and render worker need.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string. Required.
	DatabaseURL string
	// Port is the HTTP listen port for the API server.
	Port string
	// GeminiAPIKey authorizes the generation collaborator. Generation
	// endpoints return an upstream error without it; everything else
	// works.
	GeminiAPIKey string
	// BlobDir is the filesystem root for snapshot and PDF artifacts.
	BlobDir string

	// RenderWorkers is the render worker pool size.
	RenderWorkers int
	// RenderLease is how long a claimed render job stays leased.
	RenderLease time.Duration
	// MaxRenderAttempts bounds lease-expiry retries per render job.
	MaxRenderAttempts int

	// GroundingThreshold is the minimum grounding score for a bullet
	// to be accepted.
	GroundingThreshold float64
	// MaxBulletRetries bounds rewrite attempts for sub-threshold
	// bullets.
	MaxBulletRetries int
	// RequiredBoost is the fit-score weight multiplier for required
	// keywords.
	RequiredBoost float64

	// UseBrowser enables the headless-browser fallback for SPA job
	// postings.
	UseBrowser bool
}

// Load reads configuration from the environment, applying defaults for
// everything except DATABASE_URL.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Port:               envString("PORT", "8080"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		BlobDir:            envString("BLOB_DIR", "./blobs"),
		RenderWorkers:      2,
		RenderLease:        2 * time.Minute,
		MaxRenderAttempts:  3,
		GroundingThreshold: 0.80,
		MaxBulletRetries:   2,
		RequiredBoost:      1.5,
		UseBrowser:         envBool("USE_BROWSER"),
	}

	var err error
	if cfg.RenderWorkers, err = envInt("RENDER_WORKERS", cfg.RenderWorkers); err != nil {
		return nil, err
	}
	if cfg.MaxRenderAttempts, err = envInt("MAX_RENDER_ATTEMPTS", cfg.MaxRenderAttempts); err != nil {
		return nil, err
	}
	if cfg.MaxBulletRetries, err = envInt("MAX_GENERATION_RETRIES", cfg.MaxBulletRetries); err != nil {
		return nil, err
	}
	if cfg.RenderLease, err = envDuration("RENDER_LEASE", cfg.RenderLease); err != nil {
		return nil, err
	}
	if cfg.GroundingThreshold, err = envFloat("GROUNDING_THRESHOLD", cfg.GroundingThreshold); err != nil {
		return nil, err
	}
	if cfg.RequiredBoost, err = envFloat("FIT_REQUIRED_BOOST", cfg.RequiredBoost); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. DATABASE_URL presence is checked by the
// commands that actually need a database.
func (c *Config) Validate() error {
	if c.RenderWorkers < 1 {
		return fmt.Errorf("config error: RENDER_WORKERS must be at least 1")
	}
	if c.MaxRenderAttempts < 1 {
		return fmt.Errorf("config error: MAX_RENDER_ATTEMPTS must be at least 1")
	}
	if c.MaxBulletRetries < 0 {
		return fmt.Errorf("config error: MAX_GENERATION_RETRIES must be non-negative")
	}
	if c.RenderLease <= 0 {
		return fmt.Errorf("config error: RENDER_LEASE must be positive")
	}
	if c.GroundingThreshold <= 0 || c.GroundingThreshold > 1 {
		return fmt.Errorf("config error: GROUNDING_THRESHOLD must be in (0, 1]")
	}
	if c.RequiredBoost <= 0 {
		return fmt.Errorf("config error: FIT_REQUIRED_BOOST must be positive")
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true" || v == "yes"
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config error: %s must be an integer: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config error: %s must be a number: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config error: %s must be a duration like 2m: %w", key, err)
	}
	return d, nil
}
