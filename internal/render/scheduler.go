package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-pipeline/internal/blob"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// JobStore is the subset of persistence the scheduler needs. *db.DB
// satisfies it.
type JobStore interface {
	ClaimRenderJob(ctx context.Context, workerID string, lease time.Duration) (*types.RenderJob, error)
	CompleteRenderJob(ctx context.Context, jobID uuid.UUID, attempt int, pdfKey string) (bool, error)
	FailRenderJob(ctx context.Context, jobID uuid.UUID, attempt int, reason string) (bool, error)
	ReclaimExpiredRenderJobs(ctx context.Context, maxAttempts int) (requeued, failed int, err error)
	LatexSource(ctx context.Context, resumeID uuid.UUID) (string, error)
}

// Config controls the worker pool and lease housekeeping.
type Config struct {
	// Workers is the number of concurrent render workers.
	Workers int
	// Lease is how long a claimed job stays invisible to other workers.
	Lease time.Duration
	// MaxAttempts is the attempt count at which an expired job is
	// force-failed instead of requeued.
	MaxAttempts int
	// PollInterval is how long an idle worker sleeps between claims.
	PollInterval time.Duration
	// ReclaimSpec is the cron schedule for the expired-lease sweep.
	ReclaimSpec string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Workers:      2,
		Lease:        2 * time.Minute,
		MaxAttempts:  3,
		PollInterval: 2 * time.Second,
		ReclaimSpec:  "@every 30s",
	}
}

// Scheduler drives render jobs from queued to done or failed. Each
// worker claims one job at a time under a lease; the periodic sweep
// requeues jobs whose workers died mid-render.
type Scheduler struct {
	store      JobStore
	blobs      blob.Store
	typesetter Typesetter
	cfg        Config
	workerBase string
}

// NewScheduler builds a scheduler. A nil typesetter defaults to the
// local pdflatex installation. Zero config fields take their defaults.
func NewScheduler(store JobStore, blobs blob.Store, typesetter Typesetter, cfg Config) *Scheduler {
	if typesetter == nil {
		typesetter = NewPDFLaTeX()
	}
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Lease <= 0 {
		cfg.Lease = def.Lease
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ReclaimSpec == "" {
		cfg.ReclaimSpec = def.ReclaimSpec
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "render"
	}
	return &Scheduler{
		store:      store,
		blobs:      blobs,
		typesetter: typesetter,
		cfg:        cfg,
		workerBase: host,
	}
}

// Run starts the worker pool and the reclaim sweep, blocking until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	sweeper := cron.New()
	_, err := sweeper.AddFunc(s.cfg.ReclaimSpec, func() {
		s.reclaim(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule lease reclaim: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		workerID := fmt.Sprintf("%s-%d", s.workerBase, i)
		g.Go(func() error {
			return s.workerLoop(ctx, workerID)
		})
	}
	log.Printf("[render] started %d workers (lease=%s)", s.cfg.Workers, s.cfg.Lease)
	return g.Wait()
}

// Reclaim runs one expired-lease sweep. Exposed so operators can force
// a sweep without waiting for the schedule.
func (s *Scheduler) Reclaim(ctx context.Context) (requeued, failed int, err error) {
	return s.store.ReclaimExpiredRenderJobs(ctx, s.cfg.MaxAttempts)
}

func (s *Scheduler) reclaim(ctx context.Context) {
	requeued, failed, err := s.Reclaim(ctx)
	if err != nil {
		log.Printf("[render] lease reclaim failed: %v", err)
		return
	}
	if requeued > 0 || failed > 0 {
		log.Printf("[render] reclaimed expired jobs: requeued=%d failed=%d", requeued, failed)
	}
}
