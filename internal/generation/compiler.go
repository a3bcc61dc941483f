package generation

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/fit"
	"github.com/jonathan/resume-pipeline/internal/grounding"
	"github.com/jonathan/resume-pipeline/internal/jd"
	"github.com/jonathan/resume-pipeline/internal/rendering"
	"github.com/jonathan/resume-pipeline/internal/snapshot"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// Store is the persistence surface the compiler needs. *db.DB satisfies it.
type Store interface {
	EntriesByRefs(ctx context.Context, userID uuid.UUID, refs []types.EntryRef) ([]types.ContextEntry, error)
	CreateResumeWithBullets(ctx context.Context, r *types.Resume, bullets []types.ResumeBullet) (*types.Resume, error)
}

// Config tunes validation thresholds and retry bounds.
type Config struct {
	// GroundingThreshold is the acceptance floor for bullet grounding
	// scores. Zero means the default 0.80.
	GroundingThreshold float64
	// MaxBulletRetries bounds rewrite attempts per rejected bullet.
	// Negative disables retries; zero means the default of 2.
	MaxBulletRetries int
	// FitOptions is the fit-score weighting policy.
	FitOptions fit.Options
}

func (c Config) threshold() float64 {
	if c.GroundingThreshold > 0 {
		return c.GroundingThreshold
	}
	return grounding.DefaultThreshold
}

func (c Config) retries() int {
	if c.MaxBulletRetries < 0 {
		return 0
	}
	if c.MaxBulletRetries == 0 {
		return 2
	}
	return c.MaxBulletRetries
}

// Compiler runs the generate-validate-persist pipeline for one resume.
type Compiler struct {
	store     Store
	generator Generator
	renderer  *rendering.Renderer
	cfg       Config
}

// NewCompiler builds a Compiler. A nil renderer gets the default template.
func NewCompiler(store Store, generator Generator, renderer *rendering.Renderer, cfg Config) *Compiler {
	if renderer == nil {
		renderer = rendering.NewRenderer()
	}
	return &Compiler{store: store, generator: generator, renderer: renderer, cfg: cfg}
}

// Result is the full outcome of one generation run, including the audit
// trail of rejected candidates.
type Result struct {
	Resume    *types.Resume
	Bullets   []types.ResumeBullet
	Rejected  []types.RejectedBullet
	FitReport *types.FitReport
	ParsedJD  *types.ParsedJD
}

// Generate runs the pipeline: parse the JD, invoke the collaborator,
// validate every candidate against the snapshot's entry set, rewrite or
// drop sub-threshold bullets, then persist the resume and its accepted
// bullets in one transaction. A run where every candidate is dropped
// still creates the resume (status draft, empty bullet set).
func (c *Compiler) Generate(ctx context.Context, user *types.User, snap *types.Snapshot, jdText string, persona *types.Persona) (*Result, error) {
	parsed := jd.Parse(jdText)

	entries, err := c.store.EntriesByRefs(ctx, user.ID, snap.EntryRefs)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot entries: %w", err)
	}

	blocks := make(map[uuid.UUID]string, len(entries))
	for i := range entries {
		blocks[entries[i].EntryID] = snapshot.RenderEntryBlock(&entries[i])
	}

	req := &Request{
		Snapshot:    snap,
		Entries:     entries,
		EntryBlocks: blocks,
		ParsedJD:    parsed,
		Persona:     persona,
		JDText:      jdText,
	}

	candidates, err := c.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	accepted, rejected := c.validate(ctx, req, candidates)
	if len(rejected) > 0 {
		log.Printf("[generation] user=%s accepted=%d rejected=%d", user.ID, len(accepted), len(rejected))
	}

	fitReport := fit.Score(accepted, parsed, c.cfg.FitOptions)

	latex, err := c.renderer.BuildLaTeX(user, persona, accepted)
	if err != nil {
		return nil, fmt.Errorf("failed to render latex source: %w", err)
	}

	fitScore := fitReport.OverallScore
	resume := &types.Resume{
		UserID:      user.ID,
		SnapshotID:  snap.ID,
		JDText:      jdText,
		JDParsed:    parsed,
		FitScore:    &fitScore,
		LatexSource: latex,
		Status:      types.ResumeStatusDraft,
	}

	created, err := c.store.CreateResumeWithBullets(ctx, resume, accepted)
	if err != nil {
		return nil, fmt.Errorf("failed to persist resume: %w", err)
	}

	return &Result{
		Resume:    created,
		Bullets:   accepted,
		Rejected:  rejected,
		FitReport: fitReport,
		ParsedJD:  parsed,
	}, nil
}

// validate grades every candidate. A candidate citing an entry outside
// the snapshot set is dropped immediately; a sub-threshold candidate gets
// bounded rewrite retries before being dropped. Dropping is graceful: it
// never fails the run.
func (c *Compiler) validate(ctx context.Context, req *Request, candidates []types.CandidateBullet) ([]types.ResumeBullet, []types.RejectedBullet) {
	validSection := make(map[string]bool)
	for _, s := range req.Persona.Sections() {
		validSection[s] = true
	}

	accepted := make([]types.ResumeBullet, 0, len(candidates))
	var rejected []types.RejectedBullet

	for _, candidate := range candidates {
		cand := candidate
		attempts := 0
		for {
			block, cited := req.EntryBlocks[cand.SourceEntryID]
			if !cited {
				rejected = append(rejected, types.RejectedBullet{
					Candidate: cand, Reason: types.RejectUngroundedReference, Attempts: attempts,
				})
				break
			}
			if !validSection[cand.Section] {
				rejected = append(rejected, types.RejectedBullet{
					Candidate: cand, Reason: types.RejectUnknownSection, Attempts: attempts,
				})
				break
			}

			score := grounding.Score(cand.Text, block)
			if score >= c.cfg.threshold() {
				accepted = append(accepted, types.ResumeBullet{
					Section:        cand.Section,
					Text:           cand.Text,
					SourceEntryID:  cand.SourceEntryID,
					GroundingScore: score,
					LineCount:      lineCount(cand),
				})
				break
			}

			if attempts >= c.cfg.retries() {
				rejected = append(rejected, types.RejectedBullet{
					Candidate: cand, Reason: types.RejectBelowThreshold, Score: score, Attempts: attempts,
				})
				break
			}

			attempts++
			rewritten, err := c.generator.Rewrite(ctx, req, cand, block)
			if err != nil {
				log.Printf("[generation] rewrite attempt %d failed: %v", attempts, err)
				rejected = append(rejected, types.RejectedBullet{
					Candidate: cand, Reason: types.RejectBelowThreshold, Score: score, Attempts: attempts,
				})
				break
			}
			cand = rewritten
		}
	}
	return accepted, rejected
}

func lineCount(cand types.CandidateBullet) int {
	if cand.LineEstimate > 0 {
		return cand.LineEstimate
	}
	return 1
}
