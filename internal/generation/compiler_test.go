package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/types"
)

type fakeStore struct {
	entries        []types.ContextEntry
	entriesErr     error
	createdResume  *types.Resume
	createdBullets []types.ResumeBullet
}

func (s *fakeStore) EntriesByRefs(_ context.Context, _ uuid.UUID, _ []types.EntryRef) ([]types.ContextEntry, error) {
	return s.entries, s.entriesErr
}

func (s *fakeStore) CreateResumeWithBullets(_ context.Context, r *types.Resume, bullets []types.ResumeBullet) (*types.Resume, error) {
	created := *r
	created.ID = uuid.New()
	s.createdResume = &created
	s.createdBullets = bullets
	return &created, nil
}

type fakeGenerator struct {
	candidates   []types.CandidateBullet
	genErr       error
	rewrite      func(cand types.CandidateBullet) (types.CandidateBullet, error)
	rewriteCalls int
}

func (g *fakeGenerator) Generate(_ context.Context, _ *Request) ([]types.CandidateBullet, error) {
	return g.candidates, g.genErr
}

func (g *fakeGenerator) Rewrite(_ context.Context, _ *Request, cand types.CandidateBullet, _ string) (types.CandidateBullet, error) {
	g.rewriteCalls++
	if g.rewrite == nil {
		return cand, nil
	}
	return g.rewrite(cand)
}

const paymentsFact = "Migrated the payments platform to Go microservices on Kubernetes, cutting infrastructure costs by 30 percent."

func testFixtures() (*types.User, *types.Snapshot, *fakeStore, uuid.UUID) {
	userID := uuid.New()
	entryID := uuid.New()
	user := &types.User{ID: userID, Email: "dev@example.com"}
	entry := types.ContextEntry{
		ID:        uuid.New(),
		UserID:    userID,
		EntryID:   entryID,
		Version:   1,
		EntryType: types.EntryTypeExperience,
		RawText:   paymentsFact,
		Tags:      []string{"go", "kubernetes"},
	}
	snap := &types.Snapshot{
		ID:        uuid.New(),
		UserID:    userID,
		Version:   1,
		EntryRefs: []types.EntryRef{{EntryID: entryID, Version: 1}},
	}
	store := &fakeStore{entries: []types.ContextEntry{entry}}
	return user, snap, store, entryID
}

func TestGenerateAcceptsGroundedBullet(t *testing.T) {
	user, snap, store, entryID := testFixtures()
	gen := &fakeGenerator{candidates: []types.CandidateBullet{{
		Text:          "Migrated the payments platform to Go microservices on Kubernetes.",
		SourceEntryID: entryID,
		Section:       types.EntryTypeExperience,
		LineEstimate:  1,
	}}}

	result, err := NewCompiler(store, gen, nil, Config{}).Generate(context.Background(), user, snap, "Senior Go Engineer\nRequirements: Go, Kubernetes.", nil)
	require.NoError(t, err)

	require.Len(t, result.Bullets, 1)
	assert.GreaterOrEqual(t, result.Bullets[0].GroundingScore, 0.80)
	assert.Empty(t, result.Rejected)
	assert.Zero(t, gen.rewriteCalls)

	require.NotNil(t, store.createdResume)
	assert.Equal(t, types.ResumeStatusDraft, store.createdResume.Status)
	require.NotNil(t, store.createdResume.FitScore)
	assert.Len(t, store.createdBullets, 1)
	assert.Contains(t, store.createdResume.LatexSource, `\documentclass`)
}

func TestGenerateRewriteRecoversRejectedBullet(t *testing.T) {
	user, snap, store, entryID := testFixtures()
	gen := &fakeGenerator{
		candidates: []types.CandidateBullet{{
			Text:          "Architected a planet-scale consensus engine with five-nines availability.",
			SourceEntryID: entryID,
			Section:       types.EntryTypeExperience,
		}},
		rewrite: func(cand types.CandidateBullet) (types.CandidateBullet, error) {
			cand.Text = "Migrated the payments platform to Go microservices, cutting infrastructure costs by 30 percent."
			return cand, nil
		},
	}

	result, err := NewCompiler(store, gen, nil, Config{}).Generate(context.Background(), user, snap, "Go Engineer", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.rewriteCalls)
	require.Len(t, result.Bullets, 1)
	assert.GreaterOrEqual(t, result.Bullets[0].GroundingScore, 0.80)
	assert.Empty(t, result.Rejected)
}

func TestGenerateDropsBulletAfterRetriesExhausted(t *testing.T) {
	user, snap, store, entryID := testFixtures()
	ungrounded := types.CandidateBullet{
		Text:          "Invented a novel quantum scheduler adopted industry-wide.",
		SourceEntryID: entryID,
		Section:       types.EntryTypeExperience,
	}
	gen := &fakeGenerator{
		candidates: []types.CandidateBullet{ungrounded},
		rewrite: func(cand types.CandidateBullet) (types.CandidateBullet, error) {
			return cand, nil // never gets closer to the source
		},
	}

	result, err := NewCompiler(store, gen, nil, Config{MaxBulletRetries: 2}).Generate(context.Background(), user, snap, "Go Engineer", nil)
	require.NoError(t, err, "exhausted retries degrade gracefully, they do not fail the run")

	assert.Equal(t, 2, gen.rewriteCalls)
	assert.Empty(t, result.Bullets)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, types.RejectBelowThreshold, result.Rejected[0].Reason)
	assert.Equal(t, 2, result.Rejected[0].Attempts)
	assert.Less(t, result.Rejected[0].Score, 0.80)

	// The resume is still persisted with an empty bullet set.
	require.NotNil(t, store.createdResume)
	assert.Equal(t, types.ResumeStatusDraft, store.createdResume.Status)
	assert.Empty(t, store.createdBullets)
}

func TestGenerateRejectsUngroundedReferenceImmediately(t *testing.T) {
	user, snap, store, _ := testFixtures()
	gen := &fakeGenerator{candidates: []types.CandidateBullet{{
		Text:          paymentsFact,
		SourceEntryID: uuid.New(), // not in the snapshot entry set
		Section:       types.EntryTypeExperience,
	}}}

	result, err := NewCompiler(store, gen, nil, Config{}).Generate(context.Background(), user, snap, "Go Engineer", nil)
	require.NoError(t, err)

	assert.Zero(t, gen.rewriteCalls, "a bad citation cannot be fixed by rewriting")
	assert.Empty(t, result.Bullets)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, types.RejectUngroundedReference, result.Rejected[0].Reason)
}

func TestGenerateRejectsUnknownSection(t *testing.T) {
	user, snap, store, entryID := testFixtures()
	gen := &fakeGenerator{candidates: []types.CandidateBullet{{
		Text:          paymentsFact,
		SourceEntryID: entryID,
		Section:       "hobbies",
	}}}

	result, err := NewCompiler(store, gen, nil, Config{}).Generate(context.Background(), user, snap, "Go Engineer", nil)
	require.NoError(t, err)

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, types.RejectUnknownSection, result.Rejected[0].Reason)
}

func TestGenerateCollaboratorFailurePropagates(t *testing.T) {
	user, snap, store, _ := testFixtures()
	gen := &fakeGenerator{genErr: fmt.Errorf("%w: connection refused", ErrGenerationUnavailable)}

	result, err := NewCompiler(store, gen, nil, Config{}).Generate(context.Background(), user, snap, "Go Engineer", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationUnavailable))
	assert.Nil(t, result)
	assert.Nil(t, store.createdResume, "no resume row on collaborator failure")
}

func TestGenerateRewriteErrorDropsBullet(t *testing.T) {
	user, snap, store, entryID := testFixtures()
	gen := &fakeGenerator{
		candidates: []types.CandidateBullet{{
			Text:          "Completely unrelated claim about satellites.",
			SourceEntryID: entryID,
			Section:       types.EntryTypeExperience,
		}},
		rewrite: func(types.CandidateBullet) (types.CandidateBullet, error) {
			return types.CandidateBullet{}, ErrMalformedOutput
		},
	}

	result, err := NewCompiler(store, gen, nil, Config{}).Generate(context.Background(), user, snap, "Go Engineer", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Bullets)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, types.RejectBelowThreshold, result.Rejected[0].Reason)
	require.NotNil(t, store.createdResume)
}

func TestGenerateFitReportReflectsCoverage(t *testing.T) {
	user, snap, store, entryID := testFixtures()
	gen := &fakeGenerator{candidates: []types.CandidateBullet{{
		Text:          "Migrated the payments platform to Go microservices on Kubernetes.",
		SourceEntryID: entryID,
		Section:       types.EntryTypeExperience,
	}}}

	jdText := "Senior Go Engineer\nRequirements: Go, Kubernetes, Terraform."
	result, err := NewCompiler(store, gen, nil, Config{}).Generate(context.Background(), user, snap, jdText, nil)
	require.NoError(t, err)

	require.NotNil(t, result.FitReport)
	assert.Greater(t, result.FitReport.OverallScore, 0.0)
	assert.Less(t, result.FitReport.OverallScore, 1.0, "terraform is uncovered")

	var gapKeywords []string
	for _, g := range result.FitReport.Gaps {
		gapKeywords = append(gapKeywords, g.Keyword)
	}
	assert.Contains(t, gapKeywords, "terraform")
}
