package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/generation"
	"github.com/jonathan/resume-pipeline/internal/types"
)

func cannedResult(userID uuid.UUID) *generation.Result {
	resumeID := uuid.New()
	score := 0.91
	return &generation.Result{
		Resume: &types.Resume{
			ID:          resumeID,
			UserID:      userID,
			JDText:      "Senior Go engineer",
			FitScore:    &score,
			LatexSource: "\\documentclass{article}",
			Status:      types.ResumeStatusDraft,
		},
		Bullets: []types.ResumeBullet{
			{ID: uuid.New(), ResumeID: resumeID, Section: "experience", Text: "Built distributed render workers in Go", GroundingScore: 0.93},
		},
		FitReport: &types.FitReport{OverallScore: 0.78, Recommendation: "strong fit"},
	}
}

func TestGenerateResumeFromText(t *testing.T) {
	store := newFakeStore()
	gen := &stubGenerator{}
	s, _ := newTestServer(store, gen)
	user := seedUser(t, store)
	seedEntry(t, s, user.ID, "experience", "Built distributed render workers in Go")
	gen.result = cannedResult(user.ID)

	rec := doJSON(t, s, "POST", "/users/"+user.ID.String()+"/resumes", map[string]string{
		"jd_text": "Senior Go engineer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Resume    *types.Resume        `json:"resume"`
		Bullets   []types.ResumeBullet `json:"bullets"`
		FitReport *types.FitReport     `json:"fit_report"`
	}
	decodeBody(t, rec, &body)
	require.NotNil(t, body.Resume)
	assert.Len(t, body.Bullets, 1)
	require.NotNil(t, body.FitReport)

	assert.Equal(t, "Senior Go engineer", gen.gotJDText)
	// No snapshot_id in the request, so a fresh snapshot was compiled.
	require.NotNil(t, gen.gotSnap)
	assert.Equal(t, 1, gen.gotSnap.Version)
	assert.Nil(t, gen.gotPersona)
}

func TestGenerateResumeWithExplicitSnapshot(t *testing.T) {
	store := newFakeStore()
	gen := &stubGenerator{}
	s, _ := newTestServer(store, gen)
	user := seedUser(t, store)
	seedEntry(t, s, user.ID, "experience", "Shipped a search service")
	gen.result = cannedResult(user.ID)

	rec := doJSON(t, s, "POST", "/users/"+user.ID.String()+"/snapshots", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap types.Snapshot
	decodeBody(t, rec, &snap)

	rec = doJSON(t, s, "POST", "/users/"+user.ID.String()+"/resumes", map[string]string{
		"jd_text":     "Search infrastructure role",
		"snapshot_id": snap.ID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, gen.gotSnap)
	assert.Equal(t, snap.ID, gen.gotSnap.ID)
}

func TestGenerateResumeRejectsForeignSnapshot(t *testing.T) {
	store := newFakeStore()
	gen := &stubGenerator{result: cannedResult(uuid.New())}
	s, _ := newTestServer(store, gen)
	user := seedUser(t, store)

	other, err := store.CreateUser(context.Background(), "ext-2", "other@example.com", types.TierFree)
	require.NoError(t, err)
	snap, err := store.InsertSnapshot(context.Background(), &types.Snapshot{UserID: other.ID, Version: 1})
	require.NoError(t, err)

	rec := doJSON(t, s, "POST", "/users/"+user.ID.String()+"/resumes", map[string]string{
		"jd_text":     "Any role",
		"snapshot_id": snap.ID.String(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateResumeSourceValidation(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestServer(store, &stubGenerator{})
	user := seedUser(t, store)

	rec := doJSON(t, s, "POST", "/users/"+user.ID.String()+"/resumes", map[string]string{
		"jd_text": "inline text",
		"jd_url":  "https://example.com/jobs/1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "mutually exclusive")

	rec = doJSON(t, s, "POST", "/users/"+user.ID.String()+"/resumes", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateResumeCollaboratorDown(t *testing.T) {
	store := newFakeStore()
	gen := &stubGenerator{err: fmt.Errorf("%w: connection refused", generation.ErrGenerationUnavailable)}
	s, _ := newTestServer(store, gen)
	user := seedUser(t, store)
	seedEntry(t, s, user.ID, "experience", "Did work")

	rec := doJSON(t, s, "POST", "/users/"+user.ID.String()+"/resumes", map[string]string{
		"jd_text": "Any role",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGenerateResumeUnknownUser(t *testing.T) {
	s, _ := newTestServer(newFakeStore(), &stubGenerator{})
	rec := doJSON(t, s, "POST", "/users/"+uuid.NewString()+"/resumes", map[string]string{
		"jd_text": "Any role",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetResumeIncludesBullets(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestServer(store, &stubGenerator{})
	user := seedUser(t, store)

	resumeID := uuid.New()
	store.resumes[resumeID] = &types.Resume{ID: resumeID, UserID: user.ID, Status: types.ResumeStatusDraft}
	bulletID := uuid.New()
	store.bullets[bulletID] = &types.ResumeBullet{ID: bulletID, ResumeID: resumeID, Section: "experience", Text: "Original text"}

	rec := doJSON(t, s, "GET", "/resumes/"+resumeID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Resume  *types.Resume        `json:"resume"`
		Bullets []types.ResumeBullet `json:"bullets"`
	}
	decodeBody(t, rec, &body)
	require.NotNil(t, body.Resume)
	assert.Len(t, body.Bullets, 1)
}

func TestEditBullet(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestServer(store, &stubGenerator{})

	bulletID := uuid.New()
	store.bullets[bulletID] = &types.ResumeBullet{ID: bulletID, ResumeID: uuid.New(), Text: "Original text"}

	rec := doJSON(t, s, "PATCH", "/bullets/"+bulletID.String(), map[string]string{
		"text": "Edited by hand",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var bullet types.ResumeBullet
	decodeBody(t, rec, &bullet)
	assert.Equal(t, "Edited by hand", bullet.Text)
	assert.True(t, bullet.IsUserEdited)

	rec = doJSON(t, s, "PATCH", "/bullets/"+bulletID.String(), map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, "PATCH", "/bullets/"+uuid.NewString(), map[string]string{"text": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnqueueRender(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestServer(store, &stubGenerator{})
	user := seedUser(t, store)

	resumeID := uuid.New()
	store.resumes[resumeID] = &types.Resume{ID: resumeID, UserID: user.ID, LatexSource: "\\documentclass{article}", Status: types.ResumeStatusDraft}

	rec := doJSON(t, s, "POST", "/resumes/"+resumeID.String()+"/render", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var job types.RenderJob
	decodeBody(t, rec, &job)
	assert.Equal(t, types.JobStatusQueued, job.Status)
	assert.Equal(t, resumeID, job.ResumeID)

	rec = doJSON(t, s, "GET", "/render-jobs/"+job.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, "GET", "/resumes/"+resumeID.String()+"/render-jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Jobs []types.RenderJob `json:"jobs"`
	}
	decodeBody(t, rec, &listed)
	assert.Len(t, listed.Jobs, 1)
}

func TestEnqueueRenderWithoutSource(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestServer(store, &stubGenerator{})
	user := seedUser(t, store)

	resumeID := uuid.New()
	store.resumes[resumeID] = &types.Resume{ID: resumeID, UserID: user.ID, Status: types.ResumeStatusDraft}

	rec := doJSON(t, s, "POST", "/resumes/"+resumeID.String()+"/render", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelRenderJob(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestServer(store, &stubGenerator{})

	queued := &types.RenderJob{ID: uuid.New(), ResumeID: uuid.New(), Status: types.JobStatusQueued}
	processing := &types.RenderJob{ID: uuid.New(), ResumeID: uuid.New(), Status: types.JobStatusProcessing}
	store.jobs[queued.ID] = queued
	store.jobs[processing.ID] = processing

	rec := doJSON(t, s, "POST", "/render-jobs/"+queued.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var job types.RenderJob
	decodeBody(t, rec, &job)
	assert.Equal(t, types.JobStatusFailed, job.Status)

	rec = doJSON(t, s, "POST", "/render-jobs/"+processing.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &job)
	assert.Equal(t, types.JobStatusProcessing, job.Status)
	assert.True(t, job.CancelRequested)

	rec = doJSON(t, s, "POST", "/render-jobs/"+uuid.NewString()+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResumePDFDownload(t *testing.T) {
	store := newFakeStore()
	s, blobs := newTestServer(store, &stubGenerator{})
	user := seedUser(t, store)

	resumeID := uuid.New()
	pdfKey := fmt.Sprintf("resumes/%s/jobs/%s.pdf", resumeID, uuid.New())
	store.resumes[resumeID] = &types.Resume{ID: resumeID, UserID: user.ID, Status: types.ResumeStatusDraft}

	// Not rendered yet.
	rec := doJSON(t, s, "GET", "/resumes/"+resumeID.String()+"/pdf", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	store.resumes[resumeID].Status = types.ResumeStatusRendered
	store.resumes[resumeID].PDFKey = pdfKey
	require.NoError(t, blobs.Put(context.Background(), pdfKey, []byte("%PDF-1.5")))

	rec = doJSON(t, s, "GET", "/resumes/"+resumeID.String()+"/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "%PDF-1.5", rec.Body.String())
}
