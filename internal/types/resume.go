package types

import (
	"time"

	"github.com/google/uuid"
)

// Resume status constants. A resume moves forward only:
// draft -> rendered | failed.
const (
	ResumeStatusDraft    = "draft"
	ResumeStatusRendered = "rendered"
	ResumeStatusFailed   = "failed"
)

// Resume is one generation attempt for one job description.
type Resume struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	SnapshotID  uuid.UUID  `json:"snapshot_id"`
	JDText      string     `json:"jd_text"`
	JDParsed    *ParsedJD  `json:"jd_parsed,omitempty"`
	FitScore    *float64   `json:"fit_score,omitempty"`
	LatexSource string     `json:"latex_source,omitempty"`
	PDFKey      string     `json:"pdf_key,omitempty"`
	Status      string     `json:"status"`
	LatestJobID *uuid.UUID `json:"latest_job_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RenderJob status constants. Legal transitions:
// queued -> processing -> done | failed, and processing -> queued when a
// lease expires. done and failed are terminal for the job instance.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusDone       = "done"
	JobStatusFailed     = "failed"
)

// RenderJob is one durable attempt to typeset a resume into a PDF.
type RenderJob struct {
	ID              uuid.UUID  `json:"id"`
	ResumeID        uuid.UUID  `json:"resume_id"`
	Status          string     `json:"status"`
	Attempt         int        `json:"attempt"`
	WorkerID        string     `json:"worker_id,omitempty"`
	LeaseExpiresAt  *time.Time `json:"lease_expires_at,omitempty"`
	CancelRequested bool       `json:"cancel_requested"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Terminal reports whether the job has reached a terminal state.
func (j *RenderJob) Terminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}

// ValidJobTransition reports whether moving a render job from one status
// to another follows a legal edge of the state machine.
func ValidJobTransition(from, to string) bool {
	switch from {
	case JobStatusQueued:
		return to == JobStatusProcessing || to == JobStatusFailed
	case JobStatusProcessing:
		return to == JobStatusDone || to == JobStatusFailed || to == JobStatusQueued
	default:
		return false
	}
}
