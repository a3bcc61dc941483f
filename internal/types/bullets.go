package types

import (
	"time"

	"github.com/google/uuid"
)

// CandidateBullet is one statement proposed by the generation collaborator.
// Every candidate must cite the context entry it is grounded on; candidates
// without a valid citation are rejected before scoring.
type CandidateBullet struct {
	Text          string    `json:"text"`
	SourceEntryID uuid.UUID `json:"source_entry_id"`
	Section       string    `json:"section"`
	LineEstimate  int       `json:"line_estimate"`
	KeywordsUsed  []string  `json:"jd_keywords_used,omitempty"`
}

// ResumeBullet is a persisted, grounded statement belonging to a resume.
// The system invariant is GroundingScore >= the configured floor (0.80)
// for every persisted bullet.
type ResumeBullet struct {
	ID             uuid.UUID `json:"id"`
	ResumeID       uuid.UUID `json:"resume_id"`
	Section        string    `json:"section"`
	Text           string    `json:"bullet_text"`
	SourceEntryID  uuid.UUID `json:"source_entry_id"`
	GroundingScore float64   `json:"grounding_score"`
	IsUserEdited   bool      `json:"is_user_edited"`
	LineCount      int       `json:"line_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// RejectionReason constants for dropped candidate bullets.
const (
	RejectUngroundedReference = "ungrounded_reference"
	RejectBelowThreshold      = "below_grounding_threshold"
	RejectUnknownSection      = "unknown_section"
)

// RejectedBullet records a candidate that did not survive validation,
// with the reason it was dropped. Kept for audit; never persisted as
// accepted content.
type RejectedBullet struct {
	Candidate CandidateBullet `json:"candidate"`
	Reason    string          `json:"reason"`
	Score     float64         `json:"score"`
	Attempts  int             `json:"attempts"`
}
