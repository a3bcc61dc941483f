// Package types provides type definitions for structured data used throughout the resume pipeline.
package types

import (
	"time"

	"github.com/google/uuid"
)

// EntryType constants for context entries.
const (
	EntryTypeExperience      = "experience"
	EntryTypeEducation       = "education"
	EntryTypeProject         = "project"
	EntryTypeSkill           = "skill"
	EntryTypePublication     = "publication"
	EntryTypeOpenSource      = "open_source"
	EntryTypeCertification   = "certification"
	EntryTypeAward           = "award"
	EntryTypeExtracurricular = "extracurricular"
)

// SectionOrder is the canonical ordering of entry types in a compiled
// snapshot. Personas may reorder sections; anything not listed falls back
// to this order.
var SectionOrder = []string{
	EntryTypeExperience,
	EntryTypeEducation,
	EntryTypeProject,
	EntryTypeSkill,
	EntryTypePublication,
	EntryTypeOpenSource,
	EntryTypeCertification,
	EntryTypeAward,
	EntryTypeExtracurricular,
}

// ContributionType constants describe the user's role in an entry.
const (
	ContributionTeamMember = "team_member"
	ContributionLead       = "lead"
	ContributionSolo       = "solo"
)

// ContextEntry is one version of a career fact. The row with the highest
// version per (user, entry_id) is that entry's current state.
type ContextEntry struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"user_id"`
	EntryID          uuid.UUID      `json:"entry_id"`
	Version          int            `json:"version"`
	EntryType        string         `json:"entry_type"`
	Data             map[string]any `json:"data"`
	RawText          string         `json:"raw_text,omitempty"`
	RecencyScore     float64        `json:"recency_score"`
	ImpactScore      float64        `json:"impact_score"`
	Tags             []string       `json:"tags"`
	FlaggedEvergreen bool           `json:"flagged_evergreen"`
	ContributionType string         `json:"contribution_type"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Tombstoned reports whether this version marks the entry as removed.
// Tombstoned entries stay in the log for audit but are excluded from
// snapshot compilation.
func (e *ContextEntry) Tombstoned() bool {
	v, ok := e.Data["tombstone"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// HasTag reports whether the entry carries the given tag.
func (e *ContextEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether the entry carries any of the given tags.
func (e *ContextEntry) HasAnyTag(tags []string) bool {
	for _, t := range tags {
		if e.HasTag(t) {
			return true
		}
	}
	return false
}

// EntryRef identifies the exact entry version a snapshot was compiled from.
type EntryRef struct {
	EntryID uuid.UUID `json:"entry_id"`
	Version int       `json:"version"`
}

// Snapshot is an immutable compiled view of a user's current context.
type Snapshot struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Version     int        `json:"version"`
	BlobKey     string     `json:"blob_key"`
	ContentHash string     `json:"content_hash"`
	PersonaID   *uuid.UUID `json:"persona_id,omitempty"`
	EntryRefs   []EntryRef `json:"entry_refs"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Contains reports whether the snapshot's compiled entry set includes the
// given logical entry id.
func (s *Snapshot) Contains(entryID uuid.UUID) bool {
	for _, ref := range s.EntryRefs {
		if ref.EntryID == entryID {
			return true
		}
	}
	return false
}
