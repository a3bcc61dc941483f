package types

import (
	"time"

	"github.com/google/uuid"
)

// Tone preference constants. These mirror the tones detected by the JD
// parser so a persona can override the detected tone.
const (
	ToneAggressiveStartup       = "aggressive_startup"
	ToneCollaborativeEnterprise = "collaborative_enterprise"
	ToneResearchOriented        = "research_oriented"
	ToneProductOriented         = "product_oriented"
)

// Persona is a named filtering/ordering configuration applied during
// snapshot compilation and resume generation. Edits apply prospectively;
// personas are not versioned.
type Persona struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	EmphasizedTags []string  `json:"emphasized_tags"`
	SuppressedTags []string  `json:"suppressed_tags"`
	TonePreference string    `json:"tone_preference,omitempty"`
	SectionOrder   []string  `json:"section_order,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Sections returns the persona's section ordering, falling back to the
// canonical order for sections the persona does not mention.
func (p *Persona) Sections() []string {
	if p == nil || len(p.SectionOrder) == 0 {
		return SectionOrder
	}
	seen := make(map[string]bool, len(p.SectionOrder))
	out := make([]string, 0, len(SectionOrder))
	for _, s := range p.SectionOrder {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range SectionOrder {
		if !seen[s] {
			out = append(out, s)
		}
	}
	return out
}

// Suppresses reports whether the entry should be filtered out under this
// persona. Evergreen entries are never suppressed.
func (p *Persona) Suppresses(e *ContextEntry) bool {
	if p == nil || e.FlaggedEvergreen {
		return false
	}
	return e.HasAnyTag(p.SuppressedTags)
}

// Emphasizes reports whether the entry matches any emphasized tag.
func (p *Persona) Emphasizes(e *ContextEntry) bool {
	if p == nil {
		return false
	}
	return e.HasAnyTag(p.EmphasizedTags)
}
