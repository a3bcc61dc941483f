package types

import (
	"github.com/go-playground/validator/v10"
)

// CreateUserRequest represents the request to register a new user.
type CreateUserRequest struct {
	ExternalID string `json:"external_id" validate:"required,min=1"`
	Email      string `json:"email" validate:"required,email"`
	Tier       string `json:"tier,omitempty" validate:"omitempty,oneof=free pro team api"`
}

// AppendEntryRequest represents the request to append a context entry
// version. EntryID is optional: omitted for a brand-new fact (version 1),
// required when editing an existing one. The recency score is not part of
// the request; the store derives it from the entry's end date.
type AppendEntryRequest struct {
	EntryID          string         `json:"entry_id,omitempty" validate:"omitempty,uuid"`
	EntryType        string         `json:"entry_type" validate:"required,oneof=experience education project skill publication open_source certification award extracurricular"`
	Data             map[string]any `json:"data" validate:"required"`
	RawText          string         `json:"raw_text,omitempty"`
	ImpactScore      float64        `json:"impact_score" validate:"gte=0,lte=1"`
	Tags             []string       `json:"tags,omitempty"`
	FlaggedEvergreen bool           `json:"flagged_evergreen,omitempty"`
	ContributionType string         `json:"contribution_type,omitempty" validate:"omitempty,oneof=team_member lead solo"`
}

// CompileSnapshotRequest represents the request to compile a snapshot.
type CompileSnapshotRequest struct {
	PersonaID string `json:"persona_id,omitempty" validate:"omitempty,uuid"`
}

// PersonaRequest represents the request to create or update a persona.
type PersonaRequest struct {
	Name           string   `json:"name" validate:"required,min=1"`
	EmphasizedTags []string `json:"emphasized_tags,omitempty"`
	SuppressedTags []string `json:"suppressed_tags,omitempty"`
	TonePreference string   `json:"tone_preference,omitempty" validate:"omitempty,oneof=aggressive_startup collaborative_enterprise research_oriented product_oriented"`
	SectionOrder   []string `json:"section_order,omitempty"`
}

// GenerateResumeRequest represents the request to generate a resume.
// Exactly one of JDText or JDURL must be set; SnapshotID is optional
// (a fresh snapshot is compiled when omitted).
type GenerateResumeRequest struct {
	JDText     string `json:"jd_text,omitempty"`
	JDURL      string `json:"jd_url,omitempty" validate:"omitempty,url"`
	SnapshotID string `json:"snapshot_id,omitempty" validate:"omitempty,uuid"`
	PersonaID  string `json:"persona_id,omitempty" validate:"omitempty,uuid"`
}

// EditBulletRequest represents a user edit to a persisted bullet. Edited
// bullets are marked user-edited and exempt from re-validation.
type EditBulletRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

var validate = validator.New()

// Validate validates the CreateUserRequest.
func (r *CreateUserRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the AppendEntryRequest.
func (r *AppendEntryRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the CompileSnapshotRequest.
func (r *CompileSnapshotRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the PersonaRequest.
func (r *PersonaRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the GenerateResumeRequest.
func (r *GenerateResumeRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the EditBulletRequest.
func (r *EditBulletRequest) Validate() error {
	return validate.Struct(r)
}
