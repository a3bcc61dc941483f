package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersonaSuppresses(t *testing.T) {
	p := &Persona{SuppressedTags: []string{"legacy"}}

	legacy := &ContextEntry{Tags: []string{"legacy"}}
	assert.True(t, p.Suppresses(legacy))

	evergreen := &ContextEntry{Tags: []string{"legacy"}, FlaggedEvergreen: true}
	assert.False(t, p.Suppresses(evergreen), "evergreen entries are never suppressed")

	other := &ContextEntry{Tags: []string{"golang"}}
	assert.False(t, p.Suppresses(other))

	var nilPersona *Persona
	assert.False(t, nilPersona.Suppresses(legacy))
}

func TestPersonaSections_FallbackAndDedup(t *testing.T) {
	var nilPersona *Persona
	assert.Equal(t, SectionOrder, nilPersona.Sections())

	p := &Persona{SectionOrder: []string{"project", "experience", "project"}}
	got := p.Sections()
	assert.Equal(t, "project", got[0])
	assert.Equal(t, "experience", got[1])
	assert.Len(t, got, len(SectionOrder), "missing sections are appended in canonical order")
}

func TestAppendEntryRequestValidate(t *testing.T) {
	req := &AppendEntryRequest{
		EntryType: EntryTypeExperience,
		Data:      map[string]any{"company": "Acme"},
	}
	assert.NoError(t, req.Validate())

	bad := &AppendEntryRequest{EntryType: "job", Data: map[string]any{}}
	assert.Error(t, bad.Validate())

	outOfRange := &AppendEntryRequest{
		EntryType:   EntryTypeSkill,
		Data:        map[string]any{"name": "Go"},
		ImpactScore: 1.5,
	}
	assert.Error(t, outOfRange.Validate())
}

func TestContextEntryTombstoned(t *testing.T) {
	live := &ContextEntry{Data: map[string]any{"company": "Acme"}}
	assert.False(t, live.Tombstoned())

	dead := &ContextEntry{Data: map[string]any{"tombstone": true}}
	assert.True(t, dead.Tombstoned())

	weird := &ContextEntry{Data: map[string]any{"tombstone": "yes"}}
	assert.False(t, weird.Tombstoned())
}
