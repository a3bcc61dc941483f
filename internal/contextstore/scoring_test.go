package contextstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/types"
)

func fixedNow() time.Time {
	return time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
}

func TestRecencyScore_EvergreenNeverDecays(t *testing.T) {
	data := map[string]any{"date_end": "2010-01-01"}
	assert.Equal(t, 1.0, recencyScore(data, true, fixedNow()))
}

func TestRecencyScore_OpenEndedIsCurrent(t *testing.T) {
	assert.Equal(t, 1.0, recencyScore(map[string]any{"company": "Acme"}, false, fixedNow()))
}

func TestRecencyScore_HalvesAtHalfLife(t *testing.T) {
	// 18 months before the reference date.
	data := map[string]any{"date_end": "2025-03-01"}
	assert.InDelta(t, 0.5, recencyScore(data, false, fixedNow()), 1e-9)
}

func TestRecencyScore_VeryOldApproachesZero(t *testing.T) {
	data := map[string]any{"date_end": "2010-01-01"}
	score := recencyScore(data, false, fixedNow())
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 0.01)
}

func TestRecencyScore_FutureEndDateIsCurrent(t *testing.T) {
	data := map[string]any{"date_end": "2027-01-01"}
	assert.Equal(t, 1.0, recencyScore(data, false, fixedNow()))
}

func TestMonthsBetween(t *testing.T) {
	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 18.0, monthsBetween(start, fixedNow()), 1e-9)
	assert.Equal(t, 0.0, monthsBetween(fixedNow(), start), "never negative")
}

func TestAppendEntry_DerivesRecencyFromEndDate(t *testing.T) {
	ctx := context.Background()
	store := New(&fakeRepo{})
	store.now = fixedNow

	entry, _, err := store.AppendEntry(ctx, uuid.New(), uuid.Nil, &types.AppendEntryRequest{
		EntryType: types.EntryTypeExperience,
		Data:      map[string]any{"company": "Acme", "date_end": "2025-03-01"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, entry.RecencyScore, 1e-9)
}

func TestAppendEntry_SkillsDefaultEvergreen(t *testing.T) {
	ctx := context.Background()
	store := New(&fakeRepo{})
	store.now = fixedNow

	entry, _, err := store.AppendEntry(ctx, uuid.New(), uuid.Nil, &types.AppendEntryRequest{
		EntryType: types.EntryTypeSkill,
		Data:      map[string]any{"name": "Go", "date_end": "2015-01-01"},
	})
	require.NoError(t, err)
	assert.True(t, entry.FlaggedEvergreen)
	assert.Equal(t, 1.0, entry.RecencyScore)
}
