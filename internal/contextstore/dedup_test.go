package contextstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/types"
)

func TestDatesOverlap(t *testing.T) {
	assert.False(t, datesOverlap("2020-01-01", "2020-12-31", "2021-01-01", "2021-12-31"), "sequential roles")
	assert.True(t, datesOverlap("2020-06-01", "2021-06-01", "2021-01-01", "2022-01-01"), "partial overlap")
	assert.True(t, datesOverlap("2022-01-01", "", "2021-06-01", ""), "two current roles")
}

func TestAppendEntry_WarnsOnContributionMismatch(t *testing.T) {
	ctx := context.Background()
	store := New(&fakeRepo{})
	userID := uuid.New()

	existing, _, err := store.AppendEntry(ctx, userID, uuid.Nil, &types.AppendEntryRequest{
		EntryType:        types.EntryTypeExperience,
		Data:             map[string]any{"company": "Acme", "role": "Engineer"},
		ContributionType: types.ContributionLead,
	})
	require.NoError(t, err)

	_, warnings, err := store.AppendEntry(ctx, userID, uuid.Nil, &types.AppendEntryRequest{
		EntryType:        types.EntryTypeExperience,
		Data:             map[string]any{"company": "acme", "role": "engineer"},
		ContributionType: types.ContributionSolo,
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, ConflictContributionMismatch, warnings[0].ConflictType)
	assert.Equal(t, SeverityWarning, warnings[0].Severity)
	assert.Equal(t, existing.EntryID, warnings[0].ExistingEntryID)
}

func TestAppendEntry_AdvisesOnDateOverlapAcrossCompanies(t *testing.T) {
	ctx := context.Background()
	store := New(&fakeRepo{})
	userID := uuid.New()

	_, _, err := store.AppendEntry(ctx, userID, uuid.Nil, &types.AppendEntryRequest{
		EntryType: types.EntryTypeExperience,
		Data:      map[string]any{"company": "Acme", "date_start": "2020-01-01", "date_end": "2022-01-01"},
	})
	require.NoError(t, err)

	_, warnings, err := store.AppendEntry(ctx, userID, uuid.Nil, &types.AppendEntryRequest{
		EntryType: types.EntryTypeExperience,
		Data:      map[string]any{"company": "Globex", "date_start": "2021-06-01"},
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, ConflictDateOverlap, warnings[0].ConflictType)
	assert.Equal(t, SeverityAdvisory, warnings[0].Severity)
}

func TestAppendEntry_EditDoesNotConflictWithItself(t *testing.T) {
	ctx := context.Background()
	store := New(&fakeRepo{})
	userID := uuid.New()

	first, _, err := store.AppendEntry(ctx, userID, uuid.Nil, &types.AppendEntryRequest{
		EntryType:        types.EntryTypeExperience,
		Data:             map[string]any{"company": "Acme", "role": "Engineer", "date_start": "2020-01-01"},
		ContributionType: types.ContributionLead,
	})
	require.NoError(t, err)

	_, warnings, err := store.AppendEntry(ctx, userID, first.EntryID, &types.AppendEntryRequest{
		EntryType:        types.EntryTypeExperience,
		Data:             map[string]any{"company": "Acme", "role": "Engineer", "date_start": "2020-01-01"},
		ContributionType: types.ContributionSolo,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings, "a new version of the same entry is not a conflict")
}
