// Package contextstore maintains the append-only, versioned log of a
// user's career facts. Entries are never updated or deleted in place:
// every edit appends a new version, and removal is a new version carrying
// a tombstone marker, so the full audit history survives.
package contextstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/db"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// Repository is the persistence surface the store requires. *db.DB
// implements it; tests use an in-memory fake.
type Repository interface {
	MaxEntryVersion(ctx context.Context, userID, entryID uuid.UUID) (int, error)
	InsertContextEntry(ctx context.Context, e *types.ContextEntry) (*types.ContextEntry, error)
	CurrentEntries(ctx context.Context, userID uuid.UUID) ([]types.ContextEntry, error)
	EntriesAt(ctx context.Context, userID uuid.UUID, maxVersion int) ([]types.ContextEntry, error)
	EntryHistory(ctx context.Context, userID, entryID uuid.UUID) ([]types.ContextEntry, error)
}

// Store provides append and read access to the context log.
type Store struct {
	repo Repository
	now  func() time.Time
}

// New creates a Store backed by the given repository.
func New(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// AppendEntry appends the next version for the given logical entry, or
// version 1 when entryID is uuid.Nil (a brand-new fact; a fresh entry id
// is allocated). The recency score is derived here from the entry's end
// date, never taken from the caller. Returned conflict warnings are
// advisory; the append has already succeeded when they are reported. A
// concurrent append to the same (user, entry) surfaces as
// *VersionConflictError; the caller retries against the fresh state.
func (s *Store) AppendEntry(ctx context.Context, userID, entryID uuid.UUID, req *types.AppendEntryRequest) (*types.ContextEntry, []ConflictWarning, error) {
	if entryID == uuid.Nil {
		entryID = uuid.New()
	}

	maxVersion, err := s.repo.MaxEntryVersion(ctx, userID, entryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve entry version: %w", err)
	}

	contribution := req.ContributionType
	if contribution == "" {
		contribution = types.ContributionTeamMember
	}
	evergreen := req.FlaggedEvergreen || evergreenByDefault(req.EntryType)

	entry := &types.ContextEntry{
		UserID:           userID,
		EntryID:          entryID,
		Version:          maxVersion + 1,
		EntryType:        req.EntryType,
		Data:             req.Data,
		RawText:          req.RawText,
		RecencyScore:     recencyScore(req.Data, evergreen, s.now()),
		ImpactScore:      req.ImpactScore,
		Tags:             req.Tags,
		FlaggedEvergreen: evergreen,
		ContributionType: contribution,
	}

	var warnings []ConflictWarning
	if entry.EntryType == types.EntryTypeExperience {
		existing, err := s.repo.CurrentEntries(ctx, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load current entries: %w", err)
		}
		warnings = detectConflicts(existing, entry)
	}

	inserted, err := s.repo.InsertContextEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateVersion) {
			return nil, nil, &VersionConflictError{
				UserID:           userID,
				EntryID:          entryID,
				AttemptedVersion: entry.Version,
			}
		}
		return nil, nil, err
	}
	return inserted, warnings, nil
}

// Tombstone appends a tombstone version for the entry, removing it from
// future snapshot compilations without destroying history.
func (s *Store) Tombstone(ctx context.Context, userID, entryID uuid.UUID, entryType string) (*types.ContextEntry, error) {
	entry, _, err := s.AppendEntry(ctx, userID, entryID, &types.AppendEntryRequest{
		EntryType: entryType,
		Data:      map[string]any{"tombstone": true},
	})
	return entry, err
}

// Current returns the highest-version row for every distinct entry of the
// user, tombstoned entries included (filtering is the snapshot compiler's
// concern).
func (s *Store) Current(ctx context.Context, userID uuid.UUID) ([]types.ContextEntry, error) {
	return s.repo.CurrentEntries(ctx, userID)
}

// At returns the user's entries as of a version bound: for each distinct
// entry, the highest version not exceeding maxVersion. Useful for
// auditing what a past snapshot could have seen.
func (s *Store) At(ctx context.Context, userID uuid.UUID, maxVersion int) ([]types.ContextEntry, error) {
	return s.repo.EntriesAt(ctx, userID, maxVersion)
}

// History returns the full version chain for one logical entry, oldest
// first.
func (s *Store) History(ctx context.Context, userID, entryID uuid.UUID) ([]types.ContextEntry, error) {
	return s.repo.EntryHistory(ctx, userID, entryID)
}
