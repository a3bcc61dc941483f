package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-pipeline/internal/types"
)

const contextEntryColumns = `id, user_id, entry_id, version, entry_type, data, raw_text,
	recency_score, impact_score, tags, flagged_evergreen, contribution_type, created_at`

func scanContextEntry(row pgx.Row) (*types.ContextEntry, error) {
	var e types.ContextEntry
	var dataJSON []byte
	var rawText *string
	err := row.Scan(&e.ID, &e.UserID, &e.EntryID, &e.Version, &e.EntryType, &dataJSON, &rawText,
		&e.RecencyScore, &e.ImpactScore, &e.Tags, &e.FlaggedEvergreen, &e.ContributionType, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if rawText != nil {
		e.RawText = *rawText
	}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &e.Data); err != nil {
			return nil, fmt.Errorf("failed to decode entry data: %w", err)
		}
	}
	return &e, nil
}

// MaxEntryVersion returns the highest version for (user, entry), or 0 if
// the entry has no versions yet.
func (db *DB) MaxEntryVersion(ctx context.Context, userID, entryID uuid.UUID) (int, error) {
	var maxVersion *int
	err := db.pool.QueryRow(ctx,
		`SELECT MAX(version) FROM context_entries WHERE user_id = $1 AND entry_id = $2`,
		userID, entryID,
	).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to get max entry version: %w", err)
	}
	if maxVersion == nil {
		return 0, nil
	}
	return *maxVersion, nil
}

// InsertContextEntry appends one entry version. The unique constraint on
// (user_id, entry_id, version) serializes concurrent appends: the loser
// receives ErrDuplicateVersion and must retry with a fresh version.
func (db *DB) InsertContextEntry(ctx context.Context, e *types.ContextEntry) (*types.ContextEntry, error) {
	dataJSON, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry data: %w", err)
	}
	var rawText *string
	if e.RawText != "" {
		rawText = &e.RawText
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO context_entries
		     (user_id, entry_id, version, entry_type, data, raw_text,
		      recency_score, impact_score, tags, flagged_evergreen, contribution_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+contextEntryColumns,
		e.UserID, e.EntryID, e.Version, e.EntryType, dataJSON, rawText,
		e.RecencyScore, e.ImpactScore, tags, e.FlaggedEvergreen, e.ContributionType,
	)
	inserted, err := scanContextEntry(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("entry %s version %d: %w", e.EntryID, e.Version, ErrDuplicateVersion)
		}
		return nil, fmt.Errorf("failed to insert context entry: %w", err)
	}
	return inserted, nil
}

// CurrentEntries returns, for every distinct entry_id of the user, the row
// with the maximum version.
func (db *DB) CurrentEntries(ctx context.Context, userID uuid.UUID) ([]types.ContextEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT ON (entry_id) `+contextEntryColumns+`
		 FROM context_entries
		 WHERE user_id = $1
		 ORDER BY entry_id, version DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query current entries: %w", err)
	}
	defer rows.Close()

	var entries []types.ContextEntry
	for rows.Next() {
		e, err := scanContextEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan context entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// EntriesAt returns the user's entries as they stood when no entry had a
// version above maxVersion: for each entry_id, the highest version not
// exceeding the bound. Entries whose first version is newer than the
// bound are absent.
func (db *DB) EntriesAt(ctx context.Context, userID uuid.UUID, maxVersion int) ([]types.ContextEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT ON (entry_id) `+contextEntryColumns+`
		 FROM context_entries
		 WHERE user_id = $1 AND version <= $2
		 ORDER BY entry_id, version DESC`,
		userID, maxVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries at version: %w", err)
	}
	defer rows.Close()

	var entries []types.ContextEntry
	for rows.Next() {
		e, err := scanContextEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan context entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// EntryHistory returns every version of one logical entry, oldest first.
func (db *DB) EntryHistory(ctx context.Context, userID, entryID uuid.UUID) ([]types.ContextEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+contextEntryColumns+`
		 FROM context_entries
		 WHERE user_id = $1 AND entry_id = $2
		 ORDER BY version ASC`,
		userID, entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry history: %w", err)
	}
	defer rows.Close()

	var entries []types.ContextEntry
	for rows.Next() {
		e, err := scanContextEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan context entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// EntriesByRefs fetches the exact entry versions named by refs. Used when
// re-deriving a snapshot's canonical blocks for grounding validation.
func (db *DB) EntriesByRefs(ctx context.Context, userID uuid.UUID, refs []types.EntryRef) ([]types.ContextEntry, error) {
	entries := make([]types.ContextEntry, 0, len(refs))
	for _, ref := range refs {
		row := db.pool.QueryRow(ctx,
			`SELECT `+contextEntryColumns+`
			 FROM context_entries
			 WHERE user_id = $1 AND entry_id = $2 AND version = $3`,
			userID, ref.EntryID, ref.Version,
		)
		e, err := scanContextEntry(row)
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil, fmt.Errorf("entry %s version %d not found", ref.EntryID, ref.Version)
			}
			return nil, fmt.Errorf("failed to fetch entry by ref: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, nil
}
