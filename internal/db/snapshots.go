package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-pipeline/internal/types"
)

const snapshotColumns = `id, user_id, version, blob_key, content_hash, persona_id, entry_refs, created_at`

func scanSnapshot(row pgx.Row) (*types.Snapshot, error) {
	var s types.Snapshot
	var refsJSON []byte
	err := row.Scan(&s.ID, &s.UserID, &s.Version, &s.BlobKey, &s.ContentHash,
		&s.PersonaID, &refsJSON, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(refsJSON) > 0 {
		if err := json.Unmarshal(refsJSON, &s.EntryRefs); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot entry refs: %w", err)
		}
	}
	return &s, nil
}

// NextSnapshotVersion returns the version the next snapshot for the user
// will be assigned.
func (db *DB) NextSnapshotVersion(ctx context.Context, userID uuid.UUID) (int, error) {
	var maxVersion *int
	err := db.pool.QueryRow(ctx,
		`SELECT MAX(version) FROM context_snapshots WHERE user_id = $1`,
		userID,
	).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to get max snapshot version: %w", err)
	}
	if maxVersion == nil {
		return 1, nil
	}
	return *maxVersion + 1, nil
}

// InsertSnapshot records a compiled snapshot. The (user_id, version)
// unique constraint detects concurrent compilations; losers receive
// ErrDuplicateVersion and retry with a fresh version.
func (db *DB) InsertSnapshot(ctx context.Context, s *types.Snapshot) (*types.Snapshot, error) {
	refsJSON, err := json.Marshal(s.EntryRefs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry refs: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO context_snapshots (user_id, version, blob_key, content_hash, persona_id, entry_refs)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+snapshotColumns,
		s.UserID, s.Version, s.BlobKey, s.ContentHash, s.PersonaID, refsJSON,
	)
	inserted, err := scanSnapshot(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("snapshot version %d for user %s: %w", s.Version, s.UserID, ErrDuplicateVersion)
		}
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return inserted, nil
}

// GetSnapshot retrieves a snapshot by id. Returns nil, nil when not found.
func (db *DB) GetSnapshot(ctx context.Context, snapshotID uuid.UUID) (*types.Snapshot, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM context_snapshots WHERE id = $1`,
		snapshotID,
	)
	s, err := scanSnapshot(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return s, nil
}

// ListSnapshots returns a user's snapshots in version order.
func (db *DB) ListSnapshots(ctx context.Context, userID uuid.UUID) ([]types.Snapshot, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM context_snapshots
		 WHERE user_id = $1 ORDER BY version ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}
