package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-pipeline/internal/types"
)

// CreateUser inserts a new user and returns the created row.
func (db *DB) CreateUser(ctx context.Context, externalID, email, tier string) (*types.User, error) {
	if tier == "" {
		tier = types.TierFree
	}
	var u types.User
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (external_id, email, tier)
		 VALUES ($1, $2, $3)
		 RETURNING id, external_id, email, tier, created_at`,
		externalID, email, tier,
	).Scan(&u.ID, &u.ExternalID, &u.Email, &u.Tier, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("external_id already registered: %s", externalID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

// GetUser retrieves a user by id. Returns nil, nil when not found.
func (db *DB) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	var u types.User
	err := db.pool.QueryRow(ctx,
		`SELECT id, external_id, email, tier, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.ExternalID, &u.Email, &u.Tier, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes a user; every owned row cascades via foreign keys.
// Blob cleanup is the caller's responsibility.
func (db *DB) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}
