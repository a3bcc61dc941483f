package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-pipeline/internal/types"
)

const personaColumns = `id, user_id, name, emphasized_tags, suppressed_tags, tone_preference, section_order, created_at, updated_at`

func scanPersona(row pgx.Row) (*types.Persona, error) {
	var p types.Persona
	var tone *string
	var orderJSON []byte
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.EmphasizedTags, &p.SuppressedTags,
		&tone, &orderJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tone != nil {
		p.TonePreference = *tone
	}
	if len(orderJSON) > 0 {
		if err := json.Unmarshal(orderJSON, &p.SectionOrder); err != nil {
			return nil, fmt.Errorf("failed to decode section order: %w", err)
		}
	}
	return &p, nil
}

func personaArgs(userID uuid.UUID, req *types.PersonaRequest) ([]any, error) {
	emphasized := req.EmphasizedTags
	if emphasized == nil {
		emphasized = []string{}
	}
	suppressed := req.SuppressedTags
	if suppressed == nil {
		suppressed = []string{}
	}
	var tone *string
	if req.TonePreference != "" {
		tone = &req.TonePreference
	}
	var orderJSON []byte
	if len(req.SectionOrder) > 0 {
		var err error
		orderJSON, err = json.Marshal(req.SectionOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal section order: %w", err)
		}
	}
	return []any{userID, req.Name, emphasized, suppressed, tone, orderJSON}, nil
}

// CreatePersona inserts a new persona for the user.
func (db *DB) CreatePersona(ctx context.Context, userID uuid.UUID, req *types.PersonaRequest) (*types.Persona, error) {
	args, err := personaArgs(userID, req)
	if err != nil {
		return nil, err
	}
	row := db.pool.QueryRow(ctx,
		`INSERT INTO personas (user_id, name, emphasized_tags, suppressed_tags, tone_preference, section_order)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+personaColumns,
		args...,
	)
	p, err := scanPersona(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create persona: %w", err)
	}
	return p, nil
}

// GetPersona retrieves a persona by id. Returns nil, nil when not found.
func (db *DB) GetPersona(ctx context.Context, personaID uuid.UUID) (*types.Persona, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE id = $1`,
		personaID,
	)
	p, err := scanPersona(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}
	return p, nil
}

// ListPersonas returns a user's personas ordered by creation time.
func (db *DB) ListPersonas(ctx context.Context, userID uuid.UUID) ([]types.Persona, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	defer rows.Close()

	var personas []types.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan persona: %w", err)
		}
		personas = append(personas, *p)
	}
	return personas, rows.Err()
}

// UpdatePersona replaces a persona's configuration. Edits apply
// prospectively; personas are not versioned.
func (db *DB) UpdatePersona(ctx context.Context, personaID uuid.UUID, req *types.PersonaRequest) (*types.Persona, error) {
	args, err := personaArgs(uuid.Nil, req)
	if err != nil {
		return nil, err
	}
	row := db.pool.QueryRow(ctx,
		`UPDATE personas
		 SET name = $2, emphasized_tags = $3, suppressed_tags = $4,
		     tone_preference = $5, section_order = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING `+personaColumns,
		append([]any{personaID}, args[1:]...)...,
	)
	p, err := scanPersona(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update persona: %w", err)
	}
	return p, nil
}

// DeletePersona removes a persona.
func (db *DB) DeletePersona(ctx context.Context, personaID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM personas WHERE id = $1`, personaID)
	if err != nil {
		return fmt.Errorf("failed to delete persona: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("persona not found: %s", personaID)
	}
	return nil
}
