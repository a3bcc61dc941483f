package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-pipeline/internal/types"
)

const resumeColumns = `id, user_id, snapshot_id, jd_text, jd_parsed, fit_score, latex_source, pdf_key, status, latest_job_id, created_at, updated_at`

func scanResume(row pgx.Row) (*types.Resume, error) {
	var r types.Resume
	var parsedJSON []byte
	var latex, pdfKey *string
	err := row.Scan(&r.ID, &r.UserID, &r.SnapshotID, &r.JDText, &parsedJSON, &r.FitScore,
		&latex, &pdfKey, &r.Status, &r.LatestJobID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if latex != nil {
		r.LatexSource = *latex
	}
	if pdfKey != nil {
		r.PDFKey = *pdfKey
	}
	if len(parsedJSON) > 0 {
		if err := json.Unmarshal(parsedJSON, &r.JDParsed); err != nil {
			return nil, fmt.Errorf("failed to decode jd_parsed: %w", err)
		}
	}
	return &r, nil
}

// CreateResumeWithBullets persists a draft resume and its accepted bullets
// in a single transaction: either all of it commits or none of it does.
func (db *DB) CreateResumeWithBullets(ctx context.Context, r *types.Resume, bullets []types.ResumeBullet) (*types.Resume, error) {
	parsedJSON, err := json.Marshal(r.JDParsed)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jd_parsed: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRow(ctx,
		`INSERT INTO resumes (user_id, snapshot_id, jd_text, jd_parsed, fit_score, latex_source, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'draft')
		 RETURNING `+resumeColumns,
		r.UserID, r.SnapshotID, r.JDText, parsedJSON, r.FitScore, r.LatexSource,
	)
	created, err := scanResume(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert resume: %w", err)
	}

	for _, b := range bullets {
		_, err := tx.Exec(ctx,
			`INSERT INTO resume_bullets
			     (resume_id, section, bullet_text, source_entry_id, grounding_score, line_count)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			created.ID, b.Section, b.Text, b.SourceEntryID, b.GroundingScore, b.LineCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert resume bullet: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit resume: %w", err)
	}
	return created, nil
}

// GetResume retrieves a resume by id. Returns nil, nil when not found.
func (db *DB) GetResume(ctx context.Context, resumeID uuid.UUID) (*types.Resume, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1`,
		resumeID,
	)
	r, err := scanResume(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return r, nil
}

// ListResumes returns a user's resumes, newest first.
func (db *DB) ListResumes(ctx context.Context, userID uuid.UUID) ([]types.Resume, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []types.Resume
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, *r)
	}
	return resumes, rows.Err()
}

// GetResumeBullets returns the accepted bullets of a resume in creation order.
func (db *DB) GetResumeBullets(ctx context.Context, resumeID uuid.UUID) ([]types.ResumeBullet, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, resume_id, section, bullet_text, source_entry_id, grounding_score,
		        is_user_edited, line_count, created_at
		 FROM resume_bullets WHERE resume_id = $1 ORDER BY created_at, id`,
		resumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query resume bullets: %w", err)
	}
	defer rows.Close()

	var bullets []types.ResumeBullet
	for rows.Next() {
		var b types.ResumeBullet
		if err := rows.Scan(&b.ID, &b.ResumeID, &b.Section, &b.Text, &b.SourceEntryID,
			&b.GroundingScore, &b.IsUserEdited, &b.LineCount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume bullet: %w", err)
		}
		bullets = append(bullets, b)
	}
	return bullets, rows.Err()
}

// UpdateBulletText applies a user edit to a bullet and marks it
// user-edited. Edited bullets are exempt from re-validation.
func (db *DB) UpdateBulletText(ctx context.Context, bulletID uuid.UUID, text string) (*types.ResumeBullet, error) {
	var b types.ResumeBullet
	err := db.pool.QueryRow(ctx,
		`UPDATE resume_bullets
		 SET bullet_text = $2, is_user_edited = TRUE
		 WHERE id = $1
		 RETURNING id, resume_id, section, bullet_text, source_entry_id, grounding_score,
		           is_user_edited, line_count, created_at`,
		bulletID, text,
	).Scan(&b.ID, &b.ResumeID, &b.Section, &b.Text, &b.SourceEntryID,
		&b.GroundingScore, &b.IsUserEdited, &b.LineCount, &b.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update bullet: %w", err)
	}
	return &b, nil
}

// LatexSource returns the stored LaTeX source for a resume.
func (db *DB) LatexSource(ctx context.Context, resumeID uuid.UUID) (string, error) {
	var latex *string
	err := db.pool.QueryRow(ctx,
		`SELECT latex_source FROM resumes WHERE id = $1`, resumeID,
	).Scan(&latex)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("resume not found: %s", resumeID)
		}
		return "", fmt.Errorf("failed to get latex source: %w", err)
	}
	if latex == nil {
		return "", fmt.Errorf("resume %s has no latex source", resumeID)
	}
	return *latex, nil
}
