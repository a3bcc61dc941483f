package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-pipeline/internal/types"
)

const renderJobColumns = `id, resume_id, status, attempt, worker_id, lease_expires_at, cancel_requested, error_message, created_at, updated_at`

func scanRenderJob(row pgx.Row) (*types.RenderJob, error) {
	var j types.RenderJob
	var workerID, errMsg *string
	err := row.Scan(&j.ID, &j.ResumeID, &j.Status, &j.Attempt, &workerID,
		&j.LeaseExpiresAt, &j.CancelRequested, &errMsg, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if workerID != nil {
		j.WorkerID = *workerID
	}
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	return &j, nil
}

// EnqueueRenderJob creates a queued job for the resume and records it as
// the resume's latest job, atomically. Only the latest job may later
// mutate the resume's rendered state.
func (db *DB) EnqueueRenderJob(ctx context.Context, resumeID uuid.UUID) (*types.RenderJob, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRow(ctx,
		`INSERT INTO render_jobs (resume_id) VALUES ($1) RETURNING `+renderJobColumns,
		resumeID,
	)
	job, err := scanRenderJob(row)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue render job: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE resumes SET latest_job_id = $2, updated_at = now() WHERE id = $1`,
		resumeID, job.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set latest job pointer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("resume not found: %s", resumeID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit enqueue: %w", err)
	}
	return job, nil
}

// ClaimRenderJob atomically claims the oldest queued job for a worker,
// moving it to processing with a lease and an incremented attempt counter.
// Exactly one concurrent claimant wins; everyone else gets nil, nil.
func (db *DB) ClaimRenderJob(ctx context.Context, workerID string, lease time.Duration) (*types.RenderJob, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE render_jobs
		 SET status = 'processing', worker_id = $1, attempt = attempt + 1,
		     lease_expires_at = now() + $2, updated_at = now()
		 WHERE id = (
		     SELECT id FROM render_jobs
		     WHERE status = 'queued'
		     ORDER BY created_at
		     FOR UPDATE SKIP LOCKED
		     LIMIT 1
		 )
		 RETURNING `+renderJobColumns,
		workerID, lease,
	)
	job, err := scanRenderJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim render job: %w", err)
	}
	return job, nil
}

// CompleteRenderJob commits a successful typesetting result. The update is
// guarded by the attempt token: a late report from a superseded attempt
// matches zero rows and is discarded (returns false). The resume's
// rendered state mutates only when this job is still the resume's latest,
// atomically with the job transition. A job whose cancellation was
// requested while processing finalizes to failed instead of done.
func (db *DB) CompleteRenderJob(ctx context.Context, jobID uuid.UUID, attempt int, pdfKey string) (bool, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var cancelRequested bool
	var resumeID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT cancel_requested, resume_id FROM render_jobs
		 WHERE id = $1 AND status = 'processing' AND attempt = $2
		 FOR UPDATE`,
		jobID, attempt,
	).Scan(&cancelRequested, &resumeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil // stale attempt; discard
		}
		return false, fmt.Errorf("failed to lock render job: %w", err)
	}

	if cancelRequested {
		if _, err := tx.Exec(ctx,
			`UPDATE render_jobs
			 SET status = 'failed', error_message = 'cancelled by user',
			     lease_expires_at = NULL, updated_at = now()
			 WHERE id = $1`,
			jobID,
		); err != nil {
			return false, fmt.Errorf("failed to finalize cancelled job: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx,
			`UPDATE render_jobs
			 SET status = 'done', lease_expires_at = NULL, updated_at = now()
			 WHERE id = $1`,
			jobID,
		); err != nil {
			return false, fmt.Errorf("failed to complete render job: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE resumes
			 SET status = 'rendered', pdf_key = $3, updated_at = now()
			 WHERE id = $1 AND latest_job_id = $2`,
			resumeID, jobID, pdfKey,
		); err != nil {
			return false, fmt.Errorf("failed to update resume rendered state: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit completion: %w", err)
	}
	return !cancelRequested, nil
}

// FailRenderJob records a hard render failure. Guarded by the attempt
// token like CompleteRenderJob. The resume moves to failed only when the
// job is the resume's latest.
func (db *DB) FailRenderJob(ctx context.Context, jobID uuid.UUID, attempt int, reason string) (bool, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var resumeID uuid.UUID
	err = tx.QueryRow(ctx,
		`UPDATE render_jobs
		 SET status = 'failed', error_message = $3, lease_expires_at = NULL, updated_at = now()
		 WHERE id = $1 AND status = 'processing' AND attempt = $2
		 RETURNING resume_id`,
		jobID, attempt, reason,
	).Scan(&resumeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil // stale attempt; discard
		}
		return false, fmt.Errorf("failed to fail render job: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE resumes SET status = 'failed', updated_at = now()
		 WHERE id = $1 AND latest_job_id = $2`,
		resumeID, jobID,
	); err != nil {
		return false, fmt.Errorf("failed to update resume failed state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit failure: %w", err)
	}
	return true, nil
}

// ReclaimExpiredRenderJobs sweeps processing jobs whose lease expired.
// Jobs under the attempt bound are requeued; jobs at the bound, and jobs
// with a pending cancellation, are forced to failed. Returns the counts of
// requeued and failed jobs.
func (db *DB) ReclaimExpiredRenderJobs(ctx context.Context, maxAttempts int) (requeued, failed int, err error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE render_jobs
		 SET status = 'queued', worker_id = NULL, lease_expires_at = NULL, updated_at = now()
		 WHERE status = 'processing' AND lease_expires_at < now()
		   AND attempt < $1 AND NOT cancel_requested`,
		maxAttempts,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to requeue expired jobs: %w", err)
	}
	requeued = int(tag.RowsAffected())

	rows, err := db.pool.Query(ctx,
		`UPDATE render_jobs
		 SET status = 'failed',
		     error_message = CASE WHEN cancel_requested THEN 'cancelled by user' ELSE 'retries exhausted' END,
		     lease_expires_at = NULL, updated_at = now()
		 WHERE status = 'processing' AND lease_expires_at < now()
		   AND (attempt >= $1 OR cancel_requested)
		 RETURNING id, resume_id`,
		maxAttempts,
	)
	if err != nil {
		return requeued, 0, fmt.Errorf("failed to expire jobs at attempt bound: %w", err)
	}
	defer rows.Close()

	type failedJob struct{ jobID, resumeID uuid.UUID }
	var failedJobs []failedJob
	for rows.Next() {
		var fj failedJob
		if err := rows.Scan(&fj.jobID, &fj.resumeID); err != nil {
			return requeued, 0, fmt.Errorf("failed to scan expired job: %w", err)
		}
		failedJobs = append(failedJobs, fj)
	}
	if err := rows.Err(); err != nil {
		return requeued, 0, fmt.Errorf("failed to read expired jobs: %w", err)
	}

	for _, fj := range failedJobs {
		if _, err := db.pool.Exec(ctx,
			`UPDATE resumes SET status = 'failed', updated_at = now()
			 WHERE id = $1 AND latest_job_id = $2`,
			fj.resumeID, fj.jobID,
		); err != nil {
			return requeued, len(failedJobs), fmt.Errorf("failed to update resume for expired job: %w", err)
		}
	}
	return requeued, len(failedJobs), nil
}

// CancelRenderJob cancels a job. Queued jobs fail immediately; processing
// jobs record cancel intent, finalized when the attempt reports or its
// lease expires. Terminal jobs are returned unchanged.
func (db *DB) CancelRenderJob(ctx context.Context, jobID uuid.UUID) (*types.RenderJob, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE render_jobs
		 SET status = CASE WHEN status = 'queued' THEN 'failed' ELSE status END,
		     error_message = CASE WHEN status = 'queued' THEN 'cancelled by user' ELSE error_message END,
		     cancel_requested = CASE WHEN status IN ('queued', 'processing') THEN TRUE ELSE cancel_requested END,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+renderJobColumns,
		jobID,
	)
	job, err := scanRenderJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to cancel render job: %w", err)
	}
	return job, nil
}

// GetRenderJob retrieves a render job by id. Returns nil, nil when not found.
func (db *DB) GetRenderJob(ctx context.Context, jobID uuid.UUID) (*types.RenderJob, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+renderJobColumns+` FROM render_jobs WHERE id = $1`,
		jobID,
	)
	job, err := scanRenderJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get render job: %w", err)
	}
	return job, nil
}

// ListRenderJobs returns the jobs for a resume, oldest first.
func (db *DB) ListRenderJobs(ctx context.Context, resumeID uuid.UUID) ([]types.RenderJob, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+renderJobColumns+` FROM render_jobs WHERE resume_id = $1 ORDER BY created_at`,
		resumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list render jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.RenderJob
	for rows.Next() {
		j, err := scanRenderJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}
