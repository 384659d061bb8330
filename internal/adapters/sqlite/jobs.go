package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

func (db *DB) EnqueueJobs(ctx context.Context, batch string, kind ports.JobKind, entityIDs []int64) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range entityIDs {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO rating_jobs (batch, kind, entity_id) VALUES (?, ?, ?)
                ON CONFLICT (batch, kind, entity_id) DO UPDATE SET status = 'queued', reason = ''
                WHERE rating_jobs.status IN ('completed', 'failed')
            `, batch, string(kind), id); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClaimNext flips the oldest queued job to running. The store has a single
// connection, so the update cannot race another claim.
func (db *DB) ClaimNext(ctx context.Context, batch string, kind ports.JobKind) (ports.RatingJob, bool, error) {
	var job ports.RatingJob
	err := db.db.QueryRowContext(ctx, `
        UPDATE rating_jobs SET status = 'running', attempts = attempts + 1
        WHERE id = (
            SELECT id FROM rating_jobs
            WHERE batch = ? AND kind = ? AND status = 'queued'
            ORDER BY id LIMIT 1
        )
        RETURNING id, batch, kind, entity_id, attempts
    `, batch, string(kind)).Scan(&job.ID, &job.Batch, &job.Kind, &job.EntityID, &job.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return job, false, nil
	}
	return job, err == nil, err
}

func (db *DB) MarkCompleted(ctx context.Context, jobID int64) error {
	return db.finish(ctx, jobID, ports.JobCompleted, "")
}

func (db *DB) MarkFailed(ctx context.Context, jobID int64, reason string) error {
	return db.finish(ctx, jobID, ports.JobFailed, reason)
}

func (db *DB) finish(ctx context.Context, jobID int64, status, reason string) error {
	res, err := db.db.ExecContext(ctx, `UPDATE rating_jobs SET status = ?, reason = ? WHERE id = ?`, status, reason, jobID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) ResetJobs(ctx context.Context, batch string, retryFailed bool) (int, error) {
	res, err := db.db.ExecContext(ctx, `
        UPDATE rating_jobs SET status = 'queued', reason = ''
        WHERE batch = ? AND (status = 'running' OR (? AND status = 'failed'))
    `, batch, retryFailed)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (db *DB) CountJobs(ctx context.Context, batch string, kind ports.JobKind, status string) (int, error) {
	var n int
	err := db.db.QueryRowContext(ctx, `
        SELECT count(*) FROM rating_jobs
        WHERE batch = ? AND kind = ? AND (? = '' OR status = ?)
    `, batch, string(kind), status, status).Scan(&n)
	return n, err
}
