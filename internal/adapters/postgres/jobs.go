package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

func (db *DB) EnqueueJobs(ctx context.Context, batch string, kind ports.JobKind, entityIDs []int64) error {
	if len(entityIDs) == 0 {
		return nil
	}
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO rating_jobs (batch, kind, entity_id)
        SELECT $1, $2, e FROM unnest($3::bigint[]) WITH ORDINALITY AS t(e, n) ORDER BY n
        ON CONFLICT (batch, kind, entity_id) DO UPDATE
            SET status = 'queued', reason = '', queued_at = now(), started_at = NULL, finished_at = NULL
            WHERE rating_jobs.status IN ('completed', 'failed')
    `, batch, string(kind), entityIDs)
	return err
}

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context, batch string, kind ports.JobKind) (job ports.RatingJob, found bool, err error) {
	// Use explicit transaction to safely lock and transition state
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id, batch, kind, entity_id, attempts FROM rating_jobs
        WHERE batch = $1 AND kind = $2 AND status = 'queued'
        ORDER BY id
        FOR UPDATE SKIP LOCKED
        LIMIT 1
    `, batch, string(kind)).Scan(&job.ID, &job.Batch, &job.Kind, &job.EntityID, &job.Attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}

	if _, err = tx.Exec(ctx, `
        UPDATE rating_jobs SET status = 'running', started_at = now(), attempts = attempts + 1 WHERE id = $1
    `, job.ID); err != nil {
		return job, false, err
	}
	job.Attempts++
	return job, true, nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID int64) error {
	return db.finish(ctx, jobID, ports.JobCompleted, "")
}

func (db *DB) MarkFailed(ctx context.Context, jobID int64, reason string) error {
	return db.finish(ctx, jobID, ports.JobFailed, reason)
}

func (db *DB) finish(ctx context.Context, jobID int64, status, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, `
        UPDATE rating_jobs SET status = $2, reason = $3, finished_at = now() WHERE id = $1
    `, jobID, status, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) ResetJobs(ctx context.Context, batch string, retryFailed bool) (int, error) {
	tag, err := db.Pool.Exec(ctx, `
        UPDATE rating_jobs SET status = 'queued', reason = '', started_at = NULL, finished_at = NULL
        WHERE batch = $1 AND (status = 'running' OR ($2 AND status = 'failed'))
    `, batch, retryFailed)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// CountJobs counts jobs of a batch; an empty status counts all of them.
func (db *DB) CountJobs(ctx context.Context, batch string, kind ports.JobKind, status string) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx, `
        SELECT count(*) FROM rating_jobs
        WHERE batch = $1 AND kind = $2 AND ($3 = '' OR status = $3)
    `, batch, string(kind), status).Scan(&n)
	return n, err
}
