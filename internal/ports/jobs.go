package ports

import "context"

// JobKind is the entity a rating job rates.
type JobKind string

const (
	JobUrl          JobKind = "url"
	JobOrganization JobKind = "organization"
)

type RatingJob struct {
	ID       int64
	Batch    string
	Kind     JobKind
	EntityID int64
	Attempts int
}

// JobRepository is the ledger of a recompute batch. There is at most one
// job per (batch, kind, entity).
type JobRepository interface {
	// EnqueueJobs queues a job per entity. Finished jobs of the same entity
	// are queued again; running ones are left alone.
	EnqueueJobs(ctx context.Context, batch string, kind JobKind, entityIDs []int64) error
	ClaimNext(ctx context.Context, batch string, kind JobKind) (job RatingJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID int64) error
	MarkFailed(ctx context.Context, jobID int64, reason string) error
	// ResetJobs puts running jobs (and failed ones when retryFailed is set)
	// back in the queue. It returns how many jobs were reset.
	ResetJobs(ctx context.Context, batch string, retryFailed bool) (int, error)
	CountJobs(ctx context.Context, batch string, kind JobKind, status string) (int, error)
}

const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)
