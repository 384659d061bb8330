// Package recompute runs rating jobs for a batch: every url in scope first,
// then every organization owning one of them.
package recompute

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"riskmap/internal/ports"
)

var ErrEmptyScope = errors.New("empty scope: name urls, organizations or domains, or select all")

// Scope selects the urls to rate. Organizations are rated when one of their
// urls is, and when they are named explicitly.
type Scope struct {
	UrlIDs          []int64
	OrganizationIDs []int64
	Domains         []string
	All             bool
}

type Options struct {
	Mode    ports.Mode
	Workers int
	// Limiter throttles job starts. Nil means unthrottled.
	Limiter *rate.Limiter
	// Batch names the ledger entries. Empty picks a name from the clock.
	Batch string
	// Resume re-queues the batch's stale running jobs instead of enqueueing
	// the scope. RetryFailed also re-queues its failed jobs.
	Resume      bool
	RetryFailed bool
	// Progress is called after every finished job.
	Progress func(kind ports.JobKind, done, total int)
}

type PhaseReport struct {
	Completed int
	Failed    int
	Queued    int
}

type Report struct {
	Batch         string
	Urls          PhaseReport
	Organizations PhaseReport
}

func (r Report) Failed() int { return r.Urls.Failed + r.Organizations.Failed }

type Runner struct {
	jobs   ports.JobRepository
	facts  ports.FactRepository
	urls   ports.UrlRater
	orgs   ports.OrganizationRater
	now    ports.Clock
	logger *zap.Logger
}

func New(jobs ports.JobRepository, facts ports.FactRepository, urls ports.UrlRater, orgs ports.OrganizationRater, logger *zap.Logger, now ports.Clock) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Runner{jobs: jobs, facts: facts, urls: urls, orgs: orgs, now: now, logger: logger}
}

// Recompute rates the scope in two phases. The organization phase starts
// only after every url job has finished. A failing job is recorded in the
// ledger and does not stop its siblings; the returned error is reserved for
// ledger and context failures.
func (r *Runner) Recompute(ctx context.Context, scope Scope, opts Options) (Report, error) {
	if _, ok := ports.ParseMode(string(opts.Mode)); !ok {
		return Report{}, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	resuming := opts.Resume || opts.RetryFailed
	batch := opts.Batch
	if batch == "" {
		if resuming {
			return Report{}, errors.New("resuming requires a batch name")
		}
		batch = "rebuild-" + r.now().UTC().Format("20060102T150405Z")
	}
	log := r.logger.With(zap.String("batch", batch), zap.String("mode", string(opts.Mode)))

	if resuming {
		n, err := r.jobs.ResetJobs(ctx, batch, opts.RetryFailed)
		if err != nil {
			return Report{Batch: batch}, fmt.Errorf("failed to reset jobs: %w", err)
		}
		log.Info("resuming batch", zap.Int("requeued", n))
	} else {
		ids, err := r.resolve(ctx, scope)
		if err != nil {
			return Report{Batch: batch}, err
		}
		if err := r.jobs.EnqueueJobs(ctx, batch, ports.JobUrl, ids); err != nil {
			return Report{Batch: batch}, fmt.Errorf("failed to enqueue url jobs: %w", err)
		}
		log.Info("batch queued", zap.Int("urls", len(ids)))
	}

	rated, err := r.drain(ctx, batch, ports.JobUrl, opts, func(ctx context.Context, id int64) error {
		return r.urls.RateUrl(ctx, id, opts.Mode)
	})
	if err != nil {
		return Report{Batch: batch}, err
	}

	orgs, err := r.facts.OrganizationsForUrls(ctx, rated)
	if err != nil {
		return Report{Batch: batch}, fmt.Errorf("failed to resolve organizations: %w", err)
	}
	if !resuming {
		for _, id := range scope.OrganizationIDs {
			if !slices.Contains(orgs, id) {
				orgs = append(orgs, id)
			}
		}
	}
	if err := r.jobs.EnqueueJobs(ctx, batch, ports.JobOrganization, orgs); err != nil {
		return Report{Batch: batch}, fmt.Errorf("failed to enqueue organization jobs: %w", err)
	}
	if _, err := r.drain(ctx, batch, ports.JobOrganization, opts, func(ctx context.Context, id int64) error {
		return r.orgs.RateOrganization(ctx, id, opts.Mode)
	}); err != nil {
		return Report{Batch: batch}, err
	}

	report, err := r.report(ctx, batch)
	if err != nil {
		return report, err
	}
	log.Info("batch finished",
		zap.Int("urls_completed", report.Urls.Completed),
		zap.Int("urls_failed", report.Urls.Failed),
		zap.Int("organizations_completed", report.Organizations.Completed),
		zap.Int("organizations_failed", report.Organizations.Failed))
	return report, nil
}

func (r *Runner) resolve(ctx context.Context, scope Scope) ([]int64, error) {
	filter := ports.UrlFilter{IDs: scope.UrlIDs, OrganizationIDs: scope.OrganizationIDs, Domains: scope.Domains}
	switch {
	case scope.All:
		filter = ports.UrlFilter{}
	case filter.Empty():
		return nil, ErrEmptyScope
	}
	urls, err := r.facts.ListUrls(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	ids := make([]int64, len(urls))
	for i, u := range urls {
		ids[i] = u.ID
	}
	return ids, nil
}

// drain claims queued jobs of one kind until none are left and runs them on
// opts.Workers goroutines. It returns the entities it processed.
func (r *Runner) drain(ctx context.Context, batch string, kind ports.JobKind, opts Options, process func(context.Context, int64) error) ([]int64, error) {
	total, err := r.jobs.CountJobs(ctx, batch, kind, ports.JobQueued)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s jobs: %w", kind, err)
	}

	jobsCh := make(chan ports.RatingJob, opts.Workers)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed []int64
	)
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for job := range jobsCh {
				log := r.logger.With(zap.Int("worker", idx), zap.String("kind", string(kind)), zap.Int64("entity_id", job.EntityID))
				if err := process(ctx, job.EntityID); err != nil {
					if ctx.Err() != nil {
						// left running; a resume re-queues it
						continue
					}
					log.Warn("job failed", zap.Int64("job_id", job.ID), zap.Error(err))
					if err := r.jobs.MarkFailed(ctx, job.ID, err.Error()); err != nil {
						log.Error("failed to mark job failed", zap.Error(err))
					}
				} else if err := r.jobs.MarkCompleted(ctx, job.ID); err != nil {
					log.Error("failed to mark job completed", zap.Error(err))
				}

				mu.Lock()
				processed = append(processed, job.EntityID)
				if opts.Progress != nil {
					opts.Progress(kind, len(processed), total)
				}
				mu.Unlock()
			}
		}(i)
	}

	var claimErr error
	for {
		if opts.Limiter != nil {
			if err := opts.Limiter.Wait(ctx); err != nil {
				claimErr = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			claimErr = err
			break
		}
		job, found, err := r.jobs.ClaimNext(ctx, batch, kind)
		if err != nil {
			claimErr = fmt.Errorf("failed to claim %s job: %w", kind, err)
			break
		}
		if !found {
			break
		}
		jobsCh <- job
	}
	close(jobsCh)
	wg.Wait()

	slices.Sort(processed)
	return processed, claimErr
}

func (r *Runner) report(ctx context.Context, batch string) (Report, error) {
	report := Report{Batch: batch}
	for _, phase := range []struct {
		kind ports.JobKind
		out  *PhaseReport
	}{
		{ports.JobUrl, &report.Urls},
		{ports.JobOrganization, &report.Organizations},
	} {
		for status, n := range map[string]*int{
			ports.JobCompleted: &phase.out.Completed,
			ports.JobFailed:    &phase.out.Failed,
			ports.JobQueued:    &phase.out.Queued,
		} {
			count, err := r.jobs.CountJobs(ctx, batch, phase.kind, status)
			if err != nil {
				return report, fmt.Errorf("failed to count %s jobs: %w", phase.kind, err)
			}
			*n = count
		}
	}
	return report, nil
}
