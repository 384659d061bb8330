package memory

import (
	"context"
	"slices"

	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

func (s *Store) EnqueueJobs(_ context.Context, batch string, kind ports.JobKind, entityIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range entityIDs {
		i := slices.IndexFunc(s.jobs, func(j *job) bool {
			return j.Batch == batch && j.Kind == kind && j.EntityID == id
		})
		if i >= 0 {
			if j := s.jobs[i]; j.status == ports.JobCompleted || j.status == ports.JobFailed {
				j.status = ports.JobQueued
				j.reason = ""
			}
			continue
		}
		s.nextJob++
		s.jobs = append(s.jobs, &job{
			RatingJob: ports.RatingJob{ID: s.nextJob, Batch: batch, Kind: kind, EntityID: id},
			status:    ports.JobQueued,
		})
	}
	return nil
}

// ClaimNext hands out queued jobs in enqueue order.
func (s *Store) ClaimNext(_ context.Context, batch string, kind ports.JobKind) (ports.RatingJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.Batch == batch && j.Kind == kind && j.status == ports.JobQueued {
			j.status = ports.JobRunning
			j.Attempts++
			return j.RatingJob, true, nil
		}
	}
	return ports.RatingJob{}, false, nil
}

func (s *Store) MarkCompleted(_ context.Context, jobID int64) error {
	return s.setStatus(jobID, ports.JobCompleted, "")
}

func (s *Store) MarkFailed(_ context.Context, jobID int64, reason string) error {
	return s.setStatus(jobID, ports.JobFailed, reason)
}

func (s *Store) setStatus(jobID int64, status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.ID == jobID {
			j.status = status
			j.reason = reason
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) ResetJobs(_ context.Context, batch string, retryFailed bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if j.Batch != batch {
			continue
		}
		if j.status == ports.JobRunning || (retryFailed && j.status == ports.JobFailed) {
			j.status = ports.JobQueued
			j.reason = ""
			n++
		}
	}
	return n, nil
}

func (s *Store) CountJobs(_ context.Context, batch string, kind ports.JobKind, status string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if j.Batch == batch && j.Kind == kind && (status == "" || j.status == status) {
			n++
		}
	}
	return n, nil
}
