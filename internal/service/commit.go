package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/shootdesk/backend/internal/models"
	"github.com/shootdesk/backend/internal/notify"
)

type CommitterStore interface {
	CommitAssignment(ctx context.Context, jobID, workerID string) (models.Assignment, models.Job, bool, error)
}

type CommitService struct {
	Store         CommitterStore
	Notifier      notify.Dispatcher
	Logger        zerolog.Logger
	NotifyTimeout time.Duration
}

// Commit performs the exclusive, idempotent assignment write and, on a newly
// created assignment, dispatches one notification to the assigned worker.
// Notification failure never rolls back the assignment.
func (s *CommitService) Commit(ctx context.Context, jobID, workerID string) (models.Assignment, bool, error) {
	assignment, job, created, err := s.Store.CommitAssignment(ctx, jobID, workerID)
	if err != nil {
		return models.Assignment{}, false, err
	}

	if created && s.Notifier != nil {
		go s.dispatch(assignment, job.LocationID)
	}
	return assignment, created, nil
}

func (s *CommitService) dispatch(a models.Assignment, locationID string) {
	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	// Detached from the request context: the commit has already succeeded.
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	deliveryID, err := s.Notifier.DispatchAssignment(ctx, notify.Notice{
		JobID:      a.JobID,
		WorkerID:   a.WorkerID,
		ShootDate:  a.ShootDate,
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		LocationID: locationID,
	})
	if err != nil {
		s.Logger.Error().Err(err).
			Str("job_id", a.JobID).
			Str("worker_id", a.WorkerID).
			Msg("assignment notification failed")
		return
	}
	s.Logger.Info().
		Str("job_id", a.JobID).
		Str("worker_id", a.WorkerID).
		Str("delivery_id", deliveryID).
		Msg("assignment notification dispatched")
}
