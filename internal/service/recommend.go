package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/shootdesk/backend/internal/models"
)

// CandidateSnapshot is everything one recommendation request reads, taken in
// a single transaction so eligibility is judged against consistent data.
type CandidateSnapshot struct {
	Workers     []models.Worker
	Windows     map[string][]models.AvailabilityWindow
	Assignments map[string][]models.Assignment
	Preferences map[string]models.LocationPreference
}

type RecommendationStore interface {
	GetJob(ctx context.Context, jobID string) (models.Job, error)
	CandidateSnapshot(ctx context.Context, job models.Job) (CandidateSnapshot, error)
}

type RecommendationService struct {
	Store    RecommendationStore
	PoolSize int
	Logger   zerolog.Logger
}

// Recommend evaluates and ranks every assignable worker for the job. Store
// failures propagate as hard errors; treating a failed fetch as "no data"
// would misreport eligibility.
func (s RecommendationService) Recommend(ctx context.Context, jobID string, key SortKey, includeIneligible bool) ([]models.CandidateEvaluation, error) {
	job, err := s.Store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	snap, err := s.Store.CandidateSnapshot(ctx, job)
	if err != nil {
		return nil, err
	}

	inputs := make(map[string]CandidateInputs, len(snap.Workers))
	for _, w := range snap.Workers {
		in := CandidateInputs{
			Windows:     snap.Windows[w.ID],
			Assignments: snap.Assignments[w.ID],
		}
		if pref, ok := snap.Preferences[w.ID]; ok {
			p := pref
			in.Preference = &p
		}
		inputs[w.ID] = in
	}

	evals, err := EvaluateCandidates(job, snap.Workers, inputs, s.PoolSize)
	if err != nil {
		return nil, err
	}

	eligible := 0
	for _, e := range evals {
		if e.Eligible {
			eligible++
		}
	}
	s.Logger.Info().
		Str("job_id", job.ID).
		Int("candidates", len(evals)).
		Int("eligible", eligible).
		Str("sort", string(key)).
		Msg("candidates evaluated")

	return RankCandidates(evals, key, includeIneligible), nil
}
