package service

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/shootdesk/backend/internal/models"
	"github.com/shootdesk/backend/internal/utils"
)

// CandidateInputs holds the per-worker rows a single evaluation depends on:
// the worker's windows for the job's (week-start, weekday), their other
// assignments on the job's date, and their preference row for the job's
// location (nil when absent).
type CandidateInputs struct {
	Windows     []models.AvailabilityWindow
	Assignments []models.Assignment
	Preference  *models.LocationPreference
}

// EvaluateCandidates evaluates every worker against the job concurrently and
// returns one evaluation per worker in input order. Evaluations are
// independent, so completion order does not matter; one worker's bad data
// becomes an ineligible result instead of aborting the batch.
func EvaluateCandidates(job models.Job, workers []models.Worker, inputs map[string]CandidateInputs, poolSize int) ([]models.CandidateEvaluation, error) {
	jobStart, err := utils.ParseClock(job.StartTime)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}
	jobEnd, err := utils.ParseClock(job.EndTime)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}
	if jobEnd <= jobStart {
		return nil, fmt.Errorf("job %s: end time %s not after start time %s", job.ID, job.EndTime, job.StartTime)
	}

	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}
	if poolSize > len(workers) {
		poolSize = len(workers)
	}

	results := make([]models.CandidateEvaluation, len(workers))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < poolSize; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = evaluateOne(job, jobStart, jobEnd, workers[i], inputs[workers[i].ID])
			}
		}()
	}
	for i := range workers {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results, nil
}

func evaluateOne(job models.Job, jobStart, jobEnd int, worker models.Worker, in CandidateInputs) (eval models.CandidateEvaluation) {
	eval = models.CandidateEvaluation{
		WorkerID:       worker.ID,
		WorkerName:     worker.Name,
		SpecialtyMatch: MatchesSpecialty(worker, job.Technique),
		SameDayCount:   CountActive(in.Assignments),
	}

	// A panic while evaluating one candidate must not take down the batch.
	defer func() {
		if r := recover(); r != nil {
			eval.Eligible = false
			eval.Reason = ReasonEvaluationError
			eval.Score = 0
			eval.Breakdown = models.ScoreBreakdown{}
		}
	}()

	match, err := MatchAvailability(jobStart, jobEnd, in.Windows)
	if err != nil {
		eval.Reason = ReasonEvaluationError
		return eval
	}
	if !match.Contained {
		eval.Reason = match.Reason
		return eval
	}
	eval.SlackMinutes = match.SlackMinutes

	conflict, err := DetectConflict(jobStart, jobEnd, in.Assignments)
	if err != nil {
		eval.Reason = ReasonEvaluationError
		return eval
	}
	if conflict.Conflict {
		eval.Reason = conflict.Reason
		return eval
	}

	if in.Preference != nil && !in.Preference.Preferred {
		eval.Reason = ReasonLocationNotPermitted
		return eval
	}

	eval.Eligible = true
	eval.Breakdown, eval.Score = ScoreCandidate(ScoreInput{
		Worker:       worker,
		Technique:    job.Technique,
		SlackMinutes: match.SlackMinutes,
		SameDayCount: eval.SameDayCount,
		Preference:   in.Preference,
	})
	return eval
}
