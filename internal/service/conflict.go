package service

import (
	"fmt"

	"github.com/shootdesk/backend/internal/models"
	"github.com/shootdesk/backend/internal/utils"
)

type ConflictResult struct {
	Conflict    bool
	Conflicting *models.Assignment
	Reason      string
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back ranges do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// DetectConflict scans the worker's other assignments on the job's date and
// returns the first active, non-cancelled assignment whose time range overlaps
// the job's. There is no need to report every overlap; one is enough to
// disqualify the candidate.
func DetectConflict(jobStart, jobEnd int, others []models.Assignment) (ConflictResult, error) {
	for i := range others {
		a := others[i]
		if !a.Active || a.Cancelled {
			continue
		}
		aStart, err := utils.ParseClock(a.StartTime)
		if err != nil {
			return ConflictResult{}, err
		}
		aEnd, err := utils.ParseClock(a.EndTime)
		if err != nil {
			return ConflictResult{}, err
		}
		if Overlaps(jobStart, jobEnd, aStart, aEnd) {
			return ConflictResult{
				Conflict:    true,
				Conflicting: &others[i],
				Reason:      fmt.Sprintf("schedule conflict with %s (%s-%s)", a.JobID, a.StartTime, a.EndTime),
			}, nil
		}
	}
	return ConflictResult{}, nil
}

// CountActive returns the number of active, non-cancelled assignments in the
// slice. Used as the worker's same-day workload.
func CountActive(assignments []models.Assignment) int {
	n := 0
	for _, a := range assignments {
		if a.Active && !a.Cancelled {
			n++
		}
	}
	return n
}
