package service

import (
	"github.com/shootdesk/backend/internal/models"
	"github.com/shootdesk/backend/internal/utils"
)

// Ineligibility reasons surfaced to the caller. The two availability reasons
// are deliberately distinct: "no windows at all" and "windows exist but none
// fits" mean different things to a scheduler looking at the candidate list.
const (
	ReasonNoWindows            = "no availability declared for this weekday"
	ReasonWindowMismatch       = "availability window mismatch"
	ReasonLocationNotPermitted = "location not permitted"
	ReasonEvaluationError      = "evaluation error"
)

type AvailabilityMatch struct {
	Contained    bool
	SlackMinutes int
	Reason       string
}

// MatchAvailability checks whether [jobStart, jobEnd] (minutes since midnight)
// is contained in at least one of the worker's active windows for the job's
// weekday. Slack is the largest combined buffer over all qualifying windows.
func MatchAvailability(jobStart, jobEnd int, windows []models.AvailabilityWindow) (AvailabilityMatch, error) {
	activeCount := 0
	contained := false
	maxSlack := 0

	for _, w := range windows {
		if !w.Active {
			continue
		}
		activeCount++

		winStart, err := utils.ParseClock(w.StartTime)
		if err != nil {
			return AvailabilityMatch{}, err
		}
		winEnd, err := utils.ParseClock(w.EndTime)
		if err != nil {
			return AvailabilityMatch{}, err
		}

		if winStart <= jobStart && jobEnd <= winEnd {
			slack := (jobStart - winStart) + (winEnd - jobEnd)
			if !contained || slack > maxSlack {
				maxSlack = slack
			}
			contained = true
		}
	}

	if activeCount == 0 {
		return AvailabilityMatch{Reason: ReasonNoWindows}, nil
	}
	if !contained {
		return AvailabilityMatch{Reason: ReasonWindowMismatch}, nil
	}
	return AvailabilityMatch{Contained: true, SlackMinutes: maxSlack}, nil
}
