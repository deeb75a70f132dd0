package service

import (
	"strings"

	"github.com/shootdesk/backend/internal/models"
)

// Worker employment categories. Unknown categories are expected during data
// migration and score a zero bonus rather than failing.
const (
	CategoryEmployee  = "employee"
	CategoryDispatch  = "dispatch"
	CategoryFreelance = "freelance"
)

const (
	slackCapMinutes   = 60
	preferredLocScore = 25
	neutralLocScore   = 15
	maxWorkloadScore  = 20
	workloadPenalty   = 5
	specialtyBonus    = 25
	maxRatingScore    = 5
	defaultRating     = 5
	maxTotalScore     = 100
)

type ScoreInput struct {
	Worker       models.Worker
	Technique    string
	SlackMinutes int
	SameDayCount int
	Preference   *models.LocationPreference
}

// ScoreCandidate computes the component scores for an eligible candidate.
// The components sum to at most 115; the total is clamped to 100.
func ScoreCandidate(in ScoreInput) (models.ScoreBreakdown, float64) {
	var b models.ScoreBreakdown

	slack := in.SlackMinutes
	if slack > slackCapMinutes {
		slack = slackCapMinutes
	}
	b.Availability = float64(slack) / 2

	switch {
	case in.Preference == nil:
		b.Location = neutralLocScore
	case in.Preference.Preferred:
		b.Location = preferredLocScore
	default:
		// Explicit opt-out rows fail eligibility before scoring.
		b.Location = 0
	}

	workload := maxWorkloadScore - workloadPenalty*in.SameDayCount
	if workload < 0 {
		workload = 0
	}
	b.Workload = float64(workload)

	switch in.Worker.Category {
	case CategoryEmployee:
		b.CategoryBonus = 10
	case CategoryDispatch:
		b.CategoryBonus = 7
	case CategoryFreelance:
		b.CategoryBonus = 5
	default:
		b.CategoryBonus = 0
	}

	if MatchesSpecialty(in.Worker, in.Technique) {
		b.Specialty = specialtyBonus
	}

	rating := float64(defaultRating)
	if in.Worker.Rating != nil {
		rating = *in.Worker.Rating
	}
	if rating > maxRatingScore {
		rating = maxRatingScore
	}
	b.Rating = rating

	total := b.Availability + b.Location + b.Workload + b.CategoryBonus + b.Specialty + b.Rating
	if total > maxTotalScore {
		total = maxTotalScore
	}
	return b, total
}

// MatchesSpecialty reports whether the job's required technique is in the
// worker's specialty set or equals their preferred technique.
func MatchesSpecialty(w models.Worker, technique string) bool {
	t := strings.TrimSpace(technique)
	if t == "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(w.PreferredTechnique), t) {
		return true
	}
	for _, s := range w.Specialties {
		if strings.EqualFold(strings.TrimSpace(s), t) {
			return true
		}
	}
	return false
}
