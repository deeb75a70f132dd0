package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shootdesk/backend/internal/models"
)

type SortKey string

const (
	SortByScore        SortKey = "score"
	SortBySpecialty    SortKey = "specialty"
	SortByWorkload     SortKey = "workload"
	SortByAvailability SortKey = "availability"
)

// ParseSortKey maps a query-string value to a SortKey, defaulting to score.
func ParseSortKey(value string) (SortKey, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "score":
		return SortByScore, nil
	case "specialty":
		return SortBySpecialty, nil
	case "workload":
		return SortByWorkload, nil
	case "availability":
		return SortByAvailability, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", value)
	}
}

// RankCandidates orders evaluations by the selected key, filtering to
// eligible candidates unless includeIneligible is set. Ties fall back to
// worker ID ascending so output order never depends on fetch order.
func RankCandidates(evals []models.CandidateEvaluation, key SortKey, includeIneligible bool) []models.CandidateEvaluation {
	out := make([]models.CandidateEvaluation, 0, len(evals))
	for _, e := range evals {
		if !includeIneligible && !e.Eligible {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch key {
		case SortBySpecialty:
			if a.SpecialtyMatch != b.SpecialtyMatch {
				return a.SpecialtyMatch
			}
		case SortByWorkload:
			if a.SameDayCount != b.SameDayCount {
				return a.SameDayCount < b.SameDayCount
			}
		case SortByAvailability:
			if a.Breakdown.Availability != b.Breakdown.Availability {
				return a.Breakdown.Availability > b.Breakdown.Availability
			}
		default:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		}
		return a.WorkerID < b.WorkerID
	})
	return out
}
