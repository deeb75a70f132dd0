package models

import "time"

type Job struct {
	ID               string     `json:"id"`
	ShootDate        time.Time  `json:"shoot_date"`
	StartTime        string     `json:"start_time"`
	EndTime          string     `json:"end_time"`
	LocationID       string     `json:"location_id"`
	Technique        string     `json:"technique"`
	AssignedWorkerID *string    `json:"assigned_worker_id"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
}

func (j Job) Assigned() bool {
	return j.AssignedWorkerID != nil && *j.AssignedWorkerID != ""
}

type Worker struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Category           string    `json:"category"`
	Specialties        []string  `json:"specialties"`
	PreferredTechnique string    `json:"preferred_technique"`
	Rating             *float64  `json:"rating"`
	Active             bool      `json:"active"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type AvailabilityWindow struct {
	WorkerID  string    `json:"worker_id"`
	WeekStart time.Time `json:"week_start"`
	Weekday   int       `json:"weekday"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Active    bool      `json:"active"`
}

type Assignment struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	WorkerID  string    `json:"worker_id"`
	ShootDate time.Time `json:"shoot_date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Active    bool      `json:"active"`
	Cancelled bool      `json:"cancelled"`
	CreatedAt time.Time `json:"created_at"`
}

type LocationPreference struct {
	WorkerID   string `json:"worker_id"`
	LocationID string `json:"location_id"`
	Preferred  bool   `json:"preferred"`
}

type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// ScoreBreakdown carries the per-component scores so the UI can explain
// why a candidate ranked where it did.
type ScoreBreakdown struct {
	Availability  float64 `json:"availability"`
	Location      float64 `json:"location"`
	Workload      float64 `json:"workload"`
	CategoryBonus float64 `json:"category_bonus"`
	Specialty     float64 `json:"specialty"`
	Rating        float64 `json:"rating"`
}

// CandidateEvaluation is computed per recommendation request and never persisted.
type CandidateEvaluation struct {
	WorkerID       string         `json:"worker_id"`
	WorkerName     string         `json:"worker_name"`
	Eligible       bool           `json:"eligible"`
	Reason         string         `json:"reason,omitempty"`
	SpecialtyMatch bool           `json:"specialty_match"`
	SlackMinutes   int            `json:"slack_minutes"`
	SameDayCount   int            `json:"same_day_count"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Score          float64        `json:"score"`
}
