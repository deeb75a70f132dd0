package service

import (
	"strings"
	"testing"

	"github.com/shootdesk/backend/internal/models"
)

func assignment(jobID, start, end string) models.Assignment {
	return models.Assignment{JobID: jobID, WorkerID: "w1", StartTime: start, EndTime: end, Active: true}
}

func TestOverlapsHalfOpen(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     int
		want                           bool
	}{
		{"back to back never conflicts", 540, 600, 600, 660, false},
		{"reverse back to back", 600, 660, 540, 600, false},
		{"one minute overlap always conflicts", 540, 601, 600, 660, true},
		{"full containment", 540, 720, 600, 660, true},
		{"identical ranges", 540, 660, 540, 660, true},
		{"disjoint", 540, 600, 720, 780, false},
	}
	for _, c := range cases {
		if got := Overlaps(c.aStart, c.aEnd, c.bStart, c.bEnd); got != c.want {
			t.Errorf("%s: Overlaps(%d,%d,%d,%d) = %v, want %v", c.name, c.aStart, c.aEnd, c.bStart, c.bEnd, got, c.want)
		}
	}
}

func TestDetectConflictNamesTheJob(t *testing.T) {
	// job 09:00-11:00 vs existing 10:00-12:00
	res, err := DetectConflict(540, 660, []models.Assignment{assignment("JOB-0007", "10:00", "12:00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Conflict {
		t.Fatalf("expected conflict, got %+v", res)
	}
	if res.Conflicting == nil || res.Conflicting.JobID != "JOB-0007" {
		t.Fatalf("expected conflicting assignment JOB-0007, got %+v", res.Conflicting)
	}
	if !strings.Contains(res.Reason, "JOB-0007") || !strings.Contains(res.Reason, "10:00-12:00") {
		t.Fatalf("reason should name the conflicting job and range, got %q", res.Reason)
	}
}

func TestDetectConflictBackToBack(t *testing.T) {
	others := []models.Assignment{
		assignment("JOB-1", "07:00", "09:00"),
		assignment("JOB-2", "11:00", "13:00"),
	}
	res, err := DetectConflict(540, 660, others)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Conflict {
		t.Fatalf("back-to-back assignments must not conflict, got %+v", res)
	}
}

func TestDetectConflictSkipsCancelledAndInactive(t *testing.T) {
	cancelled := assignment("JOB-1", "10:00", "12:00")
	cancelled.Cancelled = true
	inactive := assignment("JOB-2", "10:00", "12:00")
	inactive.Active = false

	res, err := DetectConflict(540, 660, []models.Assignment{cancelled, inactive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Conflict {
		t.Fatalf("cancelled/inactive assignments must not conflict, got %+v", res)
	}
}

func TestDetectConflictReturnsFirstOverlap(t *testing.T) {
	others := []models.Assignment{
		assignment("JOB-1", "10:00", "12:00"),
		assignment("JOB-2", "10:30", "11:30"),
	}
	res, err := DetectConflict(540, 660, others)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Conflict || res.Conflicting.JobID != "JOB-1" {
		t.Fatalf("expected first overlap JOB-1, got %+v", res)
	}
}

func TestCountActive(t *testing.T) {
	cancelled := assignment("JOB-1", "10:00", "12:00")
	cancelled.Cancelled = true
	inactive := assignment("JOB-2", "10:00", "12:00")
	inactive.Active = false

	n := CountActive([]models.Assignment{
		assignment("JOB-3", "07:00", "08:00"),
		assignment("JOB-4", "12:00", "13:00"),
		cancelled,
		inactive,
	})
	if n != 2 {
		t.Fatalf("expected 2 active assignments, got %d", n)
	}
}
