package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shootdesk/backend/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	t.Cleanup(store.Close)

	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS locations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS workers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			specialties TEXT[] NOT NULL DEFAULT '{}',
			preferred_technique TEXT NOT NULL DEFAULT '',
			rating DOUBLE PRECISION,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			shoot_date DATE NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			location_id TEXT NOT NULL,
			technique TEXT NOT NULL DEFAULT '',
			assigned_worker_id TEXT,
			assigned_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS availability_windows (
			worker_id TEXT NOT NULL,
			week_start DATE NOT NULL,
			weekday INT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS location_preferences (
			worker_id TEXT NOT NULL,
			location_id TEXT NOT NULL,
			preferred BOOLEAN NOT NULL,
			PRIMARY KEY (worker_id, location_id)
		)`,
		`CREATE TABLE IF NOT EXISTS assignments (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			worker_id TEXT NOT NULL,
			shoot_date DATE NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			cancelled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`TRUNCATE locations, workers, jobs, availability_windows, location_preferences, assignments`,
	}
	for _, stmt := range stmts {
		if _, err := store.Pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	return store
}

func seedJobAndWorkers(t *testing.T, store *Store) models.Job {
	t.Helper()
	ctx := context.Background()

	job := models.Job{
		ID:         "JOB-0001",
		ShootDate:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  "09:00",
		EndTime:    "11:00",
		LocationID: "studio-1",
		Technique:  "PPT",
	}
	if _, err := store.InsertJobs(ctx, []models.Job{job}); err != nil {
		t.Fatalf("insert jobs: %v", err)
	}
	workers := []models.Worker{
		{ID: "w1", Name: "Kim", Category: "employee", Specialties: []string{"PPT"}, Active: true, UpdatedAt: time.Now().UTC()},
		{ID: "w2", Name: "Park", Category: "freelance", Active: true, UpdatedAt: time.Now().UTC()},
		{ID: "w3", Name: "Lee", Category: "employee", Active: false, UpdatedAt: time.Now().UTC()},
	}
	if _, err := store.InsertWorkers(ctx, workers); err != nil {
		t.Fatalf("insert workers: %v", err)
	}
	return job
}

func TestCandidateSnapshotIntegration(t *testing.T) {
	store := testStore(t)
	job := seedJobAndWorkers(t, store)
	ctx := context.Background()

	windows := []models.AvailabilityWindow{
		{WorkerID: "w1", WeekStart: job.ShootDate, Weekday: 0, StartTime: "08:00", EndTime: "18:00", Active: true},
		// wrong weekday, must not appear
		{WorkerID: "w1", WeekStart: job.ShootDate, Weekday: 1, StartTime: "08:00", EndTime: "18:00", Active: true},
		// inactive, must not appear
		{WorkerID: "w2", WeekStart: job.ShootDate, Weekday: 0, StartTime: "08:00", EndTime: "18:00", Active: false},
	}
	if _, err := store.InsertAvailabilityWindows(ctx, windows); err != nil {
		t.Fatalf("insert windows: %v", err)
	}
	if _, err := store.InsertLocationPreferences(ctx, []models.LocationPreference{
		{WorkerID: "w2", LocationID: "studio-1", Preferred: false},
		{WorkerID: "w1", LocationID: "academy-1", Preferred: true},
	}); err != nil {
		t.Fatalf("insert prefs: %v", err)
	}

	snap, err := store.CandidateSnapshot(ctx, job)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if len(snap.Workers) != 2 {
		t.Fatalf("inactive workers must be excluded, got %d", len(snap.Workers))
	}
	if len(snap.Windows["w1"]) != 1 {
		t.Errorf("expected 1 window for w1, got %d", len(snap.Windows["w1"]))
	}
	if len(snap.Windows["w2"]) != 0 {
		t.Errorf("inactive window leaked for w2")
	}
	if _, ok := snap.Preferences["w1"]; ok {
		t.Errorf("preference for a different location leaked for w1")
	}
	if p, ok := snap.Preferences["w2"]; !ok || p.Preferred {
		t.Errorf("expected opt-out preference for w2, got %+v", p)
	}
}

func TestCommitAssignmentIntegration(t *testing.T) {
	store := testStore(t)
	job := seedJobAndWorkers(t, store)
	ctx := context.Background()

	a1, j1, created, err := store.CommitAssignment(ctx, job.ID, "w1")
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if !created || a1.WorkerID != "w1" || j1.LocationID != "studio-1" {
		t.Fatalf("unexpected first commit: created=%v a=%+v j=%+v", created, a1, j1)
	}

	// same pair again: success, no new row
	a2, _, created, err := store.CommitAssignment(ctx, job.ID, "w1")
	if err != nil {
		t.Fatalf("repeat commit: %v", err)
	}
	if created {
		t.Fatalf("repeat commit must not create")
	}
	if a2.ID != a1.ID {
		t.Fatalf("repeat commit must report the existing assignment, got %s vs %s", a2.ID, a1.ID)
	}

	// different worker: conflict naming the holder
	_, _, _, err = store.CommitAssignment(ctx, job.ID, "w2")
	var conflict *AssignmentConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if conflict.HolderID != "w1" {
		t.Fatalf("conflict holder = %q, want w1", conflict.HolderID)
	}

	if _, _, _, err := store.CommitAssignment(ctx, "missing", "w1"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestCommitAssignmentRejectsInactiveWorker(t *testing.T) {
	store := testStore(t)
	job := seedJobAndWorkers(t, store)

	if _, _, _, err := store.CommitAssignment(context.Background(), job.ID, "w3"); !errors.Is(err, ErrWorkerNotFound) {
		t.Fatalf("expected ErrWorkerNotFound for inactive worker, got %v", err)
	}
}

func TestCommitAssignmentConcurrent(t *testing.T) {
	store := testStore(t)
	job := seedJobAndWorkers(t, store)
	ctx := context.Background()

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			workerID := fmt.Sprintf("w%d", i%2+1)
			_, _, _, results[i] = store.CommitAssignment(ctx, job.ID, workerID)
		}(i)
	}
	wg.Wait()

	var conflicts int
	for _, err := range results {
		var c *AssignmentConflictError
		switch {
		case err == nil:
		case errors.As(err, &c):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if conflicts == 0 {
		t.Fatalf("expected at least one conflict among racing commits")
	}

	// exactly one active assignment row survives
	var count int
	if err := store.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM assignments WHERE job_id = $1 AND active AND NOT cancelled`, job.ID).Scan(&count); err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 active assignment, got %d", count)
	}
}
