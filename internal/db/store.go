package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shootdesk/backend/internal/models"
	"github.com/shootdesk/backend/internal/service"
	"github.com/shootdesk/backend/internal/utils"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrWorkerNotFound = errors.New("worker not found or inactive")
)

// AssignmentConflictError is returned when a commit targets a job already
// held by a different worker. The caller must re-fetch and retry; the store
// never overwrites an active assignment.
type AssignmentConflictError struct {
	JobID       string
	RequestedID string
	HolderID    string
}

func (e *AssignmentConflictError) Error() string {
	return fmt.Sprintf("job %s already assigned to worker %s", e.JobID, e.HolderID)
}

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertJobs(ctx context.Context, jobs []models.Job) (int64, error) {
	rows := make([][]any, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []any{j.ID, j.ShootDate, j.StartTime, j.EndTime, j.LocationID, j.Technique, j.AssignedWorkerID})
	}
	copyCount, err := s.Pool.CopyFrom(ctx, pgx.Identifier{"jobs"}, []string{"id", "shoot_date", "start_time", "end_time", "location_id", "technique", "assigned_worker_id"}, pgx.CopyFromRows(rows))
	return copyCount, err
}

func (s *Store) InsertWorkers(ctx context.Context, workers []models.Worker) (int64, error) {
	rows := make([][]any, 0, len(workers))
	for _, w := range workers {
		rows = append(rows, []any{w.ID, w.Name, w.Category, w.Specialties, w.PreferredTechnique, w.Rating, w.Active, w.UpdatedAt})
	}
	copyCount, err := s.Pool.CopyFrom(ctx, pgx.Identifier{"workers"}, []string{"id", "name", "category", "specialties", "preferred_technique", "rating", "active", "updated_at"}, pgx.CopyFromRows(rows))
	return copyCount, err
}

func (s *Store) InsertLocations(ctx context.Context, locations []models.Location) (int64, error) {
	rows := make([][]any, 0, len(locations))
	for _, l := range locations {
		rows = append(rows, []any{l.ID, l.Name, l.Kind})
	}
	copyCount, err := s.Pool.CopyFrom(ctx, pgx.Identifier{"locations"}, []string{"id", "name", "kind"}, pgx.CopyFromRows(rows))
	return copyCount, err
}

func (s *Store) InsertAvailabilityWindows(ctx context.Context, windows []models.AvailabilityWindow) (int64, error) {
	rows := make([][]any, 0, len(windows))
	for _, w := range windows {
		rows = append(rows, []any{w.WorkerID, w.WeekStart, w.Weekday, w.StartTime, w.EndTime, w.Active})
	}
	copyCount, err := s.Pool.CopyFrom(ctx, pgx.Identifier{"availability_windows"}, []string{"worker_id", "week_start", "weekday", "start_time", "end_time", "active"}, pgx.CopyFromRows(rows))
	return copyCount, err
}

func (s *Store) InsertLocationPreferences(ctx context.Context, prefs []models.LocationPreference) (int64, error) {
	rows := make([][]any, 0, len(prefs))
	for _, p := range prefs {
		rows = append(rows, []any{p.WorkerID, p.LocationID, p.Preferred})
	}
	copyCount, err := s.Pool.CopyFrom(ctx, pgx.Identifier{"location_preferences"}, []string{"worker_id", "location_id", "preferred"}, pgx.CopyFromRows(rows))
	return copyCount, err
}

func (s *Store) ListJobs(ctx context.Context, date, locationID, assigned string, limit, offset int) ([]models.Job, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, shoot_date, start_time, end_time, location_id, technique, assigned_worker_id, assigned_at FROM jobs`
	var args []any
	var wheres []string
	if date != "" {
		args = append(args, date)
		wheres = append(wheres, fmt.Sprintf("shoot_date = $%d", len(args)))
	}
	if locationID != "" {
		args = append(args, locationID)
		wheres = append(wheres, fmt.Sprintf("location_id = $%d", len(args)))
	}
	switch assigned {
	case "assigned":
		wheres = append(wheres, "assigned_worker_id IS NOT NULL")
	case "unassigned":
		wheres = append(wheres, "assigned_worker_id IS NULL")
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY shoot_date ASC, start_time ASC, id ASC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.ShootDate, &j.StartTime, &j.EndTime, &j.LocationID, &j.Technique, &j.AssignedWorkerID, &j.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) GetJob(ctx context.Context, jobID string) (models.Job, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, shoot_date, start_time, end_time, location_id, technique, assigned_worker_id, assigned_at FROM jobs WHERE id = $1`, jobID)
	var j models.Job
	if err := row.Scan(&j.ID, &j.ShootDate, &j.StartTime, &j.EndTime, &j.LocationID, &j.Technique, &j.AssignedWorkerID, &j.AssignedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Job{}, ErrJobNotFound
		}
		return models.Job{}, err
	}
	return j, nil
}

func (s *Store) GetJobDetails(ctx context.Context, jobID string) (map[string]any, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"job": job,
	}

	if job.Assigned() {
		row := s.Pool.QueryRow(ctx, `
			SELECT a.id, a.job_id, a.worker_id, a.shoot_date, a.start_time, a.end_time, a.active, a.cancelled, a.created_at, w.name
			FROM assignments a
			JOIN workers w ON w.id = a.worker_id
			WHERE a.job_id = $1 AND a.active AND NOT a.cancelled
		`, jobID)

		var a models.Assignment
		var workerName string
		if err := row.Scan(&a.ID, &a.JobID, &a.WorkerID, &a.ShootDate, &a.StartTime, &a.EndTime, &a.Active, &a.Cancelled, &a.CreatedAt, &workerName); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
		} else {
			result["assignment"] = a
			result["worker_name"] = workerName
		}
	}
	return result, nil
}

func (s *Store) ListWorkers(ctx context.Context, category, specialty string) ([]models.Worker, error) {
	query := `SELECT id, name, category, specialties, preferred_technique, rating, active, updated_at FROM workers`
	var args []any
	var wheres []string
	if category != "" {
		args = append(args, category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if specialty != "" {
		args = append(args, specialty)
		wheres = append(wheres, fmt.Sprintf("$%d = ANY(specialties)", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Worker
	for rows.Next() {
		var w models.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Category, &w.Specialties, &w.PreferredTechnique, &w.Rating, &w.Active, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, kind FROM locations ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Kind); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CandidateSnapshot reads everything one recommendation request needs inside
// a single repeatable-read transaction, so every candidate is judged against
// the same state.
func (s *Store) CandidateSnapshot(ctx context.Context, job models.Job) (service.CandidateSnapshot, error) {
	snap := service.CandidateSnapshot{
		Windows:     map[string][]models.AvailabilityWindow{},
		Assignments: map[string][]models.Assignment{},
		Preferences: map[string]models.LocationPreference{},
	}

	weekStart := utils.WeekStart(job.ShootDate)
	weekday := utils.WeekdayIndex(job.ShootDate)

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return service.CandidateSnapshot{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `SELECT id, name, category, specialties, preferred_technique, rating, active, updated_at FROM workers WHERE active ORDER BY id ASC`)
	if err != nil {
		return service.CandidateSnapshot{}, err
	}
	for rows.Next() {
		var w models.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Category, &w.Specialties, &w.PreferredTechnique, &w.Rating, &w.Active, &w.UpdatedAt); err != nil {
			rows.Close()
			return service.CandidateSnapshot{}, err
		}
		snap.Workers = append(snap.Workers, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return service.CandidateSnapshot{}, err
	}

	rows, err = tx.Query(ctx, `
		SELECT worker_id, week_start, weekday, start_time, end_time, active
		FROM availability_windows
		WHERE week_start = $1 AND weekday = $2 AND active
	`, weekStart, weekday)
	if err != nil {
		return service.CandidateSnapshot{}, err
	}
	for rows.Next() {
		var w models.AvailabilityWindow
		if err := rows.Scan(&w.WorkerID, &w.WeekStart, &w.Weekday, &w.StartTime, &w.EndTime, &w.Active); err != nil {
			rows.Close()
			return service.CandidateSnapshot{}, err
		}
		snap.Windows[w.WorkerID] = append(snap.Windows[w.WorkerID], w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return service.CandidateSnapshot{}, err
	}

	rows, err = tx.Query(ctx, `
		SELECT id, job_id, worker_id, shoot_date, start_time, end_time, active, cancelled, created_at
		FROM assignments
		WHERE shoot_date = $1 AND job_id <> $2 AND active AND NOT cancelled
	`, job.ShootDate, job.ID)
	if err != nil {
		return service.CandidateSnapshot{}, err
	}
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ID, &a.JobID, &a.WorkerID, &a.ShootDate, &a.StartTime, &a.EndTime, &a.Active, &a.Cancelled, &a.CreatedAt); err != nil {
			rows.Close()
			return service.CandidateSnapshot{}, err
		}
		snap.Assignments[a.WorkerID] = append(snap.Assignments[a.WorkerID], a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return service.CandidateSnapshot{}, err
	}

	rows, err = tx.Query(ctx, `SELECT worker_id, location_id, preferred FROM location_preferences WHERE location_id = $1`, job.LocationID)
	if err != nil {
		return service.CandidateSnapshot{}, err
	}
	for rows.Next() {
		var p models.LocationPreference
		if err := rows.Scan(&p.WorkerID, &p.LocationID, &p.Preferred); err != nil {
			rows.Close()
			return service.CandidateSnapshot{}, err
		}
		snap.Preferences[p.WorkerID] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return service.CandidateSnapshot{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return service.CandidateSnapshot{}, err
	}
	return snap, nil
}

// CommitAssignment binds a worker to a job. The job row lock serializes
// concurrent commits per job: re-submitting the same pair is a no-op success,
// a different active holder yields AssignmentConflictError. The bool result
// reports whether a new assignment row was created.
func (s *Store) CommitAssignment(ctx context.Context, jobID, workerID string) (models.Assignment, models.Job, bool, error) {
	var result models.Assignment
	var job models.Job
	created := false

	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT id, shoot_date, start_time, end_time, location_id, technique, assigned_worker_id FROM jobs WHERE id = $1 FOR UPDATE`, jobID)
		if err := row.Scan(&job.ID, &job.ShootDate, &job.StartTime, &job.EndTime, &job.LocationID, &job.Technique, &job.AssignedWorkerID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrJobNotFound
			}
			return err
		}

		if job.Assigned() {
			if *job.AssignedWorkerID != workerID {
				return &AssignmentConflictError{JobID: jobID, RequestedID: workerID, HolderID: *job.AssignedWorkerID}
			}

			// Idempotent re-submission: report the existing assignment.
			row := tx.QueryRow(ctx, `
				SELECT id, job_id, worker_id, shoot_date, start_time, end_time, active, cancelled, created_at
				FROM assignments
				WHERE job_id = $1 AND worker_id = $2 AND active AND NOT cancelled
			`, jobID, workerID)
			if err := row.Scan(&result.ID, &result.JobID, &result.WorkerID, &result.ShootDate, &result.StartTime, &result.EndTime, &result.Active, &result.Cancelled, &result.CreatedAt); err != nil {
				if !errors.Is(err, pgx.ErrNoRows) {
					return err
				}
			} else {
				return nil
			}
		}

		var active bool
		if err := tx.QueryRow(ctx, `SELECT active FROM workers WHERE id = $1`, workerID).Scan(&active); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrWorkerNotFound
			}
			return err
		}
		if !active {
			return ErrWorkerNotFound
		}

		if _, err := tx.Exec(ctx, `UPDATE jobs SET assigned_worker_id = $1, assigned_at = NOW() WHERE id = $2`, workerID, jobID); err != nil {
			return err
		}

		result = models.Assignment{
			ID:        uuid.NewString(),
			JobID:     jobID,
			WorkerID:  workerID,
			ShootDate: job.ShootDate,
			StartTime: job.StartTime,
			EndTime:   job.EndTime,
			Active:    true,
			Cancelled: false,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO assignments (id, job_id, worker_id, shoot_date, start_time, end_time, active, cancelled, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, result.ID, result.JobID, result.WorkerID, result.ShootDate, result.StartTime, result.EndTime, result.Active, result.Cancelled, result.CreatedAt); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return models.Assignment{}, models.Job{}, false, err
	}
	return result, job, created, nil
}
