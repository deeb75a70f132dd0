package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/shootdesk/backend/internal/db"
	"github.com/shootdesk/backend/internal/models"
	"github.com/shootdesk/backend/internal/notify"
	"github.com/shootdesk/backend/internal/service"
)

type stubRecommendationStore struct {
	job    models.Job
	jobErr error
	snap   service.CandidateSnapshot
}

func (s *stubRecommendationStore) GetJob(ctx context.Context, jobID string) (models.Job, error) {
	if s.jobErr != nil {
		return models.Job{}, s.jobErr
	}
	return s.job, nil
}

func (s *stubRecommendationStore) CandidateSnapshot(ctx context.Context, job models.Job) (service.CandidateSnapshot, error) {
	return s.snap, nil
}

type stubCommitterStore struct {
	assignment models.Assignment
	job        models.Job
	created    bool
	err        error
}

func (s *stubCommitterStore) CommitAssignment(ctx context.Context, jobID, workerID string) (models.Assignment, models.Job, bool, error) {
	if s.err != nil {
		return models.Assignment{}, models.Job{}, false, s.err
	}
	return s.assignment, s.job, s.created, nil
}

func testRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/jobs/:id/candidates", h.JobCandidates)
	r.POST("/api/jobs/:id/assign", h.AssignJob)
	return r
}

func TestJobCandidatesHandler(t *testing.T) {
	store := &stubRecommendationStore{
		job: models.Job{
			ID:         "JOB-0001",
			ShootDate:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			StartTime:  "09:00",
			EndTime:    "11:00",
			LocationID: "studio-1",
			Technique:  "PPT",
		},
		snap: service.CandidateSnapshot{
			Workers: []models.Worker{
				{ID: "w1", Name: "Kim", Category: "employee", Active: true},
				{ID: "w2", Name: "Park", Category: "freelance", Active: true},
			},
			Windows: map[string][]models.AvailabilityWindow{
				"w1": {{WorkerID: "w1", StartTime: "08:00", EndTime: "18:00", Active: true}},
				"w2": {{WorkerID: "w2", StartTime: "12:00", EndTime: "18:00", Active: true}},
			},
		},
	}
	h := &Handler{
		Recommender: service.RecommendationService{Store: store, Logger: zerolog.Nop()},
		Logger:      zerolog.Nop(),
	}
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/JOB-0001/candidates", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		JobID string                       `json:"job_id"`
		Items []models.CandidateEvaluation `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.JobID != "JOB-0001" {
		t.Errorf("job_id = %q", body.JobID)
	}
	if len(body.Items) != 1 || body.Items[0].WorkerID != "w1" {
		t.Fatalf("expected only eligible w1, got %+v", body.Items)
	}

	// include_ineligible surfaces w2 with its reason
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/jobs/JOB-0001/candidates?include_ineligible=true", nil)
	r.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", body.Items)
	}
	if body.Items[1].WorkerID != "w2" || body.Items[1].Reason == "" {
		t.Fatalf("ineligible candidate must carry a reason, got %+v", body.Items[1])
	}
}

func TestJobCandidatesHandlerErrors(t *testing.T) {
	h := &Handler{
		Recommender: service.RecommendationService{
			Store:  &stubRecommendationStore{jobErr: db.ErrJobNotFound},
			Logger: zerolog.Nop(),
		},
		Logger: zerolog.Nop(),
	}
	r := testRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs/missing/candidates", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs/JOB-0001/candidates?sort=bogus", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown sort key", w.Code)
	}
}

func TestAssignJobHandler(t *testing.T) {
	store := &stubCommitterStore{
		assignment: models.Assignment{ID: "asg-1", JobID: "JOB-0001", WorkerID: "w1"},
		job:        models.Job{ID: "JOB-0001", LocationID: "studio-1"},
		created:    true,
	}
	h := &Handler{
		Committer: &service.CommitService{Store: store, Notifier: &notify.MockDispatcher{}, Logger: zerolog.Nop()},
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/JOB-0001/assign", strings.NewReader(`{"worker_id":"w1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Created    bool              `json:"created"`
		Assignment models.Assignment `json:"assignment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Created || body.Assignment.ID != "asg-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAssignJobHandlerValidation(t *testing.T) {
	h := &Handler{
		Committer: &service.CommitService{Store: &stubCommitterStore{}, Logger: zerolog.Nop()},
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/JOB-0001/assign", strings.NewReader(`{"worker_id":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for empty worker_id", w.Code)
	}
}

func TestAssignJobHandlerConflict(t *testing.T) {
	store := &stubCommitterStore{
		err: &db.AssignmentConflictError{JobID: "JOB-0001", RequestedID: "w2", HolderID: "w1"},
	}
	h := &Handler{
		Committer: &service.CommitService{Store: store, Logger: zerolog.Nop()},
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
	r := testRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/JOB-0001/assign", strings.NewReader(`{"worker_id":"w2"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				HolderWorkerID string `json:"holder_worker_id"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Code != "ASSIGNMENT_CONFLICT" || body.Error.Details.HolderWorkerID != "w1" {
		t.Fatalf("unexpected error body: %s", w.Body.String())
	}
}
