package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/shootdesk/backend/internal/db"
	"github.com/shootdesk/backend/internal/service"
)

type Handler struct {
	Store       *db.Store
	Recommender service.RecommendationService
	Committer   *service.CommitService
	Validator   *validator.Validate
	Logger      zerolog.Logger
	AdminKey    string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) JobsList(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	locationID := strings.TrimSpace(c.Query("location_id"))
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if status != "" && status != "assigned" && status != "unassigned" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "status must be assigned or unassigned", nil)
		return
	}

	items, err := h.Store.ListJobs(c.Request.Context(), date, locationID, status, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list jobs", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) JobDetails(c *gin.Context) {
	id := c.Param("id")
	result, err := h.Store.GetJobDetails(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get job", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) WorkersList(c *gin.Context) {
	category := strings.ToLower(strings.TrimSpace(c.Query("category")))
	specialty := strings.TrimSpace(c.Query("specialty"))
	items, err := h.Store.ListWorkers(c.Request.Context(), category, specialty)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list workers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) LocationsList(c *gin.Context) {
	items, err := h.Store.ListLocations(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list locations", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Candidate recommendations for a job
// @Description Evaluates every assignable worker against the job and returns a ranked, explainable candidate list
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Param sort query string false "score | specialty | workload | availability"
// @Param include_ineligible query bool false "Include ineligible candidates with their reasons"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/jobs/{id}/candidates [get]
func (h *Handler) JobCandidates(c *gin.Context) {
	id := c.Param("id")

	sortKey, err := service.ParseSortKey(c.Query("sort"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	include := c.Query("include_ineligible")
	includeIneligible := include == "1" || strings.EqualFold(include, "true")

	evals, err := h.Recommender.Recommend(c.Request.Context(), id, sortKey, includeIneligible)
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to evaluate candidates", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id":             id,
		"sort":               string(sortKey),
		"include_ineligible": includeIneligible,
		"items":              evals,
	})
}

type AssignRequest struct {
	WorkerID string `json:"worker_id" validate:"required"`
}

// @Summary Assign a worker to a job
// @Description Exclusive, idempotent commit; re-submitting the same pair succeeds, a different holder yields a conflict
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/jobs/{id}/assign [post]
func (h *Handler) AssignJob(c *gin.Context) {
	id := c.Param("id")
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	assignment, created, err := h.Committer.Commit(c.Request.Context(), id, req.WorkerID)
	if err != nil {
		var conflict *db.AssignmentConflictError
		switch {
		case errors.As(err, &conflict):
			writeError(c, http.StatusConflict, "ASSIGNMENT_CONFLICT", "Job already assigned to a different worker", gin.H{
				"holder_worker_id": conflict.HolderID,
			})
		case errors.Is(err, db.ErrJobNotFound):
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
		case errors.Is(err, db.ErrWorkerNotFound):
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Worker not found or inactive", nil)
		default:
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to commit assignment", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"created":    created,
		"assignment": assignment,
	})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
