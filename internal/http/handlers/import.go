package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"encoding/csv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/shootdesk/backend/internal/models"
	"github.com/shootdesk/backend/internal/service"
	"github.com/shootdesk/backend/internal/utils"
)

type ImportSummary struct {
	Jobs struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"jobs"`
	Workers struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"workers"`
	Availability struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"availability"`
	Locations struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"locations"`
	Preferences struct {
		Parsed   int `json:"parsed"`
		Inserted int `json:"inserted"`
		Errors   int `json:"errors"`
	} `json:"preferences"`
	Errors []string `json:"errors"`
}

// @Summary Import CSV data
// @Description Seed jobs, workers, availability windows, and optionally locations and location preferences
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param jobs formData file true "jobs.csv"
// @Param workers formData file true "workers.csv"
// @Param availability formData file true "availability.csv"
// @Param locations formData file false "locations.csv"
// @Param location_prefs formData file false "location_prefs.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	jobsFile, err := c.FormFile("jobs")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "jobs file required", nil)
		return
	}
	workersFile, err := c.FormFile("workers")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "workers file required", nil)
		return
	}
	availabilityFile, err := c.FormFile("availability")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "availability file required", nil)
		return
	}
	locationsFile, _ := c.FormFile("locations")
	prefsFile, _ := c.FormFile("location_prefs")

	required := []*multipart.FileHeader{jobsFile, workersFile, availabilityFile}
	for _, f := range required {
		if !validateExt(f.Filename) {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
			return
		}
	}
	if locationsFile != nil && !validateExt(locationsFile.Filename) ||
		prefsFile != nil && !validateExt(prefsFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
		return
	}

	summary := ImportSummary{Errors: []string{}}
	ctx := c.Request.Context()

	jobs, errs := parseJobsCSV(jobsFile)
	summary.Jobs.Parsed = len(jobs)
	summary.Jobs.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	workers, errs := parseWorkersCSV(workersFile)
	summary.Workers.Parsed = len(workers)
	summary.Workers.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	windows, errs := parseAvailabilityCSV(availabilityFile)
	summary.Availability.Parsed = len(windows)
	summary.Availability.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	var locations []models.Location
	if locationsFile != nil {
		locations, errs = parseLocationsCSV(locationsFile)
		summary.Locations.Parsed = len(locations)
		summary.Locations.Errors = len(errs)
		summary.Errors = append(summary.Errors, errs...)
	}

	var prefs []models.LocationPreference
	if prefsFile != nil {
		prefs, errs = parsePreferencesCSV(prefsFile)
		summary.Preferences.Parsed = len(prefs)
		summary.Preferences.Errors = len(errs)
		summary.Errors = append(summary.Errors, errs...)
	}

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", summary.Errors)
		return
	}

	err = h.Store.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `TRUNCATE jobs, workers, locations, availability_windows, location_preferences, assignments RESTART IDENTITY`)
		return err
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reset tables", err.Error())
		return
	}

	inserted, err := h.Store.InsertWorkers(ctx, workers)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert workers", err.Error())
		return
	}
	summary.Workers.Inserted = int(inserted)

	if len(locations) > 0 {
		inserted, err = h.Store.InsertLocations(ctx, locations)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert locations", err.Error())
			return
		}
		summary.Locations.Inserted = int(inserted)
	}

	inserted, err = h.Store.InsertJobs(ctx, jobs)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert jobs", err.Error())
		return
	}
	summary.Jobs.Inserted = int(inserted)

	inserted, err = h.Store.InsertAvailabilityWindows(ctx, windows)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert availability windows", err.Error())
		return
	}
	summary.Availability.Inserted = int(inserted)

	if len(prefs) > 0 {
		inserted, err = h.Store.InsertLocationPreferences(ctx, prefs)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert location preferences", err.Error())
			return
		}
		summary.Preferences.Inserted = int(inserted)
	}

	c.JSON(http.StatusOK, summary)
}

func parseJobsCSV(file *multipart.FileHeader) ([]models.Job, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read jobs header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Job

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "job_id", "job id", "촬영id"))
		dateStr := normalizeTrim(getFieldAny(rec, index, "date", "shoot_date", "shoot date", "촬영일", "촬영일자"))
		start := normalizeTrim(getFieldAny(rec, index, "start", "start_time", "start time", "시작", "시작시간"))
		end := normalizeTrim(getFieldAny(rec, index, "end", "end_time", "end time", "종료", "종료시간"))
		locationID := normalizeTrim(getFieldAny(rec, index, "location", "location_id", "site", "장소", "촬영장소"))
		technique := normalizeTrim(getFieldAny(rec, index, "technique", "required_technique", "기법", "촬영기법"))

		if id == "" {
			id = fmt.Sprintf("JOB-%04d", len(out)+1)
		}

		date, err := parseDate(dateStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("job %s: invalid date %q", id, dateStr))
			continue
		}
		startMin, err := utils.ParseClock(start)
		if err != nil {
			errs = append(errs, fmt.Sprintf("job %s: %v", id, err))
			continue
		}
		endMin, err := utils.ParseClock(end)
		if err != nil {
			errs = append(errs, fmt.Sprintf("job %s: %v", id, err))
			continue
		}
		if endMin <= startMin {
			errs = append(errs, fmt.Sprintf("job %s: end %s not after start %s", id, end, start))
			continue
		}
		if locationID == "" {
			errs = append(errs, fmt.Sprintf("job %s: location required", id))
			continue
		}

		out = append(out, models.Job{
			ID:         id,
			ShootDate:  date,
			StartTime:  start,
			EndTime:    end,
			LocationID: locationID,
			Technique:  strings.ToUpper(technique),
		})
	}
	return out, errs
}

func parseWorkersCSV(file *multipart.FileHeader) ([]models.Worker, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read workers header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Worker

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "worker_id", "worker id"))
		name := normalizeTrim(getFieldAny(rec, index, "name", "이름", "성명"))
		category := normalizeTrim(getFieldAny(rec, index, "category", "employment", "구분", "고용형태"))
		specialtiesRaw := normalizeTrim(getFieldAny(rec, index, "specialties", "specialty", "전문분야"))
		preferred := normalizeTrim(getFieldAny(rec, index, "preferred_technique", "preferred technique", "선호기법"))
		ratingStr := normalizeTrim(getFieldAny(rec, index, "rating", "평점"))
		activeStr := normalizeTrim(getFieldAny(rec, index, "active", "활성"))

		if id == "" {
			id = fmt.Sprintf("WRK-%03d", len(out)+1)
		}
		if name == "" {
			errs = append(errs, fmt.Sprintf("worker %s: name required", id))
			continue
		}

		var rating *float64
		if ratingStr != "" {
			r, err := strconv.ParseFloat(ratingStr, 64)
			if err != nil || r < 0 || r > 5 {
				errs = append(errs, fmt.Sprintf("worker %s: invalid rating %q", id, ratingStr))
				continue
			}
			rating = &r
		}

		active := true
		if activeStr != "" {
			active = parseBool(activeStr)
		}

		out = append(out, models.Worker{
			ID:                 id,
			Name:               name,
			Category:           normalizeCategory(category),
			Specialties:        splitSpecialties(specialtiesRaw),
			PreferredTechnique: strings.ToUpper(preferred),
			Rating:             rating,
			Active:             active,
			UpdatedAt:          time.Now().UTC(),
		})
	}
	return out, errs
}

func parseAvailabilityCSV(file *multipart.FileHeader) ([]models.AvailabilityWindow, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read availability header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.AvailabilityWindow

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		workerID := normalizeTrim(getFieldAny(rec, index, "worker_id", "worker id"))
		weekStartStr := normalizeTrim(getFieldAny(rec, index, "week_start", "week start", "주시작"))
		weekdayStr := normalizeTrim(getFieldAny(rec, index, "weekday", "day", "요일"))
		start := normalizeTrim(getFieldAny(rec, index, "start", "start_time", "시작"))
		end := normalizeTrim(getFieldAny(rec, index, "end", "end_time", "종료"))
		activeStr := normalizeTrim(getFieldAny(rec, index, "active", "활성"))

		if workerID == "" {
			errs = append(errs, "availability row: worker_id required")
			continue
		}
		weekStart, err := parseDate(weekStartStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("availability for %s: invalid week_start %q", workerID, weekStartStr))
			continue
		}
		weekday, err := parseWeekday(weekdayStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("availability for %s: %v", workerID, err))
			continue
		}
		startMin, err := utils.ParseClock(start)
		if err != nil {
			errs = append(errs, fmt.Sprintf("availability for %s: %v", workerID, err))
			continue
		}
		endMin, err := utils.ParseClock(end)
		if err != nil {
			errs = append(errs, fmt.Sprintf("availability for %s: %v", workerID, err))
			continue
		}
		if endMin <= startMin {
			errs = append(errs, fmt.Sprintf("availability for %s: end %s not after start %s", workerID, end, start))
			continue
		}

		active := true
		if activeStr != "" {
			active = parseBool(activeStr)
		}

		out = append(out, models.AvailabilityWindow{
			WorkerID:  workerID,
			WeekStart: utils.WeekStart(weekStart),
			Weekday:   weekday,
			StartTime: start,
			EndTime:   end,
			Active:    active,
		})
	}
	return out, errs
}

func parseLocationsCSV(file *multipart.FileHeader) ([]models.Location, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read locations header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Location

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "location_id"))
		name := normalizeTrim(getFieldAny(rec, index, "name", "이름", "장소명"))
		kind := normalizeTrim(getFieldAny(rec, index, "kind", "type", "구분"))

		if id == "" {
			id = strings.ToLower(strings.ReplaceAll(name, " ", "-"))
			if id == "" {
				id = fmt.Sprintf("loc-%d", len(out)+1)
			}
		}
		if name == "" {
			errs = append(errs, fmt.Sprintf("location %s: name required", id))
			continue
		}

		out = append(out, models.Location{
			ID:   id,
			Name: name,
			Kind: normalizeLocationKind(kind),
		})
	}
	return out, errs
}

func parsePreferencesCSV(file *multipart.FileHeader) ([]models.LocationPreference, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read location_prefs header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.LocationPreference

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		workerID := normalizeTrim(getFieldAny(rec, index, "worker_id", "worker id"))
		locationID := normalizeTrim(getFieldAny(rec, index, "location_id", "location"))
		preferredStr := normalizeTrim(getFieldAny(rec, index, "preferred", "is_preferred", "선호"))

		if workerID == "" || locationID == "" {
			errs = append(errs, "location_prefs row: worker_id and location_id required")
			continue
		}

		out = append(out, models.LocationPreference{
			WorkerID:   workerID,
			LocationID: locationID,
			Preferred:  parseBool(preferredStr),
		})
	}
	return out, errs
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, normalizeHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(h))
}

func normalizeTrim(v string) string {
	return strings.TrimSpace(v)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if d, err := time.Parse("2006-01-02", value); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseWeekday(value string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "mon", "monday", "월", "월요일":
		return 0, nil
	case "tue", "tuesday", "화", "화요일":
		return 1, nil
	case "wed", "wednesday", "수", "수요일":
		return 2, nil
	case "thu", "thursday", "목", "목요일":
		return 3, nil
	case "fri", "friday", "금", "금요일":
		return 4, nil
	case "sat", "saturday", "토", "토요일":
		return 5, nil
	case "sun", "sunday", "일", "일요일":
		return 6, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 6 {
		return 0, fmt.Errorf("invalid weekday %q", value)
	}
	return n, nil
}

func normalizeCategory(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "employee", "staff", "직원", "정직원":
		return service.CategoryEmployee
	case "dispatch", "파견", "파견직":
		return service.CategoryDispatch
	case "freelance", "freelancer", "프리랜서":
		return service.CategoryFreelance
	default:
		return v
	}
}

func normalizeLocationKind(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "academy", "아카데미", "학원":
		return "academy"
	case "studio", "스튜디오":
		return "studio"
	default:
		return v
	}
}

func splitSpecialties(raw string) []string {
	raw = strings.ReplaceAll(raw, ";", ",")
	parts := strings.Split(raw, ",")
	seen := map[string]struct{}{}
	var out []string
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "t", "y", "yes", "예":
		return true
	default:
		return false
	}
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv"
}
