package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type HTTPDispatcher struct {
	BaseURL string
	Client  *http.Client
}

type requestBody struct {
	JobID      string `json:"job_id"`
	WorkerID   string `json:"worker_id"`
	ShootDate  string `json:"shoot_date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	LocationID string `json:"location_id"`
}

type responseBody struct {
	DeliveryID string `json:"delivery_id"`
}

func (h HTTPDispatcher) DispatchAssignment(ctx context.Context, n Notice) (string, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 10 * time.Second}
	}

	payload := requestBody{
		JobID:      n.JobID,
		WorkerID:   n.WorkerID,
		ShootDate:  n.ShootDate.Format("2006-01-02"),
		StartTime:  n.StartTime,
		EndTime:    n.EndTime,
		LocationID: n.LocationID,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/notifications/assignment", bytes.NewBuffer(b))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New("notification service error")
	}

	var r responseBody
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	return r.DeliveryID, nil
}
