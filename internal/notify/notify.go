package notify

import (
	"context"
	"time"
)

// Notice describes one assignment event sent to the notification service.
type Notice struct {
	JobID      string    `json:"job_id"`
	WorkerID   string    `json:"worker_id"`
	ShootDate  time.Time `json:"shoot_date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	LocationID string    `json:"location_id"`
}

type Dispatcher interface {
	DispatchAssignment(ctx context.Context, n Notice) (string, error)
}
