package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/shootdesk/backend/internal/utils"
)

// MockDispatcher records notices and returns deterministic delivery IDs.
// Used when no notification service is configured, and in tests.
type MockDispatcher struct {
	Fail bool

	mu   sync.Mutex
	sent []Notice
}

func (m *MockDispatcher) DispatchAssignment(ctx context.Context, n Notice) (string, error) {
	if m.Fail {
		return "", fmt.Errorf("mock dispatch failure for job %s", n.JobID)
	}
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()

	h := utils.HashStringToUint64(n.JobID + "/" + n.WorkerID)
	return fmt.Sprintf("mock-%016x", h), nil
}

func (m *MockDispatcher) Sent() []Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notice, len(m.sent))
	copy(out, m.sent)
	return out
}
