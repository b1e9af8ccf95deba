package tasklog

import (
	"context"
	"fmt"
	"time"

	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// Recorder appends audit entries. A failed write is logged and dropped so
// auditing never interrupts the cycle that produced the entry.
type Recorder struct {
	store storage.TaskLogStore
	now   func() time.Time
}

// New returns a recorder over store. A nil store yields a recorder that only logs.
func New(store storage.TaskLogStore, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{store: store, now: now}
}

// Record appends one entry.
func (r *Recorder) Record(ctx context.Context, action string, status models.TaskStatus, details string, cause error) {
	if r == nil {
		return
	}
	entry := models.NewTaskLogEntry(action, status, details, cause, r.now())
	if status == models.TaskFailure {
		logging.Errorf("[task] %s failed: %s %v", action, details, cause)
	} else {
		logging.Debugf("[task] %s %s: %s", action, status, details)
	}
	if r.store == nil {
		return
	}
	if err := r.store.Append(ctx, &entry); err != nil {
		logging.Errorf("[task] append %s/%s: %v", action, status, err)
	}
}

// Recordf is Record with a formatted details string.
func (r *Recorder) Recordf(ctx context.Context, action string, status models.TaskStatus, cause error, format string, args ...any) {
	r.Record(ctx, action, status, fmt.Sprintf(format, args...), cause)
}
