package out

import (
	"context"
	"time"

	"pomotrack/internal/modules/timer/domain"
)

// TaskLedger writes closed sessions to tasks. RecordSession returns an error
// wrapping apperrors.ErrNotFound when the task no longer exists.
type TaskLedger interface {
	Exists(ctx context.Context, taskID string) (bool, error)
	RecordSession(ctx context.Context, taskID string, start, end time.Time) (domain.Accrual, error)
}

// Notifier is best effort; delivery problems are its own to log.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}

type StateStore interface {
	Load(ctx context.Context) (domain.State, bool, error)
	Save(ctx context.Context, state domain.State) error
}
