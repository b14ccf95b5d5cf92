package out

import (
	"context"
	"fmt"

	"pomotrack/internal/modules/task/domain"
	taskout "pomotrack/internal/modules/task/port/out"
	"pomotrack/internal/platform/clock"
	"pomotrack/internal/platform/kv"
	"pomotrack/internal/platform/logging"

	hclog "github.com/hashicorp/go-hclog"
)

const (
	tasksKey      = "tasks"
	unreadableKey = "tasks.unreadable"
	droppedKey    = "tasks.dropped"
)

type KVTaskRepository struct {
	store kv.Store
	clock clock.Clock
	log   hclog.Logger
}

func NewKVTaskRepository(store kv.Store, log hclog.Logger) taskout.TaskRepository {
	return &KVTaskRepository{store: store, clock: clock.SystemClock{}, log: logging.OrDiscard(log)}
}

// Load never fails on bad data: an unreadable payload is copied aside under
// tasks.unreadable and the collection starts empty. When migration had to
// drop records or sessions, the original payload is copied to tasks.dropped
// before the repaired collection replaces it; if that copy fails the stored
// payload is left untouched.
func (r *KVTaskRepository) Load(ctx context.Context) ([]domain.Task, error) {
	payload, ok, err := r.store.Load(ctx, tasksKey)
	if err != nil {
		r.log.Warn("task store read failed, starting empty", "error", err)
		return []domain.Task{}, nil
	}
	if !ok {
		return []domain.Task{}, nil
	}
	tasks, report, err := domain.MigrateTasks(payload, r.clock.Now())
	if err != nil {
		r.log.Warn("task store payload unreadable, starting empty", "error", err)
		if saveErr := r.store.Save(ctx, unreadableKey, payload); saveErr != nil {
			r.log.Error("could not preserve unreadable task payload", "error", saveErr)
		}
		return []domain.Task{}, nil
	}
	for _, dropped := range report.Dropped {
		r.log.Warn("dropped unrecoverable task record", "record", dropped)
	}
	if report.DroppedSessions > 0 {
		r.log.Warn("dropped unreadable sessions", "count", report.DroppedSessions)
	}
	if report.Lossy() {
		if err := r.store.Save(ctx, droppedKey, payload); err != nil {
			r.log.Error("could not preserve task payload, leaving it unmigrated", "key", droppedKey, "error", err)
			return tasks, nil
		}
		r.log.Warn("original task payload preserved", "key", droppedKey)
	}
	if report.Changed() {
		r.log.Info("migrated task records",
			"from_version", report.FromVersion,
			"to_version", domain.SchemaVersion,
			"backfilled", report.Backfilled,
			"reconciled", report.Reconciled,
			"dropped", len(report.Dropped),
			"dropped_sessions", report.DroppedSessions,
		)
		if err := r.Save(ctx, tasks); err != nil {
			r.log.Warn("could not persist migrated tasks", "error", err)
		}
	}
	return tasks, nil
}

func (r *KVTaskRepository) Save(ctx context.Context, tasks []domain.Task) error {
	payload, err := domain.EncodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := r.store.Save(ctx, tasksKey, payload); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}
