package out

import (
	"context"

	"pomotrack/internal/modules/task/domain"
)

// TaskRepository persists the whole collection at once.
type TaskRepository interface {
	Load(ctx context.Context) ([]domain.Task, error)
	Save(ctx context.Context, tasks []domain.Task) error
}

type TaskExporter interface {
	Export(ctx context.Context, task domain.Task) (string, error)
}
