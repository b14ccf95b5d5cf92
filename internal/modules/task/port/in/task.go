package in

import (
	"context"

	"pomotrack/internal/modules/task/dto"
)

type Usecase interface {
	Create(ctx context.Context, input dto.CreateInput) (dto.TaskOutput, error)
	Get(ctx context.Context, id string) (dto.TaskDetailOutput, error)
	List(ctx context.Context, input dto.ListInput) (dto.ListOutput, error)
	Update(ctx context.Context, input dto.UpdateInput) (dto.TaskOutput, error)
	ToggleStatus(ctx context.Context, id string) (dto.TaskOutput, error)
	Delete(ctx context.Context, id string) error
	AppendSession(ctx context.Context, input dto.AppendSessionInput) (dto.AppendSessionOutput, error)
	Export(ctx context.Context, id string) (dto.ExportOutput, error)
}
