package in

import (
	"context"

	"pomotrack/internal/modules/timer/dto"
)

type Usecase interface {
	Status(ctx context.Context) (dto.ResultOutput, error)
	Select(ctx context.Context, taskID string) (dto.ResultOutput, error)
	Deselect(ctx context.Context) (dto.ResultOutput, error)
	Start(ctx context.Context) (dto.ResultOutput, error)
	Pause(ctx context.Context) (dto.ResultOutput, error)
	Reset(ctx context.Context) (dto.ResultOutput, error)
	SetDuration(ctx context.Context, seconds int) (dto.ResultOutput, error)
	Tick(ctx context.Context, generation uint64) (dto.ResultOutput, error)
	CatchUp(ctx context.Context) (dto.ResultOutput, error)
	TaskDeleted(ctx context.Context, taskID string) (dto.ResultOutput, error)
}
