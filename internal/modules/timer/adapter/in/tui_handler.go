package in

import (
	"context"

	timerdto "pomotrack/internal/modules/timer/dto"
	timerin "pomotrack/internal/modules/timer/port/in"
)

type TUIHandler struct {
	usecase timerin.Usecase
}

func NewTUIHandler(usecase timerin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Status(ctx context.Context) (timerdto.ResultOutput, error) {
	return h.usecase.Status(ctx)
}

func (h TUIHandler) Select(ctx context.Context, taskID string) (timerdto.ResultOutput, error) {
	return h.usecase.Select(ctx, taskID)
}

func (h TUIHandler) Deselect(ctx context.Context) (timerdto.ResultOutput, error) {
	return h.usecase.Deselect(ctx)
}

func (h TUIHandler) Start(ctx context.Context) (timerdto.ResultOutput, error) {
	return h.usecase.Start(ctx)
}

func (h TUIHandler) Pause(ctx context.Context) (timerdto.ResultOutput, error) {
	return h.usecase.Pause(ctx)
}

func (h TUIHandler) Reset(ctx context.Context) (timerdto.ResultOutput, error) {
	return h.usecase.Reset(ctx)
}

func (h TUIHandler) SetDuration(ctx context.Context, seconds int) (timerdto.ResultOutput, error) {
	return h.usecase.SetDuration(ctx, seconds)
}

func (h TUIHandler) Tick(ctx context.Context, generation uint64) (timerdto.ResultOutput, error) {
	return h.usecase.Tick(ctx, generation)
}
