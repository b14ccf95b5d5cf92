package in

import (
	"context"
	"time"

	taskdto "pomotrack/internal/modules/task/dto"
	taskin "pomotrack/internal/modules/task/port/in"
	timerin "pomotrack/internal/modules/timer/port/in"
)

// CLIHandler serves both the cobra commands and the terminal UI. Deleting a
// task also clears any timer reference to it.
type CLIHandler struct {
	usecase taskin.Usecase
	timer   timerin.Usecase
}

func NewCLIHandler(usecase taskin.Usecase, timer timerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase, timer: timer}
}

func (h CLIHandler) Create(ctx context.Context, title, description string, due time.Time, priority string) (taskdto.TaskOutput, error) {
	return h.usecase.Create(ctx, taskdto.CreateInput{Title: title, Description: description, DueDate: due, Priority: priority})
}

func (h CLIHandler) Get(ctx context.Context, id string) (taskdto.TaskDetailOutput, error) {
	return h.usecase.Get(ctx, id)
}

func (h CLIHandler) List(ctx context.Context, status, sortBy string) (taskdto.ListOutput, error) {
	return h.usecase.List(ctx, taskdto.ListInput{Status: status, SortBy: sortBy})
}

func (h CLIHandler) Update(ctx context.Context, input taskdto.UpdateInput) (taskdto.TaskOutput, error) {
	return h.usecase.Update(ctx, input)
}

func (h CLIHandler) ToggleStatus(ctx context.Context, id string) (taskdto.TaskOutput, error) {
	return h.usecase.ToggleStatus(ctx, id)
}

func (h CLIHandler) Delete(ctx context.Context, id string) error {
	if err := h.usecase.Delete(ctx, id); err != nil {
		return err
	}
	if h.timer == nil {
		return nil
	}
	_, err := h.timer.TaskDeleted(ctx, id)
	return err
}

func (h CLIHandler) Export(ctx context.Context, id string) (taskdto.ExportOutput, error) {
	return h.usecase.Export(ctx, id)
}
