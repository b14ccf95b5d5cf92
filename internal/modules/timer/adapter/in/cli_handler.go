package in

import (
	"context"
	"fmt"

	timerdto "pomotrack/internal/modules/timer/dto"
	timerin "pomotrack/internal/modules/timer/port/in"
	apperrors "pomotrack/internal/platform/errors"
)

type CLIHandler struct {
	usecase timerin.Usecase
}

func NewCLIHandler(usecase timerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Status(ctx context.Context) (timerdto.ResultOutput, error) {
	return h.usecase.Status(ctx)
}

// Start binds the run to taskID when one is given. Selection does not
// outlive the process, so the CLI always names the task it starts.
func (h CLIHandler) Start(ctx context.Context, taskID string) (timerdto.ResultOutput, error) {
	if taskID != "" {
		if _, err := h.usecase.Select(ctx, taskID); err != nil {
			return timerdto.ResultOutput{}, err
		}
	}
	return h.usecase.Start(ctx)
}

// Attach joins a countdown left running by an earlier command, or starts one
// on taskID. A running countdown keeps the task it was started with, so
// naming a different task is refused rather than logging to the wrong one.
func (h CLIHandler) Attach(ctx context.Context, taskID string) (timerdto.ResultOutput, error) {
	out, err := h.usecase.Status(ctx)
	if err != nil {
		return timerdto.ResultOutput{}, err
	}
	if !out.State.IsRunning {
		return h.Start(ctx, taskID)
	}
	if taskID != "" && taskID != out.State.TaskID {
		running := out.State.TaskID
		if running == "" {
			running = "no task"
		}
		return timerdto.ResultOutput{}, fmt.Errorf("%w: already counting down for %s, pause it before starting on %s", apperrors.ErrTimerRunning, running, taskID)
	}
	return out, nil
}

func (h CLIHandler) Pause(ctx context.Context) (timerdto.ResultOutput, error) {
	return h.usecase.Pause(ctx)
}

func (h CLIHandler) Reset(ctx context.Context) (timerdto.ResultOutput, error) {
	return h.usecase.Reset(ctx)
}

func (h CLIHandler) SetDuration(ctx context.Context, seconds int) (timerdto.ResultOutput, error) {
	return h.usecase.SetDuration(ctx, seconds)
}

func (h CLIHandler) CatchUp(ctx context.Context) (timerdto.ResultOutput, error) {
	return h.usecase.CatchUp(ctx)
}

func (h CLIHandler) Tick(ctx context.Context, generation uint64) (timerdto.ResultOutput, error) {
	return h.usecase.Tick(ctx, generation)
}
