package out

import (
	"context"
	"errors"
	"time"

	taskdto "pomotrack/internal/modules/task/dto"
	taskin "pomotrack/internal/modules/task/port/in"
	"pomotrack/internal/modules/timer/domain"
	timerout "pomotrack/internal/modules/timer/port/out"
	apperrors "pomotrack/internal/platform/errors"
)

type TaskLedgerAdapter struct {
	tasks taskin.Usecase
}

func NewTaskLedgerAdapter(tasks taskin.Usecase) timerout.TaskLedger {
	return &TaskLedgerAdapter{tasks: tasks}
}

func (a *TaskLedgerAdapter) Exists(ctx context.Context, taskID string) (bool, error) {
	_, err := a.tasks.Get(ctx, taskID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *TaskLedgerAdapter) RecordSession(ctx context.Context, taskID string, start, end time.Time) (domain.Accrual, error) {
	out, err := a.tasks.AppendSession(ctx, taskdto.AppendSessionInput{TaskID: taskID, Start: start, End: end})
	if err != nil {
		return domain.Accrual{}, err
	}
	return domain.Accrual{
		TaskID:    out.TaskID,
		Start:     out.Session.StartTime,
		End:       out.Session.EndTime,
		Duration:  out.Session.Duration,
		TimeSpent: out.TimeSpent,
	}, nil
}
