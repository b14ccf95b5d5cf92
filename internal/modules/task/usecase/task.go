package usecase

import (
	"context"
	"fmt"
	"strings"

	"pomotrack/internal/modules/task/domain"
	taskdto "pomotrack/internal/modules/task/dto"
	taskin "pomotrack/internal/modules/task/port/in"
	taskout "pomotrack/internal/modules/task/port/out"
	"pomotrack/internal/modules/task/service"
	apperrors "pomotrack/internal/platform/errors"
	"pomotrack/internal/platform/logging"

	hclog "github.com/hashicorp/go-hclog"
)

type Interactor struct {
	svc      *service.TaskService
	exporter taskout.TaskExporter
	log      hclog.Logger
}

func NewInteractor(svc *service.TaskService, exporter taskout.TaskExporter, log hclog.Logger) taskin.Usecase {
	return &Interactor{svc: svc, exporter: exporter, log: logging.OrDiscard(log)}
}

func (i *Interactor) Create(ctx context.Context, input taskdto.CreateInput) (taskdto.TaskOutput, error) {
	priority, err := domain.ParsePriority(input.Priority)
	if err != nil {
		return taskdto.TaskOutput{}, err
	}
	task, err := i.svc.Create(ctx, input.Title, input.Description, input.DueDate, priority)
	if err != nil {
		return taskdto.TaskOutput{}, err
	}
	i.log.Debug("task created", "id", task.ID, "priority", task.Priority)
	return toOutput(task), nil
}

func (i *Interactor) Get(ctx context.Context, id string) (taskdto.TaskDetailOutput, error) {
	if err := requireID(id); err != nil {
		return taskdto.TaskDetailOutput{}, err
	}
	task, err := i.svc.Get(ctx, id)
	if err != nil {
		return taskdto.TaskDetailOutput{}, err
	}
	return toDetail(task), nil
}

func (i *Interactor) List(ctx context.Context, input taskdto.ListInput) (taskdto.ListOutput, error) {
	tasks, counts, err := i.svc.List(ctx, input.Status, input.SortBy)
	if err != nil {
		return taskdto.ListOutput{}, err
	}
	out := taskdto.ListOutput{
		Tasks: make([]taskdto.TaskOutput, 0, len(tasks)),
		Counts: taskdto.StatusCounts{
			Incomplete: counts[domain.StatusIncomplete],
			Complete:   counts[domain.StatusComplete],
		},
	}
	out.Counts.All = out.Counts.Incomplete + out.Counts.Complete
	for _, task := range tasks {
		out.Tasks = append(out.Tasks, toOutput(task))
	}
	return out, nil
}

func (i *Interactor) Update(ctx context.Context, input taskdto.UpdateInput) (taskdto.TaskOutput, error) {
	if err := requireID(input.ID); err != nil {
		return taskdto.TaskOutput{}, err
	}
	edit := service.TaskEdit{Title: input.Title, Description: input.Description, DueDate: input.DueDate}
	if input.Priority != nil {
		priority, err := domain.ParsePriority(*input.Priority)
		if err != nil {
			return taskdto.TaskOutput{}, err
		}
		edit.Priority = &priority
	}
	task, err := i.svc.Update(ctx, input.ID, edit)
	if err != nil {
		return taskdto.TaskOutput{}, err
	}
	return toOutput(task), nil
}

func (i *Interactor) ToggleStatus(ctx context.Context, id string) (taskdto.TaskOutput, error) {
	if err := requireID(id); err != nil {
		return taskdto.TaskOutput{}, err
	}
	task, err := i.svc.ToggleStatus(ctx, id)
	if err != nil {
		return taskdto.TaskOutput{}, err
	}
	i.log.Debug("task status toggled", "id", task.ID, "status", task.Status)
	return toOutput(task), nil
}

func (i *Interactor) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := i.svc.Delete(ctx, id); err != nil {
		return err
	}
	i.log.Debug("task deleted", "id", id)
	return nil
}

func (i *Interactor) AppendSession(ctx context.Context, input taskdto.AppendSessionInput) (taskdto.AppendSessionOutput, error) {
	if err := requireID(input.TaskID); err != nil {
		return taskdto.AppendSessionOutput{}, err
	}
	if input.Start.IsZero() || input.End.IsZero() {
		return taskdto.AppendSessionOutput{}, fmt.Errorf("%w: session bounds are required", apperrors.ErrInvalidInput)
	}
	task, session, err := i.svc.AppendSession(ctx, input.TaskID, input.Start, input.End)
	if err != nil {
		return taskdto.AppendSessionOutput{}, err
	}
	i.log.Info("session recorded", "task", task.ID, "duration_s", session.Duration, "time_spent_s", task.TimeSpent)
	return taskdto.AppendSessionOutput{
		TaskID:    task.ID,
		Session:   toSessionOutput(session),
		TimeSpent: task.TimeSpent,
	}, nil
}

func (i *Interactor) Export(ctx context.Context, id string) (taskdto.ExportOutput, error) {
	if err := requireID(id); err != nil {
		return taskdto.ExportOutput{}, err
	}
	if i.exporter == nil {
		return taskdto.ExportOutput{}, fmt.Errorf("task exporter is not configured")
	}
	task, err := i.svc.Get(ctx, id)
	if err != nil {
		return taskdto.ExportOutput{}, err
	}
	path, err := i.exporter.Export(ctx, task)
	if err != nil {
		return taskdto.ExportOutput{}, err
	}
	return taskdto.ExportOutput{TaskID: task.ID, Path: path}, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: task id is required", apperrors.ErrInvalidInput)
	}
	return nil
}

func toOutput(task domain.Task) taskdto.TaskOutput {
	return taskdto.TaskOutput{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		DueDate:      task.DueDate,
		Priority:     string(task.Priority),
		Status:       string(task.Status),
		CreatedAt:    task.CreatedAt,
		CompletedAt:  task.CompletedAt,
		TimeSpent:    task.TimeSpent,
		SessionCount: len(task.Sessions),
	}
}

func toDetail(task domain.Task) taskdto.TaskDetailOutput {
	out := taskdto.TaskDetailOutput{TaskOutput: toOutput(task), Sessions: make([]taskdto.SessionOutput, 0, len(task.Sessions))}
	for _, session := range task.Sessions {
		out.Sessions = append(out.Sessions, toSessionOutput(session))
	}
	return out
}

func toSessionOutput(session domain.TaskSession) taskdto.SessionOutput {
	return taskdto.SessionOutput{StartTime: session.StartTime, EndTime: session.EndTime, Duration: session.Duration}
}
