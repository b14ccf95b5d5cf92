package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"pomotrack/internal/modules/task/domain"
	taskout "pomotrack/internal/modules/task/port/out"
	"pomotrack/internal/platform/clock"
	apperrors "pomotrack/internal/platform/errors"
	"pomotrack/internal/platform/id"
)

// TaskService owns the in-memory collection. Every mutation replaces one task
// by id, persists the whole collection and only then commits in memory.
type TaskService struct {
	clock clock.Clock
	idGen id.Generator
	repo  taskout.TaskRepository

	mu     sync.Mutex
	tasks  []domain.Task
	loaded bool
}

func NewTaskService(clock clock.Clock, idGen id.Generator, repo taskout.TaskRepository) *TaskService {
	return &TaskService{clock: clock, idGen: idGen, repo: repo}
}

type TaskEdit struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *domain.Priority
}

func (s *TaskService) Create(ctx context.Context, title, description string, due time.Time, priority domain.Priority) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Task{}, err
	}
	task, err := domain.NewTask(s.idGen.New(), title, description, due, priority, s.clock.Now())
	if err != nil {
		return domain.Task{}, err
	}
	next := append(s.snapshot(), task)
	if err := s.commit(ctx, next); err != nil {
		return domain.Task{}, err
	}
	return task.Clone(), nil
}

func (s *TaskService) Get(ctx context.Context, id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Task{}, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, fmt.Errorf("task %s: %w", id, apperrors.ErrNotFound)
	}
	return s.tasks[idx].Clone(), nil
}

// List filters by status ("" or "all" keeps everything) and sorts stably so
// ties keep insertion order. Due date is the default order.
func (s *TaskService) List(ctx context.Context, status, sortBy string) ([]domain.Task, map[domain.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, nil, err
	}
	switch status {
	case "", "all", string(domain.StatusIncomplete), string(domain.StatusComplete):
	default:
		return nil, nil, fmt.Errorf("%w: unsupported status filter %q", apperrors.ErrInvalidInput, status)
	}

	counts := map[domain.Status]int{}
	out := make([]domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		counts[task.Status]++
		if status != "" && status != "all" && string(task.Status) != status {
			continue
		}
		out = append(out, task.Clone())
	}

	switch sortBy {
	case "", "dueDate", "due":
		slices.SortStableFunc(out, func(a, b domain.Task) int {
			return a.DueDate.Compare(b.DueDate)
		})
	case "priority":
		slices.SortStableFunc(out, func(a, b domain.Task) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		})
	default:
		return nil, nil, fmt.Errorf("%w: unsupported sort %q", apperrors.ErrInvalidInput, sortBy)
	}
	return out, counts, nil
}

func (s *TaskService) Update(ctx context.Context, id string, edit TaskEdit) (domain.Task, error) {
	return s.mutate(ctx, id, func(task domain.Task) (domain.Task, error) {
		if edit.Title != nil {
			task.Title = strings.TrimSpace(*edit.Title)
		}
		if edit.Description != nil {
			task.Description = *edit.Description
		}
		if edit.DueDate != nil {
			task.DueDate = edit.DueDate.UTC()
		}
		if edit.Priority != nil {
			task.Priority = *edit.Priority
		}
		return task, nil
	})
}

func (s *TaskService) ToggleStatus(ctx context.Context, id string) (domain.Task, error) {
	return s.mutate(ctx, id, func(task domain.Task) (domain.Task, error) {
		return task.ToggleStatus(s.clock.Now()), nil
	})
}

// AppendSession records one closed timer run against the task.
func (s *TaskService) AppendSession(ctx context.Context, id string, start, end time.Time) (domain.Task, domain.TaskSession, error) {
	var session domain.TaskSession
	task, err := s.mutate(ctx, id, func(task domain.Task) (domain.Task, error) {
		var updated domain.Task
		updated, session = domain.RecordSession(task, start, end)
		return updated, nil
	})
	if err != nil {
		return domain.Task{}, domain.TaskSession{}, err
	}
	return task, session, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("task %s: %w", id, apperrors.ErrNotFound)
	}
	next := slices.Delete(s.snapshot(), idx, idx+1)
	return s.commit(ctx, next)
}

func (s *TaskService) mutate(ctx context.Context, id string, fn func(domain.Task) (domain.Task, error)) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Task{}, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, fmt.Errorf("task %s: %w", id, apperrors.ErrNotFound)
	}
	updated, err := fn(s.tasks[idx].Clone())
	if err != nil {
		return domain.Task{}, err
	}
	if err := updated.Validate(); err != nil {
		return domain.Task{}, err
	}
	next := s.snapshot()
	next[idx] = updated
	if err := s.commit(ctx, next); err != nil {
		return domain.Task{}, err
	}
	return updated.Clone(), nil
}

func (s *TaskService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	tasks, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.tasks = tasks
	s.loaded = true
	return nil
}

func (s *TaskService) commit(ctx context.Context, next []domain.Task) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return err
	}
	s.tasks = next
	return nil
}

func (s *TaskService) snapshot() []domain.Task {
	out := make([]domain.Task, len(s.tasks), len(s.tasks)+1)
	copy(out, s.tasks)
	return out
}

func (s *TaskService) indexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(task domain.Task) bool { return task.ID == id })
}
