package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pomotrack/internal/modules/task/domain"
	"pomotrack/internal/modules/task/service"
	"pomotrack/internal/platform/clock"
	apperrors "pomotrack/internal/platform/errors"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type seqID struct{ n int }

func (s *seqID) New() string {
	s.n++
	return fmt.Sprintf("task-%d", s.n)
}

type memRepo struct {
	saved   [][]domain.Task
	initial []domain.Task
	failing bool
}

func (r *memRepo) Load(context.Context) ([]domain.Task, error) {
	return r.initial, nil
}

func (r *memRepo) Save(_ context.Context, tasks []domain.Task) error {
	if r.failing {
		return errors.New("disk full")
	}
	r.saved = append(r.saved, tasks)
	return nil
}

func newService(repo *memRepo) *service.TaskService {
	return service.NewTaskService(clock.Func(func() time.Time { return t0 }), &seqID{}, repo)
}

func mustCreate(t *testing.T, svc *service.TaskService, title string, due time.Time, p domain.Priority) domain.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), title, "", due, p)
	if err != nil {
		t.Fatalf("create %s: %v", title, err)
	}
	return task
}

func TestListSortsStablyAndCounts(t *testing.T) {
	t.Parallel()
	svc := newService(&memRepo{})
	ctx := context.Background()
	mustCreate(t, svc, "low early", t0.Add(1*time.Hour), domain.PriorityLow)
	mustCreate(t, svc, "high late", t0.Add(5*time.Hour), domain.PriorityHigh)
	mustCreate(t, svc, "medium a", t0.Add(3*time.Hour), domain.PriorityMedium)
	mustCreate(t, svc, "high early", t0.Add(2*time.Hour), domain.PriorityHigh)
	mustCreate(t, svc, "medium b", t0.Add(3*time.Hour), domain.PriorityMedium)
	if _, err := svc.ToggleStatus(ctx, "task-1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	byPriority, counts, err := svc.List(ctx, "", "priority")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"high late", "high early", "medium a", "medium b", "low early"}
	for i, task := range byPriority {
		if task.Title != want[i] {
			t.Fatalf("priority order %d: want %q got %q", i, want[i], task.Title)
		}
	}
	if counts[domain.StatusComplete] != 1 || counts[domain.StatusIncomplete] != 4 {
		t.Fatalf("unexpected counts %v", counts)
	}

	byDue, _, err := svc.List(ctx, "incomplete", "dueDate")
	if err != nil {
		t.Fatalf("list by due: %v", err)
	}
	want = []string{"high early", "medium a", "medium b", "high late"}
	if len(byDue) != len(want) {
		t.Fatalf("expected %d incomplete tasks, got %d", len(want), len(byDue))
	}
	for i, task := range byDue {
		if task.Title != want[i] {
			t.Fatalf("due order %d: want %q got %q", i, want[i], task.Title)
		}
	}

	byDefault, _, err := svc.List(ctx, "incomplete", "")
	if err != nil {
		t.Fatalf("list with default sort: %v", err)
	}
	for i, task := range byDefault {
		if task.Title != want[i] {
			t.Fatalf("default order should be by due date, %d: want %q got %q", i, want[i], task.Title)
		}
	}

	if _, _, err := svc.List(ctx, "archived", ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid filter error, got %v", err)
	}
	if _, _, err := svc.List(ctx, "", "title"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid sort error, got %v", err)
	}
}

func TestAppendSessionKeepsTotalsAndOtherTasks(t *testing.T) {
	t.Parallel()
	repo := &memRepo{}
	svc := newService(repo)
	ctx := context.Background()
	a := mustCreate(t, svc, "a", t0.Add(time.Hour), domain.PriorityMedium)
	b := mustCreate(t, svc, "b", t0.Add(time.Hour), domain.PriorityMedium)

	updated, session, err := svc.AppendSession(ctx, a.ID, t0, t0.Add(600*time.Second))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if session.Duration != 600 || updated.TimeSpent != 600 {
		t.Fatalf("unexpected accrual %+v %+v", session, updated)
	}
	updated, _, err = svc.AppendSession(ctx, a.ID, t0.Add(time.Hour), t0.Add(time.Hour+300*time.Second))
	if err != nil {
		t.Fatalf("append second: %v", err)
	}
	if updated.TimeSpent != 900 || updated.TimeSpent != updated.SessionTotal() {
		t.Fatalf("expected 900s consistent total, got %d", updated.TimeSpent)
	}
	other, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if other.TimeSpent != 0 || len(other.Sessions) != 0 {
		t.Fatalf("other task must be untouched, got %+v", other)
	}
	last := repo.saved[len(repo.saved)-1]
	if len(last) != 2 || last[0].TimeSpent != 900 {
		t.Fatalf("expected whole collection persisted, got %+v", last)
	}

	if _, _, err := svc.AppendSession(ctx, "missing", t0, t0); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFailedSaveDoesNotCommit(t *testing.T) {
	t.Parallel()
	repo := &memRepo{}
	svc := newService(repo)
	ctx := context.Background()
	task := mustCreate(t, svc, "a", t0.Add(time.Hour), domain.PriorityMedium)
	repo.failing = true
	if _, _, err := svc.AppendSession(ctx, task.ID, t0, t0.Add(time.Minute)); err == nil {
		t.Fatalf("expected save failure")
	}
	if err := svc.Delete(ctx, task.ID); err == nil {
		t.Fatalf("expected delete save failure")
	}
	repo.failing = false
	got, err := svc.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("task should still exist: %v", err)
	}
	if got.TimeSpent != 0 {
		t.Fatalf("failed append must not be visible, got %d", got.TimeSpent)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	t.Parallel()
	svc := newService(&memRepo{})
	ctx := context.Background()
	task := mustCreate(t, svc, "draft", t0.Add(time.Hour), domain.PriorityLow)
	title := "final"
	high := domain.PriorityHigh
	updated, err := svc.Update(ctx, task.ID, service.TaskEdit{Title: &title, Priority: &high})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "final" || updated.Priority != domain.PriorityHigh || !updated.DueDate.Equal(task.DueDate) {
		t.Fatalf("unexpected update %+v", updated)
	}
	blank := "  "
	if _, err := svc.Update(ctx, task.ID, service.TaskEdit{Title: &blank}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("blank title must be rejected, got %v", err)
	}
	if err := svc.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, task.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestLoadsOnceFromRepository(t *testing.T) {
	t.Parallel()
	seed, err := domain.NewTask("seed", "seeded", "", t0.Add(time.Hour), domain.PriorityMedium, t0)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := newService(&memRepo{initial: []domain.Task{seed}})
	got, err := svc.Get(context.Background(), "seed")
	if err != nil || got.Title != "seeded" {
		t.Fatalf("expected seeded task, got %+v err=%v", got, err)
	}
}
