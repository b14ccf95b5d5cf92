package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pomotrack/internal/modules/timer/domain"
	"pomotrack/internal/modules/timer/service"
	apperrors "pomotrack/internal/platform/errors"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeLedger struct {
	tasks    map[string]int
	sessions []domain.Accrual
	fail     error
}

func newLedger(ids ...string) *fakeLedger {
	l := &fakeLedger{tasks: map[string]int{}}
	for _, id := range ids {
		l.tasks[id] = 0
	}
	return l
}

func (l *fakeLedger) Exists(_ context.Context, id string) (bool, error) {
	_, ok := l.tasks[id]
	return ok, nil
}

func (l *fakeLedger) RecordSession(_ context.Context, id string, start, end time.Time) (domain.Accrual, error) {
	if l.fail != nil {
		return domain.Accrual{}, l.fail
	}
	total, ok := l.tasks[id]
	if !ok {
		return domain.Accrual{}, apperrors.ErrNotFound
	}
	d := int(end.Sub(start) / time.Second)
	l.tasks[id] = total + d
	a := domain.Accrual{TaskID: id, Start: start, End: end, Duration: d, TimeSpent: total + d}
	l.sessions = append(l.sessions, a)
	return a, nil
}

type fakeNotifier struct {
	events []domain.Event
}

func (n *fakeNotifier) Notify(_ context.Context, e domain.Event) {
	n.events = append(n.events, e)
}

type harness struct {
	clock    *fakeClock
	ledger   *fakeLedger
	notifier *fakeNotifier
	coord    *service.Coordinator
}

func newHarness(t *testing.T, seconds int, tasks ...string) *harness {
	t.Helper()
	timer, err := domain.NewTimer(seconds)
	if err != nil {
		t.Fatalf("new timer: %v", err)
	}
	h := &harness{clock: &fakeClock{now: t0}, ledger: newLedger(tasks...), notifier: &fakeNotifier{}}
	h.coord = service.NewCoordinator(timer, h.clock, h.ledger, h.notifier, nil)
	return h
}

func (h *harness) assertInvariant(t *testing.T) {
	t.Helper()
	s := h.coord.State()
	if s.IsRunning != (s.StartTime != nil) {
		t.Fatalf("invariant broken: %+v", s)
	}
}

// tick advances the clock one second and delivers a tick from the live source.
func (h *harness) tick(t *testing.T) service.Result {
	t.Helper()
	h.clock.Advance(time.Second)
	res, err := h.coord.Tick(context.Background(), h.coord.Generation())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	h.assertInvariant(t)
	return res
}

func TestFullCountdownRecordsOneCompletionSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1")
	ctx := context.Background()
	h.coord.Select("task-1")
	if err := h.coord.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	completions := 0
	for i := 0; i < 1500; i++ {
		if h.tick(t).Completed {
			completions++
		}
	}
	for i := 0; i < 3; i++ {
		if h.tick(t).Completed {
			completions++
		}
	}
	if completions != 1 {
		t.Fatalf("expected one completion, got %d", completions)
	}
	s := h.coord.State()
	if s.IsRunning || s.RemainingTime != 0 {
		t.Fatalf("expected stopped at zero, got %+v", s)
	}
	if len(h.ledger.sessions) != 1 || h.ledger.sessions[0].Duration != 1500 {
		t.Fatalf("expected one 1500s session, got %+v", h.ledger.sessions)
	}
	kinds := []domain.EventKind{}
	for _, e := range h.notifier.events {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) != 2 || kinds[0] != domain.EventSessionRecorded || kinds[1] != domain.EventTimerCompleted {
		t.Fatalf("unexpected events %v", kinds)
	}
	if err := h.coord.Start(ctx); !errors.Is(err, apperrors.ErrTimerExpired) {
		t.Fatalf("expected expired after completion, got %v", err)
	}
}

func TestPauseAccruesElapsedAndKeepsRemaining(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1")
	ctx := context.Background()
	h.coord.Select("task-1")
	_ = h.coord.Start(ctx)
	for i := 0; i < 600; i++ {
		h.tick(t)
	}
	remaining := h.coord.State().RemainingTime
	res, err := h.coord.Pause(ctx)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if res.Accrual == nil || res.Accrual.Duration != 600 {
		t.Fatalf("expected 600s accrual, got %+v", res.Accrual)
	}
	if h.coord.State().RemainingTime != remaining || remaining != 900 {
		t.Fatalf("pause must not change remaining, got %d", h.coord.State().RemainingTime)
	}
	h.assertInvariant(t)

	again, err := h.coord.Pause(ctx)
	if err != nil || again.Accrual != nil {
		t.Fatalf("pause when idle must be a silent no-op, got %+v %v", again, err)
	}
	if len(h.ledger.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(h.ledger.sessions))
	}
}

func TestResetWhileRunningAccruesThenRestores(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1")
	ctx := context.Background()
	h.coord.Select("task-1")
	_ = h.coord.Start(ctx)
	h.clock.Advance(300 * time.Second)
	res, err := h.coord.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if res.Accrual == nil || res.Accrual.Duration != 300 {
		t.Fatalf("expected 300s accrual, got %+v", res.Accrual)
	}
	if s := h.coord.State(); s.RemainingTime != 1500 || s.IsRunning {
		t.Fatalf("expected full idle timer, got %+v", s)
	}
	idle, err := h.coord.Reset(ctx)
	if err != nil || idle.Accrual != nil {
		t.Fatalf("idle reset must not accrue, got %+v %v", idle, err)
	}
}

func TestAccrualIsLockedToTheStartingTask(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1", "task-2")
	ctx := context.Background()
	h.coord.Select("task-1")
	_ = h.coord.Start(ctx)
	h.coord.Deselect()
	h.coord.Select("task-2")
	h.clock.Advance(120 * time.Second)
	res, err := h.coord.Pause(ctx)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if res.Accrual == nil || res.Accrual.TaskID != "task-1" {
		t.Fatalf("time must go to the task the run started on, got %+v", res.Accrual)
	}
	if h.ledger.tasks["task-2"] != 0 {
		t.Fatalf("selected task must not receive time")
	}
}

func TestUnselectedRunNeverAccrues(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 60)
	ctx := context.Background()
	if err := h.coord.Start(ctx); err != nil {
		t.Fatalf("start without selection: %v", err)
	}
	for i := 0; i < 60; i++ {
		h.tick(t)
	}
	if len(h.ledger.sessions) != 0 {
		t.Fatalf("unselected run must not accrue")
	}
	if h.coord.State().IsRunning {
		t.Fatalf("completion must still stop the timer")
	}
}

func TestDeletingSelectedTaskClearsSelectionAndLock(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1")
	ctx := context.Background()
	h.coord.Select("task-1")
	_ = h.coord.Start(ctx)
	h.clock.Advance(200 * time.Second)
	delete(h.ledger.tasks, "task-1")
	h.coord.TaskDeleted(ctx, "task-1")
	if h.coord.Selected() != "" {
		t.Fatalf("selection must be cleared")
	}
	if h.coord.State().TaskID != "" {
		t.Fatalf("task lock must be cleared")
	}
	if _, err := h.coord.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if len(h.ledger.sessions) != 0 {
		t.Fatalf("no accrual may happen for a deleted task")
	}
}

func TestAccrualToMissingTaskIsNoOp(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1")
	ctx := context.Background()
	h.coord.Select("task-1")
	_ = h.coord.Start(ctx)
	delete(h.ledger.tasks, "task-1")
	h.clock.Advance(30 * time.Second)
	res, err := h.coord.Pause(ctx)
	if err != nil || res.Accrual != nil {
		t.Fatalf("stale reference must be a silent no-op, got %+v %v", res, err)
	}
	if h.coord.State().IsRunning {
		t.Fatalf("timer should be paused")
	}
}

func TestFailedAccrualKeepsTimerRunningOnPause(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1")
	ctx := context.Background()
	h.coord.Select("task-1")
	_ = h.coord.Start(ctx)
	h.ledger.fail = errors.New("disk full")
	if _, err := h.coord.Pause(ctx); err == nil {
		t.Fatalf("expected pause error")
	}
	if !h.coord.State().IsRunning {
		t.Fatalf("timer must keep running so time is not lost")
	}
}

func TestStaleTickGenerationIsIgnored(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1")
	ctx := context.Background()
	_ = h.coord.Start(ctx)
	oldGen := h.coord.Generation()
	_, _ = h.coord.Pause(ctx)
	_ = h.coord.Start(ctx)
	if h.coord.Generation() == oldGen {
		t.Fatalf("generation must change across running transitions")
	}
	before := h.coord.State().RemainingTime
	res, err := h.coord.Tick(ctx, oldGen)
	if err != nil || !res.Stale {
		t.Fatalf("expected stale tick, got %+v %v", res, err)
	}
	if h.coord.State().RemainingTime != before {
		t.Fatalf("stale tick must not decrement")
	}
}

func TestSetDurationRejectedWhileRunningNeverAccrues(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1")
	ctx := context.Background()
	h.coord.Select("task-1")
	_ = h.coord.Start(ctx)
	if err := h.coord.SetDuration(ctx, 3600); !errors.Is(err, apperrors.ErrTimerRunning) {
		t.Fatalf("expected running rejection, got %v", err)
	}
	_, _ = h.coord.Pause(ctx)
	sessions := len(h.ledger.sessions)
	if err := h.coord.SetDuration(ctx, 3600); err != nil {
		t.Fatalf("set duration idle: %v", err)
	}
	if err := h.coord.SetDuration(ctx, -1); !errors.Is(err, apperrors.ErrInvalidDuration) {
		t.Fatalf("expected invalid duration, got %v", err)
	}
	if len(h.ledger.sessions) != sessions || h.coord.State().Duration != 3600 {
		t.Fatalf("duration change must not accrue and must keep last valid value")
	}
}

func TestCatchUpClosesSessionAtZeroCrossing(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1500, "task-1")
	ctx := context.Background()
	h.coord.Select("task-1")
	_ = h.coord.Start(ctx)
	h.clock.Advance(600 * time.Second)
	res, err := h.coord.CatchUp(ctx)
	if err != nil || res.Completed {
		t.Fatalf("partial catch-up must not complete: %+v %v", res, err)
	}
	if h.coord.State().RemainingTime != 900 {
		t.Fatalf("expected 900 remaining, got %d", h.coord.State().RemainingTime)
	}
	h.clock.Advance(2 * time.Hour)
	res, err = h.coord.CatchUp(ctx)
	if err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if !res.Completed || res.Accrual == nil {
		t.Fatalf("expected completion, got %+v", res)
	}
	if res.Accrual.Duration != 1500 || !res.Accrual.End.Equal(t0.Add(1500*time.Second)) {
		t.Fatalf("session must end at the zero crossing, got %+v", res.Accrual)
	}
	h.assertInvariant(t)
}
