package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pomotrack/internal/modules/timer/domain"
	timerout "pomotrack/internal/modules/timer/port/out"
	"pomotrack/internal/platform/clock"
	apperrors "pomotrack/internal/platform/errors"
	"pomotrack/internal/platform/logging"

	hclog "github.com/hashicorp/go-hclog"
)

// Result describes one coordinator step.
type Result struct {
	Accrual   *domain.Accrual
	Completed bool
	Stale     bool
}

// Coordinator binds the selected task to the timer and turns stop-class
// transitions into recorded sessions. Callers serialize access.
type Coordinator struct {
	timer    *domain.Timer
	clock    clock.Clock
	ledger   timerout.TaskLedger
	notifier timerout.Notifier
	log      hclog.Logger

	selected   string
	generation uint64
}

func NewCoordinator(timer *domain.Timer, clock clock.Clock, ledger timerout.TaskLedger, notifier timerout.Notifier, log hclog.Logger) *Coordinator {
	return &Coordinator{
		timer:    timer,
		clock:    clock,
		ledger:   ledger,
		notifier: notifier,
		log:      logging.OrDiscard(log),
	}
}

// Restore replaces the timer with persisted state. The selection is kept.
func (c *Coordinator) Restore(state domain.State) error {
	timer, err := domain.Restore(state)
	if err != nil {
		return err
	}
	c.timer = timer
	c.generation++
	return nil
}

func (c *Coordinator) Select(taskID string) {
	c.selected = taskID
}

func (c *Coordinator) Deselect() {
	c.selected = ""
}

func (c *Coordinator) Selected() string {
	return c.selected
}

// Generation identifies the live tick source. It changes whenever the timer
// starts or stops running.
func (c *Coordinator) Generation() uint64 {
	return c.generation
}

func (c *Coordinator) State() domain.State {
	return c.timer.Snapshot()
}

func (c *Coordinator) Start(_ context.Context) error {
	if err := c.timer.Start(c.clock.Now(), c.selected); err != nil {
		return err
	}
	c.generation++
	c.log.Debug("timer started", "task", c.selected, "remaining_s", c.timer.Snapshot().RemainingTime)
	return nil
}

// Pause closes the open session onto its task. A failed write leaves the
// timer running so the time is not lost.
func (c *Coordinator) Pause(ctx context.Context) (Result, error) {
	open, ok := c.timer.Open()
	if !ok {
		return Result{}, nil
	}
	accrual, err := c.accrue(ctx, open, c.clock.Now())
	if err != nil {
		return Result{}, err
	}
	if err := c.timer.Pause(); err != nil {
		return Result{}, err
	}
	c.generation++
	return Result{Accrual: accrual}, nil
}

func (c *Coordinator) Reset(ctx context.Context) (Result, error) {
	result := Result{}
	if open, ok := c.timer.Open(); ok {
		accrual, err := c.accrue(ctx, open, c.clock.Now())
		if err != nil {
			return Result{}, err
		}
		result.Accrual = accrual
		c.generation++
	}
	c.timer.Reset()
	return result, nil
}

func (c *Coordinator) SetDuration(_ context.Context, seconds int) error {
	return c.timer.SetDuration(seconds)
}

// Tick applies one tick from the source identified by generation. Ticks from
// any other source are dropped.
func (c *Coordinator) Tick(ctx context.Context, generation uint64) (Result, error) {
	if generation != c.generation {
		return Result{Stale: true}, nil
	}
	open, ok := c.timer.Open()
	if !ok || !c.timer.Tick() {
		return Result{}, nil
	}
	return c.complete(ctx, open, c.clock.Now())
}

// CatchUp applies the ticks wall time says are owed, e.g. when a run started
// by another process is resumed. A crossing found here closes the session at
// the instant the countdown hit zero.
func (c *Coordinator) CatchUp(ctx context.Context) (Result, error) {
	open, ok := c.timer.Open()
	if !ok {
		return Result{}, nil
	}
	owed := c.timer.TicksOwed(c.clock.Now())
	if !c.timer.Advance(owed) {
		return Result{}, nil
	}
	end := open.Start.Add(time.Duration(c.timer.Snapshot().ElapsedTicks) * time.Second)
	return c.complete(ctx, open, end)
}

// TaskDeleted forgets every reference to taskID so no later accrual can
// target it. The timer itself keeps running.
func (c *Coordinator) TaskDeleted(_ context.Context, taskID string) {
	if c.selected == taskID {
		c.selected = ""
	}
	if c.timer.ReleaseTask(taskID) {
		c.log.Debug("released timer task lock", "task", taskID)
	}
}

func (c *Coordinator) complete(ctx context.Context, open domain.Open, end time.Time) (Result, error) {
	accrual, accrueErr := c.accrue(ctx, open, end)
	if err := c.timer.Pause(); err != nil {
		return Result{}, err
	}
	c.generation++
	c.log.Info("timer completed", "task", open.TaskID, "duration_s", c.timer.Snapshot().Duration)
	c.notify(ctx, domain.Event{
		Kind:     domain.EventTimerCompleted,
		At:       end,
		TaskID:   open.TaskID,
		Duration: c.timer.Snapshot().Duration,
		Session:  accrual,
	})
	result := Result{Accrual: accrual, Completed: true}
	if accrueErr != nil {
		c.log.Error("completion session not recorded", "task", open.TaskID, "error", accrueErr)
		return result, accrueErr
	}
	return result, nil
}

// accrue writes the open session to its task. Unbound runs and tasks that no
// longer exist record nothing.
func (c *Coordinator) accrue(ctx context.Context, open domain.Open, end time.Time) (*domain.Accrual, error) {
	if open.TaskID == "" {
		return nil, nil
	}
	accrual, err := c.ledger.RecordSession(ctx, open.TaskID, open.Start, end)
	if errors.Is(err, apperrors.ErrNotFound) {
		c.log.Debug("accrual skipped for missing task", "task", open.TaskID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record session for %s: %w", open.TaskID, err)
	}
	c.notify(ctx, domain.Event{
		Kind:     domain.EventSessionRecorded,
		At:       accrual.End,
		TaskID:   accrual.TaskID,
		Duration: accrual.Duration,
		Session:  &accrual,
	})
	return &accrual, nil
}

func (c *Coordinator) notify(ctx context.Context, event domain.Event) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(ctx, event)
}
