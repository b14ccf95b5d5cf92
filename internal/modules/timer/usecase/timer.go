package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pomotrack/internal/modules/timer/domain"
	timerdto "pomotrack/internal/modules/timer/dto"
	timerin "pomotrack/internal/modules/timer/port/in"
	timerout "pomotrack/internal/modules/timer/port/out"
	"pomotrack/internal/modules/timer/service"
	apperrors "pomotrack/internal/platform/errors"
	"pomotrack/internal/platform/logging"

	hclog "github.com/hashicorp/go-hclog"
)

// Interactor persists timer state around each operation so separate CLI
// invocations see one timer. State is loaded once per process; a run left
// going by an earlier process is caught up by wall clock at that point.
// Every method holds mu for its whole run.
type Interactor struct {
	mu      sync.Mutex
	coord   *service.Coordinator
	ledger  timerout.TaskLedger
	store   timerout.StateStore
	presets []int
	log     hclog.Logger

	loaded bool
}

func NewInteractor(coord *service.Coordinator, ledger timerout.TaskLedger, store timerout.StateStore, presets []int, log hclog.Logger) timerin.Usecase {
	if len(presets) == 0 {
		presets = domain.Presets
	}
	return &Interactor{coord: coord, ledger: ledger, store: store, presets: presets, log: logging.OrDiscard(log)}
}

func (i *Interactor) Status(ctx context.Context) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	result, err := i.ensureLoaded(ctx)
	if err != nil {
		return timerdto.ResultOutput{}, err
	}
	return i.output(result), nil
}

func (i *Interactor) Select(ctx context.Context, taskID string) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	result, err := i.ensureLoaded(ctx)
	if err != nil {
		return timerdto.ResultOutput{}, err
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return timerdto.ResultOutput{}, fmt.Errorf("%w: task id is required", apperrors.ErrInvalidInput)
	}
	ok, err := i.ledger.Exists(ctx, taskID)
	if err != nil {
		return timerdto.ResultOutput{}, err
	}
	if !ok {
		return timerdto.ResultOutput{}, fmt.Errorf("task %s: %w", taskID, apperrors.ErrNotFound)
	}
	i.coord.Select(taskID)
	return i.output(result), nil
}

func (i *Interactor) Deselect(ctx context.Context) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	result, err := i.ensureLoaded(ctx)
	if err != nil {
		return timerdto.ResultOutput{}, err
	}
	i.coord.Deselect()
	return i.output(result), nil
}

func (i *Interactor) Start(ctx context.Context) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mutate(ctx, func() (service.Result, error) {
		return service.Result{}, i.coord.Start(ctx)
	})
}

func (i *Interactor) Pause(ctx context.Context) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mutate(ctx, func() (service.Result, error) {
		return i.coord.Pause(ctx)
	})
}

func (i *Interactor) Reset(ctx context.Context) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mutate(ctx, func() (service.Result, error) {
		return i.coord.Reset(ctx)
	})
}

func (i *Interactor) SetDuration(ctx context.Context, seconds int) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mutate(ctx, func() (service.Result, error) {
		return service.Result{}, i.coord.SetDuration(ctx, seconds)
	})
}

// Tick persists only when the tick completed the countdown; between ticks
// the stored start time is enough to reconstruct progress.
func (i *Interactor) Tick(ctx context.Context, generation uint64) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, err := i.ensureLoaded(ctx); err != nil {
		return timerdto.ResultOutput{}, err
	}
	result, err := i.coord.Tick(ctx, generation)
	if result.Completed {
		if saveErr := i.save(ctx); saveErr != nil && err == nil {
			err = saveErr
		}
	}
	if err != nil {
		return i.output(result), err
	}
	return i.output(result), nil
}

func (i *Interactor) CatchUp(ctx context.Context) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	loaded, err := i.ensureLoaded(ctx)
	if err != nil {
		return timerdto.ResultOutput{}, err
	}
	if loaded.Completed {
		return i.output(loaded), nil
	}
	return i.mutate(ctx, func() (service.Result, error) {
		return i.coord.CatchUp(ctx)
	})
}

func (i *Interactor) TaskDeleted(ctx context.Context, taskID string) (timerdto.ResultOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mutate(ctx, func() (service.Result, error) {
		i.coord.TaskDeleted(ctx, taskID)
		return service.Result{}, nil
	})
}

// mutate runs op and saves the resulting state. A completion that failed to
// record still stopped the timer, so state is saved before the error returns.
func (i *Interactor) mutate(ctx context.Context, op func() (service.Result, error)) (timerdto.ResultOutput, error) {
	loaded, err := i.ensureLoaded(ctx)
	if err != nil {
		return timerdto.ResultOutput{}, err
	}
	result, opErr := op()
	if opErr != nil && !result.Completed {
		return timerdto.ResultOutput{}, opErr
	}
	if loaded.Completed && !result.Completed && result.Accrual == nil {
		result = loaded
	}
	if err := i.save(ctx); err != nil {
		return i.output(result), err
	}
	return i.output(result), opErr
}

// ensureLoaded restores persisted state on first use. The returned result
// carries any completion that happened while no process was watching.
func (i *Interactor) ensureLoaded(ctx context.Context) (service.Result, error) {
	if i.loaded || i.store == nil {
		i.loaded = true
		return service.Result{}, nil
	}
	i.loaded = true
	state, ok, err := i.store.Load(ctx)
	if err != nil {
		i.log.Warn("timer state unreadable, using a fresh timer", "error", err)
		return service.Result{}, nil
	}
	if !ok {
		return service.Result{}, nil
	}
	if err := i.coord.Restore(state); err != nil {
		i.log.Warn("timer state invalid, using a fresh timer", "error", err)
		return service.Result{}, nil
	}
	if !state.IsRunning {
		return service.Result{}, nil
	}
	result, err := i.coord.CatchUp(ctx)
	if result.Completed {
		if saveErr := i.save(ctx); saveErr != nil {
			i.log.Warn("could not persist caught-up timer", "error", saveErr)
		}
	}
	if err != nil {
		i.log.Error("catch-up completion failed", "error", err)
	}
	return result, nil
}

func (i *Interactor) save(ctx context.Context) error {
	if i.store == nil {
		return nil
	}
	if err := i.store.Save(ctx, i.coord.State()); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

func (i *Interactor) output(result service.Result) timerdto.ResultOutput {
	state := i.coord.State()
	out := timerdto.ResultOutput{
		State: timerdto.StateOutput{
			Duration:       state.Duration,
			RemainingTime:  state.RemainingTime,
			IsRunning:      state.IsRunning,
			StartTime:      state.StartTime,
			TaskID:         state.TaskID,
			SelectedTaskID: i.coord.Selected(),
			Generation:     i.coord.Generation(),
			Presets:        append([]int(nil), i.presets...),
		},
		Completed: result.Completed,
		Stale:     result.Stale,
	}
	if result.Accrual != nil {
		a := result.Accrual
		out.Accrual = &timerdto.AccrualOutput{TaskID: a.TaskID, Start: a.Start, End: a.End, Duration: a.Duration, TimeSpent: a.TimeSpent}
	}
	return out
}
