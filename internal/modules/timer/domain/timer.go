package domain

import (
	"fmt"
	"time"

	apperrors "pomotrack/internal/platform/errors"
)

const DefaultDuration = 25 * 60

// Presets are the durations offered by the timer view, in seconds.
var Presets = []int{25 * 60, 60 * 60, 90 * 60}

// State is the persisted and observable form of a Timer.
type State struct {
	Duration      int        `json:"duration"`
	RemainingTime int        `json:"remainingTime"`
	IsRunning     bool       `json:"isRunning"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	TaskID        string     `json:"taskId,omitempty"`
	ElapsedTicks  int        `json:"elapsedTicks"`
}

func (s State) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("%w: %d", apperrors.ErrInvalidDuration, s.Duration)
	}
	if s.RemainingTime < 0 || s.RemainingTime > s.Duration {
		return fmt.Errorf("%w: remaining %d outside 0..%d", apperrors.ErrInvalidInput, s.RemainingTime, s.Duration)
	}
	if s.IsRunning != (s.StartTime != nil) {
		return fmt.Errorf("%w: running flag and start time disagree", apperrors.ErrInvalidInput)
	}
	if !s.IsRunning && (s.TaskID != "" || s.ElapsedTicks != 0) {
		return fmt.Errorf("%w: stopped timer carries run state", apperrors.ErrInvalidInput)
	}
	if s.IsRunning && s.RemainingTime == 0 {
		return fmt.Errorf("%w: running timer has no time left", apperrors.ErrInvalidInput)
	}
	return nil
}

// Open is the unclosed run of a running timer.
type Open struct {
	Start  time.Time
	TaskID string
}

// Timer is the countdown engine. It is not safe for concurrent use; the
// owner serializes access.
type Timer struct {
	state State
}

func ValidateDuration(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: %d seconds", apperrors.ErrInvalidDuration, seconds)
	}
	return nil
}

func NewTimer(seconds int) (*Timer, error) {
	if err := ValidateDuration(seconds); err != nil {
		return nil, err
	}
	return &Timer{state: State{Duration: seconds, RemainingTime: seconds}}, nil
}

func Restore(state State) (*Timer, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if state.StartTime != nil {
		at := state.StartTime.UTC()
		state.StartTime = &at
	}
	return &Timer{state: state}, nil
}

// Start binds the run to taskID, which may be empty for a run that never
// accrues. Remaining time is kept.
func (t *Timer) Start(now time.Time, taskID string) error {
	if t.state.IsRunning {
		return apperrors.ErrTimerRunning
	}
	if t.state.RemainingTime == 0 {
		return apperrors.ErrTimerExpired
	}
	at := now.UTC()
	t.state.IsRunning = true
	t.state.StartTime = &at
	t.state.TaskID = taskID
	t.state.ElapsedTicks = 0
	return nil
}

func (t *Timer) Pause() error {
	if !t.state.IsRunning {
		return apperrors.ErrTimerNotRunning
	}
	t.stop()
	return nil
}

func (t *Timer) Reset() {
	t.stop()
	t.state.RemainingTime = t.state.Duration
}

func (t *Timer) SetDuration(seconds int) error {
	if t.state.IsRunning {
		return apperrors.ErrTimerRunning
	}
	if err := ValidateDuration(seconds); err != nil {
		return err
	}
	t.stop()
	t.state.Duration = seconds
	t.state.RemainingTime = seconds
	return nil
}

// Tick applies one second. It reports true only for the tick that takes a
// running timer from 1 to 0.
func (t *Timer) Tick() bool {
	return t.Advance(1)
}

// Advance applies up to n ticks at once and reports whether the zero
// crossing happened among them. Ticks past zero are not counted.
func (t *Timer) Advance(n int) bool {
	if !t.state.IsRunning || n <= 0 || t.state.RemainingTime == 0 {
		return false
	}
	if n > t.state.RemainingTime {
		n = t.state.RemainingTime
	}
	t.state.RemainingTime -= n
	t.state.ElapsedTicks += n
	return t.state.RemainingTime == 0
}

// TicksOwed is how many ticks wall time says should have been applied since
// the run started but were not.
func (t *Timer) TicksOwed(now time.Time) int {
	if !t.state.IsRunning {
		return 0
	}
	elapsed := int(now.Sub(*t.state.StartTime) / time.Second)
	owed := elapsed - t.state.ElapsedTicks
	if owed < 0 {
		return 0
	}
	return owed
}

func (t *Timer) Open() (Open, bool) {
	if !t.state.IsRunning || t.state.StartTime == nil {
		return Open{}, false
	}
	return Open{Start: *t.state.StartTime, TaskID: t.state.TaskID}, true
}

// ReleaseTask unbinds the running session from taskID so it never accrues.
func (t *Timer) ReleaseTask(taskID string) bool {
	if taskID == "" || t.state.TaskID != taskID {
		return false
	}
	t.state.TaskID = ""
	return true
}

func (t *Timer) Running() bool {
	return t.state.IsRunning
}

func (t *Timer) Snapshot() State {
	out := t.state
	if out.StartTime != nil {
		at := *out.StartTime
		out.StartTime = &at
	}
	return out
}

func (t *Timer) stop() {
	t.state.IsRunning = false
	t.state.StartTime = nil
	t.state.TaskID = ""
	t.state.ElapsedTicks = 0
}
