package dto

import "time"

type StateOutput struct {
	Duration       int
	RemainingTime  int
	IsRunning      bool
	StartTime      *time.Time
	TaskID         string
	SelectedTaskID string
	Generation     uint64
	Presets        []int
}

// Expired reports a stopped timer with nothing left to count.
func (s StateOutput) Expired() bool {
	return !s.IsRunning && s.RemainingTime == 0
}

type AccrualOutput struct {
	TaskID    string
	Start     time.Time
	End       time.Time
	Duration  int
	TimeSpent int
}

// ResultOutput is returned by every timer operation. Accrual is set when the
// operation closed a session onto a task.
type ResultOutput struct {
	State     StateOutput
	Accrual   *AccrualOutput
	Completed bool
	Stale     bool
}
