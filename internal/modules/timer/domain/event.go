package domain

import "time"

type EventKind string

const (
	EventTimerCompleted  EventKind = "timer.completed"
	EventSessionRecorded EventKind = "session.recorded"
)

// Accrual is a session that was written to a task.
type Accrual struct {
	TaskID    string
	Start     time.Time
	End       time.Time
	Duration  int
	TimeSpent int
}

type Event struct {
	Kind     EventKind
	At       time.Time
	TaskID   string
	Duration int
	Session  *Accrual
}
