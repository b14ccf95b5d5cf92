package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "pomotrack/internal/platform/errors"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Validate() error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	default:
		return fmt.Errorf("%w: unsupported priority %q", apperrors.ErrInvalidInput, string(p))
	}
}

// Rank orders priorities for sorting, high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// ParsePriority accepts the stored names case-insensitively; empty means medium.
func ParsePriority(raw string) (Priority, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return PriorityMedium, nil
	}
	p := Priority(raw)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

func (s Status) Validate() error {
	switch s {
	case StatusIncomplete, StatusComplete:
		return nil
	default:
		return fmt.Errorf("%w: unsupported status %q", apperrors.ErrInvalidInput, string(s))
	}
}

type TaskSession struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  int
}

type Task struct {
	ID          string
	Title       string
	Description string
	DueDate     time.Time
	Priority    Priority
	Status      Status
	CreatedAt   time.Time
	CompletedAt *time.Time
	TimeSpent   int
	Sessions    []TaskSession
}

func NewTask(id, title, description string, due time.Time, priority Priority, now time.Time) (Task, error) {
	task := Task{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Description: description,
		DueDate:     due.UTC(),
		Priority:    priority,
		Status:      StatusIncomplete,
		CreatedAt:   now.UTC(),
		Sessions:    []TaskSession{},
	}
	if err := task.Validate(); err != nil {
		return Task{}, err
	}
	return task, nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: id is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	if t.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", apperrors.ErrInvalidInput)
	}
	if err := t.Priority.Validate(); err != nil {
		return err
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	if t.TimeSpent < 0 {
		return fmt.Errorf("%w: time spent must be non-negative", apperrors.ErrInvalidInput)
	}
	if t.TimeSpent != t.SessionTotal() {
		return fmt.Errorf("%w: time spent %d does not match session total %d", apperrors.ErrInvalidInput, t.TimeSpent, t.SessionTotal())
	}
	if (t.Status == StatusComplete) != (t.CompletedAt != nil) {
		return fmt.Errorf("%w: completedAt must be set exactly when complete", apperrors.ErrInvalidInput)
	}
	return nil
}

func (t Task) SessionTotal() int {
	total := 0
	for _, s := range t.Sessions {
		total += s.Duration
	}
	return total
}

// Clone returns a copy that shares no mutable state with t.
func (t Task) Clone() Task {
	out := t
	out.Sessions = make([]TaskSession, len(t.Sessions))
	copy(out.Sessions, t.Sessions)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

// ToggleStatus flips completion, stamping or clearing completedAt.
func (t Task) ToggleStatus(now time.Time) Task {
	out := t.Clone()
	if out.Status == StatusComplete {
		out.Status = StatusIncomplete
		out.CompletedAt = nil
		return out
	}
	at := now.UTC()
	out.Status = StatusComplete
	out.CompletedAt = &at
	return out
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp reads RFC 3339 plus the zone-less forms a datetime-local
// input produces. Zone-less values are read in local time. The result is UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", apperrors.ErrInvalidInput)
	}
	for i, layout := range timestampLayouts {
		var (
			ts  time.Time
			err error
		)
		if i == 0 {
			ts, err = time.Parse(layout, raw)
		} else {
			ts, err = time.ParseInLocation(layout, raw, time.Local)
		}
		if err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", apperrors.ErrInvalidInput, raw)
}

const (
	ManagedSessionsStart = "<!-- pomotrack:sessions:start -->"
	ManagedSessionsEnd   = "<!-- pomotrack:sessions:end -->"
)
