package dto

import "time"

const (
	SortByPriority = "priority"
	SortByDueDate  = "dueDate"

	StatusAll        = "all"
	StatusIncomplete = "incomplete"
	StatusComplete   = "complete"
)

type CreateInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    string
}

// UpdateInput edits only the fields that are set.
type UpdateInput struct {
	ID          string
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *string
}

type ListInput struct {
	Status string
	SortBy string
}

type AppendSessionInput struct {
	TaskID string
	Start  time.Time
	End    time.Time
}

type TaskOutput struct {
	ID           string
	Title        string
	Description  string
	DueDate      time.Time
	Priority     string
	Status       string
	CreatedAt    time.Time
	CompletedAt  *time.Time
	TimeSpent    int
	SessionCount int
}

type SessionOutput struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  int
}

type TaskDetailOutput struct {
	TaskOutput
	Sessions []SessionOutput
}

type StatusCounts struct {
	All        int
	Incomplete int
	Complete   int
}

type ListOutput struct {
	Tasks  []TaskOutput
	Counts StatusCounts
}

type AppendSessionOutput struct {
	TaskID    string
	Session   SessionOutput
	TimeSpent int
}

type ExportOutput struct {
	TaskID string
	Path   string
}
