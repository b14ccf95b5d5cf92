package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SchemaVersion is the envelope version written by EncodeTasks.
//
//	0: bare JSON array, fields added over time may be absent
//	1: {"version":1,"tasks":[...]}, timeSpent/sessions/completedAt optional
//	2: {"version":2,"tasks":[...]}, all fields present and reconciled
const SchemaVersion = 2

// Record is the persisted shape of a task. Optional pointers distinguish an
// absent field from a zero value so migrations can backfill.
type Record struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	DueDate     string           `json:"dueDate"`
	Priority    string           `json:"priority"`
	Status      string           `json:"status"`
	CreatedAt   string           `json:"createdAt"`
	CompletedAt *string          `json:"completedAt,omitempty"`
	TimeSpent   *int             `json:"timeSpent,omitempty"`
	Sessions    *[]SessionRecord `json:"sessions,omitempty"`
}

type SessionRecord struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Duration  int    `json:"duration"`
}

type envelope struct {
	Version int      `json:"version"`
	Tasks   []Record `json:"tasks"`
}

// MigrationReport describes what loading had to repair.
type MigrationReport struct {
	FromVersion     int
	Backfilled      int
	Reconciled      int
	Dropped         []string
	DroppedSessions int
}

func (r MigrationReport) Changed() bool {
	return r.FromVersion != SchemaVersion || r.Backfilled > 0 || r.Reconciled > 0 || r.Lossy()
}

// Lossy reports whether rewriting the migrated tasks would lose stored
// records or sessions. The original payload must be kept before that happens.
func (r MigrationReport) Lossy() bool {
	return len(r.Dropped) > 0 || r.DroppedSessions > 0
}

type migrationStep func(records []Record, report *MigrationReport) []Record

var migrationSteps = map[int]migrationStep{
	0: normalizeEnums,
	1: backfillOptionalFields,
}

// MigrateTasks decodes any known persisted shape and upgrades it to the
// current model. Missing or malformed timestamps are backfilled; loadedAt is
// the last resort for a creation time. Only records without an id and
// repeated ids are dropped, and they are listed in the report. An unreadable
// payload is an error.
func MigrateTasks(payload []byte, loadedAt time.Time) ([]Task, MigrationReport, error) {
	report := MigrationReport{}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		report.FromVersion = SchemaVersion
		return []Task{}, report, nil
	}

	var records []Record
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, report, fmt.Errorf("decode legacy task list: %w", err)
		}
		report.FromVersion = 0
	case '{':
		env := envelope{}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, report, fmt.Errorf("decode task envelope: %w", err)
		}
		if env.Version < 1 || env.Version > SchemaVersion {
			return nil, report, fmt.Errorf("unsupported task schema version %d", env.Version)
		}
		records = env.Tasks
		report.FromVersion = env.Version
	default:
		return nil, report, fmt.Errorf("unrecognized task payload")
	}

	for v := report.FromVersion; v < SchemaVersion; v++ {
		records = migrationSteps[v](records, &report)
	}
	return reconcile(records, loadedAt.UTC(), &report), report, nil
}

func normalizeEnums(records []Record, _ *MigrationReport) []Record {
	for i := range records {
		records[i].Priority = strings.ToLower(strings.TrimSpace(records[i].Priority))
		records[i].Status = strings.ToLower(strings.TrimSpace(records[i].Status))
	}
	return records
}

func backfillOptionalFields(records []Record, report *MigrationReport) []Record {
	for i := range records {
		rec := &records[i]
		touched := false
		if rec.TimeSpent == nil {
			zero := 0
			rec.TimeSpent = &zero
			touched = true
		}
		if rec.Sessions == nil {
			empty := []SessionRecord{}
			rec.Sessions = &empty
			touched = true
		}
		if rec.CompletedAt == nil && rec.Status == string(StatusComplete) {
			created := rec.CreatedAt
			rec.CompletedAt = &created
			touched = true
		}
		if touched {
			report.Backfilled++
		}
	}
	return records
}

// reconcile converts records to tasks and enforces the model invariants.
func reconcile(records []Record, loadedAt time.Time, report *MigrationReport) []Task {
	out := make([]Task, 0, len(records))
	seen := map[string]bool{}
	for _, rec := range records {
		task, repaired, err := fromRecord(rec, loadedAt, report)
		if err != nil {
			report.Dropped = append(report.Dropped, fmt.Sprintf("%s: %v", rec.ID, err))
			continue
		}
		if seen[task.ID] {
			report.Dropped = append(report.Dropped, fmt.Sprintf("%s: duplicate id", task.ID))
			continue
		}
		seen[task.ID] = true
		if repaired {
			report.Reconciled++
		}
		out = append(out, task)
	}
	return out
}

func fromRecord(rec Record, loadedAt time.Time, report *MigrationReport) (Task, bool, error) {
	repaired := false
	if strings.TrimSpace(rec.ID) == "" {
		return Task{}, false, fmt.Errorf("missing id")
	}

	sessions := []TaskSession{}
	if rec.Sessions != nil {
		for _, sr := range *rec.Sessions {
			session, ok := fromSessionRecord(sr)
			if !ok {
				report.DroppedSessions++
				repaired = true
				continue
			}
			if session.Duration != sr.Duration {
				repaired = true
			}
			sessions = append(sessions, session)
		}
	}

	createdAt, err := ParseTimestamp(rec.CreatedAt)
	if err != nil {
		createdAt = fallbackCreatedAt(rec, sessions, loadedAt)
		repaired = true
	}
	due, err := ParseTimestamp(rec.DueDate)
	if err != nil {
		due = createdAt
		repaired = true
	}
	priority := Priority(rec.Priority)
	if priority.Validate() != nil {
		priority = PriorityMedium
		repaired = true
	}
	status := Status(rec.Status)
	if status.Validate() != nil {
		status = StatusIncomplete
		repaired = true
	}
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = "untitled"
		repaired = true
	}

	task := Task{
		ID:          rec.ID,
		Title:       title,
		Description: rec.Description,
		DueDate:     due,
		Priority:    priority,
		Status:      status,
		CreatedAt:   createdAt,
		Sessions:    sessions,
	}

	if status == StatusComplete {
		completedAt := createdAt
		if rec.CompletedAt != nil {
			if parsed, err := ParseTimestamp(*rec.CompletedAt); err == nil {
				completedAt = parsed
			} else {
				repaired = true
			}
		} else {
			repaired = true
		}
		task.CompletedAt = &completedAt
	} else if rec.CompletedAt != nil {
		repaired = true
	}

	task.TimeSpent = task.SessionTotal()
	if rec.TimeSpent == nil || *rec.TimeSpent != task.TimeSpent {
		repaired = true
	}
	return task, repaired, nil
}

// fallbackCreatedAt picks the earliest trustworthy instant a record carries:
// its first session, then its completion, then its due date.
func fallbackCreatedAt(rec Record, sessions []TaskSession, loadedAt time.Time) time.Time {
	if len(sessions) > 0 {
		earliest := sessions[0].StartTime
		for _, s := range sessions[1:] {
			if s.StartTime.Before(earliest) {
				earliest = s.StartTime
			}
		}
		return earliest
	}
	for _, raw := range []*string{rec.CompletedAt, &rec.DueDate} {
		if raw == nil {
			continue
		}
		if ts, err := ParseTimestamp(*raw); err == nil {
			return ts
		}
	}
	return loadedAt
}

func fromSessionRecord(sr SessionRecord) (TaskSession, bool) {
	start, err := ParseTimestamp(sr.StartTime)
	if err != nil {
		return TaskSession{}, false
	}
	end, err := ParseTimestamp(sr.EndTime)
	if err != nil || end.Before(start) {
		return TaskSession{}, false
	}
	return TaskSession{StartTime: start, EndTime: end, Duration: ComputeElapsedSeconds(start, end)}, true
}

func ToRecord(task Task) Record {
	sessions := make([]SessionRecord, 0, len(task.Sessions))
	for _, s := range task.Sessions {
		sessions = append(sessions, SessionRecord{
			StartTime: formatTimestamp(s.StartTime),
			EndTime:   formatTimestamp(s.EndTime),
			Duration:  s.Duration,
		})
	}
	timeSpent := task.TimeSpent
	rec := Record{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     formatTimestamp(task.DueDate),
		Priority:    string(task.Priority),
		Status:      string(task.Status),
		CreatedAt:   formatTimestamp(task.CreatedAt),
		TimeSpent:   &timeSpent,
		Sessions:    &sessions,
	}
	if task.CompletedAt != nil {
		completed := formatTimestamp(*task.CompletedAt)
		rec.CompletedAt = &completed
	}
	return rec
}

// EncodeTasks writes the current envelope.
func EncodeTasks(tasks []Task) ([]byte, error) {
	env := envelope{Version: SchemaVersion, Tasks: make([]Record, 0, len(tasks))}
	for _, task := range tasks {
		env.Tasks = append(env.Tasks, ToRecord(task))
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return payload, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
