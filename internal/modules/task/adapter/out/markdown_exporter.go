package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pomotrack/internal/modules/task/domain"
	taskout "pomotrack/internal/modules/task/port/out"
	"pomotrack/internal/platform/markdown"
	"pomotrack/internal/platform/slug"
)

var sessionsBlock = markdown.Block{Start: domain.ManagedSessionsStart, End: domain.ManagedSessionsEnd}

type exportFrontmatter struct {
	SchemaVersion    int    `yaml:"schema_version"`
	ID               string `yaml:"id"`
	Title            string `yaml:"title"`
	Priority         string `yaml:"priority"`
	Status           string `yaml:"status"`
	Due              string `yaml:"due"`
	Created          string `yaml:"created"`
	Completed        string `yaml:"completed,omitempty"`
	TimeSpentSeconds int    `yaml:"time_spent_seconds"`
	SessionCount     int    `yaml:"session_count"`
}

// MarkdownExporter writes one note per task under <data>/exports. Text the
// user adds outside the sessions block survives re-export.
type MarkdownExporter struct {
	dir string
}

func NewMarkdownExporter(dataDir string) taskout.TaskExporter {
	return &MarkdownExporter{dir: filepath.Join(dataDir, "exports")}
}

func (e *MarkdownExporter) Export(_ context.Context, task domain.Task) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path, body, err := e.target(task)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		body = defaultBody(task)
	}
	body = sessionsBlock.Replace(body, renderSessions(task))

	rendered, err := markdown.RenderFrontmatter(toFrontmatter(task), body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write task export: %w", err)
	}
	return path, nil
}

// target picks <slug>.md, falling back to <slug>-<id prefix>.md when another
// task already owns that file, and returns the body to preserve.
func (e *MarkdownExporter) target(task domain.Task) (string, string, error) {
	base := slug.Make(task.Title)
	candidates := []string{base, base + "-" + shortID(task.ID)}
	for _, name := range candidates {
		path := filepath.Join(e.dir, name+".md")
		existing, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return path, "", nil
		}
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", path, err)
		}
		meta := exportFrontmatter{}
		body, _, err := markdown.SplitFrontmatter(string(existing), &meta)
		if err != nil {
			return "", "", fmt.Errorf("parse %s: %w", path, err)
		}
		if meta.ID == task.ID {
			return path, body, nil
		}
	}
	return filepath.Join(e.dir, base+"-"+task.ID+".md"), "", nil
}

func toFrontmatter(task domain.Task) exportFrontmatter {
	meta := exportFrontmatter{
		SchemaVersion:    domain.SchemaVersion,
		ID:               task.ID,
		Title:            task.Title,
		Priority:         string(task.Priority),
		Status:           string(task.Status),
		Due:              task.DueDate.Format(time.RFC3339),
		Created:          task.CreatedAt.Format(time.RFC3339),
		TimeSpentSeconds: task.TimeSpent,
		SessionCount:     len(task.Sessions),
	}
	if task.CompletedAt != nil {
		meta.Completed = task.CompletedAt.Format(time.RFC3339)
	}
	return meta
}

func defaultBody(task domain.Task) string {
	b := strings.Builder{}
	b.WriteString("# " + task.Title + "\n\n")
	if desc := strings.TrimSpace(task.Description); desc != "" {
		b.WriteString(desc + "\n\n")
	}
	b.WriteString("## Sessions\n")
	return b.String()
}

func renderSessions(task domain.Task) string {
	if len(task.Sessions) == 0 {
		return "_No sessions recorded._"
	}
	b := strings.Builder{}
	b.WriteString("| # | Start | End | Duration |\n")
	b.WriteString("|---|---|---|---|\n")
	for i, s := range task.Sessions {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			i+1,
			s.StartTime.Format(time.RFC3339),
			s.EndTime.Format(time.RFC3339),
			(time.Duration(s.Duration) * time.Second).String(),
		)
	}
	fmt.Fprintf(&b, "\nTotal: %s", (time.Duration(task.TimeSpent) * time.Second).String())
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
