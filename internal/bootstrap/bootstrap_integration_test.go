package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pomotrack/internal/bootstrap"
	"pomotrack/internal/platform/config"
)

func newApp(t *testing.T, dataDir string) *bootstrap.App {
	t.Helper()
	cfg, err := config.New(dataDir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	app, err := bootstrap.New(cfg, bootstrap.Options{})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return app
}

func runLifecycle(t *testing.T, dataDir string) {
	t.Helper()
	ctx := context.Background()

	app := newApp(t, dataDir)
	created, err := app.TaskCLI.Create(ctx, "Write chapter", "draft *two*", time.Now().Add(24*time.Hour), "high")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	started, err := app.TimerCLI.Start(ctx, created.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !started.State.IsRunning || started.State.TaskID != created.ID {
		t.Fatalf("unexpected start state %+v", started.State)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A second invocation finds the run and closes it onto the task.
	app = newApp(t, dataDir)
	defer func() { _ = app.Close() }()
	paused, err := app.TimerCLI.Pause(ctx)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Accrual == nil || paused.Accrual.TaskID != created.ID {
		t.Fatalf("expected accrual to the started task, got %+v", paused.Accrual)
	}
	detail, err := app.TaskCLI.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.Sessions) != 1 || detail.TimeSpent != detail.Sessions[0].Duration {
		t.Fatalf("session not persisted: %+v", detail)
	}

	if err := app.TaskCLI.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	status, err := app.TimerCLI.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State.SelectedTaskID != "" {
		t.Fatalf("deleted task still selected")
	}
}

func TestLifecycleWithSQLiteStore(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	runLifecycle(t, dataDir)
	if _, err := os.Stat(filepath.Join(dataDir, "pomotrack.db")); err != nil {
		t.Fatalf("expected sqlite database: %v", err)
	}
}

func TestLifecycleWithFileStore(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, config.FileName), []byte("store: file\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	runLifecycle(t, dataDir)
	if _, err := os.Stat(filepath.Join(dataDir, "store", "tasks.json")); err != nil {
		t.Fatalf("expected file store payload: %v", err)
	}
}

func TestTUILogsToDataDir(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	cfg, err := config.New(dataDir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	app, err := bootstrap.New(cfg, bootstrap.Options{TUI: true})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	app.Log.Warn("hello from the tui")
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dataDir, "pomotrack.log"))
	if err != nil || len(b) == 0 {
		t.Fatalf("expected log file content, err=%v", err)
	}
}
