package tasks_test

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	taskdto "pomotrack/internal/modules/task/dto"
	tasksview "pomotrack/internal/ui/views/tasks"
)

type listCall struct{ status, sortBy string }

type fakePort struct {
	calls []listCall
	out   taskdto.ListOutput
}

func (f *fakePort) List(_ context.Context, status, sortBy string) (taskdto.ListOutput, error) {
	f.calls = append(f.calls, listCall{status, sortBy})
	return f.out, nil
}

func load(t *testing.T, m tasksview.Model, cmd tea.Cmd) tasksview.Model {
	t.Helper()
	msg, ok := cmd().(tasksview.LoadedMsg)
	if !ok {
		t.Fatalf("expected a list load")
	}
	m, _ = m.Update(msg)
	return m
}

func TestOpensOnIncompleteTasksByDueDate(t *testing.T) {
	t.Parallel()
	port := &fakePort{}
	m := tasksview.New(port)
	m = load(t, m, m.Reload())
	if got := port.calls[0]; got.status != taskdto.StatusIncomplete || got.sortBy != taskdto.SortByDueDate {
		t.Fatalf("unexpected first load %+v", got)
	}
	if !strings.Contains(m.View(), "No tasks yet") {
		t.Fatalf("empty store should invite a first task, got %q", m.View())
	}
}

func TestCycleAndSortReloadWithNewArguments(t *testing.T) {
	t.Parallel()
	port := &fakePort{out: taskdto.ListOutput{Counts: taskdto.StatusCounts{All: 2, Complete: 2}}}
	m := tasksview.New(port)
	m = load(t, m, m.Reload())
	if !strings.Contains(m.View(), "No incomplete tasks") {
		t.Fatalf("expected filtered empty hint, got %q", m.View())
	}

	cmd := m.CycleStatus()
	m = load(t, m, cmd)
	cmd = m.ToggleSort()
	m = load(t, m, cmd)
	if got := port.calls[len(port.calls)-1]; got.status != taskdto.StatusComplete || got.sortBy != taskdto.SortByPriority {
		t.Fatalf("unexpected reload %+v", got)
	}
	if _, err := m.SetSort("title"); err == nil {
		t.Fatalf("expected unknown sort error")
	}
}
