package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	taskdto "pomotrack/internal/modules/task/dto"
	"pomotrack/internal/ui/components"
	"pomotrack/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is the minimal interface this view needs from the task use-case.
type Port interface {
	List(ctx context.Context, status, sortBy string) (taskdto.ListOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// LoadedMsg carries one list refresh.
type LoadedMsg struct {
	Out taskdto.ListOutput
	Err error
}

// ─── list item ───────────────────────────────────────────────────────────────

type taskItem struct {
	task   taskdto.TaskOutput
	active bool
	now    time.Time
}

func (i taskItem) Title() string {
	mark := "○ "
	if i.task.Status == taskdto.StatusComplete {
		mark = "✓ "
	}
	if i.active {
		mark = "● "
	}
	return mark + i.task.Title
}

func (i taskItem) Description() string {
	due, overdue := components.Due(i.task.DueDate, i.now, i.task.Status == taskdto.StatusComplete)
	if overdue {
		due = "! " + due
	}
	return fmt.Sprintf("%s · %s · %s in %d sessions",
		i.task.Priority, due, components.Spent(i.task.TimeSpent), i.task.SessionCount)
}

func (i taskItem) FilterValue() string { return i.task.Title }

var statusOrder = []string{taskdto.StatusIncomplete, taskdto.StatusComplete, taskdto.StatusAll}

// ─── model ───────────────────────────────────────────────────────────────────

// Model lists tasks under a status tab with a sort toggle.
type Model struct {
	port     Port
	list     list.Model
	spinner  spinner.Model
	tasks    []taskdto.TaskOutput
	counts   taskdto.StatusCounts
	status   string
	sortBy   string
	activeID string
	err      error
	loading  bool
	width    int
	height   int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.SetStatusBarItemName("task", "tasks")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		spinner: sp,
		status:  taskdto.StatusIncomplete,
		sortBy:  taskdto.SortByDueDate,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, m.height-2)

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.tasks = msg.Out.Tasks
		m.counts = msg.Out.Counts
		cmds = append(cmds, m.list.SetItems(m.items()))

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading tasks…")
	}
	header := m.renderTabs()
	if m.err != nil {
		return header + "\n" + theme.Bad.Render("Error: "+m.err.Error())
	}
	if len(m.tasks) == 0 {
		hint := "No tasks yet. Press n to add one."
		if m.counts.All > 0 {
			hint = "No " + m.status + " tasks."
		}
		return header + "\n\n" + theme.Muted.Render(hint)
	}
	return header + "\n" + m.list.View()
}

// Reload fetches the list for the current status tab and sort order.
func (m Model) Reload() tea.Cmd {
	status, sortBy := m.status, m.sortBy
	return func() tea.Msg {
		out, err := m.port.List(context.Background(), status, sortBy)
		return LoadedMsg{Out: out, Err: err}
	}
}

// CycleStatus moves to the next status tab.
func (m *Model) CycleStatus() tea.Cmd {
	for i, s := range statusOrder {
		if s == m.status {
			m.status = statusOrder[(i+1)%len(statusOrder)]
			break
		}
	}
	return m.Reload()
}

func (m *Model) SetStatus(status string) (tea.Cmd, error) {
	for _, s := range statusOrder {
		if s == status {
			m.status = status
			return m.Reload(), nil
		}
	}
	return nil, fmt.Errorf("unknown status %q", status)
}

// ToggleSort flips between priority and due date order.
func (m *Model) ToggleSort() tea.Cmd {
	if m.sortBy == taskdto.SortByPriority {
		m.sortBy = taskdto.SortByDueDate
	} else {
		m.sortBy = taskdto.SortByPriority
	}
	return m.Reload()
}

func (m *Model) SetSort(sortBy string) (tea.Cmd, error) {
	switch sortBy {
	case taskdto.SortByPriority, taskdto.SortByDueDate:
		m.sortBy = sortBy
		return m.Reload(), nil
	}
	return nil, fmt.Errorf("unknown sort %q", sortBy)
}

func (m Model) SortBy() string { return m.sortBy }

// SetActive marks the task the timer is running on.
func (m *Model) SetActive(taskID string) tea.Cmd {
	if m.activeID == taskID {
		return nil
	}
	m.activeID = taskID
	if m.loading {
		return nil
	}
	return m.list.SetItems(m.items())
}

// Selected returns the task under the cursor.
func (m Model) Selected() (taskdto.TaskOutput, bool) {
	if item, ok := m.list.SelectedItem().(taskItem); ok {
		return item.task, true
	}
	return taskdto.TaskOutput{}, false
}

// TitleOf looks a task up among the loaded rows.
func (m Model) TitleOf(id string) string {
	for _, t := range m.tasks {
		if t.ID == id {
			return t.Title
		}
	}
	return ""
}

// Filtering reports whether the list's search filter is currently active.
// The app model checks this to avoid consuming global keys during a search.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) items() []list.Item {
	now := time.Now()
	items := make([]list.Item, len(m.tasks))
	for i, t := range m.tasks {
		items[i] = taskItem{task: t, active: t.ID == m.activeID && t.ID != "", now: now}
	}
	return items
}

func (m Model) renderTabs() string {
	counts := map[string]int{
		taskdto.StatusAll:        m.counts.All,
		taskdto.StatusIncomplete: m.counts.Incomplete,
		taskdto.StatusComplete:   m.counts.Complete,
	}
	parts := make([]string, len(statusOrder))
	for i, s := range statusOrder {
		label := fmt.Sprintf(" %s (%d) ", strings.ToUpper(s[:1])+s[1:], counts[s])
		if s == m.status {
			parts[i] = theme.Hot.Render(label)
		} else {
			parts[i] = theme.Muted.Render(label)
		}
	}
	sortLabel := "priority"
	if m.sortBy == taskdto.SortByDueDate {
		sortLabel = "due date"
	}
	return strings.Join(parts, theme.Muted.Render("│")) + theme.Muted.Render("   sort: "+sortLabel)
}
