package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	taskdto "pomotrack/internal/modules/task/dto"
	timerdto "pomotrack/internal/modules/timer/dto"
	apperrors "pomotrack/internal/platform/errors"
	"pomotrack/internal/ui/components"
	"pomotrack/internal/ui/theme"
	detailview "pomotrack/internal/ui/views/detail"
	tasksview "pomotrack/internal/ui/views/tasks"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type taskPort interface {
	List(ctx context.Context, status, sortBy string) (taskdto.ListOutput, error)
	Get(ctx context.Context, id string) (taskdto.TaskDetailOutput, error)
	Create(ctx context.Context, title, description string, due time.Time, priority string) (taskdto.TaskOutput, error)
	Update(ctx context.Context, input taskdto.UpdateInput) (taskdto.TaskOutput, error)
	ToggleStatus(ctx context.Context, id string) (taskdto.TaskOutput, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, id string) (taskdto.ExportOutput, error)
}

type timerPort interface {
	Status(ctx context.Context) (timerdto.ResultOutput, error)
	Select(ctx context.Context, taskID string) (timerdto.ResultOutput, error)
	Deselect(ctx context.Context) (timerdto.ResultOutput, error)
	Start(ctx context.Context) (timerdto.ResultOutput, error)
	Pause(ctx context.Context) (timerdto.ResultOutput, error)
	Reset(ctx context.Context) (timerdto.ResultOutput, error)
	SetDuration(ctx context.Context, seconds int) (timerdto.ResultOutput, error)
	Tick(ctx context.Context, generation uint64) (timerdto.ResultOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTasks tabID = iota
	tabDetail
	tabCount
)

var tabLabels = [tabCount]string{"Tasks", "Detail"}

// ─── async messages ───────────────────────────────────────────────────────────

// tickMsg is one second of the tick source identified by generation.
type tickMsg struct{ generation uint64 }

type timerResultMsg struct {
	action   string
	out      timerdto.ResultOutput
	err      error
	fromTick bool
}

type taskChangedMsg struct {
	action  string
	task    taskdto.TaskOutput
	deleted bool
	err     error
}

type exportedMsg struct {
	out taskdto.ExportOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab      key.Binding
	Open     key.Binding
	Toggle   key.Binding
	Reset    key.Binding
	Presets  key.Binding
	Done     key.Binding
	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Export   key.Binding
	Sort     key.Binding
	Status   key.Binding
	Deselect key.Binding
	Help     key.Binding
	Palette  key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch tab")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open + select for timer")),
		Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset timer")),
		Presets:  key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1/2/3", "duration preset")),
		Done:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
		Delete:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete task")),
		Export:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "export markdown")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort priority/due")),
		Status:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status tab")),
		Deselect: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "clear selection")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Toggle, k.Reset, k.Presets, k.Deselect},
		{k.New, k.Edit, k.Done, k.Delete, k.Export},
		{k.Sort, k.Status, k.Tab},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the timer tick
// loop, the global help overlay, and the command palette. Business logic is
// delegated to the ports; rendering is delegated to sub-views.
type Model struct {
	tasks taskPort
	timer timerPort

	taskView   tasksview.Model
	detailView detailview.Model

	state timerdto.StateOutput
	// tickGen is the generation of the pending tick, so a running timer has
	// exactly one tick in flight.
	tickGen uint64

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(tasks taskPort, timer timerPort) Model {
	return Model{
		tasks:      tasks,
		timer:      timer,
		taskView:   tasksview.New(tasks),
		detailView: detailview.New(tasks),
		activeTab:  tabTasks,
		keys:       defaultKeys(),
		help:       help.New(),
		palette:    components.NewPalette(),
		status:     "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.taskView.Init(),
		m.detailView.Init(),
		m.timerCmd("timer", false, m.timer.Status),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Ticks and results must land even while the palette is open.
	switch msg := msg.(type) {
	case tickMsg:
		if msg.generation != m.state.Generation {
			return m, nil
		}
		gen := msg.generation
		return m, m.timerCmd("tick", true, func(ctx context.Context) (timerdto.ResultOutput, error) {
			return m.timer.Tick(ctx, gen)
		})

	case timerResultMsg:
		return m.applyTimerResult(msg)

	case taskChangedMsg:
		return m.applyTaskChange(msg)

	case exportedMsg:
		if msg.err != nil {
			m.status = "export: " + msg.err.Error()
		} else {
			m.status = "exported to " + msg.out.Path
		}
		return m, nil
	}

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		switch msg.(type) {
		case tea.KeyMsg, tea.WindowSizeMsg:
		default:
			var cmd tea.Cmd
			m.taskView, cmd = m.taskView.Update(msg)
			cmds = append(cmds, cmd)
			m.detailView, cmd = m.detailView.Update(msg)
			cmds = append(cmds, cmd)
		}
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	// Data messages go to both views regardless of the active tab.
	case tasksview.LoadedMsg, detailview.LoadedMsg:
		var cmd tea.Cmd
		m.taskView, cmd = m.taskView.Update(msg)
		cmds = append(cmds, cmd)
		m.detailView, cmd = m.detailView.Update(msg)
		cmds = append(cmds, cmd, m.taskView.SetActive(m.state.TaskID))
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to the list when its search filter is active.
		if m.activeTab == tabTasks && m.taskView.Filtering() {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case msg.String() == "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case msg.String() == "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			cmd := m.palette.Open("")
			return m, cmd
		case key.Matches(msg, m.keys.New):
			cmd := m.palette.Open("task:add " + time.Now().AddDate(0, 0, 1).Format("2006-01-02") + " medium ")
			return m, cmd
		case key.Matches(msg, m.keys.Open):
			if m.activeTab == tabTasks {
				if t, ok := m.taskView.Selected(); ok {
					m.activeTab = tabDetail
					id := t.ID
					load := m.detailView.Load(id)
					return m, tea.Batch(load, m.timerCmd("select", false, func(ctx context.Context) (timerdto.ResultOutput, error) {
						return m.timer.Select(ctx, id)
					}))
				}
			}
		case key.Matches(msg, m.keys.Toggle):
			if m.state.IsRunning {
				return m, m.timerCmd("pause", false, m.timer.Pause)
			}
			return m, m.timerCmd("start", false, m.timer.Start)
		case key.Matches(msg, m.keys.Reset):
			return m, m.timerCmd("reset", false, m.timer.Reset)
		case key.Matches(msg, m.keys.Presets):
			idx, _ := strconv.Atoi(msg.String())
			if idx >= 1 && idx <= len(m.state.Presets) {
				return m, m.setDurationCmd(m.state.Presets[idx-1])
			}
			return m, nil
		case key.Matches(msg, m.keys.Deselect):
			return m, m.timerCmd("deselect", false, m.timer.Deselect)
		case key.Matches(msg, m.keys.Done):
			if t, ok := m.currentTask(); ok {
				return m, m.toggleCmd(t.ID)
			}
		case key.Matches(msg, m.keys.Edit):
			if t, ok := m.currentTask(); ok {
				cmd := m.palette.Open("task:title " + t.Title)
				return m, cmd
			}
		case key.Matches(msg, m.keys.Delete):
			if t, ok := m.currentTask(); ok {
				return m, m.deleteCmd(t)
			}
		case key.Matches(msg, m.keys.Export):
			if t, ok := m.currentTask(); ok {
				return m, m.exportCmd(t.ID)
			}
		case key.Matches(msg, m.keys.Sort) && m.activeTab == tabTasks:
			cmd := m.taskView.ToggleSort()
			return m, cmd
		case key.Matches(msg, m.keys.Status) && m.activeTab == tabTasks:
			cmd := m.taskView.CycleStatus()
			return m, cmd
		}
	}

	// Propagate the message to the active tab's sub-view.
	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabTasks:
		m.taskView, tabCmd = m.taskView.Update(msg)
	case tabDetail:
		m.detailView, tabCmd = m.detailView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// applyTimerResult adopts the new timer state and keeps one tick in flight
// while the timer runs. Stale results change nothing.
func (m Model) applyTimerResult(msg timerResultMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if msg.err != nil {
		m.status = msg.action + ": " + describeTimerError(msg.err)
		if msg.out.State.Duration == 0 {
			return m, nil
		}
	}
	if msg.out.Stale {
		return m, nil
	}
	m.state = msg.out.State
	m.detailView.SetTimer(m.state)
	cmds = append(cmds, m.taskView.SetActive(m.state.TaskID))

	if m.state.IsRunning && (msg.fromTick || m.tickGen != m.state.Generation) {
		m.tickGen = m.state.Generation
		cmds = append(cmds, tickCmd(m.state.Generation))
	}

	if msg.err == nil {
		switch {
		case msg.out.Completed:
			m.status = "time's up"
			if a := msg.out.Accrual; a != nil {
				m.status = fmt.Sprintf("time's up: %s logged to %s", components.Spent(a.Duration), m.titleOf(a.TaskID))
			}
		case msg.out.Accrual != nil:
			a := msg.out.Accrual
			m.status = fmt.Sprintf("%s logged to %s", components.Spent(a.Duration), m.titleOf(a.TaskID))
		case !msg.fromTick && msg.action != "timer":
			m.status = msg.action + ": ok"
		}
	}
	if msg.out.Accrual != nil {
		cmds = append(cmds, m.taskView.Reload(), m.detailView.Refresh())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) applyTaskChange(msg taskChangedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = msg.action + ": " + msg.err.Error()
		return m, nil
	}
	m.status = msg.action + ": " + msg.task.Title
	cmds := []tea.Cmd{m.taskView.Reload()}
	if msg.deleted {
		if t, ok := m.detailView.Task(); ok && t.ID == msg.task.ID {
			m.detailView.Clear()
			m.activeTab = tabTasks
		}
		// Deleting may have cleared the timer's selection and task lock.
		cmds = append(cmds, m.timerCmd("timer", false, m.timer.Status))
	} else {
		cmds = append(cmds, m.detailView.Refresh())
	}
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabDetail:
		content = m.detailView.View()
	default:
		content = m.taskView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	left := "pomotrack  " + strings.Join(parts, theme.Muted.Render(" │ "))
	right := m.renderClock()
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right) + "\n"
}

func (m Model) renderClock() string {
	if m.state.Duration == 0 {
		return ""
	}
	clock := theme.Clock.Render(components.Clock(m.state.RemainingTime))
	if m.state.IsRunning {
		clock = theme.Hot.Render("● ") + clock
	}
	return clock + " "
}

func (m Model) renderStatusBar() string {
	left := m.status
	if id := m.state.SelectedTaskID; id != "" {
		left = theme.Muted.Render("▸ "+m.titleOf(id)) + "  " + left
	}
	right := theme.Muted.Render("space:timer  ?:help  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), parts[0]))
	current, hasCurrent := m.currentTask()

	switch parts[0] {
	case "task:add":
		if len(parts) < 4 {
			m.status = "usage: task:add <YYYY-MM-DD> <low|medium|high> <title>"
			return m, nil
		}
		due, err := taskdto.ParseDue(parts[1])
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		priority, title := parts[2], strings.Join(parts[3:], " ")
		return m, m.taskCmd("added", func(ctx context.Context) (taskdto.TaskOutput, error) {
			return m.tasks.Create(ctx, title, "", due, priority)
		})

	case "task:title", "task:describe", "task:due", "task:priority":
		if !hasCurrent {
			m.status = "no task selected"
			return m, nil
		}
		edit := taskdto.UpdateInput{ID: current.ID}
		switch parts[0] {
		case "task:title":
			edit.Title = &rest
		case "task:describe":
			edit.Description = &rest
		case "task:due":
			due, err := taskdto.ParseDue(rest)
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			edit.DueDate = &due
		case "task:priority":
			edit.Priority = &rest
		}
		return m, m.taskCmd("updated", func(ctx context.Context) (taskdto.TaskOutput, error) {
			return m.tasks.Update(ctx, edit)
		})

	case "task:done", "task:delete", "task:export":
		if !hasCurrent {
			m.status = "no task selected"
			return m, nil
		}
		switch parts[0] {
		case "task:done":
			return m, m.toggleCmd(current.ID)
		case "task:delete":
			return m, m.deleteCmd(current)
		default:
			return m, m.exportCmd(current.ID)
		}

	case "timer:start":
		return m, m.timerCmd("start", false, m.timer.Start)
	case "timer:pause":
		return m, m.timerCmd("pause", false, m.timer.Pause)
	case "timer:reset":
		return m, m.timerCmd("reset", false, m.timer.Reset)
	case "timer:duration":
		minutes, err := strconv.Atoi(rest)
		if err != nil || minutes <= 0 {
			m.status = "usage: timer:duration <minutes>"
			return m, nil
		}
		return m, m.setDurationCmd(minutes * 60)

	case "list:sort":
		cmd, err := m.taskView.SetSort(rest)
		if err != nil {
			m.status = err.Error()
		}
		m.activeTab = tabTasks
		return m, cmd
	case "list:status":
		cmd, err := m.taskView.SetStatus(rest)
		if err != nil {
			m.status = err.Error()
		}
		m.activeTab = tabTasks
		return m, cmd

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// currentTask is the task shown on the Detail tab, or the list cursor on the
// Tasks tab.
func (m Model) currentTask() (taskdto.TaskOutput, bool) {
	if m.activeTab == tabDetail {
		return m.detailView.Task()
	}
	return m.taskView.Selected()
}

func (m Model) titleOf(id string) string {
	if title := m.taskView.TitleOf(id); title != "" {
		return title
	}
	if t, ok := m.detailView.Task(); ok && t.ID == id {
		return t.Title
	}
	return id
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.taskView, _ = m.taskView.Update(sz)
	m.detailView, _ = m.detailView.Update(sz)
}

func describeTimerError(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrTimerExpired):
		return "time is up, reset (r) or pick a duration first"
	case errors.Is(err, apperrors.ErrTimerRunning):
		return "pause the timer first"
	}
	return err.Error()
}

// ─── async commands ───────────────────────────────────────────────────────────

func tickCmd(generation uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{generation: generation}
	})
}

func (m Model) timerCmd(action string, fromTick bool, op func(context.Context) (timerdto.ResultOutput, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := op(context.Background())
		return timerResultMsg{action: action, out: out, err: err, fromTick: fromTick}
	}
}

func (m Model) setDurationCmd(seconds int) tea.Cmd {
	return m.timerCmd("duration "+components.Clock(seconds), false, func(ctx context.Context) (timerdto.ResultOutput, error) {
		return m.timer.SetDuration(ctx, seconds)
	})
}

func (m Model) taskCmd(action string, op func(context.Context) (taskdto.TaskOutput, error)) tea.Cmd {
	return func() tea.Msg {
		task, err := op(context.Background())
		return taskChangedMsg{action: action, task: task, err: err}
	}
}

func (m Model) toggleCmd(id string) tea.Cmd {
	return m.taskCmd("toggled", func(ctx context.Context) (taskdto.TaskOutput, error) {
		return m.tasks.ToggleStatus(ctx, id)
	})
}

func (m Model) deleteCmd(task taskdto.TaskOutput) tea.Cmd {
	return func() tea.Msg {
		err := m.tasks.Delete(context.Background(), task.ID)
		return taskChangedMsg{action: "deleted", task: task, deleted: true, err: err}
	}
}

func (m Model) exportCmd(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.tasks.Export(context.Background(), id)
		return exportedMsg{out: out, err: err}
	}
}
