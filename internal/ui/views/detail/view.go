package detail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	taskdto "pomotrack/internal/modules/task/dto"
	timerdto "pomotrack/internal/modules/timer/dto"
	"pomotrack/internal/ui/components"
	"pomotrack/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is the minimal interface this view needs from the task use-case.
type Port interface {
	Get(ctx context.Context, id string) (taskdto.TaskDetailOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Task taskdto.TaskDetailOutput
	Err  error
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model shows one task with the timer panel, its description and its
// session history.
type Model struct {
	port     Port
	task     taskdto.TaskDetailOutput
	timer    timerdto.StateOutput
	viewport viewport.Model
	spinner  spinner.Model
	bar      progress.Model
	renderer *glamour.TermRenderer
	err      error
	loading  bool
	width    int
	height   int
}

func New(port Port) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	r, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(0),
	)

	return Model{
		port:     port,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		bar:      progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Lavender)), progress.WithoutPercentage()),
		renderer: r,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.viewport.SetContent(m.renderBody())

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			if msg.Task.ID != m.task.ID {
				m.viewport.GotoTop()
			}
			m.task = msg.Task
		}
		m.viewport.SetContent(m.renderBody())

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var vCmd tea.Cmd
	m.viewport, vCmd = m.viewport.Update(msg)
	cmds = append(cmds, vCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.task.ID == "" && !m.loading && m.err == nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("Pick a task on the Tasks tab and press enter."))
	}
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading task…")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderTimer(), m.viewport.View())
}

// Load fetches the task with id and shows the spinner until it arrives.
func (m *Model) Load(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	if id != m.task.ID {
		m.loading = true
	}
	return tea.Batch(m.loadCmd(id), m.spinner.Tick)
}

// Refresh reloads the shown task, if any, without the spinner.
func (m Model) Refresh() tea.Cmd {
	if m.task.ID == "" {
		return nil
	}
	return m.loadCmd(m.task.ID)
}

// Clear forgets the shown task, e.g. after it was deleted.
func (m *Model) Clear() {
	m.task = taskdto.TaskDetailOutput{}
	m.viewport.SetContent("")
}

func (m *Model) SetTimer(state timerdto.StateOutput) {
	m.timer = state
}

func (m Model) Task() (taskdto.TaskOutput, bool) {
	return m.task.TaskOutput, m.task.ID != ""
}

// ─── private ─────────────────────────────────────────────────────────────────

const headerLines = 6

func (m *Model) resize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.height - headerLines
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.bar.Width = m.width / 2
	if r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(m.width-4),
	); err == nil {
		m.renderer = r
	}
}

func (m Model) renderHeader() string {
	if m.err != nil {
		return theme.Bad.Render("Error: " + m.err.Error())
	}
	t := m.task
	due, overdue := components.Due(t.DueDate, time.Now(), t.Status == taskdto.StatusComplete)
	dueStyle := theme.Muted
	if overdue {
		dueStyle = theme.Bad
	}
	status := theme.Muted.Render(t.Status)
	if t.Status == taskdto.StatusComplete {
		status = theme.Good.Render("complete")
		if t.CompletedAt != nil {
			status += theme.Muted.Render(" " + t.CompletedAt.Local().Format("2006-01-02 15:04"))
		}
	}
	line := strings.Join([]string{
		theme.Priority(t.Priority).Render(t.Priority),
		status,
		dueStyle.Render(due + " (" + t.DueDate.Local().Format("2006-01-02 15:04") + ")"),
		theme.Muted.Render("spent " + components.Spent(t.TimeSpent)),
	}, theme.Muted.Render(" · "))
	return theme.Title.Render(t.Title) + "\n" + line + "\n"
}

func (m Model) renderTimer() string {
	s := m.timer
	if s.Duration == 0 {
		return ""
	}
	elapsed := 1 - float64(s.RemainingTime)/float64(s.Duration)
	state := theme.Muted.Render("paused")
	switch {
	case s.IsRunning && s.TaskID == m.task.ID:
		state = theme.Hot.Render("● on this task")
	case s.IsRunning && s.TaskID == "":
		state = theme.Hot.Render("● running, not logging")
	case s.IsRunning:
		state = theme.Hot.Render("● on another task")
	case s.Expired():
		state = theme.Good.Render("done, press r to reset")
	}
	return theme.Clock.Render(components.Clock(s.RemainingTime)) + "  " +
		m.bar.ViewAs(elapsed) + "  " + state + "\n" +
		theme.Muted.Render("space: start/pause  r: reset  1/2/3: "+presetLabel(s.Presets)) + "\n"
}

func (m Model) renderBody() string {
	t := m.task
	if t.ID == "" {
		return ""
	}
	var sb strings.Builder
	if strings.TrimSpace(t.Description) != "" {
		desc := t.Description
		if m.renderer != nil {
			if rendered, err := m.renderer.Render(desc); err == nil {
				desc = rendered
			}
		}
		sb.WriteString(desc + "\n")
	}
	sb.WriteString(theme.Title.Render(fmt.Sprintf("Sessions (%d)", len(t.Sessions))) + "\n")
	if len(t.Sessions) == 0 {
		sb.WriteString(theme.Muted.Render("No sessions recorded.") + "\n")
		return sb.String()
	}
	for i := len(t.Sessions) - 1; i >= 0; i-- {
		s := t.Sessions[i]
		sb.WriteString(fmt.Sprintf("%3d  %s → %s  %s\n", i+1,
			s.StartTime.Local().Format("2006-01-02 15:04:05"),
			s.EndTime.Local().Format("15:04:05"),
			components.Spent(s.Duration)))
	}
	return sb.String()
}

func presetLabel(presets []int) string {
	labels := make([]string, 0, len(presets))
	for _, p := range presets {
		labels = append(labels, fmt.Sprintf("%dm", p/60))
	}
	return strings.Join(labels, "/")
}

func (m Model) loadCmd(id string) tea.Cmd {
	return func() tea.Msg {
		task, err := m.port.Get(context.Background(), id)
		return LoadedMsg{Task: task, Err: err}
	}
}
