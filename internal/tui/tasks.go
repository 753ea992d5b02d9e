package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

// taskFilters are cycled with f. The empty status means all tasks.
var taskFilters = []store.Status{"", store.StatusPending, store.StatusInProgress, store.StatusCompleted}

type tasksModel struct {
	ctl    *app.Controller
	ctx    context.Context
	width  int
	height int

	timer  timerModel
	tasks  []store.Task
	err    error
	cursor int
	filter int

	watch  <-chan repository.Update[[]store.Task]
	cancel context.CancelFunc

	bar progress.Model

	formActive bool
	form       *huh.Form
	confirmDel *bool
}

func newTasksModel(ctx context.Context, ctl *app.Controller) tasksModel {
	yes := false
	return tasksModel{
		ctl:        ctl,
		ctx:        ctx,
		timer:      newTimerModel(ctl),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(12), progress.WithoutPercentage()),
		confirmDel: &yes,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

// subscribe replaces the task stream with one for the current filter.
func (m *tasksModel) subscribe() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel

	repo := m.ctl.Repository()
	if status := taskFilters[m.filter]; status != "" {
		m.watch = repo.WatchTasksByStatus(ctx, status)
	} else {
		m.watch = repo.WatchTasks(ctx)
	}
	return listen(m.watch)
}

func (m tasksModel) init() tea.Cmd {
	return tea.Batch(listen(m.watch), m.timer.load())
}

func (m tasksModel) selected() (store.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return store.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m tasksModel) title(id int64) string {
	for _, t := range m.tasks {
		if t.ID == id {
			return t.Title
		}
	}
	if t, err := m.ctl.Repository().Task(id); err == nil {
		return t.Title
	}
	return fmt.Sprintf("task %d", id)
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg[[]store.Task]:
		if msg.ch != m.watch {
			return m, nil // stream from a previous filter
		}
		m.err = msg.Err
		if msg.Err == nil {
			m.tasks = msg.Value
		}
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, listen(m.watch)

	case timerMsg:
		m.timer.apply(msg)
		return m, nil

	case tickMsg:
		m.timer.tick(time.Time(msg))
		return m, nil
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m tasksModel) updateKeys(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	task, ok := m.selected()

	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Filter):
		m.filter = (m.filter + 1) % len(taskFilters)
		m.cursor = 0
		return m, m.subscribe()
	case key.Matches(msg, keys.New):
		return m, func() tea.Msg { return switchViewMsg{view: viewPlan} }
	case key.Matches(msg, keys.Stop):
		return m, m.timer.stop()
	}

	if !ok {
		if key.Matches(msg, keys.Start) {
			return m, func() tea.Msg {
				return statusMsg{text: "No tasks yet. Press n to plan one.", isError: true}
			}
		}
		return m, nil
	}

	ctl := m.ctl
	switch {
	case key.Matches(msg, keys.Enter):
		return m, func() tea.Msg { return openTaskMsg{id: task.ID} }
	case key.Matches(msg, keys.Start):
		return m, m.timer.start(task.ID)
	case key.Matches(msg, keys.Status):
		next := nextStatus(task.Status)
		return m, runOp(func() error { return ctl.UpdateTaskStatus(task.ID, next) })
	case key.Matches(msg, keys.More):
		p := min(task.Progress+10, 100)
		return m, runOp(func() error { return ctl.UpdateTaskProgress(task.ID, p) })
	case key.Matches(msg, keys.Less):
		p := max(task.Progress-10, 0)
		return m, runOp(func() error { return ctl.UpdateTaskProgress(task.ID, p) })
	case key.Matches(msg, keys.Delete):
		return m.showConfirm(task)
	}
	return m, nil
}

func nextStatus(s store.Status) store.Status {
	for i, st := range store.Statuses {
		if st == s {
			return store.Statuses[(i+1)%len(store.Statuses)]
		}
	}
	return store.StatusPending
}

func (m tasksModel) showConfirm(task store.Task) (tasksModel, tea.Cmd) {
	*m.confirmDel = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", task.Title)).
				Description("Its subtasks and time logs are deleted too.").
				Affirmative("Delete").
				Negative("Keep").
				Value(m.confirmDel),
		),
	).WithShowHelp(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.formActive = false
		m.form = nil
		task, ok := m.selected()
		if !ok || !*m.confirmDel {
			return m, nil
		}
		ctl := m.ctl
		return m, runOp(func() error { return ctl.DeleteTask(task.ID) })
	case huh.StateAborted:
		m.formActive = false
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m tasksModel) view() string {
	if m.width < 20 {
		return "Terminal too small"
	}
	w := m.width - 4

	if m.formActive && m.form != nil {
		return activePanelStyle.Width(w).Render(m.form.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTimerPanel(w),
		m.renderTaskList(w),
	)
}

func (m tasksModel) renderTimerPanel(w int) string {
	if m.timer.running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(m.timer.currentElapsed()))
		indicator := successStyle.Render("●  RUNNING")
		taskLine := highlightStyle.Render(m.title(m.timer.taskID()))
		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, taskLine)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  STOPPED")
	hint := mutedStyle.Render("Select a task and press s to start tracking")
	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, hint)
	return panelStyle.Width(w).Render(content)
}

func (m tasksModel) renderTaskList(w int) string {
	label := "All"
	if f := taskFilters[m.filter]; f != "" {
		label = statusLabel(f)
	}
	title := titleStyle.Render("Tasks") + mutedStyle.Render("  "+label)

	if m.err != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", errorStyle.Render("Error: "+m.err.Error())))
	}
	if len(m.tasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No tasks. Press n to plan one.")))
	}

	titleWidth := max(10, w-52)
	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-*s %-8s %-12s %-16s %s",
		titleWidth, "Title", "Priority", "Status", "Progress", "Due")))

	for i, t := range m.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		marker := " "
		if m.timer.running() && m.timer.taskID() == t.ID {
			marker = successStyle.Render("●")
		}
		name := style.Render(fmt.Sprintf("%-*s", titleWidth, truncate(t.Title, titleWidth)))
		prio := priorityStyle(t.Priority).Render(fmt.Sprintf("%-8s", t.Priority))
		status := fmt.Sprintf("%-12s", statusLabel(t.Status))
		bar := m.bar.ViewAs(float64(t.Progress) / 100)
		rows = append(rows, fmt.Sprintf("%s%s %s %s %s %s %3d%% %s",
			cursor, marker, name, prio, status, bar, t.Progress, formatDate(t.DueDate)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: open  s/x: timer  c: status  +/-: progress  f: filter  d: delete  n: new"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func statusLabel(s store.Status) string {
	switch s {
	case store.StatusPending:
		return "Pending"
	case store.StatusInProgress:
		return "In progress"
	case store.StatusCompleted:
		return "Completed"
	}
	return string(s)
}

func priorityStyle(p store.Priority) lipgloss.Style {
	switch p {
	case store.PriorityHigh:
		return errorStyle
	case store.PriorityMedium:
		return warningStyle
	}
	return mutedStyle
}
