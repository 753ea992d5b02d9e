package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusplan/internal/ai"
	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/config"
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

// detailModel shows one task with its subtasks and logged time.
type detailModel struct {
	ctl      *app.Controller
	ctx      context.Context
	defaults config.PlanConfig
	width    int
	height   int

	taskID int64
	task   *store.Task
	subs   []store.SubTask
	logs   []store.TimeLog
	err    error
	cursor int

	taskCh <-chan repository.Update[*store.Task]
	subCh  <-chan repository.Update[[]store.SubTask]
	logCh  <-chan repository.Update[[]store.TimeLog]
	cancel context.CancelFunc

	bar progress.Model

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formTitle       *string
	formDescription *string
	formDate        *string
	formHours       *string
}

func newDetailModel(ctx context.Context, ctl *app.Controller, defaults config.PlanConfig) detailModel {
	title, desc, date, hours := "", "", "", ""
	return detailModel{
		ctl:             ctl,
		ctx:             ctx,
		defaults:        defaults,
		bar:             progress.New(progress.WithDefaultGradient()),
		formTitle:       &title,
		formDescription: &desc,
		formDate:        &date,
		formHours:       &hours,
	}
}

func (m *detailModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.bar.Width = max(10, w-20)
}

// open switches the view to task id, dropping the streams of the previous
// task.
func (m *detailModel) open(id int64) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel

	m.taskID = id
	m.task = nil
	m.subs = nil
	m.logs = nil
	m.err = nil
	m.cursor = 0

	repo := m.ctl.Repository()
	m.taskCh = repo.WatchTask(ctx, id)
	m.subCh = repo.WatchSubTasks(ctx, id)
	m.logCh = repo.WatchTimeLogs(ctx, id)
	return tea.Batch(listen(m.taskCh), listen(m.subCh), listen(m.logCh))
}

func (m detailModel) logged(now time.Time) time.Duration {
	var total time.Duration
	for _, l := range m.logs {
		total += l.Elapsed(now)
	}
	return total
}

func (m detailModel) update(msg tea.Msg) (detailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg[*store.Task]:
		if msg.ch != m.taskCh {
			return m, nil
		}
		if errors.Is(msg.Err, store.ErrNotFound) {
			m.task = nil
			m.err = nil
		} else {
			m.task, m.err = msg.Value, msg.Err
		}
		return m, listen(m.taskCh)

	case updateMsg[[]store.SubTask]:
		if msg.ch != m.subCh {
			return m, nil
		}
		if msg.Err != nil {
			m.err = msg.Err
		} else {
			m.subs = msg.Value
		}
		if m.cursor >= len(m.subs) {
			m.cursor = max(0, len(m.subs)-1)
		}
		return m, listen(m.subCh)

	case updateMsg[[]store.TimeLog]:
		if msg.ch != m.logCh {
			return m, nil
		}
		if msg.Err == nil {
			m.logs = msg.Value
		}
		return m, listen(m.logCh)
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m detailModel) updateKeys(msg tea.KeyMsg) (detailModel, tea.Cmd) {
	if key.Matches(msg, keys.Back) {
		return m, func() tea.Msg { return switchViewMsg{view: viewTasks} }
	}
	if m.task == nil {
		return m, nil
	}

	task := *m.task
	ctl := m.ctl
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.subs)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		if m.cursor < len(m.subs) {
			st := m.subs[m.cursor]
			return m, runOp(func() error { return ctl.SetSubTaskCompleted(st.ID, !st.Completed) })
		}
	case key.Matches(msg, keys.New):
		return m.showSubTaskForm()
	case key.Matches(msg, keys.Decompose):
		return m, m.decompose(task)
	case key.Matches(msg, keys.Status):
		next := nextStatus(task.Status)
		return m, runOp(func() error { return ctl.UpdateTaskStatus(task.ID, next) })
	case key.Matches(msg, keys.More):
		p := min(task.Progress+10, 100)
		return m, runOp(func() error { return ctl.UpdateTaskProgress(task.ID, p) })
	case key.Matches(msg, keys.Less):
		p := max(task.Progress-10, 0)
		return m, runOp(func() error { return ctl.UpdateTaskProgress(task.ID, p) })
	case key.Matches(msg, keys.Start):
		return m, func() tea.Msg {
			l, err := ctl.StartTimer(task.ID)
			return timerMsg{log: l, err: err}
		}
	}
	return m, nil
}

// decompose asks the provider for a plan of the task's remaining days.
func (m detailModel) decompose(task store.Task) tea.Cmd {
	ctl, ctx, d := m.ctl, m.ctx, m.defaults
	return runOp(func() error {
		_, hours := ctl.PlanDefaults(d.DaysAvailable, d.HoursPerDay)
		_, err := ctl.DecomposeTask(ctx, task.ID, ctl.RequestFor(task, hours))
		return err
	})
}

func (m detailModel) showSubTaskForm() (detailModel, tea.Cmd) {
	*m.formTitle = ""
	*m.formDescription = ""
	*m.formDate = time.Now().Format(ai.DateLayout)
	*m.formHours = "1"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subtask").Value(m.formTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewInput().Title("Description").Value(m.formDescription),
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(m.formDate).Validate(validateDate),
			huh.NewInput().Title("Estimated hours").Value(m.formHours).Validate(validateHours),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func validateDate(s string) error {
	if _, err := time.ParseInLocation(ai.DateLayout, s, time.Local); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func validateHours(s string) error {
	h, err := strconv.ParseFloat(s, 64)
	if err != nil || h < 0 {
		return errors.New("enter a number of hours")
	}
	return nil
}

func (m detailModel) updateForm(msg tea.Msg) (detailModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.form = nil
		date, _ := time.ParseInLocation(ai.DateLayout, *m.formDate, time.Local)
		hours, _ := strconv.ParseFloat(*m.formHours, 64)
		st := store.SubTask{
			ParentTaskID:   m.taskID,
			Title:          strings.TrimSpace(*m.formTitle),
			Description:    *m.formDescription,
			ScheduledDate:  date,
			EstimatedHours: hours,
		}
		ctl := m.ctl
		return m, runOp(func() error {
			_, err := ctl.AddSubTask(st)
			return err
		})
	}
	return m, cmd
}

func (m detailModel) view(now time.Time) string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Subtask")
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()))
	}

	if m.taskID == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Detail"), "",
			mutedStyle.Render("No task selected. Pick one on the Tasks view and press enter.")))
	}
	if m.err != nil {
		return panelStyle.Width(w).Render(errorStyle.Render("Error: " + m.err.Error()))
	}
	if m.task == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("This task no longer exists. Press esc to go back."))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(w, now),
		m.renderSubTasks(w),
	)
}

func (m detailModel) renderHeader(w int, now time.Time) string {
	t := m.task
	title := titleStyle.Render(t.Title)
	if t.AIGenerated {
		title += accentStyle.Render("  ✦ planned")
	}

	field := func(label, value string) string {
		return mutedStyle.Render(fmt.Sprintf("%-10s", label)) + value
	}

	rows := []string{title}
	if t.Description != "" {
		rows = append(rows, subtitleStyle.Render(t.Description))
	}
	rows = append(rows, "",
		field("Status", statusLabel(t.Status))+"    "+field("Priority", priorityStyle(t.Priority).Render(t.Priority.String())),
		field("Dates", fmt.Sprintf("%s → %s", formatDate(t.StartDate), formatDate(t.DueDate))),
		field("Hours", fmt.Sprintf("%s estimated, %s actual, %s logged",
			formatHours(t.EstimatedHours), formatHours(t.ActualHours), formatDuration(m.logged(now)))),
		"",
		m.bar.ViewAs(float64(t.Progress)/100)+fmt.Sprintf(" %d%%", t.Progress),
	)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m detailModel) renderSubTasks(w int) string {
	done := 0
	for _, st := range m.subs {
		if st.Completed {
			done++
		}
	}
	title := titleStyle.Render("Subtasks") + mutedStyle.Render(fmt.Sprintf("  %d/%d done", done, len(m.subs)))

	var rows []string
	rows = append(rows, title, "")

	if len(m.subs) == 0 {
		rows = append(rows, mutedStyle.Render("No subtasks. Press g to generate a daily plan or n to add one."))
	}

	titleWidth := max(10, w-30)
	var lastGen string
	for i, st := range m.subs {
		if st.GenerationID != "" && st.GenerationID != lastGen && lastGen != "" {
			rows = append(rows, mutedStyle.Render("  ┄┄"))
		}
		lastGen = st.GenerationID

		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := mutedStyle.Render("○")
		if st.Completed {
			check = successStyle.Render("✓")
			style = doneItemStyle
		}
		rows = append(rows, fmt.Sprintf("%s%s %s  %s %s",
			cursor, check,
			mutedStyle.Render(st.ScheduledDate.Local().Format("Mon 02")),
			style.Render(fmt.Sprintf("%-*s", titleWidth, truncate(st.Title, titleWidth))),
			mutedStyle.Render(formatHours(st.EstimatedHours)),
		))
		if i == m.cursor && st.Description != "" {
			rows = append(rows, subtitleStyle.Render("      "+truncate(st.Description, w-10)))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  space: done  n: add  g: generate plan  s: timer  c: status  +/-: progress  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
