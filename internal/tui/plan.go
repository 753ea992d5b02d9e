package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/config"
	"github.com/sadopc/focusplan/internal/store"
)

// planModel is the new-task form. With "Generate daily plan" set the task is
// decomposed by the provider right after it is created.
type planModel struct {
	ctl      *app.Controller
	ctx      context.Context
	defaults config.PlanConfig
	width    int
	height   int

	form       *huh.Form
	submitting bool

	// Form field pointers (survive value copies)
	title       *string
	description *string
	days        *string
	hours       *string
	priority    *string
	decompose   *bool
}

type planDoneMsg struct {
	id  int64 // zero when the task was not created
	err error
}

func newPlanModel(ctx context.Context, ctl *app.Controller, defaults config.PlanConfig) planModel {
	title, desc, days, hours, prio := "", "", "", "", ""
	decompose := true
	return planModel{
		ctl:         ctl,
		ctx:         ctx,
		defaults:    defaults,
		title:       &title,
		description: &desc,
		days:        &days,
		hours:       &hours,
		priority:    &prio,
		decompose:   &decompose,
	}
}

func (p *planModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

// reset builds an empty form prefilled with the stored defaults.
func (p *planModel) reset() tea.Cmd {
	days, hours := p.ctl.PlanDefaults(p.defaults.DaysAvailable, p.defaults.HoursPerDay)
	*p.title = ""
	*p.description = ""
	*p.days = strconv.Itoa(days)
	*p.hours = strconv.FormatFloat(hours, 'f', -1, 64)
	*p.priority = store.PriorityMedium.String()
	*p.decompose = true
	p.submitting = false

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Placeholder("What do you want to get done?").Value(p.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewText().Title("Description").Lines(3).Value(p.description),
		).Title("New task"),
		huh.NewGroup(
			huh.NewInput().Title("Days available").Value(p.days).Validate(validateDays),
			huh.NewInput().Title("Hours per day").Value(p.hours).Validate(validatePositive),
			huh.NewSelect[string]().Title("Priority").
				Options(
					huh.NewOption("Low", store.PriorityLow.String()),
					huh.NewOption("Medium", store.PriorityMedium.String()),
					huh.NewOption("High", store.PriorityHigh.String()),
				).Value(p.priority),
			huh.NewConfirm().Title("Generate daily plan?").
				Description("Splits the task into daily subtasks using the configured model.").
				Value(p.decompose),
		).Title("Schedule"),
	).WithShowHelp(true).WithShowErrors(true)

	return p.form.Init()
}

func validateDays(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter at least 1 day")
	}
	return nil
}

func validatePositive(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return errors.New("enter a positive number")
	}
	return nil
}

// formActive reports whether the form is capturing keys.
func (p planModel) formActive() bool {
	return p.form != nil && !p.submitting && p.form.State == huh.StateNormal
}

func (p planModel) input() app.PlanInput {
	days, _ := strconv.Atoi(strings.TrimSpace(*p.days))
	hours, _ := strconv.ParseFloat(strings.TrimSpace(*p.hours), 64)
	return app.PlanInput{
		Title:         strings.TrimSpace(*p.title),
		Description:   strings.TrimSpace(*p.description),
		DaysAvailable: days,
		HoursPerDay:   hours,
		Priority:      *p.priority,
		Decompose:     *p.decompose,
	}
}

func (p planModel) update(msg tea.Msg) (planModel, tea.Cmd) {
	if p.form == nil || p.submitting {
		return p, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		cmd := p.reset()
		return p, tea.Batch(cmd, func() tea.Msg { return switchViewMsg{view: viewTasks} })
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.submitting = true
		in := p.input()
		ctl, ctx := p.ctl, p.ctx
		return p, func() tea.Msg {
			id, err := ctl.CreatePlannedTask(ctx, in)
			return planDoneMsg{id: id, err: err}
		}
	}
	return p, cmd
}

func (p planModel) view() string {
	w := p.width - 4
	if p.submitting {
		msg := "Creating task…"
		if *p.decompose {
			msg = "Creating task and generating a daily plan…"
		}
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Plan"), "", mutedStyle.Render(msg)))
	}
	if p.form == nil {
		return panelStyle.Width(w).Render(titleStyle.Render("Plan"))
	}
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Plan"), "", p.form.View()))
}
