package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/config"
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

type settingsModel struct {
	ctl      *app.Controller
	ctx      context.Context
	defaults config.PlanConfig
	width    int
	height   int

	api   *store.APIConfig
	apiCh <-chan repository.Update[*store.APIConfig]
	days  int
	hours float64
	err   error

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	baseURL     *string
	apiKey      *string
	model       *string
	maxTokens   *string
	temperature *string
	planDays    *string
	planHours   *string
}

func newSettingsModel(ctx context.Context, ctl *app.Controller, defaults config.PlanConfig) settingsModel {
	bu, ak, mo, mt, te := "", "", "", "", ""
	pd, ph := "", ""
	return settingsModel{
		ctl:         ctl,
		ctx:         ctx,
		defaults:    defaults,
		baseURL:     &bu,
		apiKey:      &ak,
		model:       &mo,
		maxTokens:   &mt,
		temperature: &te,
		planDays:    &pd,
		planHours:   &ph,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *settingsModel) subscribe() tea.Cmd {
	s.apiCh = s.ctl.Repository().WatchAPIConfig(s.ctx)
	return tea.Batch(listen(s.apiCh), s.refresh())
}

type settingsDataMsg struct {
	days  int
	hours float64
}

func (s settingsModel) refresh() tea.Cmd {
	ctl, d := s.ctl, s.defaults
	return func() tea.Msg {
		days, hours := ctl.PlanDefaults(d.DaysAvailable, d.HoursPerDay)
		return settingsDataMsg{days: days, hours: hours}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg[*store.APIConfig]:
		if msg.ch != s.apiCh {
			return s, nil
		}
		s.err = msg.Err
		if msg.Err == nil {
			s.api = msg.Value
		}
		return s, listen(s.apiCh)

	case settingsDataMsg:
		s.days = msg.days
		s.hours = msg.hours
		return s, nil
	}

	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, keys.Enter) || key.Matches(msg, keys.New) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	api := store.DefaultAPIConfig()
	if s.api != nil {
		api = *s.api
	}
	*s.baseURL = api.BaseURL
	*s.apiKey = api.APIKey
	*s.model = api.Model
	*s.maxTokens = strconv.Itoa(api.MaxTokens)
	*s.temperature = strconv.FormatFloat(api.Temperature, 'f', -1, 64)
	*s.planDays = strconv.Itoa(s.days)
	*s.planHours = strconv.FormatFloat(s.hours, 'f', -1, 64)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Base URL").Description("Any OpenAI-compatible endpoint").
				Value(s.baseURL).Validate(required("base URL")),
			huh.NewInput().Title("API key").EchoMode(huh.EchoModePassword).Value(s.apiKey),
			huh.NewInput().Title("Model").Value(s.model).Validate(required("model")),
			huh.NewInput().Title("Max tokens").Value(s.maxTokens).Validate(validatePositiveInt),
			huh.NewInput().Title("Temperature").Value(s.temperature).Validate(validateTemperature),
		).Title("Model provider"),
		huh.NewGroup(
			huh.NewInput().Title("Default days available").Value(s.planDays).Validate(validateDays),
			huh.NewInput().Title("Default hours per day").Value(s.planHours).Validate(validatePositive),
		).Title("Planning"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func required(name string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validatePositiveInt(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return errors.New("enter a positive whole number")
	}
	return nil
}

func validateTemperature(v string) error {
	t, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || t < 0 || t > 2 {
		return errors.New("enter a number between 0 and 2")
	}
	return nil
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s, tea.Sequence(s.save(), s.refresh())
	}

	return s, cmd
}

// save stores the provider connection, marking it configured, then the
// planning defaults.
func (s settingsModel) save() tea.Cmd {
	api := store.DefaultAPIConfig()
	if s.api != nil {
		api = *s.api
	}
	api.BaseURL = strings.TrimSpace(*s.baseURL)
	api.APIKey = strings.TrimSpace(*s.apiKey)
	api.Model = strings.TrimSpace(*s.model)
	api.MaxTokens, _ = strconv.Atoi(strings.TrimSpace(*s.maxTokens))
	api.Temperature, _ = strconv.ParseFloat(strings.TrimSpace(*s.temperature), 64)
	api.Configured = true
	days, _ := strconv.Atoi(strings.TrimSpace(*s.planDays))
	hours, _ := strconv.ParseFloat(strings.TrimSpace(*s.planHours), 64)

	ctl := s.ctl
	return runOp(func() error {
		if err := ctl.SaveAPIConfig(api); err != nil {
			return err
		}
		return ctl.SavePlanDefaults(days, hours)
	})
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, title, "")

	row := func(label, value string) {
		l := lipgloss.NewStyle().Width(24).Render(label)
		rows = append(rows, fmt.Sprintf("  %s %s", l, highlightStyle.Render(value)))
	}

	if s.err != nil {
		rows = append(rows, errorStyle.Render("  Error: "+s.err.Error()))
	} else if s.api != nil {
		status := warningStyle.Render("not configured")
		if s.api.Configured {
			status = successStyle.Render("configured")
		}
		rows = append(rows, subtitleStyle.Render("  Model provider  ")+status)
		row("Base URL", s.api.BaseURL)
		row("API key", maskKey(s.api.APIKey))
		row("Model", s.api.Model)
		row("Max tokens", strconv.Itoa(s.api.MaxTokens))
		row("Temperature", strconv.FormatFloat(s.api.Temperature, 'f', -1, 64))
	}

	rows = append(rows, "", subtitleStyle.Render("  Planning"))
	row("Days available", strconv.Itoa(s.days))
	row("Hours per day", strconv.FormatFloat(s.hours, 'f', -1, 64))

	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return strings.Repeat("•", len(key))
	}
	return key[:3] + strings.Repeat("•", 6) + key[len(key)-4:]
}
