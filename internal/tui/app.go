package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/config"
	"github.com/sadopc/focusplan/internal/export"
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

var exportFormats = []export.Format{export.FormatCSV, export.FormatJSON, export.FormatYAML}

// App is the root Bubble Tea model.
type App struct {
	ctl    *app.Controller
	width  int
	height int
	now    time.Time

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	tasks    tasksModel
	detail   detailModel
	plan     planModel
	metrics  metricsModel
	settings settingsModel

	help    help.Model
	spinner spinner.Model
	states  <-chan app.State
	state   app.State
	startup tea.Cmd
	status  string
	isError bool
}

// NewApp builds the UI and starts its repository watches. They stop when ctx
// is cancelled.
func NewApp(ctx context.Context, ctl *app.Controller, defaults config.PlanConfig) App {
	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	states, _ := ctl.Subscribe()

	a := App{
		ctl:        ctl,
		now:        time.Now(),
		activeView: viewTasks,
		tasks:      newTasksModel(ctx, ctl),
		detail:     newDetailModel(ctx, ctl, defaults),
		plan:       newPlanModel(ctx, ctl, defaults),
		metrics:    newMetricsModel(ctx, ctl),
		settings:   newSettingsModel(ctx, ctl, defaults),
		help:       h,
		spinner:    sp,
		states:     states,
	}
	a.tasks.subscribe()
	a.startup = tea.Batch(
		a.tasks.init(),
		a.metrics.subscribe(),
		a.settings.subscribe(),
		a.plan.reset(),
	)
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.startup,
		listenState(a.states),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.tasks.setSize(a.width, contentHeight)
		a.detail.setSize(a.width, contentHeight)
		a.plan.setSize(a.width, contentHeight)
		a.metrics.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTasks
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewDetail
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewPlan
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewMetrics
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab) && a.activeView != viewMetrics:
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		}

	case tickMsg:
		a.now = time.Time(msg)
		cmds = append(cmds, tickCmd())
		// Ticks always drive the timer, whatever view is active.
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if a.state.Kind != app.Loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case stateMsg:
		wasLoading := a.state.Kind == app.Loading
		a.state = app.State(msg)
		switch a.state.Kind {
		case app.Success:
			a.status, a.isError = a.state.Message, false
		case app.Error:
			a.status, a.isError = a.state.Message, true
		}
		cmds = append(cmds, listenState(a.states))
		if a.state.Kind == app.Loading && !wasLoading {
			cmds = append(cmds, a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status, a.isError = msg.text, msg.isError
		return a, nil

	case switchViewMsg:
		a.activeView = msg.view
		return a, nil

	case openTaskMsg:
		a.activeView = viewDetail
		return a, a.detail.open(msg.id)

	case planDoneMsg:
		cmds = append(cmds, a.plan.reset())
		if msg.id != 0 {
			a.activeView = viewDetail
			cmds = append(cmds, a.detail.open(msg.id))
		}
		return a, tea.Batch(cmds...)

	case timerMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case exportDoneMsg:
		a.status, a.isError = "Exported to "+msg.path, false
		a.exportPicking = false
		return a, nil

	case opDoneMsg:
		// Outcome arrives as a stateMsg.
		return a, nil
	}

	// Watch updates go to their owner regardless of the active view.
	if cmd, ok := a.routeUpdate(msg); ok {
		return a, cmd
	}
	return a.updateActiveView(msg)
}

// routeUpdate delivers watch emissions and background results to the view
// that owns them, even when another view is active.
func (a *App) routeUpdate(msg tea.Msg) (tea.Cmd, bool) {
	var cmd tea.Cmd
	switch msg.(type) {
	case updateMsg[[]store.Task]:
		a.tasks, cmd = a.tasks.update(msg)
	case updateMsg[*store.Task], updateMsg[[]store.SubTask], updateMsg[[]store.TimeLog]:
		a.detail, cmd = a.detail.update(msg)
	case updateMsg[repository.EfficiencyMetrics], updateMsg[[]store.DailyLogged], analysisMsg:
		a.metrics, cmd = a.metrics.update(msg)
	case updateMsg[*store.APIConfig], settingsDataMsg:
		a.settings, cmd = a.settings.update(msg)
	default:
		return nil, false
	}
	return cmd, true
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewDetail:
		a.detail, cmd = a.detail.update(msg)
	case viewPlan:
		a.plan, cmd = a.plan.update(msg)
	case viewMetrics:
		a.metrics, cmd = a.metrics.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewDetail:
		return a.detail.formActive
	case viewPlan:
		return a.plan.formActive()
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTasks:
		content = a.tasks.view()
	case viewDetail:
		content = a.detail.view(a.now)
	case viewPlan:
		content = a.plan.view()
	case viewMetrics:
		content = a.metrics.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("focusplan")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	switch {
	case a.state.Kind == app.Loading:
		status = " " + a.spinner.View() + mutedStyle.Render(" Working…")
	case a.status != "" && a.isError:
		status = errorStyle.Render(" " + a.status)
	case a.status != "":
		status = mutedStyle.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.tasks.timer.running() {
		timerInfo = successStyle.Render(" ● " + formatDuration(a.tasks.timer.currentElapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+string(f)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  csv: time logs  json/yaml: tasks with subtasks and logs"))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes to the home directory under a timestamped name.
func (a App) doExport(f export.Format) tea.Cmd {
	repo := a.ctl.Repository()
	return func() tea.Msg {
		snap, err := export.Collect(repo)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		path := filepath.Join(home, export.DefaultFilename(f, time.Now()))
		if err := export.Write(snap, f, path); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
