package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

// metricRanges are the chart spans cycled with tab, in days.
var metricRanges = []int{7, 14, 30}

type metricsModel struct {
	ctl    *app.Controller
	ctx    context.Context
	width  int
	height int

	metrics repository.EfficiencyMetrics
	rating  string
	daily   []store.DailyLogged
	err     error
	span    int // index into metricRanges

	metricsCh <-chan repository.Update[repository.EfficiencyMetrics]
	dailyCh   <-chan repository.Update[[]store.DailyLogged]
	cancel    context.CancelFunc

	analysis  string
	analyzing bool

	chart barchart.Model
}

type analysisMsg struct {
	text string
	err  error
}

func newMetricsModel(ctx context.Context, ctl *app.Controller) metricsModel {
	return metricsModel{
		ctl:   ctl,
		ctx:   ctx,
		chart: barchart.New(60, 12),
	}
}

func (m *metricsModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.buildChart(time.Now())
}

func (m *metricsModel) subscribe() tea.Cmd {
	repo := m.ctl.Repository()
	if m.metricsCh == nil {
		m.metricsCh = repo.WatchDetailedMetrics(m.ctx)
	}
	return tea.Batch(listen(m.metricsCh), m.subscribeDaily())
}

// subscribeDaily restarts the per-day stream for the current span.
func (m *metricsModel) subscribeDaily() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.dailyCh = m.ctl.Repository().WatchDailyLogged(ctx, metricRanges[m.span])
	return listen(m.dailyCh)
}

func (m metricsModel) days() int {
	return metricRanges[m.span]
}

func (m metricsModel) update(msg tea.Msg) (metricsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg[repository.EfficiencyMetrics]:
		if msg.ch != m.metricsCh {
			return m, nil
		}
		m.err = msg.Err
		if msg.Err == nil {
			m.metrics = msg.Value
			m.rating = m.ctl.Rate(msg.Value)
		}
		return m, listen(m.metricsCh)

	case updateMsg[[]store.DailyLogged]:
		if msg.ch != m.dailyCh {
			return m, nil
		}
		if msg.Err == nil {
			m.daily = msg.Value
			m.buildChart(time.Now())
		}
		return m, listen(m.dailyCh)

	case analysisMsg:
		m.analyzing = false
		if msg.err == nil {
			m.analysis = msg.text
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Tab):
			m.span = (m.span + 1) % len(metricRanges)
			return m, m.subscribeDaily()
		case key.Matches(msg, keys.Analyze):
			if m.analyzing {
				return m, nil
			}
			m.analyzing = true
			ctl, ctx := m.ctl, m.ctx
			return m, func() tea.Msg {
				text, err := ctl.AnalyzeEfficiency(ctx)
				return analysisMsg{text: text, err: err}
			}
		}
	}
	return m, nil
}

// buildChart draws one bar per day of the span ending today; days without
// logs get an empty bar.
func (m *metricsModel) buildChart(now time.Time) {
	chartWidth := max(20, m.width-8)
	chartHeight := 10
	if m.height > 34 {
		chartHeight = 14
	}
	m.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]time.Duration, len(m.daily))
	for _, d := range m.daily {
		byDate[d.Date] = d.Duration
	}

	days := m.days()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var bars []barchart.BarData
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		label := day.Format("02")
		if days <= 7 {
			label = day.Format("Mon")
		}
		hours := byDate[day.Format("2006-01-02")].Hours()
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if hours == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: "hours", Value: hours, Style: style}},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m metricsModel) view() string {
	w := m.width - 4
	header := titleStyle.Render("Metrics")

	if m.err != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", errorStyle.Render("Error: "+m.err.Error())))
	}

	var spans []string
	for i, d := range metricRanges {
		label := fmt.Sprintf("%dd", d)
		if i == m.span {
			spans = append(spans, activeTabStyle.Render(label))
		} else {
			spans = append(spans, inactiveTabStyle.Render(label))
		}
	}
	chartHeader := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Hours logged"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, spans...))

	var total time.Duration
	for _, d := range m.daily {
		total += d.Duration
	}

	nav := mutedStyle.Render("  tab: change range  a: analyze with AI")

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "",
		m.renderSummary(),
		"",
		chartHeader,
		m.chart.View(),
		mutedStyle.Render(fmt.Sprintf("  %s over the last %d days", formatDuration(total), m.days())),
		"",
		m.renderAnalysis(w),
		nav,
	))
}

func (m metricsModel) renderSummary() string {
	mt := m.metrics
	ratingStyle, ok := ratingStyles[m.rating]
	if !ok {
		ratingStyle = mutedStyle
	}

	row := func(label, value string) string {
		return "  " + lipgloss.NewStyle().Width(22).Render(label) + highlightStyle.Render(value)
	}
	return strings.Join([]string{
		row("Tasks completed", fmt.Sprintf("%d of %d", mt.CompletedTasks, mt.TotalTasks)),
		row("Completion rate", fmt.Sprintf("%.1f%%", mt.CompletionRate)),
		row("Efficiency score", fmt.Sprintf("%.1f", mt.EfficiencyScore)) + "  " + ratingStyle.Render(m.rating),
		row("Avg estimated / actual", fmt.Sprintf("%s / %s", formatHours(mt.AverageEstimatedHours), formatHours(mt.AverageActualHours))),
		row("On time", fmt.Sprintf("%.1f%%", mt.OnTimeCompletionRate)),
	}, "\n")
}

func (m metricsModel) renderAnalysis(w int) string {
	switch {
	case m.analyzing:
		return mutedStyle.Render("  Analyzing…") + "\n"
	case m.analysis == "":
		return ""
	}
	body := lipgloss.NewStyle().Width(max(20, w-8)).PaddingLeft(2).Render(m.analysis)
	return titleStyle.Render("Analysis") + "\n" + body + "\n"
}
