package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sadopc/focusplan/internal/ai"
	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/store"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
}

func renderTasks(w io.Writer, tasks []store.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	t := newTable("ID", "Title", "Priority", "Status", "Progress", "Due")
	for _, task := range tasks {
		t.Row(
			strconv.FormatInt(task.ID, 10),
			task.Title,
			task.Priority.String(),
			string(task.Status),
			fmt.Sprintf("%d%%", task.Progress),
			formatDate(task.DueDate),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderTask(w io.Writer, task *store.Task, subs []store.SubTask, logged time.Duration) {
	fmt.Fprintln(w, titleStyle.Render(task.Title))
	if task.Description != "" {
		fmt.Fprintln(w, task.Description)
	}
	field := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
	}
	field("ID", strconv.FormatInt(task.ID, 10))
	field("Priority", task.Priority.String())
	field("Status", string(task.Status))
	field("Progress", fmt.Sprintf("%d%%", task.Progress))
	field("Start", formatDate(task.StartDate))
	field("Due", formatDate(task.DueDate))
	if task.CompletedAt != nil {
		field("Completed", formatDate(*task.CompletedAt))
	}
	field("Estimate", fmt.Sprintf("%.1fh", task.EstimatedHours))
	field("Actual", fmt.Sprintf("%.1fh", task.ActualHours))
	field("Logged", formatDuration(logged))
	if task.AIGenerated {
		field("Planned", "yes")
	}

	if len(subs) == 0 {
		return
	}
	fmt.Fprintln(w)
	renderSubTasks(w, subs)
}

func renderSubTasks(w io.Writer, subs []store.SubTask) {
	t := newTable("ID", "Date", "Title", "Hours", "Done")
	for _, st := range subs {
		done := ""
		if st.Completed {
			done = "✓"
		}
		t.Row(
			strconv.FormatInt(st.ID, 10),
			formatDate(st.ScheduledDate),
			st.Title,
			fmt.Sprintf("%.1f", st.EstimatedHours),
			done,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderTimeLogs(w io.Writer, logs []store.TimeLog, now time.Time) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No time logged.")
		return
	}
	t := newTable("ID", "Task", "Start", "End", "Duration")
	for _, l := range logs {
		end := "running"
		if l.EndTime != nil {
			end = l.EndTime.Local().Format("2006-01-02 15:04")
		}
		t.Row(
			strconv.FormatInt(l.ID, 10),
			strconv.FormatInt(l.TaskID, 10),
			l.StartTime.Local().Format("2006-01-02 15:04"),
			end,
			formatDuration(l.Elapsed(now)),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderAPIConfig(w io.Writer, c *store.APIConfig) {
	field := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label+":")), value)
	}
	field("Base URL", c.BaseURL)
	field("API key", maskKey(c.APIKey))
	field("Model", c.Model)
	field("Max tokens", strconv.Itoa(c.MaxTokens))
	field("Temperature", strconv.FormatFloat(c.Temperature, 'f', -1, 64))
	field("Configured", strconv.FormatBool(c.Configured))
}

// reportState prints a Success message; errors are returned to cobra.
func reportState(w io.Writer, s app.State) {
	if s.Kind == app.Success && s.Message != "" {
		fmt.Fprintln(w, successStyle.Render(s.Message))
	}
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(ai.DateLayout)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseDate reads YYYY-MM-DD in local time. Empty input yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(ai.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
