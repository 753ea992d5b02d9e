package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTasks viewState = iota
	viewDetail
	viewPlan
	viewMetrics
	viewSettings
)

var viewNames = []string{"Tasks", "Detail", "Plan", "Metrics", "Settings"}

// --- Messages ---

// updateMsg carries one repository watch emission together with the channel
// it came from, so the receiver can keep listening or drop stale streams.
type updateMsg[T any] struct {
	repository.Update[T]
	ch <-chan repository.Update[T]
}

// listen waits for the next value on ch. A closed channel yields no message.
func listen[T any](ch <-chan repository.Update[T]) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return updateMsg[T]{Update: u, ch: ch}
	}
}

type stateMsg app.State

func listenState(ch <-chan app.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

type timerMsg struct {
	log *store.TimeLog // nil when no timer is running
	err error
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type openTaskMsg struct {
	id int64
}

type switchViewMsg struct {
	view viewState
}

// opDoneMsg reports a controller call finished. Its outcome is shown through
// the controller state, so only err is kept for views that react to it.
type opDoneMsg struct {
	err error
}

func runOp(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: fn()}
	}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 02")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
