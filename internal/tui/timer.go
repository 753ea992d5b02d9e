package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/store"
)

// timerModel mirrors the running time log. Starting and stopping go through
// the controller; the model only tracks what is running and for how long.
type timerModel struct {
	ctl *app.Controller

	log *store.TimeLog
	now time.Time
}

func newTimerModel(ctl *app.Controller) timerModel {
	return timerModel{ctl: ctl, now: time.Now()}
}

// load picks up a timer left running by an earlier session or the CLI.
func (t timerModel) load() tea.Cmd {
	repo := t.ctl.Repository()
	return func() tea.Msg {
		l, err := repo.RunningTimeLog()
		return timerMsg{log: l, err: err}
	}
}

func (t timerModel) start(taskID int64) tea.Cmd {
	ctl := t.ctl
	return func() tea.Msg {
		l, err := ctl.StartTimer(taskID)
		return timerMsg{log: l, err: err}
	}
}

func (t timerModel) stop() tea.Cmd {
	if !t.running() {
		return nil
	}
	ctl := t.ctl
	return func() tea.Msg {
		_, err := ctl.StopTimer()
		return timerMsg{err: err}
	}
}

// apply records the outcome of load, start or stop. Failed calls leave the
// timer as it was.
func (t *timerModel) apply(msg timerMsg) {
	if msg.err != nil {
		return
	}
	t.log = msg.log
}

func (t *timerModel) tick(now time.Time) {
	t.now = now
}

func (t timerModel) running() bool {
	return t.log != nil
}

func (t timerModel) taskID() int64 {
	if t.log == nil {
		return 0
	}
	return t.log.TaskID
}

func (t timerModel) currentElapsed() time.Duration {
	if t.log == nil {
		return 0
	}
	d := t.log.Elapsed(t.now)
	if d < 0 {
		return 0
	}
	return d
}
