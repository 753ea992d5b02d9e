package repository

import (
	"context"
	"time"

	"github.com/sadopc/focusplan/internal/store"
)

func (r *Repository) InsertTimeLog(l store.TimeLog) (int64, error) {
	return r.store.InsertTimeLog(l)
}

func (r *Repository) StartTimeLog(taskID int64) (*store.TimeLog, error) {
	return r.store.StartTimeLog(taskID)
}

func (r *Repository) StopTimeLog(id int64) (*store.TimeLog, error) {
	return r.store.StopTimeLog(id)
}

// StopTimeLogAndAccrue stops the log and credits its duration to the task
// atomically.
func (r *Repository) StopTimeLogAndAccrue(id int64) (*store.TimeLog, error) {
	return r.store.StopTimeLogAndAccrue(id)
}

func (r *Repository) TimeLog(id int64) (*store.TimeLog, error) {
	return r.store.GetTimeLog(id)
}

// RunningTimeLog returns the open log, or nil when no timer is running.
func (r *Repository) RunningTimeLog() (*store.TimeLog, error) {
	return r.store.GetRunningTimeLog()
}

func (r *Repository) UpdateTimeLog(l store.TimeLog) error {
	return r.store.UpdateTimeLog(l)
}

func (r *Repository) DeleteTimeLog(id int64) error {
	return r.store.DeleteTimeLog(id)
}

func (r *Repository) TimeLogs(taskID int64) ([]store.TimeLog, error) {
	return r.store.ListTimeLogsByTask(taskID)
}

func (r *Repository) TimeLogsBetween(from, to time.Time) ([]store.TimeLog, error) {
	return r.store.ListTimeLogsByRange(from, to)
}

func (r *Repository) TotalLogged(taskID int64) (time.Duration, error) {
	return r.store.TotalDurationByTask(taskID)
}

func (r *Repository) DailyLogged(from, to time.Time) ([]store.DailyLogged, error) {
	return r.store.DailyLogged(from, to)
}

// WatchTimeLogs streams the logs of taskID, newest first.
func (r *Repository) WatchTimeLogs(ctx context.Context, taskID int64) <-chan Update[[]store.TimeLog] {
	return watch(ctx, r.store, []store.Table{store.TableTimeLogs}, func() ([]store.TimeLog, error) {
		return r.store.ListTimeLogsByTask(taskID)
	})
}

// WatchDailyLogged streams per-day totals for the local days back from
// today, including today.
func (r *Repository) WatchDailyLogged(ctx context.Context, days int) <-chan Update[[]store.DailyLogged] {
	return watch(ctx, r.store, []store.Table{store.TableTimeLogs}, func() ([]store.DailyLogged, error) {
		now := time.Now()
		to := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		return r.store.DailyLogged(to.AddDate(0, 0, -days), to)
	})
}
