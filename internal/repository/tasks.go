package repository

import (
	"context"
	"time"

	"github.com/sadopc/focusplan/internal/store"
)

func (r *Repository) InsertTask(t store.Task) (int64, error) {
	return r.store.InsertTask(t)
}

func (r *Repository) Task(id int64) (*store.Task, error) {
	return r.store.GetTask(id)
}

func (r *Repository) UpdateTask(t store.Task) error {
	return r.store.UpdateTask(t)
}

func (r *Repository) DeleteTask(id int64) error {
	return r.store.DeleteTask(id)
}

func (r *Repository) Tasks() ([]store.Task, error) {
	return r.store.ListTasks()
}

func (r *Repository) TasksByStatus(status store.Status) ([]store.Task, error) {
	return r.store.ListTasksByStatus(status)
}

func (r *Repository) TasksDueBetween(from, to time.Time) ([]store.Task, error) {
	return r.store.ListTasksByDueRange(from, to)
}

func (r *Repository) UpdateTaskProgress(id int64, progress int) error {
	return r.store.UpdateTaskProgress(id, progress)
}

func (r *Repository) UpdateTaskStatus(id int64, status store.Status) error {
	return r.store.UpdateTaskStatus(id, status)
}

// WatchTasks streams the full task list, ordered by due date.
func (r *Repository) WatchTasks(ctx context.Context) <-chan Update[[]store.Task] {
	return watch(ctx, r.store, []store.Table{store.TableTasks}, r.store.ListTasks)
}

func (r *Repository) WatchTasksByStatus(ctx context.Context, status store.Status) <-chan Update[[]store.Task] {
	return watch(ctx, r.store, []store.Table{store.TableTasks}, func() ([]store.Task, error) {
		return r.store.ListTasksByStatus(status)
	})
}

// WatchTask streams a single task. Once the task is deleted every emission
// carries an error wrapping store.ErrNotFound.
func (r *Repository) WatchTask(ctx context.Context, id int64) <-chan Update[*store.Task] {
	return watch(ctx, r.store, []store.Table{store.TableTasks}, func() (*store.Task, error) {
		return r.store.GetTask(id)
	})
}
