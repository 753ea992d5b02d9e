package repository

import (
	"context"
	"time"

	"github.com/sadopc/focusplan/internal/store"
)

func (r *Repository) InsertSubTask(st store.SubTask) (int64, error) {
	return r.store.InsertSubTask(st)
}

// InsertSubTasks persists subs atomically.
func (r *Repository) InsertSubTasks(subs []store.SubTask) ([]int64, error) {
	return r.store.InsertSubTasks(subs)
}

func (r *Repository) SubTask(id int64) (*store.SubTask, error) {
	return r.store.GetSubTask(id)
}

func (r *Repository) UpdateSubTask(st store.SubTask) error {
	return r.store.UpdateSubTask(st)
}

func (r *Repository) DeleteSubTask(id int64) error {
	return r.store.DeleteSubTask(id)
}

func (r *Repository) SubTasks(parentID int64) ([]store.SubTask, error) {
	return r.store.ListSubTasks(parentID)
}

func (r *Repository) SetSubTaskCompletion(id int64, completed bool, at *time.Time) error {
	return r.store.UpdateSubTaskCompletion(id, completed, at)
}

func (r *Repository) SubTaskCounts(parentID int64) (total, completed int, err error) {
	return r.store.CountSubTasks(parentID)
}

func (r *Repository) WatchSubTasks(ctx context.Context, parentID int64) <-chan Update[[]store.SubTask] {
	return watch(ctx, r.store, []store.Table{store.TableSubTasks}, func() ([]store.SubTask, error) {
		return r.store.ListSubTasks(parentID)
	})
}
