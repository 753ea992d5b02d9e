package store

import (
	"database/sql"
	"fmt"
	"time"
)

const subTaskColumns = `id, parent_task_id, title, description, scheduled_date, estimated_hours, actual_hours,
	completed, completed_at, generation_id, created_at`

func scanSubTask(r rowScanner) (SubTask, error) {
	var st SubTask
	var scheduled, createdAt string
	var completed int
	var completedAt sql.NullString
	err := r.Scan(&st.ID, &st.ParentTaskID, &st.Title, &st.Description, &scheduled, &st.EstimatedHours,
		&st.ActualHours, &completed, &completedAt, &st.GenerationID, &createdAt)
	if err != nil {
		return SubTask{}, err
	}
	st.ScheduledDate = parseTime(scheduled)
	st.Completed = completed == 1
	st.CompletedAt = parseNullTime(completedAt)
	st.CreatedAt = parseTime(createdAt)
	return st, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) insertSubTask(ex execer, st SubTask) (int64, error) {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = s.now()
	}
	res, err := ex.Exec(
		`INSERT INTO subtasks (parent_task_id, title, description, scheduled_date, estimated_hours, actual_hours,
			completed, completed_at, generation_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ParentTaskID, st.Title, st.Description, formatTime(st.ScheduledDate), st.EstimatedHours,
		st.ActualHours, boolInt(st.Completed), nullTime(st.CompletedAt), st.GenerationID,
		formatTime(st.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertSubTask stores st and returns the generated id. The parent task must exist.
func (s *Store) InsertSubTask(st SubTask) (int64, error) {
	id, err := s.insertSubTask(s.db, st)
	if err != nil {
		return 0, fmt.Errorf("insert subtask: %w", err)
	}
	s.notify(TableSubTasks)
	return id, nil
}

// InsertSubTasks stores all of subs in one transaction: either every row is
// written or none is.
func (s *Store) InsertSubTasks(subs []SubTask) ([]int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("insert subtasks: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(subs))
	for i, st := range subs {
		id, err := s.insertSubTask(tx, st)
		if err != nil {
			return nil, fmt.Errorf("insert subtask %d of %d: %w", i+1, len(subs), err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit subtasks: %w", err)
	}
	s.notify(TableSubTasks)
	return ids, nil
}

func (s *Store) GetSubTask(id int64) (*SubTask, error) {
	st, err := scanSubTask(s.db.QueryRow(`SELECT `+subTaskColumns+` FROM subtasks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get subtask %d: %w", id, notFound(err))
	}
	return &st, nil
}

// UpdateSubTask replaces every mutable column of the row with st.
func (s *Store) UpdateSubTask(st SubTask) error {
	res, err := s.db.Exec(
		`UPDATE subtasks SET parent_task_id = ?, title = ?, description = ?, scheduled_date = ?, estimated_hours = ?,
			actual_hours = ?, completed = ?, completed_at = ?, generation_id = ?
		 WHERE id = ?`,
		st.ParentTaskID, st.Title, st.Description, formatTime(st.ScheduledDate), st.EstimatedHours,
		st.ActualHours, boolInt(st.Completed), nullTime(st.CompletedAt), st.GenerationID, st.ID,
	)
	if err != nil {
		return fmt.Errorf("update subtask %d: %w", st.ID, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("update subtask %d: %w", st.ID, err)
	}
	s.notify(TableSubTasks)
	return nil
}

func (s *Store) DeleteSubTask(id int64) error {
	res, err := s.db.Exec(`DELETE FROM subtasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subtask %d: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("delete subtask %d: %w", id, err)
	}
	s.notify(TableSubTasks)
	return nil
}

// ListSubTasks returns the subtasks of parentID ordered by scheduled date.
func (s *Store) ListSubTasks(parentID int64) ([]SubTask, error) {
	rows, err := s.db.Query(
		`SELECT `+subTaskColumns+` FROM subtasks WHERE parent_task_id = ? ORDER BY scheduled_date ASC, id ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	var subs []SubTask
	for rows.Next() {
		st, err := scanSubTask(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, st)
	}
	return subs, rows.Err()
}

// UpdateSubTaskCompletion sets the completed flag and timestamp. completedAt
// may be nil, e.g. when a subtask is reopened.
func (s *Store) UpdateSubTaskCompletion(id int64, completed bool, completedAt *time.Time) error {
	res, err := s.db.Exec(
		`UPDATE subtasks SET completed = ?, completed_at = ? WHERE id = ?`,
		boolInt(completed), nullTime(completedAt), id,
	)
	if err != nil {
		return fmt.Errorf("update subtask %d completion: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("update subtask %d completion: %w", id, err)
	}
	s.notify(TableSubTasks)
	return nil
}

// CountSubTasks returns how many subtasks parentID has and how many are done.
func (s *Store) CountSubTasks(parentID int64) (total, completed int, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM subtasks WHERE parent_task_id = ?`, parentID,
	).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("count subtasks: %w", err)
	}
	return total, completed, nil
}
