package store

import (
	"database/sql"
	"fmt"
	"time"
)

const taskColumns = `id, title, description, start_date, due_date, priority, status, estimated_hours,
	actual_hours, progress, ai_generated, parent_task_id, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (Task, error) {
	var t Task
	var startDate, dueDate, createdAt, updatedAt string
	var completedAt sql.NullString
	var aiGenerated int
	var parentID sql.NullInt64
	err := r.Scan(&t.ID, &t.Title, &t.Description, &startDate, &dueDate, &t.Priority, &t.Status,
		&t.EstimatedHours, &t.ActualHours, &t.Progress, &aiGenerated, &parentID, &createdAt, &updatedAt,
		&completedAt)
	if err != nil {
		return Task{}, err
	}
	t.StartDate = parseTime(startDate)
	t.DueDate = parseTime(dueDate)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.CompletedAt = parseNullTime(completedAt)
	t.AIGenerated = aiGenerated == 1
	if parentID.Valid {
		t.ParentTaskID = &parentID.Int64
	}
	return t, nil
}

// InsertTask stores t and returns the generated id. Zero-valued status,
// priority and timestamps fall back to their defaults; a completed task
// without CompletedAt is stamped now.
func (s *Store) InsertTask(t Task) (int64, error) {
	now := s.now()
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == 0 {
		t.Priority = PriorityLow
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if t.Status == StatusCompleted && t.CompletedAt == nil {
		t.CompletedAt = &now
	}

	res, err := s.db.Exec(
		`INSERT INTO tasks (title, description, start_date, due_date, priority, status, estimated_hours,
			actual_hours, progress, ai_generated, parent_task_id, created_at, updated_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, formatTime(t.StartDate), formatTime(t.DueDate), t.Priority, t.Status,
		t.EstimatedHours, t.ActualHours, t.Progress, boolInt(t.AIGenerated), t.ParentTaskID,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), nullTime(t.CompletedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	s.notify(TableTasks)
	return id, nil
}

func (s *Store) GetTask(id int64) (*Task, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, notFound(err))
	}
	return &t, nil
}

// UpdateTask replaces every column of the row with t and bumps updated_at.
// completed_at follows the status: cleared unless completed, otherwise taken
// from t, then the stored value, then now.
func (s *Store) UpdateTask(t Task) error {
	now := formatTime(s.now())
	res, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, start_date = ?, due_date = ?, priority = ?, status = ?,
			estimated_hours = ?, actual_hours = ?, progress = ?, ai_generated = ?, parent_task_id = ?, updated_at = ?,
			completed_at = CASE WHEN ? = 'completed' THEN COALESCE(?, completed_at, ?) END
		 WHERE id = ?`,
		t.Title, t.Description, formatTime(t.StartDate), formatTime(t.DueDate), t.Priority, t.Status,
		t.EstimatedHours, t.ActualHours, t.Progress, boolInt(t.AIGenerated), t.ParentTaskID, now,
		t.Status, nullTime(t.CompletedAt), now, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	s.notify(TableTasks)
	return nil
}

// DeleteTask removes the task; its subtasks and time logs go with it.
func (s *Store) DeleteTask(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	s.notify(TableTasks, TableSubTasks, TableTimeLogs)
	return nil
}

func (s *Store) queryTasks(where string, args ...any) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY due_date ASC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListTasks returns every task ordered by due date.
func (s *Store) ListTasks() ([]Task, error) {
	return s.queryTasks("")
}

func (s *Store) ListTasksByStatus(status Status) ([]Task, error) {
	return s.queryTasks(`status = ?`, status)
}

// ListTasksByDueRange returns tasks due within [from, to], inclusive.
func (s *Store) ListTasksByDueRange(from, to time.Time) ([]Task, error) {
	return s.queryTasks(`due_date BETWEEN ? AND ?`, formatTime(from), formatTime(to))
}

func (s *Store) UpdateTaskProgress(id int64, progress int) error {
	res, err := s.db.Exec(
		`UPDATE tasks SET progress = ?, updated_at = ? WHERE id = ?`,
		progress, formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update task %d progress: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("update task %d progress: %w", id, err)
	}
	s.notify(TableTasks)
	return nil
}

// UpdateTaskStatus sets the status. Completing stamps completed_at once;
// re-completing keeps the first stamp and any other status clears it.
func (s *Store) UpdateTaskStatus(id int64, status Status) error {
	now := formatTime(s.now())
	res, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ?,
			completed_at = CASE WHEN ? = 'completed' THEN COALESCE(completed_at, ?) END
		 WHERE id = ?`,
		status, now, status, now, id,
	)
	if err != nil {
		return fmt.Errorf("update task %d status: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("update task %d status: %w", id, err)
	}
	s.notify(TableTasks)
	return nil
}

func (s *Store) CountTasks() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *Store) CountTasksByStatus(status Status) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE status = ?`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s tasks: %w", status, err)
	}
	return n, nil
}

// TaskHourAverages returns mean estimated and actual hours over all tasks.
func (s *Store) TaskHourAverages() (HourAverages, error) {
	var avg HourAverages
	err := s.db.QueryRow(
		`SELECT COALESCE(AVG(estimated_hours), 0), COALESCE(AVG(actual_hours), 0) FROM tasks`,
	).Scan(&avg.Estimated, &avg.Actual)
	if err != nil {
		return HourAverages{}, fmt.Errorf("task hour averages: %w", err)
	}
	return avg, nil
}

// OnTimeCompletion counts completed tasks and, of those, the ones completed
// no later than their due date.
func (s *Store) OnTimeCompletion() (completed, onTime int, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN COALESCE(completed_at, updated_at) <= due_date THEN 1 ELSE 0 END), 0)
		FROM tasks
		WHERE status = 'completed'`,
	).Scan(&completed, &onTime)
	if err != nil {
		return 0, 0, fmt.Errorf("on-time completion: %w", err)
	}
	return completed, onTime, nil
}
