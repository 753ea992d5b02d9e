package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const timeLogColumns = `id, task_id, start_time, end_time, duration_ms, created_at`

func scanTimeLog(r rowScanner) (TimeLog, error) {
	var l TimeLog
	var startTime, createdAt string
	var endTime sql.NullString
	var durationMS int64
	if err := r.Scan(&l.ID, &l.TaskID, &startTime, &endTime, &durationMS, &createdAt); err != nil {
		return TimeLog{}, err
	}
	l.StartTime = parseTime(startTime)
	l.EndTime = parseNullTime(endTime)
	l.Duration = time.Duration(durationMS) * time.Millisecond
	l.CreatedAt = parseTime(createdAt)
	return l, nil
}

// InsertTimeLog stores l as given; duration is not reconciled with end-start.
func (s *Store) InsertTimeLog(l TimeLog) (int64, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}
	res, err := s.db.Exec(
		`INSERT INTO time_logs (task_id, start_time, end_time, duration_ms, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.TaskID, formatTime(l.StartTime), nullTime(l.EndTime), l.Duration.Milliseconds(), formatTime(l.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert time log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert time log: %w", err)
	}
	s.notify(TableTimeLogs)
	return id, nil
}

// StartTimeLog opens a log for taskID starting now.
func (s *Store) StartTimeLog(taskID int64) (*TimeLog, error) {
	id, err := s.InsertTimeLog(TimeLog{TaskID: taskID, StartTime: s.now()})
	if err != nil {
		return nil, fmt.Errorf("start time log: %w", err)
	}
	return s.GetTimeLog(id)
}

// StopTimeLog closes the log now and records duration = end - start.
func (s *Store) StopTimeLog(id int64) (*TimeLog, error) {
	l, err := s.GetTimeLog(id)
	if err != nil {
		return nil, fmt.Errorf("stop time log: %w", err)
	}
	if !l.Running() {
		return l, nil
	}

	end := s.now()
	duration := end.Sub(l.StartTime)
	if duration < 0 {
		duration = 0
	}
	_, err = s.db.Exec(
		`UPDATE time_logs SET end_time = ?, duration_ms = ? WHERE id = ?`,
		formatTime(end), duration.Milliseconds(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("stop time log %d: %w", id, err)
	}
	s.notify(TableTimeLogs)
	return s.GetTimeLog(id)
}

// StopTimeLogAndAccrue closes the log like StopTimeLog and adds its duration
// to the owning task's actual hours in the same transaction. A log that is
// already stopped is returned unchanged and nothing is added.
func (s *Store) StopTimeLogAndAccrue(id int64) (*TimeLog, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("stop time log %d: %w", id, err)
	}
	defer tx.Rollback()

	l, err := scanTimeLog(tx.QueryRow(`SELECT `+timeLogColumns+` FROM time_logs WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("stop time log %d: %w", id, notFound(err))
	}
	if !l.Running() {
		return &l, nil
	}

	end := s.now()
	duration := end.Sub(l.StartTime)
	if duration < 0 {
		duration = 0
	}
	duration = duration.Truncate(time.Millisecond)

	_, err = tx.Exec(
		`UPDATE time_logs SET end_time = ?, duration_ms = ? WHERE id = ?`,
		formatTime(end), duration.Milliseconds(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("stop time log %d: %w", id, err)
	}
	res, err := tx.Exec(
		`UPDATE tasks SET actual_hours = actual_hours + ?, updated_at = ? WHERE id = ?`,
		duration.Hours(), formatTime(end), l.TaskID,
	)
	if err != nil {
		return nil, fmt.Errorf("accrue time log %d on task %d: %w", id, l.TaskID, err)
	}
	if err := mustAffect(res); err != nil {
		return nil, fmt.Errorf("accrue time log %d on task %d: %w", id, l.TaskID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit time log %d: %w", id, err)
	}
	s.notify(TableTimeLogs, TableTasks)

	l.EndTime = &end
	l.Duration = duration
	return &l, nil
}

func (s *Store) GetTimeLog(id int64) (*TimeLog, error) {
	l, err := scanTimeLog(s.db.QueryRow(`SELECT `+timeLogColumns+` FROM time_logs WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get time log %d: %w", id, notFound(err))
	}
	return &l, nil
}

// GetRunningTimeLog returns the most recently started open log, or nil.
func (s *Store) GetRunningTimeLog() (*TimeLog, error) {
	l, err := scanTimeLog(s.db.QueryRow(
		`SELECT ` + timeLogColumns + ` FROM time_logs WHERE end_time IS NULL ORDER BY id DESC LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get running time log: %w", err)
	}
	return &l, nil
}

func (s *Store) UpdateTimeLog(l TimeLog) error {
	res, err := s.db.Exec(
		`UPDATE time_logs SET task_id = ?, start_time = ?, end_time = ?, duration_ms = ? WHERE id = ?`,
		l.TaskID, formatTime(l.StartTime), nullTime(l.EndTime), l.Duration.Milliseconds(), l.ID,
	)
	if err != nil {
		return fmt.Errorf("update time log %d: %w", l.ID, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("update time log %d: %w", l.ID, err)
	}
	s.notify(TableTimeLogs)
	return nil
}

func (s *Store) DeleteTimeLog(id int64) error {
	res, err := s.db.Exec(`DELETE FROM time_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete time log %d: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("delete time log %d: %w", id, err)
	}
	s.notify(TableTimeLogs)
	return nil
}

func (s *Store) queryTimeLogs(where string, args ...any) ([]TimeLog, error) {
	rows, err := s.db.Query(
		`SELECT `+timeLogColumns+` FROM time_logs WHERE `+where+` ORDER BY start_time DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}
	defer rows.Close()

	var logs []TimeLog
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListTimeLogsByTask returns the logs of taskID, newest first.
func (s *Store) ListTimeLogsByTask(taskID int64) ([]TimeLog, error) {
	return s.queryTimeLogs(`task_id = ?`, taskID)
}

// ListTimeLogsByRange returns logs started within [from, to], newest first.
func (s *Store) ListTimeLogsByRange(from, to time.Time) ([]TimeLog, error) {
	return s.queryTimeLogs(`start_time BETWEEN ? AND ?`, formatTime(from), formatTime(to))
}

// TotalDurationByTask sums the recorded durations of taskID's logs.
func (s *Store) TotalDurationByTask(taskID int64) (time.Duration, error) {
	var total int64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(duration_ms), 0) FROM time_logs WHERE task_id = ?`, taskID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total duration for task %d: %w", taskID, err)
	}
	return time.Duration(total) * time.Millisecond, nil
}

// DailyLogged aggregates stopped logs within [from, to) per calendar day in
// from's location, oldest day first.
func (s *Store) DailyLogged(from, to time.Time) ([]DailyLogged, error) {
	rows, err := s.db.Query(`
		SELECT start_time, duration_ms
		FROM time_logs
		WHERE end_time IS NOT NULL
		  AND start_time >= ? AND start_time < ?
		ORDER BY start_time`,
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily logged: %w", err)
	}
	defer rows.Close()

	loc := from.Location()
	var days []DailyLogged
	for rows.Next() {
		var start string
		var ms int64
		if err := rows.Scan(&start, &ms); err != nil {
			return nil, err
		}
		day := parseTime(start).In(loc).Format("2006-01-02")
		if n := len(days); n == 0 || days[n-1].Date != day {
			days = append(days, DailyLogged{Date: day})
		}
		d := &days[len(days)-1]
		d.Duration += time.Duration(ms) * time.Millisecond
		d.LogCount++
	}
	return days, rows.Err()
}
