// Package export writes tasks, their subtasks and time logs to CSV, JSON or
// YAML files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

// Snapshot is the data an export is written from.
type Snapshot struct {
	Tasks    []store.Task
	SubTasks map[int64][]store.SubTask // by parent task id
	TimeLogs []store.TimeLog
}

// Collect reads every task with its subtasks and time logs.
func Collect(repo *repository.Repository) (*Snapshot, error) {
	tasks, err := repo.Tasks()
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Tasks: tasks, SubTasks: make(map[int64][]store.SubTask, len(tasks))}
	for _, t := range tasks {
		subs, err := repo.SubTasks(t.ID)
		if err != nil {
			return nil, err
		}
		snap.SubTasks[t.ID] = subs

		logs, err := repo.TimeLogs(t.ID)
		if err != nil {
			return nil, err
		}
		snap.TimeLogs = append(snap.TimeLogs, logs...)
	}
	return snap, nil
}

// taskIndex maps task ids to tasks for title lookups.
func (s *Snapshot) taskIndex() map[int64]*store.Task {
	idx := make(map[int64]*store.Task, len(s.Tasks))
	for i := range s.Tasks {
		idx[s.Tasks[i].ID] = &s.Tasks[i]
	}
	return idx
}

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor infers the format from path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported export format %q", filepath.Ext(path))
}

// Write exports snap to path in format f. CSV holds the time logs only.
func Write(snap *Snapshot, f Format, path string) error {
	switch f {
	case FormatCSV:
		return ToCSV(snap.TimeLogs, snap.taskIndex(), path)
	case FormatJSON:
		return ToJSON(snap, path)
	case FormatYAML:
		return ToYAML(snap, path)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// DefaultFilename is focusplan-YYYYMMDD-HHMMSS.<format>
func DefaultFilename(f Format, now time.Time) string {
	return fmt.Sprintf("focusplan-%s.%s", now.Format("20060102-150405"), f)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatLocal(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
