package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/focusplan/internal/store"
)

// ToCSV writes one row per time log. Logs whose task is not in tasks are
// labelled "Unknown".
func ToCSV(logs []store.TimeLog, tasks map[int64]*store.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Task", "Start", "End", "Duration (ms)", "Duration", "Running"}); err != nil {
		return err
	}

	for _, l := range logs {
		taskTitle := "Unknown"
		if t, ok := tasks[l.TaskID]; ok {
			taskTitle = t.Title
		}
		endStr := ""
		if l.EndTime != nil {
			endStr = formatLocal(*l.EndTime)
		}

		row := []string{
			fmt.Sprintf("%d", l.ID),
			taskTitle,
			formatLocal(l.StartTime),
			endStr,
			fmt.Sprintf("%d", l.Duration.Milliseconds()),
			formatDuration(l.Duration),
			fmt.Sprintf("%t", l.Running()),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
