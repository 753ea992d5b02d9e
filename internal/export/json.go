package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sadopc/focusplan/internal/ai"
)

// document is the JSON and YAML export layout.
type document struct {
	ExportedAt string       `json:"exported_at" yaml:"exported_at"`
	Count      int          `json:"count" yaml:"count"`
	Tasks      []taskRecord `json:"tasks" yaml:"tasks"`
	TimeLogs   []logRecord  `json:"time_logs,omitempty" yaml:"time_logs,omitempty"`
}

type taskRecord struct {
	ID             int64           `json:"id" yaml:"id"`
	Title          string          `json:"title" yaml:"title"`
	Description    string          `json:"description,omitempty" yaml:"description,omitempty"`
	Status         string          `json:"status" yaml:"status"`
	Priority       string          `json:"priority" yaml:"priority"`
	Progress       int             `json:"progress" yaml:"progress"`
	StartDate      string          `json:"start_date" yaml:"start_date"`
	DueDate        string          `json:"due_date" yaml:"due_date"`
	EstimatedHours float64         `json:"estimated_hours" yaml:"estimated_hours"`
	ActualHours    float64         `json:"actual_hours" yaml:"actual_hours"`
	AIGenerated    bool            `json:"ai_generated" yaml:"ai_generated"`
	Logged         string          `json:"logged" yaml:"logged"`
	SubTasks       []subTaskRecord `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`
}

type subTaskRecord struct {
	ID             int64   `json:"id" yaml:"id"`
	Date           string  `json:"date" yaml:"date"`
	Title          string  `json:"title" yaml:"title"`
	Description    string  `json:"description,omitempty" yaml:"description,omitempty"`
	EstimatedHours float64 `json:"estimated_hours" yaml:"estimated_hours"`
	Completed      bool    `json:"completed" yaml:"completed"`
	CompletedAt    string  `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	GenerationID   string  `json:"generation_id,omitempty" yaml:"generation_id,omitempty"`
}

type logRecord struct {
	ID         int64  `json:"id" yaml:"id"`
	TaskID     int64  `json:"task_id" yaml:"task_id"`
	Task       string `json:"task" yaml:"task"`
	StartTime  string `json:"start_time" yaml:"start_time"`
	EndTime    string `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
	Duration   string `json:"duration" yaml:"duration"`
}

func buildDocument(snap *Snapshot) document {
	doc := document{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(snap.Tasks),
	}

	logged := make(map[int64]time.Duration)
	for _, l := range snap.TimeLogs {
		logged[l.TaskID] += l.Duration
	}

	for _, t := range snap.Tasks {
		rec := taskRecord{
			ID:             t.ID,
			Title:          t.Title,
			Description:    t.Description,
			Status:         string(t.Status),
			Priority:       t.Priority.String(),
			Progress:       t.Progress,
			StartDate:      formatLocal(t.StartDate),
			DueDate:        formatLocal(t.DueDate),
			EstimatedHours: t.EstimatedHours,
			ActualHours:    t.ActualHours,
			AIGenerated:    t.AIGenerated,
			Logged:         formatDuration(logged[t.ID]),
		}
		for _, st := range snap.SubTasks[t.ID] {
			sr := subTaskRecord{
				ID:             st.ID,
				Date:           st.ScheduledDate.Local().Format(ai.DateLayout),
				Title:          st.Title,
				Description:    st.Description,
				EstimatedHours: st.EstimatedHours,
				Completed:      st.Completed,
				GenerationID:   st.GenerationID,
			}
			if st.CompletedAt != nil {
				sr.CompletedAt = formatLocal(*st.CompletedAt)
			}
			rec.SubTasks = append(rec.SubTasks, sr)
		}
		doc.Tasks = append(doc.Tasks, rec)
	}

	idx := snap.taskIndex()
	for _, l := range snap.TimeLogs {
		title := "Unknown"
		if t, ok := idx[l.TaskID]; ok {
			title = t.Title
		}
		lr := logRecord{
			ID:         l.ID,
			TaskID:     l.TaskID,
			Task:       title,
			StartTime:  formatLocal(l.StartTime),
			DurationMS: l.Duration.Milliseconds(),
			Duration:   formatDuration(l.Duration),
		}
		if l.EndTime != nil {
			lr.EndTime = formatLocal(*l.EndTime)
		}
		doc.TimeLogs = append(doc.TimeLogs, lr)
	}
	return doc
}

func ToJSON(snap *Snapshot, path string) error {
	data, err := json.MarshalIndent(buildDocument(snap), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return writeFile(path, data)
}
