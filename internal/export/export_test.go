package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

func sampleSnapshot() *Snapshot {
	now := time.Now().UTC()
	end := now
	done := now.Add(-time.Hour)

	tasks := []store.Task{
		{
			ID:             1,
			Title:          "Write report",
			Description:    "quarterly",
			StartDate:      now.Add(-48 * time.Hour),
			DueDate:        now.Add(48 * time.Hour),
			Priority:       store.PriorityHigh,
			Status:         store.StatusInProgress,
			EstimatedHours: 4,
			Progress:       25,
			AIGenerated:    true,
		},
		{
			ID:       2,
			Title:    "Review PR",
			Priority: store.PriorityLow,
			Status:   store.StatusPending,
		},
	}

	subs := map[int64][]store.SubTask{
		1: {
			{ID: 10, ParentTaskID: 1, Title: "Gather numbers", ScheduledDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), EstimatedHours: 2, Completed: true, CompletedAt: &done, GenerationID: "gen-1"},
			{ID: 11, ParentTaskID: 1, Title: "Draft", ScheduledDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local), EstimatedHours: 2, GenerationID: "gen-1"},
		},
	}

	logs := []store.TimeLog{
		{ID: 1, TaskID: 1, StartTime: now.Add(-1 * time.Hour), EndTime: &end, Duration: time.Hour},
		{ID: 2, TaskID: 1, StartTime: now.Add(-30 * time.Minute), EndTime: &end, Duration: 30 * time.Minute},
		{ID: 3, TaskID: 2, StartTime: now.Add(-10 * time.Minute)}, // still running
	}

	return &Snapshot{Tasks: tasks, SubTasks: subs, TimeLogs: logs}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	snap := sampleSnapshot()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(snap.TimeLogs, snap.taskIndex(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	records := readCSV(t, path)

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	expectedHeader := []string{"ID", "Task", "Start", "End", "Duration (ms)", "Duration", "Running"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "1" {
		t.Fatalf("ID = %q, want 1", row[0])
	}
	if row[1] != "Write report" {
		t.Fatalf("Task = %q, want Write report", row[1])
	}
	if row[4] != "3600000" {
		t.Fatalf("Duration (ms) = %q, want 3600000", row[4])
	}
	if row[5] != "01:00:00" {
		t.Fatalf("Duration = %q, want 01:00:00", row[5])
	}
	if row[6] != "false" {
		t.Fatalf("Running = %q, want false", row[6])
	}

	running := records[3]
	if running[3] != "" {
		t.Fatalf("running log should have empty end time, got %q", running[3])
	}
	if running[6] != "true" {
		t.Fatalf("Running = %q, want true", running[6])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVUnknownTask(t *testing.T) {
	logs := []store.TimeLog{{ID: 1, TaskID: 999, StartTime: time.Now(), Duration: time.Minute}}
	path := filepath.Join(t.TempDir(), "unknown.csv")

	if err := ToCSV(logs, map[int64]*store.Task{}, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][1] != "Unknown" {
		t.Fatalf("expected 'Unknown' for missing task, got %q", records[1][1])
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	logs := []store.TimeLog{{ID: 1, TaskID: 1, StartTime: time.Now(), Duration: time.Minute}}
	tasks := map[int64]*store.Task{1: {ID: 1, Title: `Task "Special", really`}}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(logs, tasks, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][1] != `Task "Special", really` {
		t.Fatalf("task title mangled: %q", records[1][1])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := ToJSON(sampleSnapshot(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result document
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 2 || len(result.Tasks) != 2 {
		t.Fatalf("count = %d, tasks = %d, want 2", result.Count, len(result.Tasks))
	}
	if len(result.TimeLogs) != 3 {
		t.Fatalf("time logs = %d, want 3", len(result.TimeLogs))
	}

	task := result.Tasks[0]
	if task.Title != "Write report" || task.Priority != "high" || task.Status != "in_progress" {
		t.Fatalf("unexpected task record %+v", task)
	}
	if !task.AIGenerated {
		t.Fatal("ai_generated should be true")
	}
	if task.Logged != "01:30:00" {
		t.Fatalf("Logged = %q, want 01:30:00", task.Logged)
	}
	if len(task.SubTasks) != 2 {
		t.Fatalf("subtasks = %d, want 2", len(task.SubTasks))
	}
	st := task.SubTasks[0]
	if st.Date != "2024-01-01" || !st.Completed || st.CompletedAt == "" || st.GenerationID != "gen-1" {
		t.Fatalf("unexpected subtask record %+v", st)
	}
	if task.SubTasks[1].CompletedAt != "" {
		t.Fatal("open subtask should have no completed_at")
	}

	if len(result.Tasks[1].SubTasks) != 0 {
		t.Fatal("second task has no subtasks")
	}
	if result.TimeLogs[2].EndTime != "" {
		t.Fatalf("running log end_time should be empty, got %q", result.TimeLogs[2].EndTime)
	}
	if result.TimeLogs[2].Task != "Review PR" {
		t.Fatalf("log task = %q, want Review PR", result.TimeLogs[2].Task)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(&Snapshot{}, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result document
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Tasks != nil {
		t.Fatal("tasks should be nil/null for empty export")
	}
	if strings.Contains(string(data), "time_logs") {
		t.Fatal("empty time_logs should be omitted")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(&Snapshot{}, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToJSON(&Snapshot{}, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestToJSONValidTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.json")
	ToJSON(sampleSnapshot(), path)

	data, _ := os.ReadFile(path)
	var result document
	json.Unmarshal(data, &result)

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	for _, l := range result.TimeLogs {
		if _, err := time.Parse(time.RFC3339, l.StartTime); err != nil {
			t.Fatalf("start_time is not valid RFC3339: %q", l.StartTime)
		}
	}
}

// ============================================================
// YAML
// ============================================================

func TestToYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := ToYAML(sampleSnapshot(), path); err != nil {
		t.Fatalf("ToYAML: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result document
	if err := yaml.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(result.Tasks) != 2 || len(result.Tasks[0].SubTasks) != 2 {
		t.Fatalf("unexpected structure: %+v", result)
	}
	if result.Tasks[0].SubTasks[1].Title != "Draft" {
		t.Fatalf("subtask title = %q, want Draft", result.Tasks[0].SubTasks[1].Title)
	}
	if !strings.Contains(string(data), "estimated_hours: 4") {
		t.Fatalf("expected snake_case keys in YAML:\n%s", data)
	}
}

func TestToYAMLBadPath(t *testing.T) {
	if err := ToYAML(&Snapshot{}, "/nonexistent/dir/file.yaml"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Collect / Write
// ============================================================

func TestCollectAndWrite(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	repo := repository.New(s)

	id, err := repo.InsertTask(store.Task{Title: "collected"})
	if err != nil {
		t.Fatal(err)
	}
	repo.InsertSubTask(store.SubTask{ParentTaskID: id, Title: "sub"})
	repo.StartTimeLog(id)

	snap, err := Collect(repo)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Tasks) != 1 || len(snap.SubTasks[id]) != 1 || len(snap.TimeLogs) != 1 {
		t.Fatalf("unexpected snapshot: %d tasks, %d subtasks, %d logs",
			len(snap.Tasks), len(snap.SubTasks[id]), len(snap.TimeLogs))
	}

	dir := t.TempDir()
	for _, name := range []string{"out.csv", "out.json", "out.yml"} {
		path := filepath.Join(dir, name)
		f, err := FormatFor(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := Write(snap, f, path); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Fatalf("%s not written", name)
		}
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"a.csv":  FormatCSV,
		"a.JSON": FormatJSON,
		"a.yaml": FormatYAML,
		"a.yml":  FormatYAML,
	}
	for path, want := range tests {
		got, err := FormatFor(path)
		if err != nil || got != want {
			t.Errorf("FormatFor(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := FormatFor("a.xlsx"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestDefaultFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	if got := DefaultFilename(FormatJSON, now); got != "focusplan-20240309-070501.json" {
		t.Fatalf("DefaultFilename = %q", got)
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{999 * time.Millisecond, "00:00:00"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{24 * time.Hour, "24:00:00"},
		{25*time.Hour + time.Minute + time.Second, "25:01:01"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
