package store

import (
	"fmt"
	"time"
)

type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// ParsePriority maps "high"/"medium"/"low" to a Priority. Anything else is low,
// matching how new tasks are created from free-form input.
func ParsePriority(s string) Priority {
	switch s {
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	}
	return PriorityLow
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID             int64
	Title          string
	Description    string
	StartDate      time.Time
	DueDate        time.Time
	Priority       Priority
	Status         Status
	EstimatedHours float64
	ActualHours    float64
	Progress       int // 0-100
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time // set when the status last became completed
	AIGenerated    bool
	ParentTaskID   *int64
}

type SubTask struct {
	ID             int64
	ParentTaskID   int64
	Title          string
	Description    string
	ScheduledDate  time.Time
	EstimatedHours float64
	ActualHours    float64
	Completed      bool
	CompletedAt    *time.Time
	GenerationID   string // decomposition run that produced it, empty when added by hand
	CreatedAt      time.Time
}

type TimeLog struct {
	ID        int64
	TaskID    int64
	StartTime time.Time
	EndTime   *time.Time
	Duration  time.Duration // persisted in milliseconds
	CreatedAt time.Time
}

// Running reports whether the log has not been stopped yet.
func (l TimeLog) Running() bool {
	return l.EndTime == nil
}

// Elapsed is the recorded duration, or the time since start while running.
func (l TimeLog) Elapsed(now time.Time) time.Duration {
	if l.Running() {
		return now.Sub(l.StartTime)
	}
	return l.Duration
}

const (
	DefaultBaseURL     = "https://api.openai.com/v1/"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7
)

// APIConfig is the singleton model-provider configuration row.
type APIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Configured  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultAPIConfig returns the values the row is seeded with on first run.
func DefaultAPIConfig() APIConfig {
	return APIConfig{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

type Setting struct {
	Key   string
	Value string
}

// HourAverages are the mean estimated and actual hours across all tasks.
type HourAverages struct {
	Estimated float64
	Actual    float64
}

// DailyLogged is the time logged on one calendar day in the caller's location.
type DailyLogged struct {
	Date     string
	Duration time.Duration
	LogCount int
}
