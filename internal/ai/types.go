package ai

import (
	"fmt"
	"strings"
	"time"
)

// Config is the provider configuration a call is made with.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Configured  bool
}

// Ready reports whether calls may be attempted with c.
func (c Config) Ready() bool {
	return c.Configured && c.APIKey != ""
}

// endpoint joins the base URL and the chat completions path.
func (c Config) endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
}

// DecompositionRequest describes the task to split into daily subtasks.
type DecompositionRequest struct {
	MainTask      string
	Description   string
	DaysAvailable int
	HoursPerDay   float64
	Priority      string // low, medium or high
}

func (r DecompositionRequest) validate() error {
	switch {
	case strings.TrimSpace(r.MainTask) == "":
		return fmt.Errorf("%w: main task is empty", ErrInvalidRequest)
	case r.DaysAvailable < 1:
		return fmt.Errorf("%w: days available must be at least 1, got %d", ErrInvalidRequest, r.DaysAvailable)
	case r.HoursPerDay <= 0:
		return fmt.Errorf("%w: hours per day must be positive, got %g", ErrInvalidRequest, r.HoursPerDay)
	}
	switch r.Priority {
	case "low", "medium", "high":
		return nil
	}
	return fmt.Errorf("%w: unknown priority %q", ErrInvalidRequest, r.Priority)
}

// GeneratedSubTask is one entry of the model's schedule, as returned.
type GeneratedSubTask struct {
	Date           string  `json:"date" yaml:"date"`
	TaskTitle      string  `json:"taskTitle" yaml:"taskTitle"`
	Description    string  `json:"description" yaml:"description"`
	EstimatedHours float64 `json:"estimatedHours" yaml:"estimatedHours"`
	Priority       string  `json:"priority" yaml:"priority"`
}

// DateLayout is the day format used in prompts and replies.
const DateLayout = "2006-01-02"

// ScheduledDate parses Date as a local calendar day. When Date does not
// parse, now is returned with ok set to false.
func (g GeneratedSubTask) ScheduledDate(now time.Time) (t time.Time, ok bool) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(g.Date), time.Local)
	if err != nil {
		return now, false
	}
	return t, true
}

// Decomposition is a parsed decomposition reply.
type Decomposition struct {
	SubTasks []GeneratedSubTask
	Summary  string
}

// EfficiencyStats are the figures sent for an efficiency analysis.
type EfficiencyStats struct {
	CompletedTasks        int
	TotalTasks            int
	AverageEstimatedHours float64
	AverageActualHours    float64
	OnTimeCompletionRate  float64
}

// Wire types for the chat completions endpoint.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}
