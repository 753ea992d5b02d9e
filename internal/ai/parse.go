package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Pointer fields distinguish a missing key from a zero value.
type rawSubTask struct {
	Date           *string  `json:"date"`
	TaskTitle      *string  `json:"taskTitle"`
	Description    *string  `json:"description"`
	EstimatedHours *float64 `json:"estimatedHours"`
	Priority       *string  `json:"priority"`
}

type rawDecomposition struct {
	SubTasks *[]rawSubTask `json:"subtasks"`
	Summary  string        `json:"summary"`
}

// ParseDecomposition parses the model's reply content. Every element must
// carry all five fields with the right types; any failure rejects the whole
// reply.
func ParseDecomposition(content string) (*Decomposition, error) {
	body := stripCodeFence(content)
	if body == "" {
		return nil, &MalformedResponseError{Err: errors.New("empty content")}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	var raw rawDecomposition
	if err := dec.Decode(&raw); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if dec.More() {
		return nil, &MalformedResponseError{Err: errors.New("trailing data after JSON object")}
	}
	if raw.SubTasks == nil {
		return nil, &MalformedResponseError{Err: errors.New(`missing "subtasks" array`)}
	}

	out := &Decomposition{
		SubTasks: make([]GeneratedSubTask, 0, len(*raw.SubTasks)),
		Summary:  raw.Summary,
	}
	for i, r := range *raw.SubTasks {
		st, err := r.complete()
		if err != nil {
			return nil, &MalformedResponseError{Err: fmt.Errorf("subtasks[%d]: %w", i, err)}
		}
		out.SubTasks = append(out.SubTasks, st)
	}
	return out, nil
}

func (r rawSubTask) complete() (GeneratedSubTask, error) {
	var missing []string
	if r.Date == nil {
		missing = append(missing, "date")
	}
	if r.TaskTitle == nil {
		missing = append(missing, "taskTitle")
	}
	if r.Description == nil {
		missing = append(missing, "description")
	}
	if r.EstimatedHours == nil {
		missing = append(missing, "estimatedHours")
	}
	if r.Priority == nil {
		missing = append(missing, "priority")
	}
	if len(missing) > 0 {
		return GeneratedSubTask{}, fmt.Errorf("missing field(s) %s", strings.Join(missing, ", "))
	}
	return GeneratedSubTask{
		Date:           *r.Date,
		TaskTitle:      *r.TaskTitle,
		Description:    *r.Description,
		EstimatedHours: *r.EstimatedHours,
		Priority:       *r.Priority,
	}, nil
}

// stripCodeFence removes a surrounding Markdown code fence such as
// ```json ... ``` that chat models often add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
