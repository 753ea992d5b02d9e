// Package app turns user intents into repository and AI calls and exposes
// the outcome as an observable State.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sadopc/focusplan/internal/ai"
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

// Assistant is the model-provider client the controller depends on.
type Assistant interface {
	Decompose(ctx context.Context, cfg ai.Config, req ai.DecompositionRequest) (*ai.Decomposition, error)
	AnalyzeEfficiency(ctx context.Context, cfg ai.Config, stats ai.EfficiencyStats) (string, error)
}

// Controller runs user operations. Every mutating operation sets Loading,
// then exactly one of Success or Error, and also returns its error. Calls are
// not serialised; concurrent operations may interleave their states.
type Controller struct {
	repo      *repository.Repository
	assistant Assistant
	logger    *log.Logger
	hub       *stateHub
	now       func() time.Time
	newID     func() string
}

func NewController(repo *repository.Repository, assistant Assistant, logger *log.Logger) *Controller {
	return &Controller{
		repo:      repo,
		assistant: assistant,
		logger:    logger,
		hub:       newStateHub(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Repository exposes the read side for views.
func (c *Controller) Repository() *repository.Repository {
	return c.repo
}

func (c *Controller) State() State {
	return c.hub.get()
}

// Subscribe returns a channel of state changes and a func that releases it.
func (c *Controller) Subscribe() (<-chan State, func()) {
	return c.hub.subscribe()
}

// ClearMessage resets the state to Idle.
func (c *Controller) ClearMessage() {
	c.hub.set(State{Kind: Idle})
}

// run wraps op with the Loading and terminal state transitions.
func (c *Controller) run(name, success string, op func() error) error {
	c.hub.set(State{Kind: Loading})
	if err := op(); err != nil {
		c.logger.Error(name+" failed", "kind", Classify(err), "err", err)
		c.hub.set(State{Kind: Error, Message: userMessage(err)})
		return err
	}
	c.logger.Debug(name + " done")
	c.hub.set(State{Kind: Success, Message: success})
	return nil
}

func (c *Controller) AddTask(t store.Task) (id int64, err error) {
	err = c.run("add task", "Task added successfully", func() error {
		if t.Title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		id, err = c.repo.InsertTask(t)
		return err
	})
	return id, err
}

func (c *Controller) UpdateTask(t store.Task) error {
	return c.run("update task", "Task updated", func() error {
		return c.repo.UpdateTask(t)
	})
}

func (c *Controller) DeleteTask(id int64) error {
	return c.run("delete task", "Task deleted", func() error {
		return c.repo.DeleteTask(id)
	})
}

func (c *Controller) UpdateTaskProgress(id int64, progress int) error {
	return c.run("update progress", "Progress updated", func() error {
		if progress < 0 || progress > 100 {
			return fmt.Errorf("%w: progress must be within 0-100, got %d", ErrInvalidInput, progress)
		}
		return c.repo.UpdateTaskProgress(id, progress)
	})
}

func (c *Controller) UpdateTaskStatus(id int64, status store.Status) error {
	return c.run("update status", "Status updated", func() error {
		if !status.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
		return c.repo.UpdateTaskStatus(id, status)
	})
}

func (c *Controller) AddSubTask(st store.SubTask) (id int64, err error) {
	err = c.run("add subtask", "Subtask added", func() error {
		if st.Title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		if st.ScheduledDate.IsZero() {
			st.ScheduledDate = c.now()
		}
		id, err = c.repo.InsertSubTask(st)
		return err
	})
	return id, err
}

// SetSubTaskCompleted marks a subtask done (stamping the completion time) or
// reopens it.
func (c *Controller) SetSubTaskCompleted(id int64, completed bool) error {
	msg := "Subtask reopened"
	if completed {
		msg = "Subtask completed"
	}
	return c.run("complete subtask", msg, func() error {
		var at *time.Time
		if completed {
			now := c.now()
			at = &now
		}
		return c.repo.SetSubTaskCompletion(id, completed, at)
	})
}

// UpdateAPIConfig stores the connection settings and marks the provider as
// configured.
func (c *Controller) UpdateAPIConfig(baseURL, apiKey, model string) error {
	return c.run("update api config", "API configuration updated", func() error {
		if baseURL == "" || model == "" {
			return fmt.Errorf("%w: base URL and model are required", ErrInvalidInput)
		}
		return c.repo.UpdateAPIConfig(baseURL, apiKey, model, true)
	})
}

// SaveAPIConfig replaces the whole provider configuration.
func (c *Controller) SaveAPIConfig(cfg store.APIConfig) error {
	return c.run("save api config", "API configuration updated", func() error {
		if cfg.BaseURL == "" || cfg.Model == "" {
			return fmt.Errorf("%w: base URL and model are required", ErrInvalidInput)
		}
		if cfg.MaxTokens <= 0 {
			return fmt.Errorf("%w: max tokens must be positive", ErrInvalidInput)
		}
		return c.repo.SaveAPIConfig(cfg)
	})
}

// StartTimer starts logging time against taskID. A timer already running for
// another task is stopped first.
func (c *Controller) StartTimer(taskID int64) (l *store.TimeLog, err error) {
	err = c.run("start timer", "Timer started", func() error {
		running, err := c.repo.RunningTimeLog()
		if err != nil {
			return err
		}
		if running != nil {
			if running.TaskID == taskID {
				l = running
				return nil
			}
			if _, err := c.stopAndAccrue(running.ID); err != nil {
				return err
			}
		}
		l, err = c.repo.StartTimeLog(taskID)
		return err
	})
	return l, err
}

// StopTimer stops the running timer and adds the logged time to the task's
// actual hours. It fails with ErrInvalidInput when no timer is running.
func (c *Controller) StopTimer() (l *store.TimeLog, err error) {
	err = c.run("stop timer", "Timer stopped", func() error {
		running, err := c.repo.RunningTimeLog()
		if err != nil {
			return err
		}
		if running == nil {
			return fmt.Errorf("%w: no timer is running", ErrInvalidInput)
		}
		l, err = c.stopAndAccrue(running.ID)
		return err
	})
	return l, err
}

// stopAndAccrue leaves the timer running when crediting the task fails, so
// the stop can be retried.
func (c *Controller) stopAndAccrue(logID int64) (*store.TimeLog, error) {
	return c.repo.StopTimeLogAndAccrue(logID)
}

// AnalyzeEfficiency sends the current metrics to the provider and returns
// its commentary.
func (c *Controller) AnalyzeEfficiency(ctx context.Context) (analysis string, err error) {
	err = c.run("analyze efficiency", "Analysis ready", func() error {
		cfg, err := c.providerConfig()
		if err != nil {
			return err
		}
		m, err := c.repo.DetailedMetrics()
		if err != nil {
			return err
		}
		analysis, err = c.assistant.AnalyzeEfficiency(ctx, cfg, ai.EfficiencyStats{
			CompletedTasks:        m.CompletedTasks,
			TotalTasks:            m.TotalTasks,
			AverageEstimatedHours: m.AverageEstimatedHours,
			AverageActualHours:    m.AverageActualHours,
			OnTimeCompletionRate:  m.OnTimeCompletionRate,
		})
		return err
	})
	return analysis, err
}

// providerConfig loads the stored provider configuration and fails with
// ai.ErrNotConfigured when it cannot be used.
func (c *Controller) providerConfig() (ai.Config, error) {
	stored, err := c.repo.APIConfig()
	if err != nil {
		return ai.Config{}, err
	}
	cfg := ai.Config{
		BaseURL:     stored.BaseURL,
		APIKey:      stored.APIKey,
		Model:       stored.Model,
		MaxTokens:   stored.MaxTokens,
		Temperature: stored.Temperature,
		Configured:  stored.Configured,
	}
	if !cfg.Ready() {
		return ai.Config{}, ai.ErrNotConfigured
	}
	return cfg, nil
}
