package app

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sadopc/focusplan/internal/ai"
	"github.com/sadopc/focusplan/internal/store"
)

// PlanInput is what the user fills in when creating a task to be planned.
type PlanInput struct {
	Title         string
	Description   string
	DaysAvailable int
	HoursPerDay   float64
	Priority      string // low, medium or high
	Decompose     bool   // ask the provider for a daily schedule
}

func (in PlanInput) request() ai.DecompositionRequest {
	return ai.DecompositionRequest{
		MainTask:      in.Title,
		Description:   in.Description,
		DaysAvailable: in.DaysAvailable,
		HoursPerDay:   in.HoursPerDay,
		Priority:      in.Priority,
	}
}

// PlanDefaults returns the stored default days and hours per day, or the
// given fallbacks when the preferences are missing or invalid.
func (c *Controller) PlanDefaults(days int, hours float64) (int, float64) {
	d := c.repo.FloatSetting(store.SettingDefaultDays, float64(days))
	h := c.repo.FloatSetting(store.SettingDefaultHours, hours)
	if d < 1 {
		d = float64(days)
	}
	if h <= 0 {
		h = hours
	}
	return int(d), h
}

// SavePlanDefaults stores the default days and hours per day for new tasks.
func (c *Controller) SavePlanDefaults(days int, hours float64) error {
	return c.run("save plan defaults", "Defaults saved", func() error {
		if days < 1 || hours <= 0 {
			return fmt.Errorf("%w: days must be at least 1 and hours positive", ErrInvalidInput)
		}
		if err := c.repo.SetSetting(store.SettingDefaultDays, strconv.Itoa(days)); err != nil {
			return err
		}
		return c.repo.SetSetting(store.SettingDefaultHours, strconv.FormatFloat(hours, 'f', -1, 64))
	})
}

// CreatePlannedTask adds a task due DaysAvailable days from now, estimated
// at HoursPerDay for each of those days, and, when in.Decompose is set,
// decomposes it into subtasks. The task is kept even if
// decomposition fails; the returned error then reports the decomposition
// failure.
func (c *Controller) CreatePlannedTask(ctx context.Context, in PlanInput) (taskID int64, err error) {
	success := "Task added successfully"
	if in.Decompose {
		success = "Task decomposed successfully"
	}
	err = c.run("create planned task", success, func() error {
		if strings.TrimSpace(in.Title) == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		if in.DaysAvailable < 1 || in.HoursPerDay <= 0 {
			return fmt.Errorf("%w: days must be at least 1 and hours positive", ErrInvalidInput)
		}
		if in.Priority == "" {
			in.Priority = store.PriorityLow.String()
		}
		if in.Decompose && store.ParsePriority(in.Priority).String() != in.Priority {
			return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, in.Priority)
		}
		now := c.now()
		taskID, err = c.repo.InsertTask(store.Task{
			Title:          in.Title,
			Description:    in.Description,
			StartDate:      now,
			DueDate:        now.AddDate(0, 0, in.DaysAvailable),
			Priority:       store.ParsePriority(in.Priority),
			Status:         store.StatusPending,
			EstimatedHours: in.HoursPerDay * float64(in.DaysAvailable),
			AIGenerated:    in.Decompose,
		})
		if err != nil {
			return err
		}
		if !in.Decompose {
			return nil
		}
		_, err = c.decompose(ctx, taskID, in.request())
		return err
	})
	return taskID, err
}

// DecomposeTask asks the provider to split the task into daily subtasks and
// stores them atomically under taskID. It returns the ids of the new subtasks.
func (c *Controller) DecomposeTask(ctx context.Context, taskID int64, req ai.DecompositionRequest) (ids []int64, err error) {
	err = c.run("decompose task", "Task decomposed successfully", func() error {
		ids, err = c.decompose(ctx, taskID, req)
		return err
	})
	return ids, err
}

// RequestFor builds a decomposition request from an existing task: the days
// left until it is due (at least one) and its total estimated hours divided
// evenly over them, or hoursPerDay when the task has no estimate.
func (c *Controller) RequestFor(t store.Task, hoursPerDay float64) ai.DecompositionRequest {
	days := int(math.Ceil(t.DueDate.Sub(c.now()).Hours() / 24))
	if days < 1 {
		days = 1
	}
	if t.EstimatedHours > 0 {
		hoursPerDay = t.EstimatedHours / float64(days)
	}
	return ai.DecompositionRequest{
		MainTask:      t.Title,
		Description:   t.Description,
		DaysAvailable: days,
		HoursPerDay:   hoursPerDay,
		Priority:      t.Priority.String(),
	}
}

func (c *Controller) decompose(ctx context.Context, taskID int64, req ai.DecompositionRequest) ([]int64, error) {
	cfg, err := c.providerConfig()
	if err != nil {
		return nil, err
	}

	d, err := c.assistant.Decompose(ctx, cfg, req)
	if err != nil {
		return nil, err
	}

	now := c.now()
	generation := c.newID()
	subs := make([]store.SubTask, 0, len(d.SubTasks))
	for i, g := range d.SubTasks {
		date, ok := g.ScheduledDate(now)
		if !ok {
			c.logger.Warn("unparsable subtask date, scheduling for now",
				"task", taskID, "index", i, "date", g.Date)
		}
		subs = append(subs, store.SubTask{
			ParentTaskID:   taskID,
			Title:          g.TaskTitle,
			Description:    g.Description,
			ScheduledDate:  date,
			EstimatedHours: math.Max(g.EstimatedHours, 0),
			GenerationID:   generation,
		})
	}

	ids, err := c.repo.InsertSubTasks(subs)
	if err != nil {
		return nil, err
	}
	c.logger.Info("task decomposed", "task", taskID, "subtasks", len(ids), "generation", generation)
	return ids, nil
}
