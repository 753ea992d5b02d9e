package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/focusplan/internal/store"
)

func newTaskCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	cmd.AddCommand(newTaskAddCmd(g))
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			return withEnv(cmd, g, func(e *env) error {
				var tasks []store.Task
				var err error
				if status != "" {
					if !store.Status(status).Valid() {
						return fmt.Errorf("unknown status %q", status)
					}
					tasks, err = e.repo.TasksByStatus(store.Status(status))
				} else {
					tasks, err = e.repo.Tasks()
				}
				if err != nil {
					return err
				}
				renderTasks(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}
	list.Flags().String("status", "", "only tasks with this status (pending, in_progress, completed)")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show [task-id]",
		Short: "Show a task with its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(e *env) error {
				task, err := e.repo.Task(id)
				if err != nil {
					return err
				}
				subs, err := e.repo.SubTasks(id)
				if err != nil {
					return err
				}
				logged, err := e.repo.TotalLogged(id)
				if err != nil {
					return err
				}
				renderTask(cmd.OutOrStdout(), task, subs, logged)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "progress [task-id] [percent]",
		Short: "Set a task's progress (0-100)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var pct int
			if _, err := fmt.Sscanf(args[1], "%d", &pct); err != nil {
				return fmt.Errorf("invalid progress %q", args[1])
			}
			return withEnv(cmd, g, func(e *env) error {
				if err := e.ctl.UpdateTaskProgress(id, pct); err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "status [task-id] [pending|in_progress|completed]",
		Short:     "Set a task's status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(store.StatusPending), string(store.StatusInProgress), string(store.StatusCompleted)},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(e *env) error {
				if err := e.ctl.UpdateTaskStatus(id, store.Status(args[1])); err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [task-id]",
		Short: "Delete a task with its subtasks and time logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(e *env) error {
				if err := e.ctl.DeleteTask(id); err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				return nil
			})
		},
	})

	decompose := &cobra.Command{
		Use:   "decompose [task-id]",
		Short: "Ask the model to split an existing task into daily subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			hours, _ := cmd.Flags().GetFloat64("hours")
			return withEnv(cmd, g, func(e *env) error {
				task, err := e.repo.Task(id)
				if err != nil {
					return err
				}
				if hours <= 0 {
					_, hours = e.ctl.PlanDefaults(e.cfg.Plan.DaysAvailable, e.cfg.Plan.HoursPerDay)
				}
				if _, err := e.ctl.DecomposeTask(cmd.Context(), id, e.ctl.RequestFor(*task, hours)); err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				subs, err := e.repo.SubTasks(id)
				if err != nil {
					return err
				}
				renderSubTasks(cmd.OutOrStdout(), subs)
				return nil
			})
		},
	}
	decompose.Flags().Float64("hours", 0, "hours per day when the task has no estimate (default from settings); an estimate is split evenly over the days left")
	cmd.AddCommand(decompose)

	return cmd
}

func newTaskAddCmd(g *globalFlags) *cobra.Command {
	var (
		description string
		priority    string
		start       string
		due         string
		estimate    float64
	)
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDate(start)
			if err != nil {
				return err
			}
			dueDate, err := parseDate(due)
			if err != nil {
				return err
			}
			if startDate.IsZero() {
				startDate = time.Now()
			}
			return withEnv(cmd, g, func(e *env) error {
				id, err := e.ctl.AddTask(store.Task{
					Title:          args[0],
					Description:    description,
					StartDate:      startDate,
					DueDate:        dueDate,
					Priority:       store.ParsePriority(priority),
					Status:         store.StatusPending,
					EstimatedHours: estimate,
				})
				if err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d: %s\n", id, args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "low", "low, medium or high")
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD")
	cmd.Flags().Float64Var(&estimate, "estimate", 0, "estimated total hours for the task")
	return cmd
}

func newSubTaskCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subtask",
		Aliases: []string{"sub"},
		Short:   "Manage a task's daily subtasks",
	}

	var (
		description string
		date        string
		hours       float64
	)
	add := &cobra.Command{
		Use:   "add [task-id] [title]",
		Short: "Add a subtask by hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := parseID(args[0])
			if err != nil {
				return err
			}
			scheduled, err := parseDate(date)
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(e *env) error {
				id, err := e.ctl.AddSubTask(store.SubTask{
					ParentTaskID:   parent,
					Title:          args[1],
					Description:    description,
					ScheduledDate:  scheduled,
					EstimatedHours: hours,
				})
				if err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				fmt.Fprintf(cmd.OutOrStdout(), "Subtask %d: %s\n", id, args[1])
				return nil
			})
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "subtask description")
	add.Flags().StringVar(&date, "date", "", "scheduled date YYYY-MM-DD (default today)")
	add.Flags().Float64Var(&hours, "hours", 0, "estimated hours")
	cmd.AddCommand(add)

	var undo bool
	done := &cobra.Command{
		Use:   "done [subtask-id]",
		Short: "Mark a subtask completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(e *env) error {
				if err := e.ctl.SetSubTaskCompleted(id, !undo); err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				return nil
			})
		},
	}
	done.Flags().BoolVar(&undo, "undo", false, "reopen the subtask instead")
	cmd.AddCommand(done)

	return cmd
}
