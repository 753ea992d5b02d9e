package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/focusplan/internal/store"
)

func newLogCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Track time spent on tasks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start [task-id]",
		Short: "Start the timer for a task, stopping any other running timer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, g, func(e *env) error {
				l, err := e.ctl.StartTimer(id)
				if err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				fmt.Fprintf(cmd.OutOrStdout(), "Log %d started at %s\n", l.ID, l.StartTime.Local().Format("15:04:05"))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, g, func(e *env) error {
				l, err := e.ctl.StopTimer()
				if err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				fmt.Fprintf(cmd.OutOrStdout(), "Logged %s on task %d\n", formatDuration(l.Duration), l.TaskID)
				return nil
			})
		},
	})

	var (
		taskID int64
		days   int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List time logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, g, func(e *env) error {
				var logs []store.TimeLog
				var err error
				now := time.Now()
				if taskID > 0 {
					logs, err = e.repo.TimeLogs(taskID)
				} else {
					logs, err = e.repo.TimeLogsBetween(now.AddDate(0, 0, -days), now)
				}
				if err != nil {
					return err
				}
				renderTimeLogs(cmd.OutOrStdout(), logs, now)
				return nil
			})
		},
	}
	list.Flags().Int64Var(&taskID, "task", 0, "only logs for this task")
	list.Flags().IntVar(&days, "days", 7, "logs started in the last N days")
	cmd.AddCommand(list)

	return cmd
}
