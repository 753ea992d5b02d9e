package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/focusplan/internal/app"
)

func newPlanCmd(g *globalFlags) *cobra.Command {
	var (
		description string
		priority    string
		days        int
		hours       float64
		noDecompose bool
	)
	cmd := &cobra.Command{
		Use:   "plan [title]",
		Short: "Create a task and split it into a daily plan",
		Long: `Create a task due in --days days and ask the configured model to split it
into daily subtasks of about --hours hours each. The task is estimated at
--days times --hours in total and is kept even if the model call fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, g, func(e *env) error {
				defDays, defHours := e.ctl.PlanDefaults(e.cfg.Plan.DaysAvailable, e.cfg.Plan.HoursPerDay)
				if !cmd.Flags().Changed("days") {
					days = defDays
				}
				if !cmd.Flags().Changed("hours") {
					hours = defHours
				}

				id, err := e.ctl.CreatePlannedTask(cmd.Context(), app.PlanInput{
					Title:         args[0],
					Description:   description,
					DaysAvailable: days,
					HoursPerDay:   hours,
					Priority:      priority,
					Decompose:     !noDecompose,
				})
				if id != 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Task %d: %s\n", id, args[0])
				}
				if err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())

				subs, err := e.repo.SubTasks(id)
				if err != nil {
					return err
				}
				if len(subs) > 0 {
					renderSubTasks(cmd.OutOrStdout(), subs)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the task involves")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "low, medium or high")
	cmd.Flags().IntVar(&days, "days", 0, "days available (default from settings)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "hours per day (default from settings)")
	cmd.Flags().BoolVar(&noDecompose, "no-decompose", false, "only create the task")
	return cmd
}

func newDefaultsCmd(g *globalFlags) *cobra.Command {
	var (
		days  int
		hours float64
	)
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show or set the default days and hours per day for new plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, g, func(e *env) error {
				curDays, curHours := e.ctl.PlanDefaults(e.cfg.Plan.DaysAvailable, e.cfg.Plan.HoursPerDay)
				if !cmd.Flags().Changed("days") && !cmd.Flags().Changed("hours") {
					fmt.Fprintf(cmd.OutOrStdout(), "Days available: %d\nHours per day:  %g\n", curDays, curHours)
					return nil
				}
				if !cmd.Flags().Changed("days") {
					days = curDays
				}
				if !cmd.Flags().Changed("hours") {
					hours = curHours
				}
				if err := e.ctl.SavePlanDefaults(days, hours); err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "default days available")
	cmd.Flags().Float64Var(&hours, "hours", 0, "default hours per day")
	return cmd
}

func newMetricsCmd(g *globalFlags) *cobra.Command {
	var analyze bool
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show completion metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, g, func(e *env) error {
				m, err := e.repo.DetailedMetrics()
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintln(w, titleStyle.Render("Efficiency"))
				fmt.Fprintf(w, "Tasks:            %d completed of %d\n", m.CompletedTasks, m.TotalTasks)
				fmt.Fprintf(w, "Completion rate:  %.1f%%\n", m.CompletionRate)
				fmt.Fprintf(w, "Score:            %.1f (%s)\n", m.EfficiencyScore, e.ctl.Rate(m))
				fmt.Fprintf(w, "Avg estimated:    %.1fh\n", m.AverageEstimatedHours)
				fmt.Fprintf(w, "Avg actual:       %.1fh\n", m.AverageActualHours)
				fmt.Fprintf(w, "On time:          %.1f%%\n", m.OnTimeCompletionRate)

				if !analyze {
					return nil
				}
				analysis, err := e.ctl.AnalyzeEfficiency(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w)
				fmt.Fprintln(w, titleStyle.Render("Analysis"))
				fmt.Fprintln(w, analysis)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "ask the model for suggestions")
	return cmd
}
