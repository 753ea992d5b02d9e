// Package cli is focusplan's command line. With no subcommand it launches
// the terminal UI.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sadopc/focusplan/internal/ai"
	"github.com/sadopc/focusplan/internal/app"
	"github.com/sadopc/focusplan/internal/config"
	"github.com/sadopc/focusplan/internal/logging"
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
	"github.com/sadopc/focusplan/internal/tui"
)

type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

// env is everything a command needs, opened once per invocation.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	store  *store.Store
	repo   *repository.Repository
	ctl    *app.Controller
	closer func()
}

func newRootCmd(version string) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "focusplan",
		Short: "Plan tasks, split them into daily steps and track time",
		Long: `focusplan keeps a local task list with priorities, due dates and progress.

An OpenAI-compatible model can split a task into a day-by-day plan and
comment on your completion metrics. Run without arguments for the
interactive UI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g)
		},
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "database path (overrides db_path)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newTaskCmd(g))
	root.AddCommand(newSubTaskCmd(g))
	root.AddCommand(newPlanCmd(g))
	root.AddCommand(newDefaultsCmd(g))
	root.AddCommand(newMetricsCmd(g))
	root.AddCommand(newAPICmd(g))
	root.AddCommand(newLogCmd(g))
	root.AddCommand(newExportCmd(g))
	return root
}

// Execute runs the root command
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.dbPath != "" {
		cfg.DBPath = g.dbPath
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, nil
}

func openEnv(cfg *config.Config, logger *log.Logger) (*env, error) {
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := repository.New(s)
	client := ai.NewClient(ai.WithTimeout(cfg.AI.Timeout), ai.WithLogger(logger))
	return &env{
		cfg:    cfg,
		logger: logger,
		store:  s,
		repo:   repo,
		ctl:    app.NewController(repo, client, logger),
		closer: func() { s.Close() },
	}, nil
}

// withEnv opens the database with a stderr logger, runs fn and closes it.
func withEnv(cmd *cobra.Command, g *globalFlags, fn func(e *env) error) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return err
	}
	e, err := openEnv(cfg, logger)
	if err != nil {
		return err
	}
	defer e.closer()
	return fn(e)
}

// runTUI logs to the configured file so the alternate screen stays clean.
func runTUI(cmd *cobra.Command, g *globalFlags) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	logger, f, err := logging.OpenFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer f.Close()

	e, err := openEnv(cfg, logger)
	if err != nil {
		return err
	}
	defer e.closer()

	logger.Info("starting ui", "db", cfg.DBPath)
	m := tui.NewApp(cmd.Context(), e.ctl, cfg.Plan)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
