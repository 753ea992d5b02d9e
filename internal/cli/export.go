package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/focusplan/internal/export"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export tasks, subtasks and time logs to CSV, JSON or YAML",
		Long: `Export to file, inferring the format from its extension. Without a file a
timestamped name in the current directory is used. CSV holds time logs only.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := export.Format(format)
			var path string
			if len(args) == 1 {
				path = args[0]
				if format == "" {
					var err error
					if f, err = export.FormatFor(path); err != nil {
						return err
					}
				}
			} else {
				if f == "" {
					f = export.FormatJSON
				}
				path = export.DefaultFilename(f, time.Now())
			}

			return withEnv(cmd, g, func(e *env) error {
				snap, err := export.Collect(e.repo)
				if err != nil {
					return err
				}
				if err := export.Write(snap, f, path); err != nil {
					return err
				}
				e.logger.Info("exported", "path", path, "format", f, "tasks", len(snap.Tasks))
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(snap.Tasks), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv, json or yaml (default from extension, json without a file)")
	return cmd
}
