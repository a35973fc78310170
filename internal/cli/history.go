package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/depmanifest/pkg/io"
	"github.com/matzehuels/depmanifest/pkg/storage"
)

// historyCommand creates the history command for past CLI resolutions.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List past resolutions, or show one by ID",
		Example: `  depmanifest history
  depmanifest history 0b6f3c4e-0f0e-4a43-9b8c-7d4b2b8f0c11 --format lock`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				if err := pkgio.ValidateFormat(format); err != nil {
					return err
				}
				run, err := store.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return pkgio.Write(w, pkgio.Report{
					Project:      run.Project,
					Platform:     run.Platform,
					Dependencies: run.Dependencies,
				}, format)
			}

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs recorded yet")
				printDetail("Directory: %s", store.Path())
				return nil
			}
			for _, run := range runs {
				fmt.Fprintln(w, historyLine(run))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	cmd.Flags().StringVarP(&format, "format", "f", pkgio.FormatText, "output format for a single run ("+strings.Join(pkgio.Formats, ", ")+")")

	return cmd
}

// historyLine formats one run for the history listing.
func historyLine(run *storage.Run) string {
	name := run.Filename
	if run.Project != "" {
		name = run.Project + "/" + name
	}
	line := fmt.Sprintf("%s  %s  %s  %d dependencies",
		run.ID, run.CreatedAt.Local().Format(time.DateTime), name, len(run.Dependencies))
	if len(run.Roles) > 0 {
		line += " (" + strings.Join(run.Roles, ", ") + ")"
	}
	return line
}
