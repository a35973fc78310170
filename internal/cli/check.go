package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/depmanifest/pkg/io"
)

// checkCommand creates the check command, which compares a fresh
// resolution against a lock file written by "resolve --format lock".
func (c *CLI) checkCommand() *cobra.Command {
	var (
		flags  resolveFlags
		lock   string
		update bool
	)

	cmd := &cobra.Command{
		Use:   "check <manifest>",
		Short: "Compare a manifest against its lock file",
		Long: `Check resolves a manifest and compares the result with a lock file. It exits
non-zero when a dependency was added, removed, or changed version or role.
Use --update to rewrite the lock file instead.`,
		Example: `  depmanifest check build.gradle.kts --lock dependencies.lock
  depmanifest check build.gradle.kts --lock dependencies.lock --update`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.resolve(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			if update {
				if err := pkgio.Export(reportOf(result), pkgio.FormatLock, lock); err != nil {
					return err
				}
				printSuccess("Updated lock file")
				printFile(lock)
				return nil
			}

			locked, err := pkgio.ImportLock(lock)
			if err != nil {
				return err
			}
			changes := pkgio.Diff(locked, result.Dependencies)
			if len(changes) == 0 {
				printSuccess("%s is up to date (%d dependencies)", lock, len(locked))
				return nil
			}

			w := cmd.OutOrStdout()
			for _, ch := range changes {
				fmt.Fprintln(w, ch)
			}
			printWarning("%d dependencies differ from %s", len(changes), lock)
			printNextStep("Accept the changes", "depmanifest check "+args[0]+" --lock "+lock+" --update")
			return fmt.Errorf("%d dependencies differ from %s", len(changes), lock)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&lock, "lock", "", "lock file to compare against (required)")
	cmd.Flags().BoolVar(&update, "update", false, "rewrite the lock file with the current resolution")
	_ = cmd.MarkFlagRequired("lock")

	return cmd
}
