package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/depmanifest/pkg/io"
	"github.com/matzehuels/depmanifest/pkg/manifest"
	"github.com/matzehuels/depmanifest/pkg/pipeline"
)

// resolveFlags holds the flags shared by every command that resolves a manifest.
type resolveFlags struct {
	catalog string
	roles   []string
	offline bool
	noCache bool
	refresh bool
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "version catalog (default: gradle/libs.versions.toml next to the manifest)")
	cmd.Flags().StringSliceVar(&f.roles, "role", nil, "keep only these roles ("+roleNames()+")")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "only read BOMs from the local Maven repository")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")

	cmd.ValidArgsFunction = completeManifest
	_ = cmd.RegisterFlagCompletionFunc("role", completeRoles)
	_ = cmd.RegisterFlagCompletionFunc("catalog", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"toml"}, cobra.ShellCompDirectiveFilterFileExt
	})
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		flags     resolveFlags
		format    string
		output    string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <manifest>",
		Short: "Resolve a manifest to its dependency list",
		Long: `Resolve reads a manifest, expands version catalog aliases, loads the active
platform's version table and prints every dependency with its effective
version and role.

Supported manifests: build.gradle.kts, build.gradle, pom.xml and
depmanifest.yaml/.yml/.json/.toml.`,
		Example: `  depmanifest resolve build.gradle.kts
  depmanifest resolve build.gradle.kts --role test-only
  depmanifest resolve pom.xml --format lock -o dependencies.lock`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pkgio.ValidateFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			result, err := c.resolve(ctx, args[0], flags)
			if err != nil {
				return err
			}
			if !noHistory {
				if id := c.recordRun(ctx, filepath.Base(args[0]), flags.roles, result); id != "" {
					c.Logger.Debug("recorded run", "id", id)
				}
			}
			return writeResult(cmd.OutOrStdout(), result, format, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", pkgio.FormatText, "output format ("+strings.Join(pkgio.Formats, ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this run in the local history")
	_ = cmd.RegisterFlagCompletionFunc("format", completeValues(pkgio.Formats))

	return cmd
}

// resolve runs the pipeline for the manifest at path.
func (c *CLI) resolve(ctx context.Context, path string, flags resolveFlags) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	opts, err := c.pipelineOptions(pipeline.Options{
		Path:        path,
		CatalogPath: flags.catalog,
		Roles:       flags.roles,
		Offline:     flags.offline,
		Refresh:     flags.refresh,
	})
	if err != nil {
		return nil, err
	}

	prog := newProgress(loggerFromContext(ctx))
	result, err := runner.Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Resolved %d dependencies from %s", len(result.Dependencies), filepath.Base(path)))
	return result, nil
}

// writeResult prints result in format to w, or to the file at output.
// Text on a terminal is drawn as a table.
func writeResult(w io.Writer, result *pipeline.Result, format, output string) error {
	report := reportOf(result)
	if output != "" {
		if err := pkgio.Export(report, format, output); err != nil {
			return err
		}
		printSuccess("Resolved %d dependencies", len(result.Dependencies))
		printFile(output)
		printStats(result.Stats.Entries, len(result.Dependencies), result.CacheInfo.ResolveHit)
		return nil
	}
	if format == pkgio.FormatText && isTerminal(w) {
		if p := result.Platform; p != nil {
			printKeyValue("Platform", p.String())
		}
		fmt.Fprintln(w, dependencyTable(result.Dependencies))
		return nil
	}
	return pkgio.Write(w, report, format)
}

func reportOf(result *pipeline.Result) pkgio.Report {
	return pkgio.Report{
		Project:      result.Project,
		Platform:     result.Platform.String(),
		Dependencies: result.Dependencies,
	}
}

func roleNames() string {
	names := make([]string, 0, len(manifest.Roles()))
	for _, r := range manifest.Roles() {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}
