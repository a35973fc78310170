package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depmanifest/pkg/catalog"
	errs "github.com/matzehuels/depmanifest/pkg/errors"
)

// catalogCommand creates the catalog command for inspecting a version catalog.
func (c *CLI) catalogCommand() *cobra.Command {
	var bundles bool

	cmd := &cobra.Command{
		Use:   "catalog <libs.versions.toml>",
		Short: "List the aliases of a Gradle version catalog",
		Example: `  depmanifest catalog gradle/libs.versions.toml
  depmanifest catalog gradle/libs.versions.toml --bundles`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0])
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidCatalog, err, "load %s", args[0])
			}
			c.Logger.Debug("loaded catalog", "name", cat.Name, "libraries", len(cat.Libraries), "bundles", len(cat.Bundles))

			w := cmd.OutOrStdout()
			if bundles {
				names := make([]string, 0, len(cat.Bundles))
				for name := range cat.Bundles {
					names = append(names, name)
				}
				slices.Sort(names)
				for _, name := range names {
					fmt.Fprintf(w, "%s.bundles.%s = [%s]\n", cat.Name, name, strings.Join(cat.Bundles[name], ", "))
				}
				return nil
			}

			aliases := cat.Aliases()
			width := 0
			for _, a := range aliases {
				width = max(width, len(cat.Name)+1+len(a))
			}
			for _, a := range aliases {
				lib, _ := cat.Lookup(a)
				notation := lib.Coordinate.String()
				if lib.Version != "" {
					notation += ":" + lib.Version
				} else {
					notation += StyleDim.Render(" (managed)")
				}
				fmt.Fprintf(w, "%-*s  %s\n", width, cat.Name+"."+a, notation)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&bundles, "bundles", false, "list bundles instead of libraries")
	return cmd
}
