package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/depmanifest/pkg/manifest"
)

// manifestExtensions are the file extensions offered for manifest arguments.
var manifestExtensions = []string{"kts", "gradle", "xml", "yaml", "yml", "json", "toml"}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for depmanifest.

To load completions:

Bash:
  $ source <(depmanifest completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ depmanifest completion bash > /etc/bash_completion.d/depmanifest
  # macOS:
  $ depmanifest completion bash > $(brew --prefix)/etc/bash_completion.d/depmanifest

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ depmanifest completion zsh > "${fpath[1]}/_depmanifest"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ depmanifest completion fish | source

  # To load completions for each session, execute once:
  $ depmanifest completion fish > ~/.config/fish/completions/depmanifest.fish

PowerShell:
  PS> depmanifest completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> depmanifest completion powershell > depmanifest.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}

// completeManifest offers manifest files for the first argument.
func completeManifest(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return manifestExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeRoles offers the canonical role names.
func completeRoles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, r := range manifest.Roles() {
		names = append(names, r.String()+"\t"+roleHelp[r])
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

var roleHelp = map[manifest.Role]string{
	manifest.RoleOptionalCompile: "compile classpath, not exported",
	manifest.RoleCompileExport:   "compile classpath, exported to consumers",
	manifest.RoleTestOnly:        "test classpath only",
}

// completeValues offers a fixed set of flag values.
func completeValues(values []string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
