package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script",
	Long: `To load completions:

Bash:
  $ source <(abc-cli completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ abc-cli completion bash > /etc/bash_completion.d/abc-cli
  # macOS:
  $ abc-cli completion bash > /usr/local/etc/bash_completion.d/abc-cli

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ abc-cli completion zsh > "${fpath[1]}/_abc-cli"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ abc-cli completion fish | source

  # To load completions for each session, execute once:
  $ abc-cli completion fish > ~/.config/fish/completions/abc-cli.fish

PowerShell:
  PS> abc-cli completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> abc-cli completion powershell > abc-cli.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletion(os.Stdout)
	case "zsh":
		return rootCmd.GenZshCompletion(os.Stdout)
	case "fish":
		return rootCmd.GenFishCompletion(os.Stdout, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletion(os.Stdout)
	}
	return nil
}

// districtNames asks the server for district names starting with prefix
func districtNames(cmd *cobra.Command, prefix string) []string {
	_, _, client, err := initializeClient(cmd)
	if err != nil {
		return nil
	}
	districts, err := client.GetDistricts()
	if err != nil {
		return nil
	}
	var names []string
	for _, d := range districts {
		if strings.HasPrefix(strings.ToLower(d.Name), strings.ToLower(prefix)) {
			names = append(names, d.Name)
		}
	}
	return names
}

func completeDistrictArg(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return districtNames(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeDistrictFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return districtNames(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
}
