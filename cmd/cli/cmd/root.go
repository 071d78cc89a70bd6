package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cliapi "abc-dashboard/internal/cli"
	"abc-dashboard/internal/config"
)

var (
	configFile string
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "abc-cli",
	Short: "CLI client for the ABC stray dog dashboard",
	Long: `abc-cli reads the animal birth control dashboard from the terminal.
Log in once, then browse the dog table, district and ULB progress, the
target report, and download the spreadsheet and PDF exports.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./cli.yaml or ~/.abc-dashboard/cli.yaml)")
	rootCmd.PersistentFlags().StringP("server", "s", "http://localhost:8080", "API server address")
	rootCmd.PersistentFlags().StringP("format", "f", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Quiet mode (minimal output)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().String("token", "", "Session token (default: the one saved by login)")
}

// loadConfig merges flags, environment and the config file
func loadConfig(cmd *cobra.Command) (*cliapi.Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	flags := cmd.Flags()
	bindings := map[string]string{
		"server_url": "server",
		"format":     "format",
		"quiet":      "quiet",
		"no_color":   "no-color",
		"token":      "token",
	}
	for key, flag := range bindings {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	cfg, err := config.LoadCLIConfigWithViper(v)
	if err != nil {
		return nil, err
	}
	noColor = noColor || cfg.NoColor
	return cfg, nil
}

// initializeClient sets up configuration, formatter, and API client. The
// stored login token is used unless one was given explicitly.
func initializeClient(cmd *cobra.Command) (*cliapi.Config, *cliapi.OutputFormatter, *cliapi.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	formatter := cliapi.NewOutputFormatter(cfg.Format, cfg.Quiet)

	if cfg.Token == "" {
		token, err := cliapi.LoadToken()
		if err != nil {
			formatter.PrintError(err)
			return nil, nil, nil, err
		}
		cfg.Token = token
	}

	client := cliapi.NewClientWithTimeout(cfg.ServerURL, cfg.Token, cfg.RequestTimeout)

	// Test connectivity
	if _, err := client.HealthCheck(); err != nil {
		formatter.PrintError(err)
		return nil, nil, nil, err
	}

	return cfg, formatter, client, nil
}
