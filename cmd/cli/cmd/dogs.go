package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	cliapi "abc-dashboard/internal/cli"
	"abc-dashboard/internal/query"
)

var dogsCmd = &cobra.Command{
	Use:     "dogs",
	Aliases: []string{"ls"},
	Short:   "List dogs with filters and paging",
	Long: `List the dog table. Filters narrow it by district, ULB and a date
range on the catch, surgery or relocation date. In a terminal the table
opens interactively; use --format json or --quiet for scripts.`,
	Args: cobra.NoArgs,
	RunE: runDogs,
}

var (
	dogsFilter      dogFilterFlags
	dogsPage        int
	dogsPageSize    int
	dogsInteractive bool
	dogsRefresh     time.Duration
)

func init() {
	rootCmd.AddCommand(dogsCmd)

	dogsFilter.register(dogsCmd)
	dogsCmd.Flags().IntVar(&dogsPage, "page", 1, "Page number")
	dogsCmd.Flags().IntVar(&dogsPageSize, "page-size", query.DefaultPageSize, "Rows per page (5, 10, 25)")
	dogsCmd.Flags().BoolVarP(&dogsInteractive, "interactive", "i", false, "Force the interactive table")
	dogsCmd.Flags().DurationVar(&dogsRefresh, "refresh-interval", time.Minute, "Reload interval of the interactive table (0 disables)")
}

// shouldUseInteractiveMode picks the interactive table when asked to, or
// when a person is reading table output in a terminal
func shouldUseInteractiveMode(cfg *cliapi.Config, explicit, isTTY bool) bool {
	if explicit {
		return true
	}
	return cfg.Format == "table" && !cfg.Quiet && isTTY
}

func runDogs(cmd *cobra.Command, args []string) error {
	if err := dogsFilter.validate(); err != nil {
		return err
	}
	if dogsPage < 1 {
		return fmt.Errorf("--page must be 1 or more")
	}
	if !query.ValidPageSize(dogsPageSize) {
		return fmt.Errorf("--page-size must be one of 5, 10, 25")
	}

	cfg, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	filter := dogsFilter.query()
	q := filter
	q.Page = dogsPage - 1
	q.PageSize = dogsPageSize

	page, err := client.GetDogs(q)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	if shouldUseInteractiveMode(cfg, dogsInteractive, isatty.IsTerminal(os.Stdout.Fd())) {
		return runInteractiveTable(page, client, filter, dogsRefresh, cfg)
	}
	return formatter.PrintDogs(page)
}
