package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	cliapi "abc-dashboard/internal/cli"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetch the dog records now",
	Long: `Ask the server to fetch the record list from the source immediately
instead of waiting for the next poll. Refreshes are throttled; --force
bypasses the throttle.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

var (
	refreshVerbose bool
	refreshForce   bool
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(&refreshVerbose, "verbose", false, "Show detailed refresh information")
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "Bypass the refresh throttle")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	// Show progress spinner for refresh operation
	var spinner *cliapi.ProgressSpinner
	if !cfg.Quiet {
		spinnerText := "Refreshing dog records"
		if refreshForce {
			spinnerText = "Force refreshing dog records"
		}
		spinner = cliapi.NewProgressSpinner(spinnerText, noColor)
		spinner.Start()
	}

	response, err := client.Refresh(refreshForce)

	// Stop spinner before printing results
	if spinner != nil {
		spinner.Stop()
	}

	if err != nil {
		var apiErr *cliapi.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests && apiErr.RetryAfter != "" {
			err = fmt.Errorf("%w (retry in %ss or use --force)", err, apiErr.RetryAfter)
		}
		formatter.PrintError(err)
		return err
	}

	if cfg.Quiet {
		fmt.Println(response.Version)
		return nil
	}
	if cfg.Format == "json" {
		return printJSON(response)
	}

	formatter.PrintSuccess(fmt.Sprintf("Refresh successful - %d records (version %d)", response.Records, response.Version))
	if refreshVerbose {
		formatter.PrintInfo(fmt.Sprintf("Fetched at: %s", response.FetchedAt.Local().Format("02/01/2006 15:04:05")))
		formatter.PrintInfo(fmt.Sprintf("Reason: %s", response.Reason))
	}
	return nil
}
