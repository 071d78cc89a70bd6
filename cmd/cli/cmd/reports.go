package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Show the headline metrics",
	Long:    `Show total, sterilized, pending and released counts, the gender split and the top districts.`,
	Args:    cobra.NoArgs,
	RunE:    runDashboard,
}

var districtsCmd = &cobra.Command{
	Use:   "districts [district]",
	Short: "List district progress, or the ULBs of one district",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDistricts,
}

var ulbsCmd = &cobra.Command{
	Use:   "ulbs",
	Short: "Show the municipality target table",
	Args:  cobra.NoArgs,
	RunE:  runULBs,
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "List the ULB map markers with their dog counts",
	Args:  cobra.NoArgs,
	RunE:  runMap,
}

var statisticsCmd = &cobra.Command{
	Use:     "statistics",
	Aliases: []string{"stats"},
	Short:   "Show the region, district and ULB target report",
	Long: `Show progress against sterilization targets. With --from and --to
only surgeries inside the range count toward the live figure.`,
	Args: cobra.NoArgs,
	RunE: runStatistics,
}

var (
	ulbsDistrict string
	statsFrom    string
	statsTo      string
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(districtsCmd)
	rootCmd.AddCommand(ulbsCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(statisticsCmd)

	ulbsCmd.Flags().StringVarP(&ulbsDistrict, "district", "d", "", "Only ULBs of this district")
	statisticsCmd.Flags().StringVar(&statsFrom, "from", "", "Surgery date range start (YYYY-MM-DD)")
	statisticsCmd.Flags().StringVar(&statsTo, "to", "", "Surgery date range end (YYYY-MM-DD)")

	districtsCmd.ValidArgsFunction = completeDistrictArg
	ulbsCmd.RegisterFlagCompletionFunc("district", completeDistrictFlag)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	d, err := client.GetDashboard()
	if err != nil {
		formatter.PrintError(err)
		return err
	}
	return formatter.PrintDashboard(d)
}

func runDistricts(cmd *cobra.Command, args []string) error {
	cfg, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		ulbs, err := client.GetDistrictULBs(args[0])
		if err != nil {
			formatter.PrintError(err)
			return err
		}
		if cfg.Format == "json" && !cfg.Quiet {
			return printJSON(ulbs)
		}
		for _, name := range ulbs {
			fmt.Println(name)
		}
		return nil
	}

	districts, err := client.GetDistricts()
	if err != nil {
		formatter.PrintError(err)
		return err
	}
	return formatter.PrintDistricts(districts)
}

func runULBs(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	rows, err := client.GetULBs(ulbsDistrict)
	if err != nil {
		formatter.PrintError(err)
		return err
	}
	return formatter.PrintULBs(rows)
}

func runMap(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	points, err := client.GetMapPoints()
	if err != nil {
		formatter.PrintError(err)
		return err
	}
	return formatter.PrintMapPoints(points)
}

func runStatistics(cmd *cobra.Command, args []string) error {
	if err := validateDateRange(statsFrom, statsTo); err != nil {
		return err
	}

	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	report, err := client.GetStatistics(statsFrom, statsTo)
	if err != nil {
		formatter.PrintError(err)
		return err
	}
	return formatter.PrintStatistics(report)
}
