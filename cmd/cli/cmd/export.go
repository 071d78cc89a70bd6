package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	cliapi "abc-dashboard/internal/cli"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download spreadsheet and PDF exports",
	Long: `Download an export rendered by the server. PDF exports need Chrome
on the server and can take a while for large tables.`,
}

var exportDogsCmd = &cobra.Command{
	Use:   "dogs",
	Short: "Export the filtered dog table as xlsx or pdf",
	Args:  cobra.NoArgs,
	RunE:  runExportDogs,
}

var exportDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Export the dashboard as a one-page pdf",
	Args:  cobra.NoArgs,
	RunE:  runExportDashboard,
}

var exportULBsCmd = &cobra.Command{
	Use:   "ulbs",
	Short: "Export the municipality target table as xlsx",
	Args:  cobra.NoArgs,
	RunE:  runExportULBs,
}

var exportStatisticsCmd = &cobra.Command{
	Use:   "statistics",
	Short: "Export the target report workbook as xlsx",
	Args:  cobra.NoArgs,
	RunE:  runExportStatistics,
}

var (
	exportType       string
	exportOutput     string
	exportImages     bool
	exportPageFormat string
	exportPortrait   bool
	exportFilter     dogFilterFlags
)

// dogFilterFlags are the table filters shared by dogs, export and print
type dogFilterFlags struct {
	district  string
	ulb       string
	from      string
	to        string
	dateField string
}

func (f *dogFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.district, "district", "d", "", "Filter by district")
	cmd.Flags().StringVarP(&f.ulb, "ulb", "u", "", "Filter by ULB (requires --district)")
	cmd.Flags().StringVar(&f.from, "from", "", "Date range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Date range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.dateField, "date-field", "", "Date the range applies to (catch, surgery, relocation)")
	cmd.RegisterFlagCompletionFunc("district", completeDistrictFlag)
	cmd.RegisterFlagCompletionFunc("date-field", cobra.FixedCompletions([]string{"catch", "surgery", "relocation"}, cobra.ShellCompDirectiveNoFileComp))
}

func (f *dogFilterFlags) validate() error {
	if f.ulb != "" && f.district == "" {
		return fmt.Errorf("--ulb requires --district")
	}
	return validateDateRange(f.from, f.to)
}

func (f *dogFilterFlags) query() cliapi.DogQuery {
	return cliapi.DogQuery{
		District:  f.district,
		ULB:       f.ulb,
		From:      f.from,
		To:        f.to,
		DateField: f.dateField,
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportDogsCmd, exportDashboardCmd, exportULBsCmd, exportStatisticsCmd)

	exportCmd.PersistentFlags().StringVarP(&exportOutput, "output", "o", "", "Output file or directory (default: server file name in the current directory)")

	exportFilter.register(exportDogsCmd)
	exportDogsCmd.Flags().StringVarP(&exportType, "type", "t", "xlsx", "File type (xlsx, pdf)")
	exportDogsCmd.Flags().BoolVar(&exportImages, "images", false, "Inline the surgery and release photos (pdf only)")
	exportDogsCmd.RegisterFlagCompletionFunc("type", cobra.FixedCompletions([]string{"xlsx", "pdf"}, cobra.ShellCompDirectiveNoFileComp))

	for _, c := range []*cobra.Command{exportDogsCmd, exportDashboardCmd} {
		c.Flags().StringVar(&exportPageFormat, "page-format", "", "Paper size (a2, a3, a4, letter); default is the server's")
		c.Flags().BoolVar(&exportPortrait, "portrait", false, "Portrait orientation (with --page-format)")
	}

	for _, c := range []*cobra.Command{exportDashboardCmd, exportStatisticsCmd} {
		c.Flags().StringVar(&exportFilter.from, "from", "", "Date range start (YYYY-MM-DD)")
		c.Flags().StringVar(&exportFilter.to, "to", "", "Date range end (YYYY-MM-DD)")
	}
}

// pageQuery adds the paper parameters when a format was chosen
func pageQuery(q url.Values) {
	if exportPageFormat == "" {
		return
	}
	q.Set("page_format", exportPageFormat)
	q.Set("landscape", strconv.FormatBool(!exportPortrait))
}

func rangeQuery(from, to string) url.Values {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	return q
}

func runExportDogs(cmd *cobra.Command, args []string) error {
	if err := exportFilter.validate(); err != nil {
		return err
	}

	q := exportFilter.query().Values()
	switch exportType {
	case "xlsx":
		if exportImages {
			return fmt.Errorf("--images is only supported with --type pdf")
		}
		return download(cmd, "/api/export/dogs.xlsx", q)
	case "pdf":
		if exportImages {
			q.Set("images", "true")
		}
		pageQuery(q)
		return download(cmd, "/api/export/dogs.pdf", q)
	default:
		return fmt.Errorf("invalid --type %s (must be one of: xlsx, pdf)", exportType)
	}
}

func runExportDashboard(cmd *cobra.Command, args []string) error {
	if err := validateDateRange(exportFilter.from, exportFilter.to); err != nil {
		return err
	}
	q := rangeQuery(exportFilter.from, exportFilter.to)
	pageQuery(q)
	return download(cmd, "/api/export/dashboard.pdf", q)
}

func runExportULBs(cmd *cobra.Command, args []string) error {
	return download(cmd, "/api/export/ulbs.xlsx", nil)
}

func runExportStatistics(cmd *cobra.Command, args []string) error {
	if err := validateDateRange(exportFilter.from, exportFilter.to); err != nil {
		return err
	}
	return download(cmd, "/api/export/statistics.xlsx", rangeQuery(exportFilter.from, exportFilter.to))
}

// download fetches path and writes it to disk behind a spinner
func download(cmd *cobra.Command, path string, q url.Values) error {
	cfg, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	var spinner *cliapi.ProgressSpinner
	if !cfg.Quiet {
		spinner = cliapi.NewProgressSpinner("Rendering export", noColor)
		spinner.Start()
	}

	d, err := client.Download(path, q)

	if spinner != nil {
		spinner.Stop()
	}

	if err != nil {
		formatter.PrintError(err)
		return err
	}

	dest := outputPath(exportOutput, d.Filename)
	if err := os.WriteFile(dest, d.Data, 0o644); err != nil {
		err = fmt.Errorf("failed to write %s: %w", dest, err)
		formatter.PrintError(err)
		return err
	}

	if cfg.Quiet {
		fmt.Println(dest)
		return nil
	}
	formatter.PrintSuccess(fmt.Sprintf("Saved %s (%d bytes)", dest, len(d.Data)))
	if d.OmittedImages > 0 {
		formatter.PrintInfo(fmt.Sprintf("%d images could not be fetched and were left out", d.OmittedImages))
	}
	return nil
}
