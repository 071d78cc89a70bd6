package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"abc-dashboard/internal/handlers"
	"abc-dashboard/internal/records"
	"abc-dashboard/internal/stats"
)

// OutputFormatter handles different output formats
type OutputFormatter struct {
	format string
	quiet  bool
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(format string, quiet bool) *OutputFormatter {
	return &OutputFormatter{
		format: format,
		quiet:  quiet,
	}
}

// emit writes v as JSON or hands off to the table printer
func (f *OutputFormatter) emit(v interface{}, table func() error) error {
	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(v)
	case "table":
		return table()
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintDashboard prints the headline metrics
func (f *OutputFormatter) PrintDashboard(d *handlers.DashboardResponse) error {
	if f.quiet {
		fmt.Printf("%d\n", d.Metrics.TotalStrayDogs)
		return nil
	}
	return f.emit(d, func() error {
		m := d.Metrics
		fmt.Printf("Total ULBs: %d\n", m.TotalULBs)
		fmt.Printf("Total Stray Dogs: %d\n", m.TotalStrayDogs)
		fmt.Printf("Sterilized: %d\n", m.SterilizedDogs)
		fmt.Printf("Pending: %d\n", m.PendingDogs)
		fmt.Printf("Released: %d\n", m.ReleasedDogs)
		fmt.Printf("Overall Progress: %s\n", stats.FormatPercent(m.OverallProgress))
		fmt.Printf("Gender: %d male, %d female, %d other\n", d.Gender.Male, d.Gender.Female, d.Gender.Other)
		if !d.FetchedAt.IsZero() {
			fmt.Printf("Data as of: %s (version %d)\n", d.FetchedAt.Local().Format("02/01/2006 15:04"), d.Version)
		}
		if len(d.TopDistricts) > 0 {
			fmt.Println()
			return f.printDistrictsTable(d.TopDistricts)
		}
		return nil
	})
}

// PrintDistricts prints the district roll-up
func (f *OutputFormatter) PrintDistricts(districts []stats.DistrictSummary) error {
	if f.quiet {
		for _, d := range districts {
			fmt.Println(d.Name)
		}
		return nil
	}
	return f.emit(districts, func() error { return f.printDistrictsTable(districts) })
}

// PrintDogs prints one page of the dog table
func (f *OutputFormatter) PrintDogs(page *handlers.DogsResponse) error {
	if f.quiet {
		for _, row := range page.Items {
			fmt.Printf("%d\n", row.ID)
		}
		return nil
	}
	return f.emit(page, func() error {
		if err := f.printDogsTable(page.Items); err != nil {
			return err
		}
		if page.TotalItems > 0 {
			fmt.Printf("\nPage %d of %d (%d dogs)\n", page.Page+1, page.TotalPages, page.TotalItems)
		}
		return nil
	})
}

// PrintULBs prints the municipality target table
func (f *OutputFormatter) PrintULBs(rows []stats.ULBSummary) error {
	if f.quiet {
		for _, row := range rows {
			fmt.Printf("%s/%s\n", row.District, row.ULB)
		}
		return nil
	}
	return f.emit(rows, func() error {
		if len(rows) == 0 {
			fmt.Println("No ULBs found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "DISTRICT\tULB\tTOTAL\tMALE\tFEMALE\tSTERILIZED\tRELEASED\tWITHOUT APP\tBALANCE")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
				truncate(r.District, 20),
				truncate(r.ULB, 20),
				r.Total, r.Male, r.Female, r.Sterilized, r.Released, r.AchievedWithoutApp, r.Balance)
		}
		return nil
	})
}

// PrintMapPoints prints the ULB markers
func (f *OutputFormatter) PrintMapPoints(points *MapPoints) error {
	if f.quiet {
		for _, p := range points.Points {
			fmt.Printf("%.6f,%.6f\n", p.Latitude, p.Longitude)
		}
		return nil
	}
	return f.emit(points, func() error {
		if len(points.Points) == 0 {
			fmt.Println("No mappable ULBs found.")
		} else {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ULB\tDISTRICT\tLAT\tLNG\tDOGS")
			for _, p := range points.Points {
				fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%d\n",
					truncate(p.ULB, 20), truncate(p.District, 20), p.Latitude, p.Longitude, p.DogCount)
			}
			w.Flush()
		}
		if points.Excluded > 0 {
			fmt.Printf("\n%d dogs have no usable coordinates\n", points.Excluded)
		}
		return nil
	})
}

// PrintStatistics prints the target report grouped by region and district
func (f *OutputFormatter) PrintStatistics(report *stats.TargetReport) error {
	if f.quiet {
		fmt.Printf("%d/%d\n", report.Totals.Completed, report.Totals.Target)
		return nil
	}
	return f.emit(report, func() error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "SL\tULB\tTARGET\tCOMPLETED\tBALANCE\tPROGRESS")
		for _, region := range report.Regions {
			if region.Name != "" {
				fmt.Fprintf(w, "\t%s\t\t\t\t\n", region.Name)
			}
			for _, d := range region.Districts {
				fmt.Fprintf(w, "\t%s\t\t\t\t\n", d.Name)
				for _, row := range d.ULBs {
					fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n",
						row.SerialNo, truncate(row.ULB, 24), row.Target, row.Completed, row.Balance,
						stats.FormatPercent(row.Progress))
				}
				printTotals(w, "District total", d.Totals)
			}
			if region.Name != "" {
				printTotals(w, "Region total", region.Totals)
			}
		}
		printTotals(w, "Grand total", report.Totals)
		return nil
	})
}

func printTotals(w *tabwriter.Writer, label string, t stats.TargetTotals) {
	fmt.Fprintf(w, "\t%s\t%d\t%d\t%d\t%s\n", label, t.Target, t.Completed, t.Balance, stats.FormatPercent(t.Progress))
}

// PrintSuccess prints a success message
func (f *OutputFormatter) PrintSuccess(message string) {
	if !f.quiet {
		fmt.Printf("✓ %s\n", message)
	}
}

// PrintError prints an error message
func (f *OutputFormatter) PrintError(err error) {
	if !f.quiet {
		fmt.Fprintf(os.Stderr, "✗ Error: %v\n", err)
	}
}

// PrintInfo prints an informational message
func (f *OutputFormatter) PrintInfo(message string) {
	if !f.quiet {
		fmt.Printf("ℹ %s\n", message)
	}
}

func (f *OutputFormatter) printDistrictsTable(districts []stats.DistrictSummary) error {
	if len(districts) == 0 {
		fmt.Println("No districts found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "DISTRICT\tTOTAL\tCOMPLETED\tPENDING\tRELEASED\tMALE\tFEMALE\tPROGRESS")
	for _, d := range districts {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			truncate(d.Name, 24),
			d.Total, d.Completed, d.PendingCount, d.Released, d.MaleCount, d.FemaleCount,
			stats.FormatPercent(d.ProgressPercentage))
	}
	return nil
}

func (f *OutputFormatter) printDogsTable(rows []handlers.DogRow) error {
	if len(rows) == 0 {
		fmt.Println("No dogs found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tDISTRICT\tULB\tWARD\tGENDER\tCAUGHT\tSURGERY\tRELEASED\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			truncate(r.District, 20),
			truncate(r.ULB, 15),
			r.WardNumber,
			r.Gender,
			displayDate(r.DateOfCatch),
			displayDate(r.SurgeryDate),
			displayDate(r.RelocationDate),
			dogStatus(r.AnimalRecord))
	}
	return nil
}

// displayDate renders dd/mm/yyyy, or N/A for a missing date
func displayDate(d records.Date) string {
	if d.IsZero() {
		return "N/A"
	}
	return d.Format("02/01/2006")
}

func dogStatus(r records.AnimalRecord) string {
	switch {
	case r.Released():
		return "released"
	case r.Sterilized():
		return "sterilized"
	default:
		return "pending"
	}
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
