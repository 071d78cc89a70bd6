package export

import (
	"fmt"
	"io"
	"time"

	"github.com/tealeg/xlsx/v2"

	"abc-dashboard/internal/stats"
)

const targetColumns = 5

// dotted is the date layout of the target workbook titles
const dotted = "02.01.2006"

// TargetWorkbookName is the download name of the target workbook
func TargetWorkbookName(asOf time.Time) string {
	return "Stray_Dogs_Statistics_" + asOf.Format("02_01_2006") + ".xlsx"
}

// targetRange returns the from/to labels of the completed column. An
// open period covers the five months up to the report date.
func targetRange(report stats.TargetReport) (string, string) {
	if report.Period.Active() {
		return report.Period.From.Format(dotted), report.Period.To.Format(dotted)
	}
	return report.AsOf.AddDate(0, -5, 0).Format(dotted), report.AsOf.Format(dotted)
}

// WriteTargetWorkbook writes the region, district and ULB target report
// as the "Statistics" sheet
func WriteTargetWorkbook(w io.Writer, report stats.TargetReport) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Statistics")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	from, to := targetRange(report)
	titles := []string{
		"MUNICIPAL ADMINISTRATION DEPARTMENT",
		"Stray Dogs to be Sterilized & Vaccinated in the ULBs",
		"(as on " + report.AsOf.Format(dotted) + ")",
	}
	for _, title := range titles {
		row := sheet.AddRow()
		cell := row.AddCell()
		cell.SetString(title)
		cell.SetStyle(headerStyle(14, false))
		cell.Merge(targetColumns-1, 0)
		for i := 1; i < targetColumns; i++ {
			row.AddCell().SetStyle(headerStyle(14, false))
		}
	}
	sheet.AddRow()

	addTextRow(sheet, headerStyle(12, true),
		"Sl. No",
		"Name of the ULB",
		"No. of Stray Dogs to be Sterilized & Vaccinated in the ULB",
		"No. of Stray Dogs Sterilized & Vaccinated from "+from+" to "+to,
		"Balance",
	)
	addTextRow(sheet, headerStyle(12, true), "(1)", "(2)", "(3)", "(4)", "(5)")
	sheet.AddRow()

	for _, region := range report.Regions {
		for _, district := range region.Districts {
			row := sheet.AddRow()
			row.AddCell()
			row.AddCell().SetString(district.Name)

			for _, u := range district.ULBs {
				row := sheet.AddRow()
				row.AddCell().SetInt(u.SerialNo)
				row.AddCell().SetString(u.ULB)
				addTotals(row, u.TargetTotals)
				styleRow(row, func(col int) *xlsx.Style { return bodyStyle(col, 10, false, "", "thin") })
			}

			addTotalsRow(sheet, "District Total", district.Totals, 10, "FFEEEEEE", "thin")
		}
		addTotalsRow(sheet, region.Name+" Total", region.Totals, 11, "FFDDDDDD", "thin")
	}
	addTotalsRow(sheet, "Grand Total", report.Totals, 12, "FF4CAF50", "double")

	widths := []float64{8, 40, 15, 15, 15}
	for i, width := range widths {
		sheet.SetColWidth(i, i, width)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func addTextRow(sheet *xlsx.Sheet, style *xlsx.Style, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		cell.SetString(v)
		cell.SetStyle(style)
	}
}

func addTotals(row *xlsx.Row, t stats.TargetTotals) {
	row.AddCell().SetInt(t.Target)
	row.AddCell().SetInt(t.Completed)
	row.AddCell().SetInt(t.Balance)
}

func addTotalsRow(sheet *xlsx.Sheet, label string, t stats.TargetTotals, size int, fill, edge string) {
	row := sheet.AddRow()
	row.AddCell()
	row.AddCell().SetString(label)
	addTotals(row, t)
	styleRow(row, func(col int) *xlsx.Style { return bodyStyle(col, size, true, fill, edge) })
}

func styleRow(row *xlsx.Row, style func(col int) *xlsx.Style) {
	for i, cell := range row.Cells {
		cell.SetStyle(style(i))
	}
}

func headerStyle(size int, bordered bool) *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font = *xlsx.NewFont(size, "Arial")
	style.Font.Bold = true
	style.Alignment = xlsx.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	style.ApplyFont = true
	style.ApplyAlignment = true
	if bordered {
		style.Border = *xlsx.NewBorder("thin", "thin", "thin", "thin")
		style.ApplyBorder = true
	}
	return style
}

// bodyStyle styles a data cell. edge is the top and bottom border style.
func bodyStyle(col, size int, bold bool, fill, edge string) *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font = *xlsx.NewFont(size, "Arial")
	style.Font.Bold = bold
	horizontal := "left"
	if col > 1 {
		horizontal = "right"
	}
	style.Alignment = xlsx.Alignment{Horizontal: horizontal, Vertical: "center"}
	style.Border = *xlsx.NewBorder("thin", "thin", edge, edge)
	if fill != "" {
		style.Fill = *xlsx.NewFill("solid", fill, fill)
		style.ApplyFill = true
	}
	style.ApplyFont = true
	style.ApplyAlignment = true
	style.ApplyBorder = true
	return style
}
