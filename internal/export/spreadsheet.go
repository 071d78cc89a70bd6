// Package export turns dashboard views into spreadsheets, PDFs and
// printable documents.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"abc-dashboard/internal/records"
	"abc-dashboard/internal/stats"
)

// NotAvailable is written for absent values
const NotAvailable = "N/A"

// maxSheetName is the longest sheet name Excel accepts
const maxSheetName = 31

// Field is one named value of a row
type Field struct {
	Key   string
	Value any
}

// Row is an ordered list of fields
type Row []Field

// Get returns the value for key
func (r Row) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Columns returns the keys of rows in first-seen order
func Columns(rows []Row) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, f := range row {
			if !seen[f.Key] {
				seen[f.Key] = true
				cols = append(cols, f.Key)
			}
		}
	}
	return cols
}

// WriteSpreadsheet writes rows as a single-sheet workbook. Numbers are
// stored as numeric cells and missing or nil fields as untyped blanks, so
// an empty string survives a round trip as "".
func WriteSpreadsheet(w io.Writer, sheetName string, rows []Row) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sanitizeSheetName(sheetName))
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	cols := Columns(rows)
	header := sheet.AddRow()
	for _, col := range cols {
		header.AddCell().SetString(col)
	}

	for _, row := range rows {
		xrow := sheet.AddRow()
		for _, col := range cols {
			cell := xrow.AddCell()
			v, ok := row.Get(col)
			if !ok || v == nil {
				// an untyped blank cell reads back as a missing field,
				// unlike a string cell holding ""
				cell.SetNumeric("")
				continue
			}
			setCell(cell, v)
		}
	}

	if len(cols) > 0 {
		sheet.SetColWidth(0, len(cols)-1, 18)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ReadSpreadsheet reads the first sheet of a workbook written by
// WriteSpreadsheet. Numeric cells come back as float64.
func ReadSpreadsheet(r io.ReaderAt, size int64) ([]Row, error) {
	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheet := file.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	var cols []string
	for _, cell := range sheet.Rows[0].Cells {
		cols = append(cols, cell.String())
	}

	rows := make([]Row, 0, len(sheet.Rows)-1)
	for _, xrow := range sheet.Rows[1:] {
		row := make(Row, 0, len(cols))
		for i, col := range cols {
			if i >= len(xrow.Cells) {
				break
			}
			cell := xrow.Cells[i]
			if cell.Value == "" && cell.Type() != xlsx.CellTypeString {
				continue
			}
			row = append(row, Field{Key: col, Value: cellValue(cell)})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch val := v.(type) {
	case nil:
	case int:
		cell.SetInt(val)
	case int64:
		cell.SetInt64(val)
	case float64:
		cell.SetFloat(val)
	case float32:
		cell.SetFloat(float64(val))
	case bool:
		cell.SetBool(val)
	case string:
		cell.SetString(val)
	case fmt.Stringer:
		cell.SetString(val.String())
	default:
		cell.SetString(fmt.Sprint(val))
	}
}

func cellValue(cell *xlsx.Cell) any {
	if cell.Type() == xlsx.CellTypeNumeric {
		if f, err := cell.Float(); err == nil {
			return f
		}
	}
	if cell.Type() == xlsx.CellTypeBool {
		return cell.Bool()
	}
	return cell.String()
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '?', '*', '[', ']', ':':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet1"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

// Dog table columns
const (
	ColDogID          = "Dog ID"
	ColCaughtDate     = "Caught Date"
	ColWardNo         = "Ward No"
	ColGender         = "Gender"
	ColULB            = "ULB"
	ColDistrict       = "District"
	ColSurgeryDate    = "Surgery Date"
	ColRelocationDate = "Relocation Date"
	ColStatus         = "Status"
)

// Image columns of the full-dataset export
const (
	ColBeforeSurgeryImage = "Before Surgery Image"
	ColAfterSurgeryImage  = "After Surgery Image"
	ColRelocationImage    = "Relocation Image"
)

// RecordRows converts records to the dog table columns
func RecordRows(recs []records.AnimalRecord) []Row {
	rows := make([]Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, Row{
			{ColDogID, r.ID},
			{ColCaughtDate, formatDate(r.DateOfCatch)},
			{ColWardNo, r.WardNumber},
			{ColGender, r.Gender},
			{ColULB, r.ULB},
			{ColDistrict, r.District},
			{ColSurgeryDate, formatDate(r.SurgeryDate)},
			{ColRelocationDate, formatDate(r.RelocationDate)},
			{ColStatus, r.Status},
		})
	}
	return rows
}

// RecordRowsWithImages adds the three image URL columns
func RecordRowsWithImages(recs []records.AnimalRecord) []Row {
	rows := RecordRows(recs)
	for i, r := range recs {
		rows[i] = append(rows[i],
			Field{ColBeforeSurgeryImage, nullable(r.BeforeSurgeryImage)},
			Field{ColAfterSurgeryImage, nullable(r.AfterSurgeryImage)},
			Field{ColRelocationImage, nullable(r.RelocationImage)},
		)
	}
	return rows
}

// ULBRows converts the ULB summary table
func ULBRows(summaries []stats.ULBSummary) []Row {
	rows := make([]Row, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, Row{
			{"District", s.District},
			{"ULB", s.ULB},
			{"Total", s.Total},
			{"Male", s.Male},
			{"Female", s.Female},
			{"Sterilized", s.Sterilized},
			{"Released", s.Released},
			{"Achieved Without App", s.AchievedWithoutApp},
			{"Balance", s.Balance},
		})
	}
	return rows
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func formatDate(d records.Date) string {
	if d.IsZero() {
		return NotAvailable
	}
	return d.Format("02/01/2006")
}

// formatValue renders a cell for HTML output
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return NotAvailable
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
