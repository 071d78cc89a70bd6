package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"abc-dashboard/internal/records"
)

// PrintTitle heads the printable dog list
const PrintTitle = "Animal Birth Control ABC & Anti-Rabies Vaccination Program of Stray Dogs"

// PrintRow is one dog of the printable list. Image fields keep the
// original URLs.
type PrintRow struct {
	ID                 string
	CaughtDate         string
	WardNo             string
	Gender             string
	ULB                string
	District           string
	SurgeryDate        string
	BeforeSurgeryImage string
	AfterSurgeryImage  string
	RelocationDate     string
	RelocationImage    string
}

// PrintJob is one printable document
type PrintJob struct {
	Title          string
	DateRangeLabel string
	Rows           []PrintRow
	GeneratedAt    time.Time
}

// DateRangeLabel describes a filter window. Either bound may be nil.
func DateRangeLabel(from, to *time.Time) string {
	if from == nil && to == nil {
		return "All Time"
	}
	label := func(t *time.Time) string {
		if t == nil {
			return NotAvailable
		}
		return t.Format("02/01/2006")
	}
	return "From " + label(from) + " to " + label(to)
}

// PrintRows converts records to print rows ordered by ID
func PrintRows(recs []records.AnimalRecord) []PrintRow {
	sorted := append([]records.AnimalRecord(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	rows := make([]PrintRow, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, PrintRow{
			ID:                 strconv.Itoa(r.ID),
			CaughtDate:         formatDate(r.DateOfCatch),
			WardNo:             r.WardNumber,
			Gender:             r.Gender,
			ULB:                r.ULB,
			District:           r.District,
			SurgeryDate:        formatDate(r.SurgeryDate),
			BeforeSurgeryImage: strings.TrimSpace(r.BeforeSurgeryImage),
			AfterSurgeryImage:  strings.TrimSpace(r.AfterSurgeryImage),
			RelocationDate:     formatDate(r.RelocationDate),
			RelocationImage:    strings.TrimSpace(r.RelocationImage),
		})
	}
	return rows
}

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  @page { size: landscape; margin: 10mm; }
  body { font-family: Arial, sans-serif; margin: 0; padding: 10px; zoom: 0.85; }
  h1 { font-size: 16px; margin-bottom: 10px; }
  .subtitle, p { font-size: 12px; margin-bottom: 10px; }
  table { width: 100%; border-collapse: collapse; margin-bottom: 20px; font-size: 9px; }
  th, td { border: 1px solid #ddd; padding: 5px; text-align: left; word-break: break-word; vertical-align: top; }
  th { background-color: #f2f2f2; font-weight: bold; }
  img { max-width: 150px; max-height: 150px; object-fit: contain; margin: 2px; }
  .footer { margin-top: 20px; font-size: 10px; color: #666; text-align: center; }
</style>
</head>
<body onload="window.print()">
<h1>{{.Title}}</h1>
<div class="subtitle">Date Range: {{.DateRangeLabel}}</div>
<p>Total Dogs: {{len .Rows}}</p>
<table>
  <thead>
    <tr>
      <th>ID</th>
      <th>Date Of Catching</th>
      <th>Ward No</th>
      <th>Gender</th>
      <th>Name of ULB</th>
      <th>Name of District</th>
      <th>Surgery Date</th>
      <th>Before Surgery Image</th>
      <th>After Surgery Image</th>
      <th>Date of Relocation</th>
      <th>Relocation Image</th>
    </tr>
  </thead>
  <tbody>
  {{- range .Rows}}
    <tr>
      <td>{{.ID}}</td>
      <td>{{.CaughtDate}}</td>
      <td>{{.WardNo}}</td>
      <td>{{.Gender}}</td>
      <td>{{.ULB}}</td>
      <td>{{.District}}</td>
      <td>{{.SurgeryDate}}</td>
      <td>{{if .BeforeSurgeryImage}}<img src="{{.BeforeSurgeryImage}}" alt="Before Surgery Image">{{else}}No Image{{end}}</td>
      <td>{{if .AfterSurgeryImage}}<img src="{{.AfterSurgeryImage}}" alt="After Surgery Image">{{else}}No Image{{end}}</td>
      <td>{{.RelocationDate}}</td>
      <td>{{if .RelocationImage}}<img src="{{.RelocationImage}}" alt="Relocation Image">{{else}}No Image{{end}}</td>
    </tr>
  {{- end}}
  </tbody>
</table>
<div class="footer">
  <p>Generated on {{.GeneratedAt.Format "02/01/2006 15:04:05"}}</p>
  <p>Stray Dog Population Management System - Government of Andhra Pradesh</p>
</div>
</body>
</html>
`))

// RenderPrintDocument writes job as a standalone HTML page that opens
// the print dialog when loaded
func RenderPrintDocument(w io.Writer, job PrintJob) error {
	if job.Title == "" {
		job.Title = PrintTitle
	}
	if job.DateRangeLabel == "" {
		job.DateRangeLabel = DateRangeLabel(nil, nil)
	}
	if job.GeneratedAt.IsZero() {
		job.GeneratedAt = time.Now()
	}
	if err := printTemplate.Execute(w, job); err != nil {
		return fmt.Errorf("failed to render print document: %w", err)
	}
	return nil
}

// DocumentOpener shows a local document to the user
type DocumentOpener interface {
	Open(path string) error
}

// PopupBlockedError means the print window could not be opened
type PopupBlockedError struct {
	Path string
	Err  error
}

func (e *PopupBlockedError) Error() string {
	return fmt.Sprintf("could not open the print window (%v): allow pop-ups or open %s in a browser to print", e.Err, e.Path)
}

func (e *PopupBlockedError) Unwrap() error {
	return e.Err
}

// PrintRecords renders job to a temporary HTML file and opens it. The
// file is left in place for the browser to read; its path is returned.
func PrintRecords(ctx context.Context, opener DocumentOpener, job PrintJob) (string, error) {
	var buf bytes.Buffer
	if err := RenderPrintDocument(&buf, job); err != nil {
		return "", err
	}
	return OpenDocument(ctx, opener, buf.Bytes())
}

// OpenDocument writes an already rendered print document to a temporary
// file and opens it
func OpenDocument(ctx context.Context, opener DocumentOpener, document []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "abc-print-*.html")
	if err != nil {
		return "", fmt.Errorf("failed to create print document: %w", err)
	}
	path := f.Name()

	if _, err := f.Write(document); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write print document: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write print document: %w", err)
	}

	if err := opener.Open(path); err != nil {
		return path, &PopupBlockedError{Path: path, Err: err}
	}
	return path, nil
}
