package export

import (
	"bytes"
	"html/template"
	"strings"
)

// DatasetTableID is the element rasterized in full-dataset mode
const DatasetTableID = "export-table"

var datasetTemplate = template.Must(template.New("dataset").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Arial, sans-serif; margin: 0; padding: 16px; background: #fff; }
  table { width: 100%; border-collapse: collapse; }
  th, td { border: 1px solid #ddd; padding: 8px; font-size: 12px; vertical-align: middle; }
  th { background-color: #f2f2f2; text-align: left; }
  .image-cell { display: flex; flex-direction: column; align-items: center; }
  .image-cell h4 { margin: 8px 0; font-size: 12px; font-weight: bold; }
  .image-cell img { max-width: 150px; max-height: 150px; object-fit: contain; border: 1px solid #ddd; border-radius: 4px; }
</style>
</head>
<body>
<table id="{{.TableID}}">
  <thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
  <tbody>
  {{- range .Rows}}
    <tr>{{range .}}<td>{{if .Image}}<div class="image-cell"><h4>{{.Heading}}</h4><img src="{{.Image}}" alt="{{.Heading}}"></div>{{else}}{{.Text}}{{end}}</td>{{end}}</tr>
  {{- end}}
  </tbody>
</table>
</body>
</html>
`))

var imageTemplate = template.Must(template.New("image").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  @page { margin: 0; }
  html, body { margin: 0; padding: 0; }
  img { display: block; width: 100vw; height: 100vh; object-fit: contain; }
</style>
</head>
<body><img src="{{.}}"></body>
</html>
`))

type tableCell struct {
	Text    string
	Heading string
	Image   template.URL
}

// DatasetDocument builds the off-screen HTML table for rows. Columns
// follow the first-seen key order. Resolved images are drawn with a
// title-cased heading; missing values read N/A.
func DatasetDocument(title string, rows []Row) (string, error) {
	cols := Columns(rows)
	body := make([][]tableCell, len(rows))
	for i, row := range rows {
		cells := make([]tableCell, len(cols))
		for j, col := range cols {
			v, ok := row.Get(col)
			if !ok {
				cells[j] = tableCell{Text: NotAvailable}
				continue
			}
			if IsImageField(col) && isDataURI(v) {
				// data URIs from the resolver are trusted
				cells[j] = tableCell{Heading: titleCase(col), Image: template.URL(v.(string))}
				continue
			}
			cells[j] = tableCell{Text: formatValue(v)}
		}
		body[i] = cells
	}

	var buf bytes.Buffer
	err := datasetTemplate.Execute(&buf, struct {
		Title   string
		TableID string
		Columns []string
		Rows    [][]tableCell
	}{title, DatasetTableID, cols, body})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// imageDocument wraps a PNG data URI into a page-filling document
func imageDocument(dataURI string) (string, error) {
	var buf bytes.Buffer
	if err := imageTemplate.Execute(&buf, template.URL(dataURI)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// titleCase turns "after_surgery_image" into "After Surgery Image"
func titleCase(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
