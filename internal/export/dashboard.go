package export

import (
	"bytes"
	"html/template"
	"time"

	"abc-dashboard/internal/stats"
)

// DashboardElementID is the element captured for the dashboard PDF
const DashboardElementID = "dashboard"

// DashboardName is the download name of the dashboard PDF
const DashboardName = "Stray_Dogs_Dashboard"

// DashboardView is the data drawn on the dashboard report
type DashboardView struct {
	Title          string
	DateRangeLabel string
	Metrics        stats.Metrics
	Status         stats.StatusDistribution
	Gender         stats.GenderCounts
	Districts      []stats.DistrictSummary
	GeneratedAt    time.Time
}

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"percent": stats.FormatPercent,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Arial, sans-serif; padding: 20px; background: #fff; }
  .header { text-align: center; margin-bottom: 20px; }
  .title { font-size: 24px; font-weight: bold; margin: 10px 0; }
  .subtitle { font-size: 16px; color: #666; margin-bottom: 20px; }
  .cards { display: flex; gap: 12px; margin-bottom: 20px; }
  .card { flex: 1; border: 1px solid #ddd; border-radius: 6px; padding: 12px; text-align: center; }
  .card .value { font-size: 22px; font-weight: bold; }
  .card .label { font-size: 12px; color: #666; }
  table { border-collapse: collapse; width: 100%; margin-top: 20px; }
  th, td { border: 1px solid #ddd; padding: 12px 8px; text-align: left; }
  th { background-color: #f5f5f5; font-weight: bold; }
  tr:nth-child(even) { background-color: #f9f9f9; }
  .footer { margin-top: 20px; text-align: center; font-size: 12px; color: #666; }
</style>
</head>
<body>
<div id="dashboard">
  <div class="header">
    <div class="title">{{.Title}}</div>
    <div class="subtitle">Date Range: {{.DateRangeLabel}}</div>
  </div>
  <div class="cards">
    <div class="card"><div class="value">{{.Metrics.TotalULBs}}</div><div class="label">Total ULBs</div></div>
    <div class="card"><div class="value">{{.Metrics.TotalStrayDogs}}</div><div class="label">Total Stray Dogs</div></div>
    <div class="card"><div class="value">{{.Metrics.SterilizedDogs}}</div><div class="label">Sterilized Dogs</div></div>
    <div class="card"><div class="value">{{.Metrics.PendingDogs}}</div><div class="label">Pending Dogs</div></div>
    <div class="card"><div class="value">{{.Metrics.ReleasedDogs}}</div><div class="label">Released Dogs</div></div>
    <div class="card"><div class="value">{{percent .Metrics.OverallProgress}}</div><div class="label">Overall Progress</div></div>
  </div>
  <table>
    <thead><tr><th>Status</th><th>Dogs</th><th>Share</th></tr></thead>
    <tbody>
      <tr><td>Pending</td><td>{{.Status.Pending.Count}}</td><td>{{.Status.Pending.Percentage}}</td></tr>
      <tr><td>Sterilized</td><td>{{.Status.SterilizedOnly.Count}}</td><td>{{.Status.SterilizedOnly.Percentage}}</td></tr>
      <tr><td>Released</td><td>{{.Status.Released.Count}}</td><td>{{.Status.Released.Percentage}}</td></tr>
      <tr><td>Male / Female / Other</td><td colspan="2">{{.Gender.Male}} / {{.Gender.Female}} / {{.Gender.Other}}</td></tr>
    </tbody>
  </table>
  <table>
    <thead><tr><th>District</th><th>Total Dogs</th><th>Completed Dogs</th><th>Released</th><th>Pending</th><th>Completion Rate</th></tr></thead>
    <tbody>
    {{- range .Districts}}
      <tr><td>{{.Name}}</td><td>{{.Total}}</td><td>{{.Completed}}</td><td>{{.Released}}</td><td>{{.PendingCount}}</td><td>{{percent .ProgressPercentage}}</td></tr>
    {{- else}}
      <tr><td colspan="6">No records</td></tr>
    {{- end}}
    </tbody>
  </table>
  <div class="footer">
    <p>Generated on {{.GeneratedAt.Format "02/01/2006 15:04:05"}}</p>
    <p>Stray Dog Population Management System - Government of Andhra Pradesh</p>
  </div>
</div>
</body>
</html>
`))

// DashboardDocument renders view as a page whose #dashboard element is
// the report
func DashboardDocument(view DashboardView) (string, error) {
	if view.Title == "" {
		view.Title = "Stray Dogs Dashboard"
	}
	if view.DateRangeLabel == "" {
		view.DateRangeLabel = DateRangeLabel(nil, nil)
	}
	if view.GeneratedAt.IsZero() {
		view.GeneratedAt = time.Now()
	}
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
