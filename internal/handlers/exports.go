package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/database"
	"abc-dashboard/internal/export"
	"abc-dashboard/internal/query"
	"abc-dashboard/internal/records"
	"abc-dashboard/internal/render"
	"abc-dashboard/internal/session"
	"abc-dashboard/internal/stats"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
	contentTypeHTML = "text/html; charset=utf-8"

	dogsExportName = "Stray_Dogs_Report"
	ulbsExportName = "ULB_Summary"
)

// ErrPDFUnavailable is returned when no browser is available for PDFs
var ErrPDFUnavailable = errors.New("PDF export is unavailable: headless Chrome was not found")

// ExportLog records export outcomes
type ExportLog interface {
	Record(entry *database.ExportLog) error
	Recent(limit int) ([]database.ExportLog, error)
}

// ExportHandler produces spreadsheets, PDFs and print documents
type ExportHandler struct {
	snapshots    SnapshotSource
	catalog      *catalog.Catalog
	achievements AchievementCounts
	cache        *cache.Manager
	pdf          *export.PDFExporter
	exportLog    ExportLog
	logger       *slog.Logger
	now          func() time.Time
}

// NewExportHandler creates a new export handler. pdf may be nil, in
// which case the PDF endpoints answer 503.
func NewExportHandler(snapshots SnapshotSource, cat *catalog.Catalog, achievements AchievementCounts, cacheManager *cache.Manager, pdf *export.PDFExporter, exportLog ExportLog, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		snapshots:    snapshots,
		catalog:      cat,
		achievements: achievements,
		cache:        cacheManager,
		pdf:          pdf,
		exportLog:    exportLog,
		logger:       logger,
		now:          time.Now,
	}
}

// exportFunc produces one file
type exportFunc func(ctx context.Context) (filename string, data []byte, rows int, err error)

// serve runs produce, records the outcome and writes the file
func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, kind, contentType string, produce exportFunc) {
	start := h.now()
	filename, data, rows, err := produce(r.Context())

	entry := &database.ExportLog{
		Kind:       kind,
		Filename:   filename,
		Rows:       rows,
		Status:     database.ExportSucceeded,
		Username:   session.Username(r.Context()),
		DurationMS: h.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = database.ExportFailed
		entry.Error = err.Error()
	}
	if logErr := h.exportLog.Record(entry); logErr != nil {
		h.logger.Warn("Failed to record export", "kind", kind, "error", logErr)
	}

	if err != nil {
		if errors.Is(err, ErrPDFUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("Export completed", "kind", kind, "filename", filename, "rows", rows, "duration_ms", entry.DurationMS)
	disposition := "attachment"
	if contentType == contentTypeHTML {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// DogsSpreadsheet handles GET /api/export/dogs.xlsx
func (h *ExportHandler) DogsSpreadsheet(w http.ResponseWriter, r *http.Request) {
	state, err := parseView(r, h.catalog)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	h.serve(w, r, "dogs.xlsx", contentTypeXLSX, func(ctx context.Context) (string, []byte, int, error) {
		filename := dogsExportName + ".xlsx"
		snap, err := h.snapshots.Current()
		if err != nil {
			return filename, nil, 0, err
		}
		recs, err := filteredRecords(h.cache, snap, state.Filter())
		if err != nil {
			return filename, nil, 0, err
		}
		var buf bytes.Buffer
		if err := export.WriteSpreadsheet(&buf, "Dogs", export.RecordRows(recs)); err != nil {
			return filename, nil, len(recs), err
		}
		return filename, buf.Bytes(), len(recs), nil
	})
}

// pdfOptions reads the format, landscape and images parameters
func pdfOptions(r *http.Request, name string) (export.PDFOptions, error) {
	opts := export.PDFOptions{Name: name, IncludeImages: boolParam(r, "images")}
	q := r.URL.Query()
	if raw := q.Get("page_format"); raw != "" {
		format, err := render.ParsePageFormat(raw)
		if err != nil {
			return opts, err
		}
		opts.Format = format
		opts.Landscape = true
		if raw := q.Get("landscape"); raw != "" {
			opts.Landscape, _ = strconv.ParseBool(raw)
		}
	}
	return opts, nil
}

// DogsPDF handles GET /api/export/dogs.pdf
func (h *ExportHandler) DogsPDF(w http.ResponseWriter, r *http.Request) {
	state, err := parseView(r, h.catalog)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	opts, err := pdfOptions(r, dogsExportName)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	h.serve(w, r, "dogs.pdf", contentTypePDF, func(ctx context.Context) (string, []byte, int, error) {
		filename := dogsExportName + "_Full_Dataset.pdf"
		if h.pdf == nil {
			return filename, nil, 0, ErrPDFUnavailable
		}
		snap, err := h.snapshots.Current()
		if err != nil {
			return filename, nil, 0, err
		}
		recs, err := filteredRecords(h.cache, snap, state.Filter())
		if err != nil {
			return filename, nil, 0, err
		}
		rows := export.RecordRows(recs)
		if opts.IncludeImages {
			rows = export.RecordRowsWithImages(recs)
		}
		result, err := h.pdf.ExportDataset(ctx, rows, opts)
		if err != nil {
			return filename, nil, len(rows), err
		}
		if n := len(result.ImageErrors); n > 0 {
			w.Header().Set("X-Omitted-Images", strconv.Itoa(n))
		}
		return result.Filename, result.Data, result.Rows, nil
	})
}

// DashboardPDF handles GET /api/export/dashboard.pdf
func (h *ExportHandler) DashboardPDF(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	opts, err := pdfOptions(r, export.DashboardName)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	h.serve(w, r, "dashboard.pdf", contentTypePDF, func(ctx context.Context) (string, []byte, int, error) {
		filename := export.DashboardName + ".pdf"
		if h.pdf == nil {
			return filename, nil, 0, ErrPDFUnavailable
		}
		snap, err := h.snapshots.Current()
		if err != nil {
			return filename, nil, 0, err
		}
		recs := caughtBetween(snap.Records, from, to)
		doc, err := export.DashboardDocument(export.DashboardView{
			DateRangeLabel: export.DateRangeLabel(from, to),
			Metrics:        stats.ComputeMetrics(recs),
			Status:         stats.AggregateStatusDistribution(recs),
			Gender:         stats.GenderBreakdown(recs),
			Districts:      stats.AggregateByDistrict(recs, h.catalog.DistrictNames()),
			GeneratedAt:    h.now(),
		})
		if err != nil {
			return filename, nil, 0, err
		}
		result, err := h.pdf.ExportElement(ctx, doc, "#"+export.DashboardElementID, opts)
		if err != nil {
			return filename, nil, 0, err
		}
		return result.Filename, result.Data, len(recs), nil
	})
}

// caughtBetween keeps the records caught inside the range. A missing
// bound leaves that side open; no bounds keeps everything.
func caughtBetween(recs []records.AnimalRecord, from, to *time.Time) []records.AnimalRecord {
	if from == nil && to == nil {
		return recs
	}
	lo, hi := time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if from != nil {
		lo = *from
	}
	if to != nil {
		hi = *to
	}
	return query.ApplyFilters(recs, query.Filter{DateFrom: &lo, DateTo: &hi, DateField: query.DateOfCatch})
}

// ULBsSpreadsheet handles GET /api/export/ulbs.xlsx
func (h *ExportHandler) ULBsSpreadsheet(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "ulbs.xlsx", contentTypeXLSX, func(ctx context.Context) (string, []byte, int, error) {
		filename := ulbsExportName + ".xlsx"
		snap, err := h.snapshots.Current()
		if err != nil {
			return filename, nil, 0, err
		}
		counts, err := h.achievements.Counts()
		if err != nil {
			return filename, nil, 0, err
		}
		summaries := stats.SummarizeULBs(snap.Records, counts)
		var buf bytes.Buffer
		if err := export.WriteSpreadsheet(&buf, "ULBs", export.ULBRows(summaries)); err != nil {
			return filename, nil, len(summaries), err
		}
		return filename, buf.Bytes(), len(summaries), nil
	})
}

// StatisticsSpreadsheet handles GET /api/export/statistics.xlsx
func (h *ExportHandler) StatisticsSpreadsheet(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	h.serve(w, r, "statistics.xlsx", contentTypeXLSX, func(ctx context.Context) (string, []byte, int, error) {
		asOf := h.now()
		filename := export.TargetWorkbookName(asOf)
		snap, err := h.snapshots.Current()
		if err != nil {
			return filename, nil, 0, err
		}
		counts, err := h.achievements.Counts()
		if err != nil {
			return filename, nil, 0, err
		}
		report := stats.BuildTargetReport(h.catalog, snap.Records, counts, stats.Period{From: from, To: to}, asOf)
		rows := 0
		for _, region := range report.Regions {
			for _, d := range region.Districts {
				rows += len(d.ULBs)
			}
		}
		var buf bytes.Buffer
		if err := export.WriteTargetWorkbook(&buf, report); err != nil {
			return filename, nil, rows, err
		}
		return filename, buf.Bytes(), rows, nil
	})
}

// PrintDogs handles GET /api/print/dogs. The document opens the print
// dialog itself once loaded.
func (h *ExportHandler) PrintDogs(w http.ResponseWriter, r *http.Request) {
	state, err := parseView(r, h.catalog)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	h.serve(w, r, "print", contentTypeHTML, func(ctx context.Context) (string, []byte, int, error) {
		filename := dogsExportName + ".html"
		snap, err := h.snapshots.Current()
		if err != nil {
			return filename, nil, 0, err
		}
		recs, err := filteredRecords(h.cache, snap, state.Filter())
		if err != nil {
			return filename, nil, 0, err
		}
		f := state.Filter()
		job := export.PrintJob{
			Title:          export.PrintTitle,
			DateRangeLabel: export.DateRangeLabel(f.DateFrom, f.DateTo),
			Rows:           export.PrintRows(recs),
			GeneratedAt:    h.now(),
		}
		var buf bytes.Buffer
		if err := export.RenderPrintDocument(&buf, job); err != nil {
			return filename, nil, len(recs), err
		}
		return filename, buf.Bytes(), len(recs), nil
	})
}

// GetExports handles GET /api/exports
func (h *ExportHandler) GetExports(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, 500)
	}
	entries, err := h.exportLog.Recent(limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
