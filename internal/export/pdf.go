package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"strings"

	"abc-dashboard/internal/render"
)

// Rasterizer draws HTML on a headless browser
type Rasterizer interface {
	Screenshot(ctx context.Context, document, selector string) ([]byte, error)
	PrintPDF(ctx context.Context, document string, paper render.Paper) ([]byte, error)
}

// RenderError is a failure to rasterize an export
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("export rendering failed while %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// PDFOptions controls one PDF export
type PDFOptions struct {
	// Name is the file name without extension
	Name      string
	Format    render.PageFormat
	Landscape bool
	// IncludeImages inlines image fields in dataset mode
	IncludeImages bool
}

// PDFResult is a rendered PDF
type PDFResult struct {
	Filename    string
	Data        []byte
	Rows        int
	ImageErrors []*ImageError
	Paper       render.Paper
}

// PDFExporter produces single-page, fit-to-content PDFs
type PDFExporter struct {
	raster   Rasterizer
	resolver *ImageResolver
	defaults PDFOptions
	logger   *slog.Logger
}

// NewPDFExporter creates an exporter. defaults supplies the page format
// and orientation when a call leaves them unset.
func NewPDFExporter(raster Rasterizer, resolver *ImageResolver, defaults PDFOptions, logger *slog.Logger) *PDFExporter {
	if defaults.Format == "" {
		defaults.Format = render.PageA2
		defaults.Landscape = true
	}
	return &PDFExporter{raster: raster, resolver: resolver, defaults: defaults, logger: logger}
}

// ExportElement captures the element matching selector in document and
// places it on one page
func (e *PDFExporter) ExportElement(ctx context.Context, document, selector string, opts PDFOptions) (*PDFResult, error) {
	opts = e.withDefaults(opts, "Report")

	png, err := e.raster.Screenshot(ctx, document, selector)
	if err != nil {
		return nil, &RenderError{Stage: "capturing " + selector, Err: err}
	}
	result, err := e.fitToPage(ctx, png, opts)
	if err != nil {
		return nil, err
	}
	result.Filename = opts.Name + ".pdf"
	return result, nil
}

// ExportDataset renders every row into an off-screen table and places
// the table on one page
func (e *PDFExporter) ExportDataset(ctx context.Context, rows []Row, opts PDFOptions) (*PDFResult, error) {
	opts = e.withDefaults(opts, "Report")

	var imageErrs []*ImageError
	if opts.IncludeImages && e.resolver != nil {
		resolved, errs, err := e.resolver.Resolve(ctx, rows)
		if err != nil {
			return nil, &RenderError{Stage: "resolving images", Err: err}
		}
		rows, imageErrs = resolved, errs
	} else {
		rows = withoutImages(rows)
	}

	document, err := DatasetDocument(opts.Name, rows)
	if err != nil {
		return nil, &RenderError{Stage: "building table", Err: err}
	}

	png, err := e.raster.Screenshot(ctx, document, "#"+DatasetTableID)
	if err != nil {
		return nil, &RenderError{Stage: "capturing table", Err: err}
	}
	result, err := e.fitToPage(ctx, png, opts)
	if err != nil {
		return nil, err
	}
	result.Filename = opts.Name + "_Full_Dataset.pdf"
	result.Rows = len(rows)
	result.ImageErrors = imageErrs
	return result, nil
}

// fitToPage prints png on a page as wide as the configured paper and as
// tall as the image at that width
func (e *PDFExporter) fitToPage(ctx context.Context, png []byte, opts PDFOptions) (*PDFResult, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return nil, &RenderError{Stage: "reading capture", Err: err}
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, &RenderError{Stage: "reading capture", Err: fmt.Errorf("empty capture")}
	}

	paper := PaperFor(opts.Format, opts.Landscape, cfg.Width, cfg.Height)
	document, err := imageDocument("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	if err != nil {
		return nil, &RenderError{Stage: "wrapping capture", Err: err}
	}

	pdf, err := e.raster.PrintPDF(ctx, document, paper)
	if err != nil {
		return nil, &RenderError{Stage: "printing pdf", Err: err}
	}
	e.logger.Debug("Rendered PDF", "name", opts.Name, "width_px", cfg.Width, "height_px", cfg.Height,
		"paper_width_in", paper.Width, "paper_height_in", paper.Height)
	return &PDFResult{Data: pdf, Paper: paper}, nil
}

// PaperFor sizes a page for an image of widthPx x heightPx
func PaperFor(format render.PageFormat, landscape bool, widthPx, heightPx int) render.Paper {
	w := render.PageWidth(format, landscape)
	return render.Paper{Width: w, Height: w * float64(heightPx) / float64(widthPx)}
}

func (e *PDFExporter) withDefaults(opts PDFOptions, name string) PDFOptions {
	if opts.Format == "" {
		opts.Format = e.defaults.Format
		opts.Landscape = e.defaults.Landscape
	}
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Name == "" {
		opts.Name = name
	}
	return opts
}

func withoutImages(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		kept := make(Row, 0, len(row))
		for _, f := range row {
			if !IsImageField(f.Key) {
				kept = append(kept, f)
			}
		}
		out[i] = kept
	}
	return out
}
