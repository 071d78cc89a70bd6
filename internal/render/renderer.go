package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// imageWait bounds how long a page may spend loading its images
const imageWait = 20 * time.Second

// Renderer rasterizes HTML documents on pooled browsers
type Renderer struct {
	pool    *Pool
	options *Options
	logger  *slog.Logger
}

// NewRenderer creates a renderer backed by pool
func NewRenderer(pool *Pool, options *Options, logger *slog.Logger) *Renderer {
	if options == nil {
		options = DefaultOptions()
	}
	return &Renderer{pool: pool, options: options, logger: logger}
}

// Screenshot loads document and captures the element matching selector
// as a PNG at the configured device scale
func (r *Renderer) Screenshot(ctx context.Context, document, selector string) ([]byte, error) {
	var png []byte
	start := time.Now()
	err := r.pool.ExecuteWithBrowser(ctx, func(ctx context.Context) error {
		return chromedp.Run(ctx,
			chromedp.EmulateViewport(r.options.ViewportWidth, r.options.ViewportHeight,
				chromedp.EmulateScale(r.options.Scale)),
			loadDocument(document),
			waitForImages(),
			chromedp.Screenshot(selector, &png, chromedp.NodeVisible, chromedp.ByQuery),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot of %s: %w", selector, err)
	}
	r.logger.Debug("Captured element", "selector", selector, "bytes", len(png), "duration", time.Since(start))
	return png, nil
}

// PrintPDF loads document and prints it onto a single paper size
func (r *Renderer) PrintPDF(ctx context.Context, document string, paper Paper) ([]byte, error) {
	var pdf []byte
	start := time.Now()
	err := r.pool.ExecuteWithBrowser(ctx, func(ctx context.Context) error {
		return chromedp.Run(ctx,
			loadDocument(document),
			waitForImages(),
			chromedp.ActionFunc(func(ctx context.Context) error {
				data, _, err := page.PrintToPDF().
					WithPrintBackground(true).
					WithPaperWidth(paper.Width).
					WithPaperHeight(paper.Height).
					WithMarginTop(0).
					WithMarginBottom(0).
					WithMarginLeft(0).
					WithMarginRight(0).
					Do(ctx)
				if err != nil {
					return err
				}
				pdf = data
				return nil
			}),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	r.logger.Debug("Printed document", "bytes", len(pdf), "width_in", paper.Width, "height_in", paper.Height,
		"duration", time.Since(start))
	return pdf, nil
}

// Stats reports pool usage
func (r *Renderer) Stats() PoolStats {
	return r.pool.Stats()
}

// loadDocument replaces the blank page's content with document
func loadDocument(document string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
	})
}

// waitForImages blocks until every <img> has loaded or failed
func waitForImages() chromedp.Action {
	var done bool
	return chromedp.Poll(`Array.from(document.images).every(img => img.complete)`, &done,
		chromedp.WithPollingTimeout(imageWait))
}
