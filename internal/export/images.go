package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// imageFields are the row keys whose values are image URLs
var imageFields = map[string]bool{
	ColBeforeSurgeryImage:  true,
	ColAfterSurgeryImage:   true,
	ColRelocationImage:     true,
	"before_surgery_image": true,
	"after_surgery_image":  true,
	"relocation_image":     true,
}

// IsImageField reports whether key holds an image URL
func IsImageField(key string) bool {
	return imageFields[key]
}

// ImageError is a failure to inline one image of one row
type ImageError struct {
	Row   int
	Field string
	URL   string
	Err   error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("row %d %s: fetching %s: %v", e.Row, e.Field, e.URL, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// ImageResolverConfig bounds image fetching
type ImageResolverConfig struct {
	Concurrency int
	Timeout     time.Duration
	MaxBytes    int64
}

// ImageResolver replaces image URLs with data: URIs
type ImageResolver struct {
	client *http.Client
	config ImageResolverConfig
	logger *slog.Logger
}

// NewImageResolver creates a resolver. client may be nil.
func NewImageResolver(client *http.Client, cfg ImageResolverConfig, logger *slog.Logger) *ImageResolver {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 8 << 20
	}
	return &ImageResolver{client: client, config: cfg, logger: logger}
}

// Resolve returns a copy of rows with every image field inlined. Fields
// that cannot be fetched are logged and dropped from their row. Row
// order is preserved. Only cancellation of ctx is returned as an error.
func (ir *ImageResolver) Resolve(ctx context.Context, rows []Row) ([]Row, []*ImageError, error) {
	type job struct {
		row, field int
		url        string
	}

	out := make([]Row, len(rows))
	var jobs []job
	for i, row := range rows {
		out[i] = append(Row(nil), row...)
		for j, f := range row {
			if !IsImageField(f.Key) {
				continue
			}
			if url, ok := f.Value.(string); ok && strings.TrimSpace(url) != "" {
				jobs = append(jobs, job{row: i, field: j, url: url})
			}
		}
	}

	results := make([]string, len(jobs))
	failures := make([]*ImageError, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ir.config.Concurrency)
	for n, jb := range jobs {
		g.Go(func() error {
			uri, err := ir.fetch(gctx, jb.url)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failures[n] = &ImageError{Row: jb.row, Field: rows[jb.row][jb.field].Key, URL: jb.url, Err: err}
				return nil
			}
			results[n] = uri
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var imageErrs []*ImageError
	drop := make(map[[2]int]bool)
	for n, jb := range jobs {
		if failures[n] != nil {
			ir.logger.Warn("Omitting image from export", "error", failures[n])
			imageErrs = append(imageErrs, failures[n])
			drop[[2]int{jb.row, jb.field}] = true
			continue
		}
		out[jb.row][jb.field].Value = results[n]
	}

	// missing or blank image values are omitted too
	for i := range out {
		kept := out[i][:0]
		for j, f := range out[i] {
			if IsImageField(f.Key) && (drop[[2]int{i, j}] || !isDataURI(f.Value)) {
				continue
			}
			kept = append(kept, f)
		}
		out[i] = kept
	}
	return out, imageErrs, nil
}

func (ir *ImageResolver) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ir.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := ir.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, ir.config.MaxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > ir.config.MaxBytes {
		return "", fmt.Errorf("image larger than %d bytes", ir.config.MaxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
		if !strings.HasPrefix(contentType, "image/") {
			return "", fmt.Errorf("not an image: %s", contentType)
		}
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func isDataURI(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "data:image/")
}
