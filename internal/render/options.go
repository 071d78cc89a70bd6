package render

import (
	"context"
	"fmt"
	"time"
)

// PageFormat is a named paper size
type PageFormat string

// Supported paper sizes
const (
	PageA2     PageFormat = "a2"
	PageA3     PageFormat = "a3"
	PageA4     PageFormat = "a4"
	PageLetter PageFormat = "letter"
)

// portrait width and height in inches
var pageSizes = map[PageFormat][2]float64{
	PageA2:     {16.54, 23.39},
	PageA3:     {11.69, 16.54},
	PageA4:     {8.27, 11.69},
	PageLetter: {8.5, 11},
}

// ParsePageFormat validates a configured paper size
func ParsePageFormat(s string) (PageFormat, error) {
	f := PageFormat(s)
	if _, ok := pageSizes[f]; !ok {
		return "", fmt.Errorf("unknown page format %q", s)
	}
	return f, nil
}

// PageWidth returns the paper width in inches for the orientation
func PageWidth(format PageFormat, landscape bool) float64 {
	size, ok := pageSizes[format]
	if !ok {
		size = pageSizes[PageA2]
	}
	if landscape {
		return size[1]
	}
	return size[0]
}

// Paper is the size of a PDF page in inches
type Paper struct {
	Width  float64
	Height float64
}

// Options contains configuration for headless browser operations
type Options struct {
	// Headless controls whether to run browser in headless mode
	Headless bool
	// Timeout bounds one render job
	Timeout time.Duration
	// UserAgent to use for image requests made by the page
	UserAgent string
	// ViewportWidth sets browser viewport width
	ViewportWidth int64
	// ViewportHeight sets browser viewport height
	ViewportHeight int64
	// Scale is the device scale factor used for screenshots
	Scale float64
	// DebugMode enables chrome logging
	DebugMode bool
}

// DefaultOptions returns the defaults used for exports
func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        60 * time.Second,
		UserAgent:      "abc-dashboard-export/1.0",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Scale:          2,
	}
}

// PoolConfig contains configuration for browser pool management
type PoolConfig struct {
	// MaxBrowsers limits the number of concurrent browser instances
	MaxBrowsers int
	// IdleTimeout defines how long to keep idle browsers alive
	IdleTimeout time.Duration
	// MaxIdleBrowsers limits the number of idle browsers to keep
	MaxIdleBrowsers int
}

// DefaultPoolConfig returns defaults for the browser pool
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxBrowsers:     2,
		IdleTimeout:     5 * time.Minute,
		MaxIdleBrowsers: 1,
	}
}

// PoolStats provides information about browser pool usage
type PoolStats struct {
	Active  int `json:"active"`
	Idle    int `json:"idle"`
	Total   int `json:"total"`
	Waiting int `json:"waiting"`
}

// browserInstance represents a managed browser instance
type browserInstance struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	lastUsed    time.Time
	inUse       bool
}
