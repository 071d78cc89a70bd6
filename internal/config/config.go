package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"
)

// Config holds all server configuration
type Config struct {
	// Server configuration
	ServerPort  string
	ServerHost  string
	StaticDir   string
	CORSOrigins []string

	// Database configuration
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Record source
	SourceURL               string
	SourceTimeout           time.Duration
	PollInterval            time.Duration
	SourceOAuthClientID     string
	SourceOAuthClientSecret string
	SourceOAuthTokenURL     string
	SourceOAuthScopes       []string

	// Reference data override
	CatalogPath string

	// Memoization of derived views
	CacheTTL     time.Duration
	DisableCache bool

	// Manual refresh throttling
	RefreshWindow    time.Duration
	DisableRateLimit bool

	// Session gate
	AuthUsername    string
	AuthPassword    string
	SessionTTL      time.Duration
	LoginRatePerMin float64
	LoginBurst      int

	// Map view
	MapAPIKey   string
	HeatmapMode string

	// Exports
	ExportBrowserTimeout   time.Duration
	ExportMaxBrowsers      int
	ExportImageConcurrency int
	ExportImageTimeout     time.Duration
	ExportMaxImageBytes    int64
	ExportPageFormat       string
	ExportLandscape        bool
	ExportScale            float64
}

var (
	validLogLevels   = []string{"debug", "info", "warn", "error"}
	validLogFormats  = []string{"text", "json"}
	validPageFormats = []string{"a2", "a3", "a4", "letter"}
	validHeatmaps    = []string{"per-record", "per-bucket"}
)

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid server port: %s", c.ServerPort)
	}

	if c.DBPath == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be one of: text, json)", c.LogFormat)
	}

	u, err := url.Parse(c.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid source URL: %s", c.SourceURL)
	}
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("source timeout must be positive")
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll interval must be at least 1s")
	}
	if c.SourceOAuthClientID != "" && c.SourceOAuthTokenURL == "" {
		return fmt.Errorf("source oauth token URL is required when a client id is set")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.RefreshWindow < 0 {
		return fmt.Errorf("refresh window must not be negative")
	}

	if c.AuthUsername == "" || c.AuthPassword == "" {
		return fmt.Errorf("auth username and password cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.LoginRatePerMin <= 0 || c.LoginBurst < 1 {
		return fmt.Errorf("login rate limit must be positive")
	}

	if !slices.Contains(validHeatmaps, c.HeatmapMode) {
		return fmt.Errorf("invalid heatmap mode: %s (must be one of: per-record, per-bucket)", c.HeatmapMode)
	}

	if c.ExportBrowserTimeout <= 0 || c.ExportImageTimeout <= 0 {
		return fmt.Errorf("export timeouts must be positive")
	}
	if c.ExportMaxBrowsers < 1 || c.ExportMaxBrowsers > 8 {
		return fmt.Errorf("export max browsers must be between 1 and 8")
	}
	if c.ExportImageConcurrency < 1 {
		return fmt.Errorf("export image concurrency must be positive")
	}
	if c.ExportMaxImageBytes <= 0 {
		return fmt.Errorf("export max image bytes must be positive")
	}
	if !slices.Contains(validPageFormats, c.ExportPageFormat) {
		return fmt.Errorf("invalid export page format: %s", c.ExportPageFormat)
	}
	if c.ExportScale <= 0 || c.ExportScale > 4 {
		return fmt.Errorf("export scale must be in (0, 4]")
	}

	return nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.ServerHost + ":" + c.ServerPort
}

// UsesDefaultCredentials reports whether the stock login is still active
func (c *Config) UsesDefaultCredentials() bool {
	return c.AuthUsername == "admin" && c.AuthPassword == "admin"
}

// GetDisableRateLimit returns the rate limit disable flag
func (c *Config) GetDisableRateLimit() bool {
	return c.DisableRateLimit
}

// GetRefreshWindow returns the minimum spacing of manual refreshes
func (c *Config) GetRefreshWindow() time.Duration {
	return c.RefreshWindow
}

// GetDisableCache returns the cache disable flag
func (c *Config) GetDisableCache() bool {
	return c.DisableCache
}
