package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"abc-dashboard/internal/records"
)

// EnvPrefix prefixes every server environment variable
const EnvPrefix = "ABC_DASHBOARD"

// LoadServerConfigWithViper loads server configuration using Viper
func LoadServerConfigWithViper(v *viper.Viper) (*Config, error) {
	setServerDefaults(v)
	setupServerEnvBinding(v)

	if err := loadConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := &Config{}
	if err := unmarshalServerConfig(v, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setServerDefaults sets default values for server configuration
func setServerDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.cors_origins", "http://localhost:3000")

	// Database defaults
	v.SetDefault("database.path", "./dashboard.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Record source defaults
	v.SetDefault("source.url", records.DefaultURL)
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.poll_interval", "15s")
	v.SetDefault("source.oauth.client_id", "")
	v.SetDefault("source.oauth.client_secret", "")
	v.SetDefault("source.oauth.token_url", "")
	v.SetDefault("source.oauth.scopes", "")

	v.SetDefault("catalog.path", "")

	// Cache defaults
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.disabled", false)

	// Manual refresh defaults
	v.SetDefault("refresh.window", "1m")
	v.SetDefault("rate_limit.disabled", false)

	// Auth defaults
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "admin")
	v.SetDefault("auth.session_ttl", "12h")
	v.SetDefault("auth.login_rate_per_min", 10)
	v.SetDefault("auth.login_burst", 5)

	// Map defaults
	v.SetDefault("map.api_key", "")
	v.SetDefault("map.heatmap_mode", "per-record")

	// Export defaults
	v.SetDefault("export.browser_timeout", "60s")
	v.SetDefault("export.max_browsers", 2)
	v.SetDefault("export.image_concurrency", 4)
	v.SetDefault("export.image_timeout", "15s")
	v.SetDefault("export.max_image_bytes", 8<<20)
	v.SetDefault("export.page_format", "a2")
	v.SetDefault("export.landscape", true)
	v.SetDefault("export.scale", 2.0)
}

// setupServerEnvBinding sets up environment variable binding for server configuration
func setupServerEnvBinding(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	envBindings := map[string]string{
		"server.port":                "SERVER_PORT",
		"server.host":                "SERVER_HOST",
		"server.static_dir":          "SERVER_STATIC_DIR",
		"server.cors_origins":        "SERVER_CORS_ORIGINS",
		"database.path":              "DATABASE_PATH",
		"logging.level":              "LOGGING_LEVEL",
		"logging.format":             "LOGGING_FORMAT",
		"source.url":                 "SOURCE_URL",
		"source.timeout":             "SOURCE_TIMEOUT",
		"source.poll_interval":       "SOURCE_POLL_INTERVAL",
		"source.oauth.client_id":     "SOURCE_OAUTH_CLIENT_ID",
		"source.oauth.client_secret": "SOURCE_OAUTH_CLIENT_SECRET",
		"source.oauth.token_url":     "SOURCE_OAUTH_TOKEN_URL",
		"source.oauth.scopes":        "SOURCE_OAUTH_SCOPES",
		"catalog.path":               "CATALOG_PATH",
		"cache.ttl":                  "CACHE_TTL",
		"cache.disabled":             "CACHE_DISABLED",
		"refresh.window":             "REFRESH_WINDOW",
		"rate_limit.disabled":        "RATE_LIMIT_DISABLED",
		"auth.username":              "AUTH_USERNAME",
		"auth.password":              "AUTH_PASSWORD",
		"auth.session_ttl":           "AUTH_SESSION_TTL",
		"auth.login_rate_per_min":    "AUTH_LOGIN_RATE_PER_MIN",
		"auth.login_burst":           "AUTH_LOGIN_BURST",
		"map.api_key":                "MAP_API_KEY",
		"map.heatmap_mode":           "MAP_HEATMAP_MODE",
		"export.browser_timeout":     "EXPORT_BROWSER_TIMEOUT",
		"export.max_browsers":        "EXPORT_MAX_BROWSERS",
		"export.image_concurrency":   "EXPORT_IMAGE_CONCURRENCY",
		"export.image_timeout":       "EXPORT_IMAGE_TIMEOUT",
		"export.max_image_bytes":     "EXPORT_MAX_IMAGE_BYTES",
		"export.page_format":         "EXPORT_PAGE_FORMAT",
		"export.landscape":           "EXPORT_LANDSCAPE",
		"export.scale":               "EXPORT_SCALE",
	}

	// The prefixed name wins over the plain names below
	for configKey, envSuffix := range envBindings {
		names := []string{configKey, EnvPrefix + "_" + envSuffix}
		if legacy, ok := legacyEnv[configKey]; ok {
			names = append(names, legacy)
		}
		v.BindEnv(names...)
	}
}

// legacyEnv are names the dashboard deployments already export
var legacyEnv = map[string]string{
	"server.port":   "PORT",
	"database.path": "DB_PATH",
	"logging.level": "LOG_LEVEL",
	"map.api_key":   "REACT_APP_GOOGLE_MAPS_API_KEY",
	"source.url":    "REACT_APP_API_URL",
}

// loadConfigFile loads configuration file if it exists
func loadConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.abc-dashboard")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, only return error if it's not a "not found" error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

// unmarshalServerConfig unmarshals Viper configuration into Config struct
func unmarshalServerConfig(v *viper.Viper, config *Config) error {
	config.ServerPort = v.GetString("server.port")
	config.ServerHost = v.GetString("server.host")
	config.StaticDir = v.GetString("server.static_dir")
	config.CORSOrigins = splitList(v.GetString("server.cors_origins"))
	config.DBPath = v.GetString("database.path")
	config.LogLevel = strings.ToLower(v.GetString("logging.level"))
	config.LogFormat = strings.ToLower(v.GetString("logging.format"))

	config.SourceURL = v.GetString("source.url")
	config.SourceOAuthClientID = v.GetString("source.oauth.client_id")
	config.SourceOAuthClientSecret = v.GetString("source.oauth.client_secret")
	config.SourceOAuthTokenURL = v.GetString("source.oauth.token_url")
	config.SourceOAuthScopes = splitList(v.GetString("source.oauth.scopes"))
	config.CatalogPath = v.GetString("catalog.path")

	// Parse duration fields
	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"source.timeout", &config.SourceTimeout},
		{"source.poll_interval", &config.PollInterval},
		{"cache.ttl", &config.CacheTTL},
		{"refresh.window", &config.RefreshWindow},
		{"auth.session_ttl", &config.SessionTTL},
		{"export.browser_timeout", &config.ExportBrowserTimeout},
		{"export.image_timeout", &config.ExportImageTimeout},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.target = parsed
	}

	config.DisableCache = v.GetBool("cache.disabled")
	config.DisableRateLimit = v.GetBool("rate_limit.disabled")

	config.AuthUsername = v.GetString("auth.username")
	config.AuthPassword = v.GetString("auth.password")
	config.LoginRatePerMin = v.GetFloat64("auth.login_rate_per_min")
	config.LoginBurst = v.GetInt("auth.login_burst")

	config.MapAPIKey = v.GetString("map.api_key")
	config.HeatmapMode = v.GetString("map.heatmap_mode")

	config.ExportMaxBrowsers = v.GetInt("export.max_browsers")
	config.ExportImageConcurrency = v.GetInt("export.image_concurrency")
	config.ExportMaxImageBytes = v.GetInt64("export.max_image_bytes")
	config.ExportPageFormat = strings.ToLower(v.GetString("export.page_format"))
	config.ExportLandscape = v.GetBool("export.landscape")
	config.ExportScale = v.GetFloat64("export.scale")

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadServerConfig loads server configuration using default Viper instance
func LoadServerConfig() (*Config, error) {
	v := viper.New()
	return LoadServerConfigWithViper(v)
}

// LoadServerConfigWithFile loads server configuration from a specific file
func LoadServerConfigWithFile(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadServerConfigWithViper(v)
}

// LoadServerConfigWithEnvFile loads server configuration with .env file support
func LoadServerConfigWithEnvFile(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := LoadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return LoadServerConfig()
}
