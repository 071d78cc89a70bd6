package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"abc-dashboard/internal/cli"
)

// CLIEnvPrefix prefixes every CLI environment variable
const CLIEnvPrefix = EnvPrefix + "_CLI"

// LoadCLIConfigWithViper loads CLI configuration using Viper
func LoadCLIConfigWithViper(v *viper.Viper) (*cli.Config, error) {
	setCLIDefaults(v)
	setupCLIEnvBinding(v)

	if err := loadCLIConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := &cli.Config{}
	if err := unmarshalCLIConfig(v, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setCLIDefaults sets default values for CLI configuration
func setCLIDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("format", "table")
	v.SetDefault("quiet", false)
	v.SetDefault("no_color", false)
	v.SetDefault("request_timeout", cli.DefaultRequestTimeout.String())
	v.SetDefault("token", "")
}

// setupCLIEnvBinding sets up environment variable binding for CLI configuration
func setupCLIEnvBinding(v *viper.Viper) {
	v.SetEnvPrefix(CLIEnvPrefix)
	v.AutomaticEnv()

	envBindings := map[string]string{
		"server_url":      "SERVER_URL",
		"format":          "FORMAT",
		"quiet":           "QUIET",
		"no_color":        "NO_COLOR",
		"request_timeout": "TIMEOUT",
		"token":           "TOKEN",
	}

	for configKey, envSuffix := range envBindings {
		names := []string{configKey, CLIEnvPrefix + "_" + envSuffix}
		// https://no-color.org
		if configKey == "no_color" {
			names = append(names, "NO_COLOR")
		}
		v.BindEnv(names...)
	}
}

// loadCLIConfigFile loads configuration file if it exists
func loadCLIConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.abc-dashboard")
		v.SetConfigName("cli")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

// unmarshalCLIConfig unmarshals Viper configuration into CLI Config struct
func unmarshalCLIConfig(v *viper.Viper, config *cli.Config) error {
	config.ServerURL = v.GetString("server_url")
	config.Format = v.GetString("format")
	config.Quiet = v.GetBool("quiet")
	config.NoColor = v.GetBool("no_color")
	config.Token = v.GetString("token")

	// Timeout is a duration or a plain number of seconds
	timeoutStr := v.GetString("request_timeout")
	if duration, err := time.ParseDuration(timeoutStr); err == nil {
		config.RequestTimeout = duration
	} else if seconds, err := strconv.Atoi(timeoutStr); err == nil {
		if seconds <= 0 {
			return fmt.Errorf("request timeout must be positive, got %d seconds", seconds)
		}
		config.RequestTimeout = time.Duration(seconds) * time.Second
	} else {
		return fmt.Errorf("invalid request timeout: %s", timeoutStr)
	}

	return nil
}

// LoadCLIConfig loads CLI configuration using default Viper instance
func LoadCLIConfig() (*cli.Config, error) {
	return LoadCLIConfigWithViper(viper.New())
}

// LoadCLIConfigWithFile loads CLI configuration from a specific file
func LoadCLIConfigWithFile(configFile string) (*cli.Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadCLIConfigWithViper(v)
}
