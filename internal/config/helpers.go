package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// validateEnvFilePath rejects traversal and non-env extensions
func validateEnvFilePath(filename string) error {
	if filename == "" {
		return nil
	}
	if strings.Contains(filename, "..") {
		return fmt.Errorf("env file path cannot contain '..': %s", filename)
	}
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext != "" && ext != ".env" && !strings.HasPrefix(base, ".env") {
		return fmt.Errorf("env file must have .env extension: %s", filename)
	}
	return nil
}

// ValidateConfigFilePath checks a user supplied config file path
func ValidateConfigFilePath(filename string) error {
	if filename == "" {
		return nil
	}
	if strings.Contains(filename, "..") {
		return fmt.Errorf("config file path cannot contain '..': %s", filename)
	}
	return nil
}

// LoadEnvFile loads KEY=value pairs from a .env file into the process
// environment. Variables already set are left alone and a missing file
// is not an error.
func LoadEnvFile(filename string) error {
	if err := validateEnvFilePath(filename); err != nil {
		return err
	}
	if filename == "" {
		return nil
	}

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 &&
			((strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
				(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'"))) {
			value = value[1 : len(value)-1]
		}

		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
