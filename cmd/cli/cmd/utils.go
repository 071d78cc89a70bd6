package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// validateDate checks a YYYY-MM-DD flag value; empty is allowed
func validateDate(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("invalid --%s date '%s': use YYYY-MM-DD", name, value)
	}
	return nil
}

// validateDateRange checks both bounds and their order
func validateDateRange(from, to string) error {
	if err := validateDate("from", from); err != nil {
		return err
	}
	if err := validateDate("to", to); err != nil {
		return err
	}
	if from != "" && to != "" && from > to {
		return fmt.Errorf("--from %s is after --to %s", from, to)
	}
	return nil
}

// outputPath decides where a download is written. An empty output keeps
// the server's file name in the working directory; a directory keeps the
// name inside it.
func outputPath(output, filename string) string {
	if output == "" {
		return filename
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, filename)
	}
	return output
}

func printJSON(v interface{}) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}
