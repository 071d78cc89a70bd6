package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	envContent := `# Test .env file
ABC_TEST_VAR1=value1
ABC_TEST_VAR2="quoted value"
ABC_TEST_VAR3='single quoted'
export ABC_TEST_VAR4=value4

# Another comment
not a pair
ABC_TEST_VAR5=already set
`
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(envContent), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, k := range []string{"ABC_TEST_VAR1", "ABC_TEST_VAR2", "ABC_TEST_VAR3", "ABC_TEST_VAR4"} {
		os.Unsetenv(k)
		defer os.Unsetenv(k)
	}
	t.Setenv("ABC_TEST_VAR5", "from env")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"ABC_TEST_VAR1", "value1"},
		{"ABC_TEST_VAR2", "quoted value"},
		{"ABC_TEST_VAR3", "single quoted"},
		{"ABC_TEST_VAR4", "value4"},
		{"ABC_TEST_VAR5", "from env"},
	}
	for _, tt := range tests {
		if got := os.Getenv(tt.key); got != tt.expected {
			t.Errorf("LoadEnvFile: %s = %q, want %q", tt.key, got, tt.expected)
		}
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestValidateEnvFilePath(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		expectErr bool
		errMsg    string
	}{
		{"empty filename", "", false, ""},
		{"valid relative path", ".env.test", false, ""},
		{"valid env extension", "config.env", false, ""},
		{"directory traversal with ..", "../../../etc/passwd", true, "cannot contain '..'"},
		{"relative path with ..", "../config/.env", true, "cannot contain '..'"},
		{"invalid extension", "config.txt", true, "must have .env extension"},
		{"no extension allowed", "config", false, ""},
		{"nested path allowed", "configs/prod.env", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEnvFilePath(tt.filename)
			if tt.expectErr {
				if err == nil {
					t.Errorf("Expected error for %s, but got none", tt.filename)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error containing '%s', got: %v", tt.errMsg, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error for %s, but got: %v", tt.filename, err)
			}
		})
	}
}

func TestValidateConfigFilePath(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		expectErr bool
	}{
		{"empty filename", "", false},
		{"valid YAML file", "config.yaml", false},
		{"nested path allowed", "configs/prod.yaml", false},
		{"directory traversal", "../config/app.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfigFilePath(tt.filename)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateConfigFilePath(%q) error = %v, expectErr %v", tt.filename, err, tt.expectErr)
			}
		})
	}
}
