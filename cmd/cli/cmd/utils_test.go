package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cliapi "abc-dashboard/internal/cli"
)

func TestValidateDateRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr string
	}{
		{name: "both empty"},
		{name: "only from", from: "2024-01-01"},
		{name: "only to", to: "2024-12-31"},
		{name: "ordered range", from: "2024-01-01", to: "2024-12-31"},
		{name: "same day", from: "2024-05-05", to: "2024-05-05"},
		{name: "reversed range", from: "2024-12-31", to: "2024-01-01", wantErr: "is after"},
		{name: "bad from", from: "01/02/2024", wantErr: "invalid --from date"},
		{name: "bad to", to: "2024-13-01", wantErr: "invalid --to date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDateRange(tt.from, tt.to)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "dogs.xlsx", outputPath("", "dogs.xlsx"))
	assert.Equal(t, filepath.Join(dir, "dogs.xlsx"), outputPath(dir, "dogs.xlsx"))
	assert.Equal(t, filepath.Join(dir, "mine.xlsx"), outputPath(filepath.Join(dir, "mine.xlsx"), "dogs.xlsx"))
}

func TestDogFilterFlags(t *testing.T) {
	f := dogFilterFlags{ulb: "Rishikesh"}
	require.Error(t, f.validate(), "a ULB needs its district")

	f.district = "Dehradun"
	f.from = "2024-01-01"
	f.dateField = "surgery"
	require.NoError(t, f.validate())

	assert.Equal(t, cliapi.DogQuery{
		District:  "Dehradun",
		ULB:       "Rishikesh",
		From:      "2024-01-01",
		DateField: "surgery",
	}, f.query())
}

func TestBrowserOpenerCommand(t *testing.T) {
	tests := []struct {
		goos string
		name string
		args []string
	}{
		{"darwin", "open", []string{"/tmp/print.html"}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "/tmp/print.html"}},
		{"linux", "xdg-open", []string{"/tmp/print.html"}},
		{"freebsd", "xdg-open", []string{"/tmp/print.html"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := browserOpener{goos: tt.goos}.command("/tmp/print.html")
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("ABC_DASHBOARD_CLI_PASSWORD", "")

	t.Run("flags win", func(t *testing.T) {
		u, p, err := credentials(strings.NewReader(""), "admin", "secret")
		require.NoError(t, err)
		assert.Equal(t, "admin", u)
		assert.Equal(t, "secret", p)
	})

	t.Run("password from environment", func(t *testing.T) {
		t.Setenv("ABC_DASHBOARD_CLI_PASSWORD", "from-env")
		_, p, err := credentials(strings.NewReader(""), "admin", "")
		require.NoError(t, err)
		assert.Equal(t, "from-env", p)
	})

	t.Run("prompted", func(t *testing.T) {
		u, p, err := credentials(strings.NewReader("admin\nsecret\n"), "", "")
		require.NoError(t, err)
		assert.Equal(t, "admin", u)
		assert.Equal(t, "secret", p)
	})

	t.Run("prompt without trailing newline", func(t *testing.T) {
		_, p, err := credentials(strings.NewReader("secret"), "admin", "")
		require.NoError(t, err)
		assert.Equal(t, "secret", p)
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := credentials(strings.NewReader(""), "admin", "")
		assert.Error(t, err)
	})

	t.Run("blank answers", func(t *testing.T) {
		_, _, err := credentials(strings.NewReader("\n\n"), "", "")
		assert.EqualError(t, err, "username and password are required")
	})
}
