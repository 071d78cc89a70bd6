package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	names := c.DistrictNames()
	require.Len(t, names, 25)
	assert.Equal(t, "Anantapur District", names[0])
	assert.Equal(t, "Tirupati District", names[len(names)-1])

	assert.Equal(t, []string{"GVMC"}, c.ULBs("Visakhapatnam District"))
	assert.Nil(t, c.ULBs("Atlantis District"))

	assert.True(t, c.HasULB("Guntur District", "Tenali"))
	assert.False(t, c.HasULB("Guntur District", "Kurnool"))

	// every district belongs to exactly one region
	count := 0
	for _, r := range c.Regions() {
		count += len(r.Districts)
	}
	assert.Equal(t, 25, count)
}

func TestFallback(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	coords, ok := c.Fallback("Tirupati District", "Tirupathi")
	require.True(t, ok)
	assert.InDelta(t, 13.6288, coords.Lat, 1e-9)
	assert.InDelta(t, 79.4192, coords.Lng, 1e-9)

	// same ULB name in another district has no fixed coordinates
	_, ok = c.Fallback("Kurnool District", "Gudur")
	assert.False(t, ok)
	_, ok = c.Fallback("Tirupati District", "Gudur")
	assert.True(t, ok)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "districts: []"},
		{"duplicate district", "districts:\n  - name: A\n  - name: A\n"},
		{"duplicate ulb", "districts:\n  - name: A\n    ulbs:\n      - {name: X}\n      - {name: X}\n"},
		{"partial coordinate", "districts:\n  - name: A\n    ulbs:\n      - {name: X, lat: 1.0}\n"},
		{"unknown region district", "regions:\n  - name: R\n    districts: [B]\ndistricts:\n  - name: A\n"},
		{"district in two regions", "regions:\n  - {name: R1, districts: [A]}\n  - {name: R2, districts: [A]}\ndistricts:\n  - name: A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("districts:\n  - name: Test District\n    ulbs:\n      - {name: Alpha, target: 10}\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Test District"}, c.DistrictNames())
	d, ok := c.District("Test District")
	require.True(t, ok)
	assert.Equal(t, 10, d.ULBs[0].Target)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
