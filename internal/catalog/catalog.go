// Package catalog holds the static administrative reference data: the
// ordered district list, the ULBs of each district with their survey
// targets, the region grouping and known ULB coordinates.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// ULB is an urban local body with its sterilization target
type ULB struct {
	Name     string   `yaml:"name" json:"name"`
	Target   int      `yaml:"target" json:"target"`
	Baseline int      `yaml:"baseline" json:"baseline"`
	Lat      *float64 `yaml:"lat,omitempty" json:"lat,omitempty"`
	Lng      *float64 `yaml:"lng,omitempty" json:"lng,omitempty"`
}

// District groups ULBs
type District struct {
	Name string `yaml:"name" json:"name"`
	ULBs []ULB  `yaml:"ulbs" json:"ulbs"`
}

// Region groups districts for the target report
type Region struct {
	Name      string   `yaml:"name" json:"name"`
	Districts []string `yaml:"districts" json:"districts"`
}

// Coordinates is a fixed lat/lng pair
type Coordinates struct {
	Lat float64
	Lng float64
}

// Catalog is the parsed reference data
type Catalog struct {
	RegionList   []Region   `yaml:"regions"`
	DistrictList []District `yaml:"districts"`

	byName map[string]*District
}

// Default returns the compiled-in catalog
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Load reads a catalog file, falling back to the compiled-in one when
// path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if len(c.DistrictList) == 0 {
		return fmt.Errorf("catalog has no districts")
	}

	c.byName = make(map[string]*District, len(c.DistrictList))
	for i := range c.DistrictList {
		d := &c.DistrictList[i]
		if d.Name == "" {
			return fmt.Errorf("district %d has no name", i)
		}
		if _, dup := c.byName[d.Name]; dup {
			return fmt.Errorf("duplicate district %q", d.Name)
		}
		seen := make(map[string]bool, len(d.ULBs))
		for _, u := range d.ULBs {
			if seen[u.Name] {
				return fmt.Errorf("duplicate ULB %q in %s", u.Name, d.Name)
			}
			if (u.Lat == nil) != (u.Lng == nil) {
				return fmt.Errorf("ULB %q in %s has a partial coordinate", u.Name, d.Name)
			}
			seen[u.Name] = true
		}
		c.byName[d.Name] = d
	}

	assigned := make(map[string]string)
	for _, r := range c.RegionList {
		for _, name := range r.Districts {
			if _, ok := c.byName[name]; !ok {
				return fmt.Errorf("region %s references unknown district %q", r.Name, name)
			}
			if prev, ok := assigned[name]; ok {
				return fmt.Errorf("district %q is in both %s and %s", name, prev, r.Name)
			}
			assigned[name] = r.Name
		}
	}
	return nil
}

// DistrictNames returns the ordered district list
func (c *Catalog) DistrictNames() []string {
	names := make([]string, len(c.DistrictList))
	for i, d := range c.DistrictList {
		names[i] = d.Name
	}
	return names
}

// District looks up a district by exact name
func (c *Catalog) District(name string) (District, bool) {
	d, ok := c.byName[name]
	if !ok {
		return District{}, false
	}
	return *d, true
}

// ULBs returns the ULB names selectable for a district
func (c *Catalog) ULBs(district string) []string {
	d, ok := c.byName[district]
	if !ok {
		return nil
	}
	names := make([]string, len(d.ULBs))
	for i, u := range d.ULBs {
		names[i] = u.Name
	}
	return names
}

// HasULB reports whether ulb belongs to district
func (c *Catalog) HasULB(district, ulb string) bool {
	_, ok := c.ulb(district, ulb)
	return ok
}

// Fallback returns the fixed coordinates of a ULB if the catalog has them
func (c *Catalog) Fallback(district, ulb string) (Coordinates, bool) {
	u, ok := c.ulb(district, ulb)
	if !ok || u.Lat == nil || u.Lng == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *u.Lat, Lng: *u.Lng}, true
}

// Regions returns the region grouping in report order
func (c *Catalog) Regions() []Region {
	return c.RegionList
}

func (c *Catalog) ulb(district, name string) (ULB, bool) {
	d, ok := c.byName[district]
	if !ok {
		return ULB{}, false
	}
	for _, u := range d.ULBs {
		if u.Name == name {
			return u, true
		}
	}
	return ULB{}, false
}
