package checklist

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk definition of one fiscal year's checklist.
//
// Manifests live at <dir>/<year>.yaml:
//
//	year: 2024
//	items:
//	  - id: 1
//	    pic: Finance
//	    description: Audited financial statements
//	    aspect: finance
type Manifest struct {
	Year  int    `yaml:"year"`
	Items []Item `yaml:"items"`
}

// ReadManifest reads and parses a checklist manifest file.
//
// Items missing a year inherit the manifest's year. Invalid items are
// skipped with a warning to stderr so one bad entry does not take down
// the whole year's checklist.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if m.Year <= 0 {
		return nil, fmt.Errorf("manifest %s: year must be positive (got %d)", path, m.Year)
	}

	valid := m.Items[:0]
	for _, it := range m.Items {
		if it.Year == 0 {
			it.Year = m.Year
		}
		if err := it.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping invalid checklist item in %s: %v\n", path, err)
			continue
		}
		valid = append(valid, it)
	}
	m.Items = valid

	return &m, nil
}

// LoadYear loads the checklist for a fiscal year from dir/<year>.yaml.
func LoadYear(dir string, year int) ([]Item, error) {
	path := filepath.Join(dir, fmt.Sprintf("%d.yaml", year))
	m, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if m.Year != year {
		return nil, fmt.Errorf("manifest %s declares year %d, expected %d", path, m.Year, year)
	}
	return m.Items, nil
}

// WriteManifest writes a manifest to dir/<year>.yaml. Used by tests and
// by the external checklist-configuration tooling.
func WriteManifest(dir string, m *Manifest) error {
	if m.Year <= 0 {
		return fmt.Errorf("cannot write manifest without a year")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest for %d: %w", m.Year, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.yaml", m.Year))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
