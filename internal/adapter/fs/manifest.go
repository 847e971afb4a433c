package fs

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest carries per-file document metadata for a corpus directory. Files
// without an entry are ingested with defaults derived from the filename.
type Manifest struct {
	Documents []ManifestEntry `yaml:"documents"`
}

// ManifestEntry describes one document file, keyed by its path relative to
// the corpus root.
type ManifestEntry struct {
	Path         string `yaml:"path"`
	Title        string `yaml:"title"`
	DocType      string `yaml:"doctype"`
	Jurisdiction string `yaml:"jurisdiction"`
	Date         string `yaml:"date"` // YYYY-MM-DD
	Source       string `yaml:"source"`
}

// ParseDate returns the entry's date, or the zero time when unset.
func (e ManifestEntry) ParseDate() (time.Time, error) {
	if e.Date == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q for %s: %w", e.Date, e.Path, err)
	}
	return t, nil
}

// LoadManifest reads a corpus manifest; a missing file yields an empty one.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Lookup finds the entry for a relative path.
func (m *Manifest) Lookup(relPath string) (ManifestEntry, bool) {
	for _, e := range m.Documents {
		if e.Path == relPath {
			return e, true
		}
	}
	return ManifestEntry{}, false
}
