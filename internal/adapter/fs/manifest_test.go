package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	content := `documents:
  - path: contracts/msa.txt
    title: Master Services Agreement
    doctype: contract
    jurisdiction: US
    date: "2020-06-01"
  - path: cases/ruling.txt
    title: Smith v. Jones
    doctype: case
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Documents) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.Documents))
	}

	entry, ok := m.Lookup("contracts/msa.txt")
	if !ok {
		t.Fatal("expected entry for contracts/msa.txt")
	}
	if entry.Title != "Master Services Agreement" || entry.Jurisdiction != "US" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	date, err := entry.ParseDate()
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	if !date.Equal(want) {
		t.Errorf("expected %v, got %v", want, date)
	}
}

func TestLoadManifestMissingIsEmpty(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "corpus.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Documents) != 0 {
		t.Errorf("expected empty manifest, got %d entries", len(m.Documents))
	}
	if _, ok := m.Lookup("anything.txt"); ok {
		t.Error("lookup on empty manifest should miss")
	}
}

func TestLoadManifestInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	if err := os.WriteFile(path, []byte("documents: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for invalid manifest")
	}
}

func TestParseDateEmpty(t *testing.T) {
	date, err := (ManifestEntry{}).ParseDate()
	if err != nil {
		t.Fatal(err)
	}
	if !date.IsZero() {
		t.Errorf("expected zero time for empty date, got %v", date)
	}
}

func TestParseDateInvalid(t *testing.T) {
	entry := ManifestEntry{Path: "x.txt", Date: "June 1st 2020"}
	if _, err := entry.ParseDate(); err == nil {
		t.Error("expected error for malformed date")
	}
}
