package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.TargetSize != 500 {
		t.Errorf("expected target size 500, got %d", cfg.Chunking.TargetSize)
	}
	if cfg.Chunking.Overlap != 100 {
		t.Errorf("expected overlap 100, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Chunking.MinChunkSize != 50 {
		t.Errorf("expected min chunk size 50, got %d", cfg.Chunking.MinChunkSize)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("expected openai provider, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimension != 1536 {
		t.Errorf("expected dimension 1536, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected top_k 10, got %d", cfg.Retrieve.TopK)
	}
	if len(cfg.Corpus.Includes) == 0 {
		t.Error("expected default include patterns")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunking.TargetSize != 500 {
		t.Errorf("expected defaults, got target size %d", cfg.Chunking.TargetSize)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexrag.yaml")
	content := `chunking:
  target_size: 800
  overlap: 200
embedding:
  provider: mock
  dimension: 384
retrieve:
  top_k: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunking.TargetSize != 800 {
		t.Errorf("expected target size 800, got %d", cfg.Chunking.TargetSize)
	}
	if cfg.Chunking.Overlap != 200 {
		t.Errorf("expected overlap 200, got %d", cfg.Chunking.Overlap)
	}
	// Untouched fields keep their defaults.
	if cfg.Chunking.MinChunkSize != 50 {
		t.Errorf("expected min chunk size 50, got %d", cfg.Chunking.MinChunkSize)
	}
	if cfg.Embedding.Provider != "mock" {
		t.Errorf("expected mock provider, got %s", cfg.Embedding.Provider)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected top_k 5, got %d", cfg.Retrieve.TopK)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("chunking: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	content := "retrieve:\n  top_k: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "lexrag.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retrieve.TopK != 3 {
		t.Errorf("expected top_k 3, got %d", cfg.Retrieve.TopK)
	}
}

func TestLoadFromDirFallsBackToDataDir(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureDataDir(dir); err != nil {
		t.Fatal(err)
	}
	content := "retrieve:\n  top_k: 7\n"
	if err := os.WriteFile(filepath.Join(dir, ".lexrag", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retrieve.TopK != 7 {
		t.Errorf("expected top_k 7, got %d", cfg.Retrieve.TopK)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexrag.yaml")
	cfg := DefaultConfig()
	cfg.Chunking.TargetSize = 640
	cfg.Embedding.Model = "nomic-embed-text"

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Chunking.TargetSize != 640 {
		t.Errorf("expected target size 640, got %d", loaded.Chunking.TargetSize)
	}
	if loaded.Embedding.Model != "nomic-embed-text" {
		t.Errorf("expected saved model, got %s", loaded.Embedding.Model)
	}
}

func TestPathHelpers(t *testing.T) {
	if got := ChunksDBPath("/corpus"); got != filepath.Join("/corpus", ".lexrag", "chunks.db") {
		t.Errorf("unexpected chunks db path: %s", got)
	}
	if got := SnapshotPath("/corpus"); got != filepath.Join("/corpus", ".lexrag", "index.json") {
		t.Errorf("unexpected snapshot path: %s", got)
	}
	if got := ManifestPath("/corpus"); got != filepath.Join("/corpus", "corpus.yaml") {
		t.Errorf("unexpected manifest path: %s", got)
	}
}
