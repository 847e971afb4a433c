package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lexrag/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ix := mustIndex(t, 3)
	mustAdd(t, ix,
		[][]float32{{1, 0, 0}, {0, 1, 0}, {3, 4, 0}},
		[]domain.VectorMeta{
			{DocID: "d1", ChunkID: "c1", Title: "Lease Agreement", Year: 2019, Ord: 0},
			{DocID: "d1", ChunkID: "c2", Title: "Lease Agreement", Year: 2019, Ord: 1},
			{DocID: "d2", ChunkID: "c3", Jurisdiction: "EU", Ord: 0},
		},
	)

	path := filepath.Join(t.TempDir(), "index.json")
	if err := ix.SaveFile(path); err != nil {
		t.Fatal(err)
	}

	restored, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Dimension() != 3 {
		t.Errorf("expected dimension 3, got %d", restored.Dimension())
	}
	if restored.Size() != 3 {
		t.Errorf("expected 3 vectors, got %d", restored.Size())
	}

	// A restored index answers queries identically.
	query := []float32{3, 4, 0}
	want, err := ix.Search(query, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := restored.Search(query, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("hit counts differ: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Meta != want[i].Meta {
			t.Errorf("hit %d metadata differs", i)
		}
		if got[i].Score != want[i].Score {
			t.Errorf("hit %d score differs: %f vs %f", i, got[i].Score, want[i].Score)
		}
	}
}

func TestSaveFileCreatesParentDirs(t *testing.T) {
	ix := mustIndex(t, 2)
	path := filepath.Join(t.TempDir(), "nested", "deep", "index.json")
	if err := ix.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot file not written: %v", err)
	}
}

func TestRestoreRejectsWrongVersion(t *testing.T) {
	ix := mustIndex(t, 2)
	err := ix.Restore(&Snapshot{Version: 99, Dimension: 2})
	if err == nil {
		t.Error("expected error for unsupported version")
	}
}

func TestRestoreRejectsDimensionMismatch(t *testing.T) {
	ix := mustIndex(t, 2)
	err := ix.Restore(&Snapshot{Version: snapshotVersion, Dimension: 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRestoreRejectsMisalignedSnapshot(t *testing.T) {
	ix := mustIndex(t, 2)
	err := ix.Restore(&Snapshot{
		Version:   snapshotVersion,
		Dimension: 2,
		Vectors:   [][]float32{{1, 0}},
		Metadata:  []domain.VectorMeta{{}, {}},
	})
	if err == nil {
		t.Error("expected error for misaligned vectors and metadata")
	}
}

func TestRestoreRejectsWrongVectorDimension(t *testing.T) {
	ix := mustIndex(t, 2)
	err := ix.Restore(&Snapshot{
		Version:   snapshotVersion,
		Dimension: 2,
		Vectors:   [][]float32{{1, 0, 0}},
		Metadata:  []domain.VectorMeta{{}},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Error("expected error for missing snapshot file")
	}
}

func TestLoadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for corrupt snapshot file")
	}
}
