package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"lexrag/internal/domain"
)

// snapshotVersion guards the on-disk format; a bumped version forces a
// rebuild instead of a misread.
const snapshotVersion = 1

// Snapshot is the serialized form of an index: self-describing enough to
// reject a dimension or format mismatch on load, and exact enough that a
// restored index answers identical queries identically.
type Snapshot struct {
	Version   int                 `json:"version"`
	Dimension int                 `json:"dimension"`
	Vectors   [][]float32         `json:"vectors"`
	Metadata  []domain.VectorMeta `json:"metadata"`
}

// Snapshot copies the index contents into a serializable form.
func (ix *Index) Snapshot() *Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	vectors := make([][]float32, len(ix.vectors))
	for i, v := range ix.vectors {
		vectors[i] = append([]float32(nil), v...)
	}
	metas := append([]domain.VectorMeta(nil), ix.metas...)

	return &Snapshot{
		Version:   snapshotVersion,
		Dimension: ix.dim,
		Vectors:   vectors,
		Metadata:  metas,
	}
}

// Restore replaces the index contents with the snapshot's. The snapshot must
// carry the same dimension as the index and aligned vector/metadata lists.
func (ix *Index) Restore(s *Snapshot) error {
	if s.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d (want %d)", s.Version, snapshotVersion)
	}
	if s.Dimension != ix.dim {
		return fmt.Errorf("%w: snapshot has %d, index has %d", ErrDimensionMismatch, s.Dimension, ix.dim)
	}
	if len(s.Vectors) != len(s.Metadata) {
		return fmt.Errorf("corrupt snapshot: %d vectors but %d metadata records", len(s.Vectors), len(s.Metadata))
	}
	for i, v := range s.Vectors {
		if len(v) != s.Dimension {
			return fmt.Errorf("%w: snapshot vector %d has dimension %d", ErrDimensionMismatch, i, len(v))
		}
	}

	vectors := make([][]float32, len(s.Vectors))
	for i, v := range s.Vectors {
		vectors[i] = append([]float32(nil), v...)
	}
	metas := append([]domain.VectorMeta(nil), s.Metadata...)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors = vectors
	ix.metas = metas
	return nil
}

// SaveFile writes the index snapshot as JSON, creating parent directories.
func (ix *Index) SaveFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	data, err := json.Marshal(ix.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFile reads a snapshot file and builds an index from it.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	ix, err := New(snap.Dimension)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	if err := ix.Restore(&snap); err != nil {
		return nil, err
	}
	return ix, nil
}
