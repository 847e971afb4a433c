// Package index implements the in-memory vector index: unit-normalized
// embeddings with attached metadata, exact brute-force cosine search, and
// structured metadata filters.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"lexrag/internal/domain"
)

// ErrDimensionMismatch reports a vector whose dimension does not match the
// index. This is a programmer or configuration error and is never coerced.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Index stores unit vectors and index-aligned metadata records. Add is the
// sole mutator and only appends, so searches may run concurrently with each
// other; a coarse RWMutex keeps readers from observing a torn append.
type Index struct {
	dim     int
	mu      sync.RWMutex
	vectors [][]float32
	metas   []domain.VectorMeta
}

// New creates an empty index with a fixed vector dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return &Index{dim: dimension}, nil
}

// Dimension returns the fixed vector dimension.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Size returns the number of stored vectors.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.metas)
}

// Add appends vectors with their metadata, normalizing each to unit length
// first. Insertion is all-or-nothing: a length mismatch or a wrong-dimension
// vector fails the whole call and leaves the index unchanged.
func (ix *Index) Add(vectors [][]float32, metas []domain.VectorMeta) error {
	if len(vectors) != len(metas) {
		return fmt.Errorf("got %d vectors but %d metadata records", len(vectors), len(metas))
	}
	for i, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("%w: expected %d, got %d at position %d", ErrDimensionMismatch, ix.dim, len(v), i)
		}
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		normalized[i] = normalize(v)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors = append(ix.vectors, normalized...)
	ix.metas = append(ix.metas, metas...)
	return nil
}

// Search returns up to k hits ranked by cosine similarity, skipping records
// that fail the filter. Ties break by insertion order (earlier wins). At most
// 2k ranked candidates are examined before giving up, so heavy filtering may
// return fewer than k results even when later matches exist; this recall cap
// bounds latency and is part of the contract.
func (ix *Index) Search(query []float32, k int, filter *domain.Filter) ([]domain.Hit, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), ix.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	q := normalize(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.vectors)
	if n == 0 {
		return nil, nil
	}

	scores := make([]float64, n)
	for i, v := range ix.vectors {
		scores[i] = dot(v, q)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	limit := 2 * k
	if limit > n {
		limit = n
	}

	var hits []domain.Hit
	for _, idx := range order[:limit] {
		if !matches(ix.metas[idx], filter) {
			continue
		}
		hits = append(hits, domain.Hit{Meta: ix.metas[idx], Score: scores[idx]})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Clear drops all vectors and metadata. Removing a single document requires
// clearing and re-ingesting; there is no point deletion.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors = nil
	ix.metas = nil
}

// matches evaluates the filter against a record's metadata. A jurisdiction
// constraint only rejects records whose own jurisdiction is set and differs;
// year bounds only reject records with a known year.
func matches(m domain.VectorMeta, f *domain.Filter) bool {
	if f == nil {
		return true
	}
	if f.Jurisdiction != "" && m.Jurisdiction != "" && m.Jurisdiction != f.Jurisdiction {
		return false
	}
	if f.YearFrom != 0 && m.Year != 0 && m.Year < f.YearFrom {
		return false
	}
	if f.YearTo != 0 && m.Year != 0 && m.Year > f.YearTo {
		return false
	}
	if len(f.KeywordsInclude) > 0 {
		text := strings.ToLower(m.Text)
		found := false
		for _, kw := range f.KeywordsInclude {
			if strings.Contains(text, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.KeywordsExclude) > 0 {
		text := strings.ToLower(m.Text)
		for _, kw := range f.KeywordsExclude {
			if strings.Contains(text, strings.ToLower(kw)) {
				return false
			}
		}
	}
	return true
}

// normalize returns a unit-length copy of v. A zero-norm vector maps to the
// zero vector rather than dividing by zero.
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
