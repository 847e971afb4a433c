package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"lexrag/internal/adapter/cache"
	"lexrag/internal/adapter/index"
	"lexrag/internal/domain"
	"lexrag/internal/port"
)

// RetrieveUseCase answers "top-k chunks relevant to this query, under these
// filters" and shapes the hits into passages for downstream consumption.
//
// Retrieval degrades to "no context" instead of failing the caller: an empty
// index or a provider failure yields an empty result, and callers that need
// to distinguish "no results" from "retrieval broken" watch the logs.
type RetrieveUseCase struct {
	embedder port.Embedder
	index    *index.Index
	cache    *cache.EmbeddingCache
	log      *slog.Logger
}

// NewRetrieveUseCase wires the retrieval pipeline. The query-embedding cache
// may be nil to disable caching; a nil logger uses the process default.
func NewRetrieveUseCase(embedder port.Embedder, ix *index.Index, c *cache.EmbeddingCache, log *slog.Logger) *RetrieveUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &RetrieveUseCase{
		embedder: embedder,
		index:    ix,
		cache:    c,
		log:      log,
	}
}

// Retrieve embeds the query, searches the index and returns ranked passages.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, k int, filter *domain.Filter) []domain.Passage {
	passages := make([]domain.Passage, 0, k)

	vector, ok := u.cachedEmbedding(query)
	if !ok {
		var err error
		vector, err = u.embedder.EmbedOne(ctx, query)
		if err != nil {
			u.log.Error("query embedding failed", "error", err)
			return passages
		}
		if u.cache != nil {
			u.cache.Put(query, vector)
		}
	}

	hits, err := u.index.Search(vector, k, filter)
	if err != nil {
		u.log.Error("index search failed", "error", err)
		return passages
	}

	for _, hit := range hits {
		passages = append(passages, passageFromHit(hit))
	}
	u.log.Info("retrieved passages", "count", len(passages), "k", k)
	return passages
}

func (u *RetrieveUseCase) cachedEmbedding(query string) ([]float32, bool) {
	if u.cache == nil {
		return nil, false
	}
	return u.cache.Get(query)
}

// passageFromHit maps index metadata into the passage shape, defaulting the
// fields downstream prompt builders expect to always be present.
func passageFromHit(hit domain.Hit) domain.Passage {
	m := hit.Meta

	title := m.Title
	if title == "" {
		title = "Untitled"
	}
	caseName := m.Title
	if caseName == "" {
		caseName = "Unknown"
	}
	year := "n.d."
	if m.Year != 0 {
		year = strconv.Itoa(m.Year)
	}

	return domain.Passage{
		ChunkID:      m.ChunkID,
		DocID:        m.DocID,
		Title:        title,
		CaseName:     caseName,
		Year:         year,
		Jurisdiction: m.Jurisdiction,
		Text:         m.Text,
		Heading:      m.Heading,
		Score:        hit.Score,
		Source:       m.Source,
	}
}
