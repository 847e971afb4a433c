package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"lexrag/internal/adapter/chunker"
	"lexrag/internal/adapter/index"
	"lexrag/internal/domain"
	"lexrag/internal/port"
)

// minTextLength rejects documents whose normalized text is too short to be
// worth indexing; failing loudly beats producing zero chunks silently.
const minTextLength = 100

// IngestUseCase converts documents into durably stored chunks plus vector
// index entries. Ingestion of one document is all-or-nothing: any failing
// step aborts that document without leaving partial chunk records behind.
type IngestUseCase struct {
	store    port.ChunkStore
	embedder port.Embedder
	chunker  port.Chunker
	index    *index.Index
	log      *slog.Logger

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// NewIngestUseCase wires the ingestion pipeline. A nil logger uses the
// process default.
func NewIngestUseCase(
	store port.ChunkStore,
	embedder port.Embedder,
	chk port.Chunker,
	ix *index.Index,
	log *slog.Logger,
) *IngestUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &IngestUseCase{
		store:    store,
		embedder: embedder,
		chunker:  chk,
		index:    ix,
		log:      log,
		docLocks: make(map[string]*sync.Mutex),
	}
}

// Ingest chunks, embeds and indexes one document. When chunks already exist
// and reindex is false this is a no-op reported as StatusAlreadyIndexed;
// ingestion is safe to call repeatedly. With reindex the old chunks are
// replaced atomically. Reindex runs for the same document are serialized.
func (u *IngestUseCase) Ingest(ctx context.Context, doc domain.Document, reindex bool) (domain.IngestResult, error) {
	lock := u.lockFor(doc.ID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := u.store.CountChunks(doc.ID)
	if err != nil {
		return u.fail(doc.ID, fmt.Errorf("storage failure: %w", err))
	}
	if existing > 0 && !reindex {
		u.log.Info("document already indexed", "doc_id", doc.ID, "chunks", existing)
		return domain.IngestResult{
			DocID:  doc.ID,
			Status: domain.StatusAlreadyIndexed,
			Chunks: existing,
		}, nil
	}

	normalized := chunker.Normalize(doc.Text)
	if len(normalized) < minTextLength {
		return u.fail(doc.ID, fmt.Errorf("%w: %d chars after normalization", domain.ErrTextTooShort, len(normalized)))
	}

	drafts, err := u.chunker.Chunk(doc.Text)
	if err != nil {
		return u.fail(doc.ID, fmt.Errorf("chunking failed: %w", err))
	}
	if len(drafts) == 0 {
		return u.fail(doc.ID, domain.ErrNoChunks)
	}

	texts := make([]string, len(drafts))
	for i, d := range drafts {
		texts[i] = d.Text
	}

	// Blocking provider call; no store or index locks are held across it.
	vectors, err := u.embedder.Embed(ctx, texts)
	if err != nil {
		return u.fail(doc.ID, fmt.Errorf("embedding failed: %w", err))
	}
	if len(vectors) != len(drafts) {
		return u.fail(doc.ID, fmt.Errorf("embedding provider returned %d vectors for %d chunks", len(vectors), len(drafts)))
	}

	chunks := make([]domain.Chunk, len(drafts))
	for i, d := range drafts {
		chunks[i] = domain.Chunk{
			ID:        uuid.NewString(),
			DocID:     doc.ID,
			Ord:       d.Ord,
			Heading:   d.Heading,
			Text:      d.Text,
			CharStart: d.CharStart,
			CharEnd:   d.CharEnd,
			Embedding: vectors[i],
		}
	}

	if err := u.store.PutDoc(doc); err != nil {
		return u.fail(doc.ID, fmt.Errorf("storage failure: %w", err))
	}
	if err := u.store.ReplaceChunks(doc.ID, chunks); err != nil {
		return u.fail(doc.ID, fmt.Errorf("storage failure: %w", err))
	}

	metas := make([]domain.VectorMeta, len(chunks))
	for i, c := range chunks {
		metas[i] = domain.VectorMeta{
			DocID:        doc.ID,
			ChunkID:      c.ID,
			Title:        doc.Title,
			DocType:      doc.DocType,
			Jurisdiction: doc.Jurisdiction,
			Year:         doc.Year(),
			Source:       doc.Source,
			Text:         c.Text,
			Heading:      c.Heading,
			Ord:          c.Ord,
		}
	}
	if err := u.index.Add(vectors, metas); err != nil {
		// A fresh ingest rolls its stored chunks back so nothing is left
		// behind. A reindex keeps the new chunk set: it is valid on its own,
		// and deleting it would lose the document entirely. RebuildIndex
		// reconciles the index from storage afterwards.
		if existing == 0 {
			if derr := u.store.DeleteChunks(doc.ID); derr != nil {
				u.log.Error("rollback failed", "doc_id", doc.ID, "error", derr)
			}
		}
		return u.fail(doc.ID, fmt.Errorf("index insert failed: %w", err))
	}

	u.log.Info("document ingested",
		"doc_id", doc.ID,
		"chunks", len(chunks),
		"text_length", len(normalized),
		"reindex", reindex)

	return domain.IngestResult{
		DocID:      doc.ID,
		Status:     domain.StatusIndexed,
		Chunks:     len(chunks),
		TextLength: len(normalized),
	}, nil
}

// IngestMany processes documents independently: one failure never aborts the
// others. The aggregate counts successes, failures and total chunks written.
func (u *IngestUseCase) IngestMany(ctx context.Context, docs []domain.Document, reindex bool) domain.BatchResult {
	batch := domain.BatchResult{Total: len(docs)}
	for _, doc := range docs {
		result, err := u.Ingest(ctx, doc, reindex)
		batch.Results = append(batch.Results, result)
		if err != nil {
			batch.Failed++
			continue
		}
		batch.Successful++
		if result.Status == domain.StatusIndexed {
			batch.TotalChunks += result.Chunks
		}
	}
	return batch
}

// RebuildIndex clears the vector index and refills it from stored chunk
// embeddings, without calling the embedding provider. The index has no point
// deletion, so this is how stale vectors left by a reindex are dropped.
func (u *IngestUseCase) RebuildIndex() (int, error) {
	docs, err := u.store.ListDocs()
	if err != nil {
		return 0, fmt.Errorf("storage failure: %w", err)
	}

	u.index.Clear()
	total := 0
	for _, doc := range docs {
		chunks, err := u.store.GetChunksByDoc(doc.ID)
		if err != nil {
			return total, fmt.Errorf("storage failure for %s: %w", doc.ID, err)
		}
		var vectors [][]float32
		var metas []domain.VectorMeta
		for _, c := range chunks {
			if c.Embedding == nil {
				continue
			}
			vectors = append(vectors, c.Embedding)
			metas = append(metas, domain.VectorMeta{
				DocID:        doc.ID,
				ChunkID:      c.ID,
				Title:        doc.Title,
				DocType:      doc.DocType,
				Jurisdiction: doc.Jurisdiction,
				Year:         doc.Year(),
				Source:       doc.Source,
				Text:         c.Text,
				Heading:      c.Heading,
				Ord:          c.Ord,
			})
		}
		if len(vectors) == 0 {
			continue
		}
		if err := u.index.Add(vectors, metas); err != nil {
			return total, fmt.Errorf("index insert failed for %s: %w", doc.ID, err)
		}
		total += len(vectors)
	}
	return total, nil
}

func (u *IngestUseCase) fail(docID string, err error) (domain.IngestResult, error) {
	u.log.Error("ingestion failed", "doc_id", docID, "error", err)
	return domain.IngestResult{
		DocID:  docID,
		Status: domain.StatusFailed,
		Error:  err.Error(),
	}, err
}

func (u *IngestUseCase) lockFor(docID string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	lock, ok := u.docLocks[docID]
	if !ok {
		lock = &sync.Mutex{}
		u.docLocks[docID] = lock
	}
	return lock
}
