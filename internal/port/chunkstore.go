package port

import "lexrag/internal/domain"

// ChunkStore durably stores document records and their chunks.
// ReplaceChunks is the reindex boundary: the delete and insert happen in one
// transaction, so a reader never observes a mixture of old and new chunks.
type ChunkStore interface {
	PutDoc(doc domain.Document) error

	GetDoc(id string) (domain.Document, error)

	ListDocs() ([]domain.Document, error)

	// DeleteDoc removes a document and all of its chunks.
	DeleteDoc(id string) error

	// ReplaceChunks atomically deletes any existing chunks for the document
	// and inserts the given ones.
	ReplaceChunks(docID string, chunks []domain.Chunk) error

	// GetChunksByDoc returns a document's chunks in ord order.
	GetChunksByDoc(docID string) ([]domain.Chunk, error)

	CountChunks(docID string) (int, error)

	DeleteChunks(docID string) error

	Close() error
}
