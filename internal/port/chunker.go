package port

import "lexrag/internal/domain"

// Chunker splits normalized document text into ordered chunk drafts.
// Output must be deterministic for identical input.
type Chunker interface {
	Chunk(text string) ([]domain.ChunkDraft, error)
}

// SentenceSegmenter splits text into a sequence of non-overlapping sentences.
// Any implementation is acceptable as long as the sentences, rejoined with
// single spaces, reproduce their input.
type SentenceSegmenter interface {
	Segment(text string) []string
}
