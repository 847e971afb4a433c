package domain

import "time"

// Document is a legal source document. The text itself lives on disk; the
// record carries identity and the metadata that retrieval filters on.
type Document struct {
	ID           string
	Title        string
	DocType      string // "contract", "case", "regulation", "statute", "other"
	Jurisdiction string // e.g. "US", "EU", "UK-ENG"
	Date         time.Time
	Source       string
	Text         string // extracted plain text, supplied by the caller
}

// Year returns the document's year, or 0 when the date is unknown.
func (d Document) Year() int {
	if d.Date.IsZero() {
		return 0
	}
	return d.Date.Year()
}

// Chunk is the atomic unit of retrieval: a bounded segment of a document's
// normalized text. Ord values for one document form a contiguous zero-based
// sequence in source order.
type Chunk struct {
	ID        string
	DocID     string
	Ord       int
	Heading   string
	Text      string
	CharStart int
	CharEnd   int
	Embedding []float32 // nil until embedded
}

// ChunkDraft is a chunk before it has identity or an embedding; the chunker
// produces drafts, the ingestion pipeline promotes them.
type ChunkDraft struct {
	Ord       int
	Heading   string
	Text      string
	CharStart int
	CharEnd   int
}

// VectorMeta is the metadata bag attached to each vector in the index.
type VectorMeta struct {
	DocID        string `json:"doc_id"`
	ChunkID      string `json:"chunk_id"`
	Title        string `json:"title"`
	DocType      string `json:"doctype"`
	Jurisdiction string `json:"jurisdiction"`
	Year         int    `json:"year,omitempty"` // 0 = unknown
	Source       string `json:"source,omitempty"`
	Text         string `json:"text"`
	Heading      string `json:"heading,omitempty"`
	Ord          int    `json:"ord"`
}

// Hit is one search result: the stored metadata plus its cosine score.
type Hit struct {
	Meta  VectorMeta
	Score float64
}

// Filter restricts search results by document metadata and chunk text.
// A nil filter, or a zero-valued field, places no constraint.
type Filter struct {
	Jurisdiction    string
	YearFrom        int
	YearTo          int
	KeywordsInclude []string
	KeywordsExclude []string
}

// Passage is a retrieved chunk shaped for downstream consumption, with
// display defaults applied ("Untitled", "n.d.") where metadata is missing.
type Passage struct {
	ChunkID      string  `json:"chunk_id"`
	DocID        string  `json:"document_id"`
	Title        string  `json:"title"`
	CaseName     string  `json:"case_name"`
	Year         string  `json:"year"`
	Jurisdiction string  `json:"jurisdiction"`
	Text         string  `json:"text"`
	Heading      string  `json:"heading"`
	Score        float64 `json:"score"`
	Source       string  `json:"source"`
}

// IngestStatus reports the outcome of ingesting a single document.
type IngestStatus string

const (
	StatusIndexed        IngestStatus = "indexed"
	StatusAlreadyIndexed IngestStatus = "already_indexed"
	StatusFailed         IngestStatus = "failed"
)

// IngestResult is the per-document outcome of an ingestion.
type IngestResult struct {
	DocID      string       `json:"document_id"`
	Status     IngestStatus `json:"status"`
	Chunks     int          `json:"chunks"`
	TextLength int          `json:"text_length,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// BatchResult aggregates the outcome of a multi-document ingestion. One
// document failing never aborts the others.
type BatchResult struct {
	Total       int            `json:"total"`
	Successful  int            `json:"successful"`
	Failed      int            `json:"failed"`
	TotalChunks int            `json:"total_chunks"`
	Results     []IngestResult `json:"results"`
}
