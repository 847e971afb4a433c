package domain

import "errors"

// Per-document ingestion failures. The orchestrator wraps these with the
// document ID and stage; batch ingestion records them per document instead
// of aborting the batch.
var (
	// ErrTextTooShort rejects documents whose normalized text is empty or
	// under the minimum length. Fatal for the document, not retried.
	ErrTextTooShort = errors.New("document text too short or empty")

	// ErrNoChunks means chunking produced zero segments.
	ErrNoChunks = errors.New("chunking produced no segments")
)
