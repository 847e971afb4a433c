// Package store persists documents and chunks in BoltDB. Reindexing replaces
// a document's chunks inside a single transaction, so readers never observe a
// mixture of old and new chunks.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"lexrag/internal/domain"
)

var (
	bucketDocs      = []byte("docs")
	bucketChunks    = []byte("chunks")
	bucketDocChunks = []byte("doc_chunks")
)

type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketChunks, bucketDocChunks} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type docMeta struct {
	Title        string `json:"title"`
	DocType      string `json:"doctype"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Date         int64  `json:"date,omitempty"` // unix seconds, 0 = unknown
	Source       string `json:"source,omitempty"`
}

type chunkRec struct {
	DocID     string    `json:"doc_id"`
	Ord       int       `json:"ord"`
	Heading   string    `json:"heading,omitempty"`
	Text      string    `json:"text"`
	CharStart int       `json:"char_start"`
	CharEnd   int       `json:"char_end"`
	Embedding []float32 `json:"embedding,omitempty"`
}

func (s *BoltStore) PutDoc(doc domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := docMeta{
			Title:        doc.Title,
			DocType:      doc.DocType,
			Jurisdiction: doc.Jurisdiction,
			Source:       doc.Source,
		}
		if !doc.Date.IsZero() {
			meta.Date = doc.Date.Unix()
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

func (s *BoltStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document not found: %s", id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = docFromMeta(id, meta)
		return nil
	})
	return doc, err
}

func (s *BoltStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, docFromMeta(string(k), meta))
			return nil
		})
	})
	return docs, err
}

// DeleteDoc removes the document record and all of its chunks in one
// transaction.
func (s *BoltStore) DeleteDoc(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteChunksTx(tx, id); err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}

// ReplaceChunks atomically swaps the document's chunk set. An empty slice
// just clears it.
func (s *BoltStore) ReplaceChunks(docID string, chunks []domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteChunksTx(tx, docID); err != nil {
			return err
		}

		chunkBucket := tx.Bucket(bucketChunks)
		ids := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			rec := chunkRec{
				DocID:     chunk.DocID,
				Ord:       chunk.Ord,
				Heading:   chunk.Heading,
				Text:      chunk.Text,
				CharStart: chunk.CharStart,
				CharEnd:   chunk.CharEnd,
				Embedding: chunk.Embedding,
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := chunkBucket.Put([]byte(chunk.ID), data); err != nil {
				return err
			}
			ids = append(ids, chunk.ID)
		}

		if len(ids) == 0 {
			return tx.Bucket(bucketDocChunks).Delete([]byte(docID))
		}
		idsData, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocChunks).Put([]byte(docID), idsData)
	})
}

// GetChunksByDoc returns the document's chunks in ord order.
func (s *BoltStore) GetChunksByDoc(docID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocChunks).Get([]byte(docID))
		if data == nil {
			return nil
		}
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		chunkBucket := tx.Bucket(bucketChunks)
		for _, id := range ids {
			recData := chunkBucket.Get([]byte(id))
			if recData == nil {
				continue
			}
			var rec chunkRec
			if err := json.Unmarshal(recData, &rec); err != nil {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:        id,
				DocID:     rec.DocID,
				Ord:       rec.Ord,
				Heading:   rec.Heading,
				Text:      rec.Text,
				CharStart: rec.CharStart,
				CharEnd:   rec.CharEnd,
				Embedding: rec.Embedding,
			})
		}
		return nil
	})
	return chunks, err
}

func (s *BoltStore) CountChunks(docID string) (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocChunks).Get([]byte(docID))
		if data == nil {
			return nil
		}
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		count = len(ids)
		return nil
	})
	return count, err
}

func (s *BoltStore) DeleteChunks(docID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteChunksTx(tx, docID)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func deleteChunksTx(tx *bbolt.Tx, docID string) error {
	docChunks := tx.Bucket(bucketDocChunks)
	data := docChunks.Get([]byte(docID))
	if data == nil {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	chunkBucket := tx.Bucket(bucketChunks)
	for _, id := range ids {
		if err := chunkBucket.Delete([]byte(id)); err != nil {
			return err
		}
	}
	return docChunks.Delete([]byte(docID))
}

func docFromMeta(id string, meta docMeta) domain.Document {
	doc := domain.Document{
		ID:           id,
		Title:        meta.Title,
		DocType:      meta.DocType,
		Jurisdiction: meta.Jurisdiction,
		Source:       meta.Source,
	}
	if meta.Date != 0 {
		doc.Date = time.Unix(meta.Date, 0).UTC()
	}
	return doc
}
