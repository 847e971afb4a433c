package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"lexrag/config"
	"lexrag/internal/adapter/chunker"
	"lexrag/internal/adapter/fs"
	"lexrag/internal/adapter/index"
	"lexrag/internal/adapter/store"
	"lexrag/internal/domain"
	"lexrag/internal/usecase"
)

var ingestReindex bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest documents for retrieval",
	Long: `Ingest plain-text documents in the given directory: chunk, embed and
index them. Document metadata (title, jurisdiction, date, doctype) is read
from an optional corpus.yaml manifest; files without an entry use defaults
derived from the filename.

Chunk storage and the index snapshot live in .lexrag/ within the directory.

Examples:
  lexrag ingest ./corpus             # Ingest new documents
  lexrag ingest ./corpus --reindex   # Re-chunk and re-embed everything`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestReindex, "reindex", false, "replace chunks for documents that are already indexed")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	if err := config.EnsureDataDir(path); err != nil {
		return fmt.Errorf("failed to create .lexrag directory: %w", err)
	}

	st, err := store.NewBoltStore(config.ChunksDBPath(path))
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	chk, err := chunker.NewSectionChunker(
		cfg.Chunking.TargetSize,
		cfg.Chunking.Overlap,
		cfg.Chunking.MinChunkSize,
		nil,
	)
	if err != nil {
		return fmt.Errorf("invalid chunking config: %w", err)
	}

	// Reuse the snapshot when it matches the embedder; otherwise start
	// empty and refill from stored embeddings.
	snapPath := config.SnapshotPath(path)
	var ix *index.Index
	refill := false
	if _, err := os.Stat(snapPath); err == nil {
		ix, err = index.LoadFile(snapPath)
		if err != nil {
			fmt.Printf("Index snapshot unusable (%v), rebuilding\n", err)
		} else if ix.Dimension() != embedder.Dimension() {
			fmt.Printf("Index dimension %d does not match model dimension %d, rebuilding\n",
				ix.Dimension(), embedder.Dimension())
			ix = nil
		}
	}
	if ix == nil {
		ix, err = index.New(embedder.Dimension())
		if err != nil {
			return err
		}
		refill = true
	}

	ingestUC := usecase.NewIngestUseCase(st, embedder, chk, ix, slog.Default())
	if refill {
		if _, err := ingestUC.RebuildIndex(); err != nil {
			return fmt.Errorf("failed to rebuild index from storage: %w", err)
		}
	}

	docs, err := collectDocuments(path)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	fmt.Printf("Ingesting %d documents from %s...\n", len(docs), path)

	bar := progressbar.NewOptions(len(docs),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	batch := domain.BatchResult{Total: len(docs)}
	alreadyIndexed := 0
	for _, doc := range docs {
		result, err := ingestUC.Ingest(cmd.Context(), doc, ingestReindex)
		batch.Results = append(batch.Results, result)
		if err != nil {
			batch.Failed++
		} else {
			batch.Successful++
			if result.Status == domain.StatusIndexed {
				batch.TotalChunks += result.Chunks
			} else {
				alreadyIndexed++
			}
		}
		bar.Add(1)
	}

	// A reindex leaves the replaced documents' old vectors in the index;
	// rebuilding from stored embeddings drops them without provider calls.
	if ingestReindex {
		if _, err := ingestUC.RebuildIndex(); err != nil {
			return fmt.Errorf("failed to rebuild index: %w", err)
		}
	}

	if err := ix.SaveFile(snapPath); err != nil {
		return fmt.Errorf("failed to save index snapshot: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Documents indexed: %d\n", batch.Successful-alreadyIndexed)
	fmt.Printf("  Already indexed:   %d\n", alreadyIndexed)
	fmt.Printf("  Failed:            %d\n", batch.Failed)
	fmt.Printf("  Chunks created:    %d\n", batch.TotalChunks)
	fmt.Printf("  Index size:        %d vectors\n", ix.Size())

	if batch.Failed > 0 {
		fmt.Printf("\nFailures:\n")
		for _, r := range batch.Results {
			if r.Status == domain.StatusFailed {
				fmt.Printf("  - %s: %s\n", r.DocID, r.Error)
			}
		}
	}

	fmt.Printf("\nSnapshot stored at: %s\n", snapPath)
	return nil
}

// collectDocuments walks the corpus directory and pairs each file with its
// manifest metadata. Document identity is the content hash, so unchanged
// files keep their ID across runs.
func collectDocuments(path string) ([]domain.Document, error) {
	walker := fs.NewWalker(cfg.Corpus.Includes, cfg.Corpus.Excludes)
	files, err := walker.Walk(path)
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	manifest, err := fs.LoadManifest(config.ManifestPath(path))
	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	for _, file := range files {
		text, err := file.Text()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Path, err)
		}

		doc := domain.Document{
			ID:      contentHash(text),
			Title:   titleFromFilename(file.RelPath),
			DocType: "other",
			Source:  file.RelPath,
			Text:    text,
		}
		if entry, ok := manifest.Lookup(file.RelPath); ok {
			if entry.Title != "" {
				doc.Title = entry.Title
			}
			if entry.DocType != "" {
				doc.DocType = entry.DocType
			}
			doc.Jurisdiction = entry.Jurisdiction
			if entry.Source != "" {
				doc.Source = entry.Source
			}
			date, err := entry.ParseDate()
			if err != nil {
				return nil, err
			}
			doc.Date = date
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func contentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:8])
}

func titleFromFilename(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
