package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lexrag/config"
	"lexrag/internal/adapter/cache"
	"lexrag/internal/adapter/index"
	"lexrag/internal/domain"
	"lexrag/internal/usecase"
)

var (
	queryText         string
	queryTopK         int
	queryJSON         bool
	queryJurisdiction string
	queryYearFrom     int
	queryYearTo       int
	queryInclude      []string
	queryExclude      []string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search ingested documents",
	Long: `Search for relevant passages by embedding the query and running
filtered cosine search over the vector index.

Examples:
  lexrag query -q "implied warranty of merchantability"
  lexrag query -q "data retention" --jurisdiction EU --year-from 2018
  lexrag query -q "breach" --include damages --exclude criminal --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().StringVar(&queryJurisdiction, "jurisdiction", "", "restrict to a jurisdiction (e.g. US, EU)")
	queryCmd.Flags().IntVar(&queryYearFrom, "year-from", 0, "minimum document year (inclusive)")
	queryCmd.Flags().IntVar(&queryYearTo, "year-to", 0, "maximum document year (inclusive)")
	queryCmd.Flags().StringSliceVar(&queryInclude, "include", nil, "keywords, at least one must appear in the passage")
	queryCmd.Flags().StringSliceVar(&queryExclude, "exclude", nil, "keywords that must not appear in the passage")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	snapPath := config.SnapshotPath(rootDir)
	if _, err := os.Stat(snapPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'lexrag ingest' first")
	}

	ix, err := index.LoadFile(snapPath)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	if embedder.Dimension() != ix.Dimension() {
		return fmt.Errorf("model dimension %d does not match index dimension %d; re-ingest with --reindex",
			embedder.Dimension(), ix.Dimension())
	}

	var embCache *cache.EmbeddingCache
	if cfg.Retrieve.CacheSize > 0 {
		embCache = cache.NewEmbeddingCache(cfg.Retrieve.CacheSize, 0)
	}
	retrieveUC := usecase.NewRetrieveUseCase(embedder, ix, embCache, slog.Default())

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	passages := retrieveUC.Retrieve(cmd.Context(), queryText, topK, buildFilter())

	if queryJSON {
		output, _ := json.MarshalIndent(passages, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(passages) == 0 {
		fmt.Println("No passages found.")
		return nil
	}
	fmt.Printf("Found %d passages for: %s\n\n", len(passages), queryText)
	for i, p := range passages {
		fmt.Printf("--- [%d] %s (%s, %s) score: %.3f ---\n", i+1, p.Title, p.Year, orNone(p.Jurisdiction), p.Score)
		if p.Heading != "" {
			fmt.Printf("%s\n", p.Heading)
		}
		text := p.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}
	return nil
}

func buildFilter() *domain.Filter {
	if queryJurisdiction == "" && queryYearFrom == 0 && queryYearTo == 0 &&
		len(queryInclude) == 0 && len(queryExclude) == 0 {
		return nil
	}
	return &domain.Filter{
		Jurisdiction:    queryJurisdiction,
		YearFrom:        queryYearFrom,
		YearTo:          queryYearTo,
		KeywordsInclude: queryInclude,
		KeywordsExclude: queryExclude,
	}
}

func orNone(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
