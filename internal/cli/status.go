package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lexrag/config"
	"lexrag/internal/adapter/index"
	"lexrag/internal/adapter/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus and index state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dbPath := config.ChunksDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No corpus ingested yet.")
		return nil
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	docs, err := st.ListDocs()
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	totalChunks := 0
	for _, doc := range docs {
		n, err := st.CountChunks(doc.ID)
		if err != nil {
			return err
		}
		totalChunks += n
	}

	fmt.Printf("Corpus:\n")
	fmt.Printf("  Documents: %d\n", len(docs))
	fmt.Printf("  Chunks:    %d\n", totalChunks)

	snapPath := config.SnapshotPath(rootDir)
	if _, err := os.Stat(snapPath); os.IsNotExist(err) {
		fmt.Println("\nNo index snapshot.")
		return nil
	}
	ix, err := index.LoadFile(snapPath)
	if err != nil {
		return fmt.Errorf("failed to load index snapshot: %w", err)
	}
	fmt.Printf("\nIndex:\n")
	fmt.Printf("  Vectors:   %d\n", ix.Size())
	fmt.Printf("  Dimension: %d\n", ix.Dimension())
	return nil
}
