package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// chunkStore is injected by the composition root for library listing.
var chunkStore driven.ChunkStore

// SetChunkStore injects the chunk store. Call before Execute.
func SetChunkStore(store driven.ChunkStore) {
	chunkStore = store
}

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if chunkStore == nil {
			return errors.New("chunk store not configured")
		}

		ctx := context.Background()
		docs, err := chunkStore.ListDocuments(ctx)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			cmd.Println("Library is empty.")
			return nil
		}

		for _, doc := range docs {
			title := doc.Title
			if title == "" {
				title = doc.ID
			}
			cmd.Printf("  %s", title)
			if doc.Domain != "" {
				cmd.Printf("  [%s]", doc.Domain)
			}
			cmd.Printf("  (%s)\n", doc.SourcePath)
		}

		count, err := chunkStore.CountChunks(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("\n%d document(s), %d chunk(s)\n", len(docs), count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(libraryCmd)
}
