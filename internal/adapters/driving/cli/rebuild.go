package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the vector index from stored chunks",
	Long: `Reconstructs the vector index from the chunk store. Use this to
recover from a lost or corrupted index, or after switching vector
backends. Chunks stored without embeddings are re-embedded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if ingestor == nil {
			return errors.New("ingestor not configured")
		}

		count, err := ingestor.Rebuild(context.Background())
		if err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}

		cmd.Printf("Re-indexed %d chunk(s)\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}
