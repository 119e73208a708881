package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
)

var (
	searchTopK    int
	searchDomain  string
	searchSources []string
	searchMulti   []string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve chunks relevant to a query",
	Long: `Embeds the query and searches the vector index for the most similar
chunks. Results carry citation metadata (source file, page, domain)
and a similarity score in [0,1].

Use --source to restrict the search to specific files, --domain to
search a single subject partition, and --multi to merge results from
query reformulations.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().StringVar(&searchDomain, "domain", "", "restrict to one subject domain")
	searchCmd.Flags().StringSliceVar(&searchSources, "source", nil, "restrict to specific source files")
	searchCmd.Flags().StringSliceVar(&searchMulti, "multi", nil, "additional query reformulations to merge")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return errors.New("retriever not configured")
	}

	ctx := context.Background()
	base := domain.Query{
		Text:         args[0],
		Domain:       searchDomain,
		SourceFilter: searchSources,
		TopK:         searchTopK,
	}

	var hits []domain.RetrievalHit
	var err error
	if len(searchMulti) > 0 {
		queries := []domain.Query{base}
		for _, text := range searchMulti {
			q := base
			q.Text = text
			queries = append(queries, q)
		}
		hits, err = retriever.RetrieveMulti(ctx, queries, searchTopK)
	} else {
		hits, err = retriever.Retrieve(ctx, base)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputHitsJSON(cmd, hits)
	}
	return outputHitsTable(cmd, hits)
}

func outputHitsJSON(cmd *cobra.Command, hits []domain.RetrievalHit) error {
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputHitsTable(cmd *cobra.Command, hits []domain.RetrievalHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		md := hits[i].Chunk.Metadata
		title := md.Title
		if title == "" {
			title = hits[i].Chunk.DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, hits[i].Score)
		if md.SourcePath != "" {
			ref := md.SourcePath
			if md.Page != "" {
				ref += ", page " + md.Page
			}
			cmd.Printf("      Source: %s\n", ref)
		}
		if md.PrimaryDomain != "" {
			cmd.Printf("      Domain: %s\n", md.PrimaryDomain)
		}
		cmd.Printf("      %s\n", snippet(hits[i].Chunk.Content))
		cmd.Println()
	}

	return nil
}

// snippet trims chunk content to a single display line.
func snippet(content string) string {
	const maxLen = 160
	for i, r := range content {
		if r == '\n' {
			content = content[:i]
			break
		}
	}
	if len(content) > maxLen {
		content = content[:maxLen] + "..."
	}
	return content
}
