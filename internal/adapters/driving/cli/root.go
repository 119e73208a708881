// Package cli provides the command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/brightpath-ai/tutorkit/internal/core/ports/driving"
	"github.com/brightpath-ai/tutorkit/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by the composition root before Execute.
var (
	ingestor  driving.Ingestor
	retriever driving.Retriever
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tutorkit",
	Short: "Index study material and retrieve grounded evidence",
	Long: `Tutorkit ingests study documents (PDF, Markdown, plain text) into a
local library and answers similarity queries against it, returning
chunks with citation metadata for a tutoring assistant to ground its
answers on.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the driving services. Call before Execute.
func SetServices(ing driving.Ingestor, ret driving.Retriever) {
	ingestor = ing
	retriever = ret
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
