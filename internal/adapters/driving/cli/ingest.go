package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/brightpath-ai/tutorkit/internal/core/ports/driving"
	"github.com/brightpath-ai/tutorkit/internal/logger"
)

var (
	ingestWatch  bool
	ingestDomain string

	// watchSettleDelay coalesces editor write bursts into one ingestion.
	watchSettleDelay = 500 * time.Millisecond
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Index study documents",
	Long: `Parses, chunks, embeds and indexes the given files. Directories are
expanded to the files they contain (non-recursively).

Each file is processed independently: a file that fails to parse or
embed is reported and skipped, the rest of the batch still completes.
Re-ingesting a file updates its records in place.

With --watch, directories are monitored and modified files are
re-ingested automatically until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest files as they change")
	ingestCmd.Flags().StringVar(&ingestDomain, "domain", "", "pre-assign a subject domain to all ingested documents")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingestor not configured")
	}

	ctx := context.Background()

	paths, dirs, err := expandPaths(args)
	if err != nil {
		return err
	}

	opts := driving.IngestOptions{DomainLabel: ingestDomain}
	result, err := ingestor.Ingest(ctx, paths, opts)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printIngestionResult(cmd, result)

	if !ingestWatch {
		return nil
	}
	if len(dirs) == 0 {
		// Watch the parent directories of the given files
		seen := make(map[string]bool)
		for _, p := range paths {
			dir := filepath.Dir(p)
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	return watchAndIngest(ctx, cmd, dirs, opts)
}

// expandPaths splits the arguments into ingestable files and watchable
// directories, expanding each directory one level deep.
func expandPaths(args []string) (files, dirs []string, err error) {
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		dirs = append(dirs, arg)
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				files = append(files, filepath.Join(arg, entry.Name()))
			}
		}
	}
	return files, dirs, nil
}

// watchAndIngest re-ingests files as they are created or modified,
// until the process is interrupted.
func watchAndIngest(ctx context.Context, cmd *cobra.Command, dirs []string, opts driving.IngestOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		logger.Info("Watching %s", dir)
	}
	cmd.Println("Watching for changes. Press Ctrl+C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	// Pending paths settle briefly so editor write bursts coalesce
	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(watchSettleDelay)
			} else {
				timer.Reset(watchSettleDelay)
			}
			timerC = timer.C

		case <-timerC:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			pending = make(map[string]bool)
			timerC = nil

			result, err := ingestor.Ingest(ctx, paths, opts)
			if err != nil {
				logger.Warn("Re-ingestion failed: %v", err)
				continue
			}
			printIngestionResult(cmd, result)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case <-sig:
			cmd.Println("Stopping watch.")
			return nil
		}
	}
}

func printIngestionResult(cmd *cobra.Command, result *driving.IngestionResult) {
	cmd.Printf("Indexed %d document(s), %d chunk(s)\n", result.Documents, result.Chunks)
	for _, skipped := range result.Skipped {
		cmd.Printf("  skipped %s: %s\n", skipped.Path, skipped.Reason)
	}
}
