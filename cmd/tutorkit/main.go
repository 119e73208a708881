// Command tutorkit is the composition root: it reads configuration,
// builds the adapters and core services, and hands control to the CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/config/file"
	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/embedding/ollama"
	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/embedding/openai"
	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/storage/memory"
	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/storage/sqlite"
	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/vector/domains"
	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/vector/filestore"
	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/vector/qdrant"
	"github.com/brightpath-ai/tutorkit/internal/adapters/driving/cli"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/core/services"
	"github.com/brightpath-ai/tutorkit/internal/parsers"
	"github.com/brightpath-ai/tutorkit/internal/parsers/pdf"
	"github.com/brightpath-ai/tutorkit/internal/parsers/plaintext"
	"github.com/brightpath-ai/tutorkit/internal/postprocessors"
)

// version is overridden at build time via
// -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore(os.Getenv("TUTORKIT_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir := cfg.GetString("data_dir")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tutorkit", "data")
	}

	chunkStore, err := buildChunkStore(cfg, dataDir)
	if err != nil {
		return fmt.Errorf("opening chunk store: %w", err)
	}
	defer chunkStore.Close()

	embedder, err := buildEmbedding(cfg)
	if err != nil {
		return fmt.Errorf("configuring embedding service: %w", err)
	}
	defer embedder.Close()

	vectorStore, err := buildVectorStore(cfg, dataDir, embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("configuring vector store: %w", err)
	}
	defer vectorStore.Close()

	pipeline, err := buildPipeline(cfg)
	if err != nil {
		return fmt.Errorf("configuring pipeline: %w", err)
	}

	parserRegistry := parsers.NewRegistry(
		plaintext.New(),
		pdf.New(),
	)

	var ingestOpts []services.IngestOption
	if n := cfg.GetInt("ingest.concurrency"); n > 0 {
		ingestOpts = append(ingestOpts, services.WithConcurrency(n))
	}
	ingestor := services.NewIngestService(
		parserRegistry, pipeline, chunkStore, vectorStore, embedder, ingestOpts...)

	var retrieveOpts []services.RetrieveOption
	if k := cfg.GetInt("retrieval.top_k"); k > 0 {
		retrieveOpts = append(retrieveOpts, services.WithTopK(k))
	}
	retriever := services.NewRetrieveService(
		chunkStore, vectorStore, embedder, retrieveOpts...)

	cli.SetServices(ingestor, retriever)
	cli.SetChunkStore(chunkStore)
	cli.SetVersion(version)
	return cli.Execute()
}

// buildChunkStore selects the metadata storage backend from config.
// The in-memory backend indexes nothing durably; it exists for
// throwaway sessions.
func buildChunkStore(cfg driven.ConfigStore, dataDir string) (driven.ChunkStore, error) {
	backend := cfg.GetString("storage.backend")
	switch backend {
	case "", "sqlite":
		return sqlite.NewStore(dataDir)

	case "memory":
		return memory.NewChunkStore(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// buildEmbedding selects the embedding provider from config.
func buildEmbedding(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	switch provider {
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.ollama.base_url"),
			Model:      cfg.GetString("embedding.ollama.model"),
			Dimensions: cfg.GetInt("embedding.ollama.dimensions"),
			RateLimit:  cfg.GetInt("embedding.ollama.rate_limit"),
		}), nil

	case "openai":
		apiKey := cfg.GetString("embedding.openai.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.GetString("embedding.openai.base_url"),
			Model:      cfg.GetString("embedding.openai.model"),
			Dimensions: cfg.GetInt("embedding.openai.dimensions"),
			BatchSize:  cfg.GetInt("embedding.openai.batch_size"),
			RateLimit:  cfg.GetInt("embedding.openai.rate_limit"),
		})

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// buildVectorStore selects the vector backend from config. File-backed
// backends reload any previously persisted index.
func buildVectorStore(cfg driven.ConfigStore, dataDir string, dimension int) (driven.VectorStore, error) {
	backend := cfg.GetString("vector.backend")
	switch backend {
	case "", "filestore":
		path := filepath.Join(dataDir, "index.vec")
		if _, err := os.Stat(path); err == nil {
			return filestore.Load(path)
		}
		return filestore.New(dimension, filestore.WithPath(path))

	case "domains":
		dir := filepath.Join(dataDir, "vectors")
		var opts []domains.Option
		if c := cfg.GetFloat("vector.min_confidence"); c > 0 {
			opts = append(opts, domains.WithMinConfidence(c))
		}
		if _, err := os.Stat(filepath.Join(dir, "manifest.json")); err == nil {
			return domains.Load(dir, opts...)
		}
		return domains.New(dimension, append(opts, domains.WithDir(dir))...)

	case "qdrant":
		return qdrant.New(qdrant.Config{
			URL:        cfg.GetString("vector.qdrant.url"),
			APIKey:     cfg.GetString("vector.qdrant.api_key"),
			Collection: cfg.GetString("vector.qdrant.collection"),
			Dimension:  dimension,
		})

	default:
		return nil, fmt.Errorf("unknown vector backend %q", backend)
	}
}

// buildPipeline assembles the chunker and classifier from config.
//
// Classifier rules live under classifier.rules.<domain> as keyword
// lists, with classifier.domains naming the domains to read.
func buildPipeline(cfg driven.ConfigStore) (driven.PostProcessorPipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	chunkerCfg := map[string]any{}
	if size := cfg.GetInt("chunker.chunk_size"); size > 0 {
		chunkerCfg["chunk_size"] = size
	}
	if overlap := cfg.GetInt("chunker.overlap"); overlap > 0 {
		chunkerCfg["overlap"] = overlap
	}
	chunker, err := registry.Build("chunker", chunkerCfg)
	if err != nil {
		return nil, err
	}

	rules := map[string]any{}
	for _, dom := range cfg.GetStringSlice("classifier.domains") {
		if keywords := cfg.GetStringSlice("classifier.rules." + dom); len(keywords) > 0 {
			rules[dom] = keywords
		}
	}
	classifierCfg := map[string]any{"rules": rules}
	if c := cfg.GetFloat("classifier.min_confidence"); c > 0 {
		classifierCfg["min_confidence"] = c
	}
	classifier, err := registry.Build("classifier", classifierCfg)
	if err != nil {
		return nil, err
	}

	return postprocessors.NewPipeline(chunker, classifier), nil
}
