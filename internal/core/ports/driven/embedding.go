package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations are expected to be lazy: construction must not touch
// the network, so process startup stays non-blocking. The first Embed
// or EmbedBatch call pays any model or connection setup cost.
//
// All returned vectors are L2-normalised, so the vector stores can use
// the inner product as cosine similarity.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a normalised embedding for a single query text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates normalised embeddings for multiple texts.
	// Requests are issued in batches of the configured size. A failure
	// fails the whole batch; callers treat that as a per-file failure.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// This must match the vector store configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
