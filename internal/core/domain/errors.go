package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no parser accepts the file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding backend is not
	// configured or unreachable. Affected files are skipped, never
	// partially indexed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not
	// configured. Retrieval is disabled without it.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch indicates a vector's length does not match
	// the store's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrMissingEmbedding indicates an attempt to index a chunk that
	// has no embedding.
	ErrMissingEmbedding = errors.New("chunk has no embedding")
)
