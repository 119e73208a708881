package domain

// Query describes a retrieval request.
type Query struct {
	// Text is the free-text query.
	Text string

	// Domain restricts the search to a single vector store partition
	// when the domain-routed backend is in use. Empty means the default
	// behaviour of the backend (single index, or all-partition merge).
	Domain string

	// SourceFilter restricts the search universe to chunks whose
	// source path basename matches one of the listed filenames.
	// Nil means no restriction.
	SourceFilter []string

	// TopK overrides the retriever's configured result count for this
	// call only. Zero means use the configured default.
	TopK int
}

// RetrievalHit is a scored pairing of a chunk with its similarity to
// the query embedding. Hits are ordered descending by score.
type RetrievalHit struct {
	// Chunk is the matched chunk, hydrated with text and metadata.
	Chunk Chunk

	// Score is the similarity in [0,1].
	Score float64
}

// NormaliseScore maps a raw cosine similarity in [-1,1] onto [0,1],
// clamping floating-point spill on either side.
func NormaliseScore(cosine float64) float64 {
	score := (1 + cosine) / 2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
