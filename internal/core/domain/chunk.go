package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ChunkIDPrefixLen is the number of leading content bytes mixed into
// the chunk identifier. Long enough to be content-sensitive, short
// enough to keep hashing cheap.
const ChunkIDPrefixLen = 100

// Chunk is a bounded contiguous span of a document's text, the unit
// of embedding and retrieval.
type Chunk struct {
	// ID is the deterministic identifier, see NewChunkID.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the L2-normalised vector representation.
	// Nil until the embedding client has processed the chunk; chunks
	// without embeddings are never added to a vector store.
	Embedding []float32

	// Metadata carries the citation and routing fields.
	Metadata ChunkMetadata
}

// ChunkMetadata holds the per-chunk fields consumers use for citations
// and that the domain-routed vector store uses for partitioning.
type ChunkMetadata struct {
	// SourcePath is the file the chunk originated from.
	SourcePath string `json:"source_path"`

	// Title is the owning document's title.
	Title string `json:"title,omitempty"`

	// Page is the page or section label, when known.
	Page string `json:"page,omitempty"`

	// PrimaryDomain is the subject-matter label used for partition
	// routing. Empty means unclassified.
	PrimaryDomain string `json:"primary_domain,omitempty"`

	// SecondaryDomains holds up to two runner-up labels.
	SecondaryDomains []string `json:"secondary_domains,omitempty"`

	// DomainTags are free-form classification tags.
	DomainTags []string `json:"domain_tags,omitempty"`

	// Confidence is the classifier's confidence in PrimaryDomain, 0-1.
	Confidence float64 `json:"confidence,omitempty"`
}

// NewChunkID derives the deterministic chunk identifier from the owning
// document ID, the chunk's ordinal position, and a fixed-length prefix
// of its content. Identical input always yields the same ID, which is
// what makes re-ingestion an upsert instead of a duplicate insert.
func NewChunkID(docID string, position int, content string) string {
	prefix := content
	if len(prefix) > ChunkIDPrefixLen {
		prefix = prefix[:ChunkIDPrefixLen]
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%s", docID, position, prefix))
	return hex.EncodeToString(sum[:])
}
