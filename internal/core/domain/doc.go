// Package domain defines the core business entities for Tutorkit.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A parsed study document
//   - Chunk: The unit of embedding and retrieval
//   - Query: A retrieval request
//   - RetrievalHit: A scored chunk returned by the retriever
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
