// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Parser: Extracts text from a source file
//   - ParserRegistry: Selects the appropriate parser for a file
//   - ChunkStore: Durable chunk/document metadata persistence
//   - VectorStore: Embedding index with filtered similarity search
//   - EmbeddingService: Generates vector embeddings
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PostProcessor beyond the chunker (e.g. the domain classifier)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or parser package
package driven
