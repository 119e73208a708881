// Package sqlite provides the SQLite-backed chunk store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. It persists
// documents and their chunks, including chunk embeddings, so the vector
// index can be rebuilt entirely from this store.
//
// # Schema
//
// The database schema is managed through versioned migrations embedded
// from the migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.tutorkit/data/library.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
