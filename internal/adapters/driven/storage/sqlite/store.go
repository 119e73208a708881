package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

// Store is the SQLite-backed chunk store. It holds documents, chunks
// and chunk embeddings; keeping the embeddings here makes the store
// the source of truth a lost vector index can be rebuilt from.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) library.db under dataDir and applies any
// pending migrations. An empty dataDir defaults to ~/.tutorkit/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tutorkit", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "library.db")

	// WAL keeps readers unblocked while an ingestion batch writes
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every *.up.sql file newer than the recorded schema
// version, in filename order. Each migration records its own version
// in schema_migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var pending []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			pending = append(pending, entry.Name())
		}
	}
	sort.Strings(pending)

	for _, name := range pending {
		// Filenames are NNN_description.up.sql
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(script)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
	}
	return nil
}

// SaveDocument stores or updates a document, preserving CreatedAt on
// update.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	pagesJSON, err := json.Marshal(doc.Pages)
	if err != nil {
		return fmt.Errorf("marshalling pages: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_path, title, domain, content, pages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path = excluded.source_path,
			title = excluded.title,
			domain = excluded.domain,
			content = excluded.content,
			pages = excluded.pages,
			updated_at = excluded.updated_at
	`, doc.ID, doc.SourcePath, doc.Title, doc.Domain, doc.Content,
		string(pagesJSON), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks upserts chunks by ID in a single transaction, so a
// re-ingested file either fully replaces its chunks or not at all.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			position = excluded.position,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Content,
			chunk.Position, embeddingToBlob(chunk.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_path, title, domain, content, pages, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, content, position, embedding, metadata
		FROM chunks WHERE id = ?
	`, id)
	return scanChunk(row)
}

// GetChunks retrieves all chunks for a document, ordered by position.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, position, embedding, metadata
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ListDocuments returns all stored documents ordered by ID.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_path, title, domain, content, pages, created_at, updated_at
		FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// ScanChunks streams every stored chunk to fn in rowid order, which is
// insertion order. Iteration stops on the first error returned by fn.
func (s *Store) ScanChunks(ctx context.Context, fn func(domain.Chunk) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, position, embedding, metadata
		FROM chunks ORDER BY rowid
	`)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return err
		}
		if err := fn(*chunk); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating chunks: %w", err)
	}
	return nil
}

// CountChunks returns the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows so the scan helpers
// serve single-row and multi-row queries alike.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var pagesJSON string

	if err := row.Scan(&doc.ID, &doc.SourcePath, &doc.Title, &doc.Domain,
		&doc.Content, &pagesJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if pagesJSON != "" {
		if err := json.Unmarshal([]byte(pagesJSON), &doc.Pages); err != nil {
			return nil, fmt.Errorf("unmarshalling pages: %w", err)
		}
	}
	return &doc, nil
}

func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var blob []byte
	var metadataJSON string

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
		&chunk.Position, &blob, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Embedding = blobToEmbedding(blob)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
	}
	return &chunk, nil
}

// embeddingToBlob packs an embedding as little-endian float32 bytes.
func embeddingToBlob(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	blob := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(f))
	}
	return blob
}

// blobToEmbedding unpacks a stored embedding. A nil blob means the
// chunk was saved before it was embedded.
func blobToEmbedding(blob []byte) []float32 {
	if len(blob) == 0 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
