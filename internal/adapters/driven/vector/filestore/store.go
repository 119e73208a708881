// Package filestore provides a file-backed vector store using
// brute-force cosine similarity over L2-normalised embeddings.
//
// The index lives in memory; Persist writes it to a single file that
// Load reads back. Source filtering is pre-filtering: the candidate
// set is restricted via a per-source index before any similarity is
// computed, so a filtered search scores only the chunks belonging to
// the requested sources.
package filestore

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/vectormath"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// entry is one indexed chunk.
type entry struct {
	id        string
	source    string // basename of the chunk's source path
	embedding []float32
	seq       int // insertion sequence, for stable tie-breaks
}

// Store is a file-backed brute-force vector index.
type Store struct {
	mu        sync.RWMutex
	dimension int
	path      string // empty = in-memory only, Persist is a no-op

	entries  map[string]*entry
	order    []string            // chunk IDs in insertion order
	bySource map[string][]string // source basename -> chunk IDs
	nextSeq  int

	// scanHook, when set, receives the number of candidates scored by
	// each Search call. Used by tests to verify the pre-filter cost.
	scanHook func(scored int)
}

// Option configures the store.
type Option func(*Store)

// WithPath sets the file Persist writes to.
func WithPath(path string) Option {
	return func(s *Store) {
		s.path = path
	}
}

// New creates an empty store for vectors of the given dimension.
func New(dimension int, opts ...Option) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", domain.ErrInvalidInput, dimension)
	}

	s := &Store{
		dimension: dimension,
		entries:   make(map[string]*entry),
		bySource:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetScanHook installs a callback receiving the candidate count scored
// by each search. Pass nil to remove it.
func (s *Store) SetScanHook(fn func(scored int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanHook = fn
}

// Dimension returns the configured vector size.
func (s *Store) Dimension() int {
	return s.dimension
}

// Add inserts or overwrites embeddings by chunk ID.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range chunks {
		if err := s.addLocked(&chunks[i]); err != nil {
			return err
		}
	}
	return nil
}

// addLocked upserts a single chunk. Caller must hold the write lock.
func (s *Store) addLocked(chunk *domain.Chunk) error {
	if chunk.Embedding == nil {
		return fmt.Errorf("%w: chunk %s", domain.ErrMissingEmbedding, chunk.ID)
	}
	if len(chunk.Embedding) != s.dimension {
		return fmt.Errorf("%w: chunk %s has %d, store wants %d",
			domain.ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), s.dimension)
	}

	source := filepath.Base(chunk.Metadata.SourcePath)

	if existing, ok := s.entries[chunk.ID]; ok {
		// Upsert: replace in place, keeping the original insertion slot
		if existing.source != source {
			s.removeFromSource(existing.source, chunk.ID)
			s.bySource[source] = append(s.bySource[source], chunk.ID)
			existing.source = source
		}
		existing.embedding = chunk.Embedding
		return nil
	}

	s.entries[chunk.ID] = &entry{
		id:        chunk.ID,
		source:    source,
		embedding: chunk.Embedding,
		seq:       s.nextSeq,
	}
	s.nextSeq++
	s.order = append(s.order, chunk.ID)
	s.bySource[source] = append(s.bySource[source], chunk.ID)
	return nil
}

func (s *Store) removeFromSource(source, chunkID string) {
	ids := s.bySource[source]
	for i, id := range ids {
		if id == chunkID {
			s.bySource[source] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.bySource[source]) == 0 {
		delete(s.bySource, source)
	}
}

// Search returns up to k hits ordered descending by cosine similarity.
// With a source filter, only the chunks of the named sources are ever
// scored.
func (s *Store) Search(ctx context.Context, embedding []float32, k int, sourceFilter []string) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, store wants %d",
			domain.ErrDimensionMismatch, len(embedding), s.dimension)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.candidatesLocked(sourceFilter)
	if s.scanHook != nil {
		s.scanHook(len(candidates))
	}
	if len(candidates) == 0 {
		// Empty filtered subset is a valid result, not an error
		return []driven.VectorHit{}, nil
	}

	type scored struct {
		hit driven.VectorHit
		seq int
	}
	results := make([]scored, 0, len(candidates))
	for _, e := range candidates {
		results = append(results, scored{
			hit: driven.VectorHit{ChunkID: e.id, Score: vectormath.Dot(e.embedding, embedding)},
			seq: e.seq,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].hit.Score != results[j].hit.Score {
			return results[i].hit.Score > results[j].hit.Score
		}
		return results[i].seq < results[j].seq
	})

	if k > len(results) {
		k = len(results)
	}
	hits := make([]driven.VectorHit, k)
	for i := 0; i < k; i++ {
		hits[i] = results[i].hit
	}
	return hits, nil
}

// SearchDomain ignores the domain: a flat store has no partitions.
func (s *Store) SearchDomain(ctx context.Context, _ string, embedding []float32, k int, sourceFilter []string) ([]driven.VectorHit, error) {
	return s.Search(ctx, embedding, k, sourceFilter)
}

// candidatesLocked resolves the candidate set for a search.
// Caller must hold at least the read lock.
func (s *Store) candidatesLocked(sourceFilter []string) []*entry {
	if sourceFilter == nil {
		candidates := make([]*entry, 0, len(s.order))
		for _, id := range s.order {
			candidates = append(candidates, s.entries[id])
		}
		return candidates
	}

	var candidates []*entry
	seen := make(map[string]bool, len(sourceFilter))
	for _, source := range sourceFilter {
		source = filepath.Base(source)
		if seen[source] {
			continue
		}
		seen[source] = true
		for _, id := range s.bySource[source] {
			candidates = append(candidates, s.entries[id])
		}
	}

	// Restore global insertion order across sources
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].seq < candidates[j].seq
	})
	return candidates
}

// Count returns the number of indexed chunks.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// fileHeader is the first line of the persisted index.
type fileHeader struct {
	Dimension int `json:"dimension"`
	Count     int `json:"count"`
}

// fileEntry is one persisted chunk, one JSON object per line.
type fileEntry struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Vector string `json:"vector"` // base64 little-endian float32
}

// Persist writes the whole index to the configured path, replacing any
// previous file atomically. A store without a path persists nothing.
func (s *Store) Persist(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating index file: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	header := fileHeader{Dimension: s.dimension, Count: len(s.order)}
	if err := enc.Encode(header); err != nil {
		f.Close()
		return fmt.Errorf("writing index header: %w", err)
	}

	for _, id := range s.order {
		e := s.entries[id]
		line := fileEntry{
			ID:     e.id,
			Source: e.source,
			Vector: base64.StdEncoding.EncodeToString(float32SliceToBytes(e.embedding)),
		}
		if err := enc.Encode(line); err != nil {
			f.Close()
			return fmt.Errorf("writing index entry: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing index: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing index file: %w", err)
	}
	return nil
}

// Load reconstructs a previously persisted store from path.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 64<<20)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading index header: %w", err)
		}
		return nil, fmt.Errorf("index file %s is empty", path)
	}

	var header fileHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, fmt.Errorf("parsing index header: %w", err)
	}

	s, err := New(header.Dimension, WithPath(path))
	if err != nil {
		return nil, err
	}

	for scanner.Scan() {
		var line fileEntry
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("parsing index entry: %w", err)
		}
		blob, err := base64.StdEncoding.DecodeString(line.Vector)
		if err != nil {
			return nil, fmt.Errorf("decoding vector for %s: %w", line.ID, err)
		}
		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != header.Dimension {
			return nil, fmt.Errorf("%w: entry %s has %d, header says %d",
				domain.ErrDimensionMismatch, line.ID, len(embedding), header.Dimension)
		}

		s.entries[line.ID] = &entry{
			id:        line.ID,
			source:    line.Source,
			embedding: embedding,
			seq:       s.nextSeq,
		}
		s.nextSeq++
		s.order = append(s.order, line.ID)
		s.bySource[line.Source] = append(s.bySource[line.Source], line.ID)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}

	return s, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
