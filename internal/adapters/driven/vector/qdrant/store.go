// Package qdrant provides a vector store backed by a Qdrant server
// over its REST API.
//
// Chunk IDs are mapped to deterministic point UUIDs, so re-adding a
// chunk overwrites the existing point — the same upsert semantics as
// the in-process backends. Source and domain filters are sent as
// payload filters, so Qdrant restricts the candidate set before
// scoring.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "tutorkit"
	DefaultTimeout    = 15 * time.Second
)

// pointNamespace seeds the deterministic chunk-ID-to-point-UUID mapping.
var pointNamespace = uuid.MustParse("8c9e6e1a-4b5d-4c1e-9a2f-3d7b1e5a0c42")

// Config holds connection details for a Qdrant vector store.
type Config struct {
	// URL is the Qdrant base URL (default: http://localhost:6333).
	URL string

	// APIKey is sent in the api-key header when set.
	APIKey string

	// Collection is the collection name (default: tutorkit).
	Collection string

	// Dimension is the embedding vector size (required).
	Dimension int

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a REST client to a Qdrant collection using cosine distance.
// The collection is created lazily on first use.
type Store struct {
	client     *http.Client
	url        string
	apiKey     string
	collection string
	dimension  int

	initMu sync.Mutex
	ready  bool
}

// New creates a Qdrant-backed store. No network traffic happens until
// the first Add or Search.
func New(cfg Config) (*Store, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", domain.ErrInvalidInput, cfg.Dimension)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}, nil
}

// ensureCollection creates the collection if missing. Qdrant answers
// 200 for an existing collection with the same schema. Only success is
// latched; a transient failure is retried on the next call.
func (s *Store) ensureCollection(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
	if err := s.do(ctx, http.MethodPut, url, body, nil); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// pointID derives the deterministic Qdrant point UUID for a chunk.
func pointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

// Add upserts points keyed by the deterministic point UUID.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	if err := s.ensureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		if chunks[i].Embedding == nil {
			return fmt.Errorf("%w: chunk %s", domain.ErrMissingEmbedding, chunks[i].ID)
		}
		if len(chunks[i].Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %s has %d, store wants %d",
				domain.ErrDimensionMismatch, chunks[i].ID, len(chunks[i].Embedding), s.dimension)
		}

		points[i] = map[string]any{
			"id":     pointID(chunks[i].ID),
			"vector": chunks[i].Embedding,
			"payload": map[string]any{
				"chunk_id": chunks[i].ID,
				"source":   filepath.Base(chunks[i].Metadata.SourcePath),
				"domain":   chunks[i].Metadata.PrimaryDomain,
			},
		}
	}

	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection)
	if err := s.do(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

// Search queries the collection, pushing the source filter down to
// Qdrant as a payload filter.
func (s *Store) Search(ctx context.Context, embedding []float32, k int, sourceFilter []string) ([]driven.VectorHit, error) {
	return s.search(ctx, "", embedding, k, sourceFilter)
}

// SearchDomain adds a domain payload condition to the filter.
func (s *Store) SearchDomain(ctx context.Context, dom string, embedding []float32, k int, sourceFilter []string) ([]driven.VectorHit, error) {
	return s.search(ctx, dom, embedding, k, sourceFilter)
}

func (s *Store) search(ctx context.Context, dom string, embedding []float32, k int, sourceFilter []string) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	req := map[string]any{
		"vector":       embedding,
		"limit":        k,
		"with_payload": true,
	}

	var must []map[string]any
	if sourceFilter != nil {
		basenames := make([]string, 0, len(sourceFilter))
		for _, src := range sourceFilter {
			basenames = append(basenames, filepath.Base(src))
		}
		must = append(must, map[string]any{
			"key":   "source",
			"match": map[string]any{"any": basenames},
		})
	}
	if dom != "" {
		must = append(must, map[string]any{
			"key":   "domain",
			"match": map[string]any{"value": dom},
		})
	}
	if len(must) > 0 {
		req["filter"] = map[string]any{"must": must}
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.do(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunkID, ok := r.Payload["chunk_id"].(string)
		if !ok {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: chunkID, Score: r.Score})
	}
	return hits, nil
}

// Count returns the exact number of points in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}

	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection)
	if err := s.do(ctx, http.MethodPost, url, map[string]any{"exact": true}, &resp); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return resp.Result.Count, nil
}

// Persist is a no-op: points are upserted with wait=true, so writes
// are already durable on the server.
func (s *Store) Persist(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// do performs one JSON request against the Qdrant API.
func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("qdrant %s %s: status %s", method, url, resp.Status)
		}
		return fmt.Errorf("qdrant %s %s: status %s: %s", method, url, resp.Status, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
