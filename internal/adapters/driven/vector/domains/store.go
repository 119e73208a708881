// Package domains provides a domain-routed vector store: one physical
// partition per subject-matter label, plus a default partition for
// unclassified content.
//
// Domain labels are a router, not a filter. Add writes each chunk to
// exactly one partition, selected by its primary domain; a search for
// a domain touches only that partition, and an unscoped search fans
// out to all partitions and merges by score.
package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/vector/filestore"
	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/logger"
)

// DefaultPartition receives chunks without a confident domain label.
const DefaultPartition = "general"

// manifestName is the partition list file within the store directory.
const manifestName = "manifest.json"

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store routes chunks to per-domain filestore partitions.
type Store struct {
	mu            sync.RWMutex // guards the partitions map
	dimension     int
	dir           string // empty = in-memory only
	minConfidence float64
	partitions    map[string]*filestore.Store
}

// Option configures the store.
type Option func(*Store)

// WithDir sets the directory partition files are persisted under.
func WithDir(dir string) Option {
	return func(s *Store) {
		s.dir = dir
	}
}

// WithMinConfidence routes chunks whose classification confidence is
// below the threshold to the default partition.
func WithMinConfidence(c float64) Option {
	return func(s *Store) {
		if c >= 0 && c <= 1 {
			s.minConfidence = c
		}
	}
}

// New creates an empty domain-routed store.
func New(dimension int, opts ...Option) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", domain.ErrInvalidInput, dimension)
	}

	s := &Store{
		dimension:  dimension,
		partitions: make(map[string]*filestore.Store),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// routeDomain selects the partition for a chunk.
func (s *Store) routeDomain(chunk *domain.Chunk) string {
	md := chunk.Metadata
	if md.PrimaryDomain == "" || md.Confidence < s.minConfidence {
		return DefaultPartition
	}
	return sanitise(md.PrimaryDomain)
}

// sanitise keeps partition names safe to use as filenames.
func sanitise(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}

// partition returns the named partition, creating it when missing.
func (s *Store) partition(name string) (*filestore.Store, error) {
	s.mu.RLock()
	p, ok := s.partitions[name]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.partitions[name]; ok {
		return p, nil
	}

	var opts []filestore.Option
	if s.dir != "" {
		opts = append(opts, filestore.WithPath(s.partitionPath(name)))
	}
	p, err := filestore.New(s.dimension, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating partition %s: %w", name, err)
	}
	s.partitions[name] = p
	logger.Debug("Created vector partition %q", name)
	return p, nil
}

func (s *Store) partitionPath(name string) string {
	return filepath.Join(s.dir, name+".vec")
}

// Add routes each chunk to the partition named by its primary domain.
// Writes to one partition are serialised by the partition itself;
// different partitions are written concurrently.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if chunks[i].Embedding == nil {
			return fmt.Errorf("%w: chunk %s", domain.ErrMissingEmbedding, chunks[i].ID)
		}
	}

	grouped := make(map[string][]domain.Chunk)
	for i := range chunks {
		name := s.routeDomain(&chunks[i])
		grouped[name] = append(grouped[name], chunks[i])
	}

	g, ctx := errgroup.WithContext(ctx)
	for name, group := range grouped {
		p, err := s.partition(name)
		if err != nil {
			return err
		}
		group := group
		g.Go(func() error {
			return p.Add(ctx, group)
		})
	}
	return g.Wait()
}

// Search fans out to every partition and merges the hits by score.
func (s *Store) Search(ctx context.Context, embedding []float32, k int, sourceFilter []string) ([]driven.VectorHit, error) {
	return s.search(ctx, s.partitionNames(), embedding, k, sourceFilter)
}

// SearchDomain searches a single partition. An unknown domain has no
// indexed content, so the result is empty.
func (s *Store) SearchDomain(ctx context.Context, dom string, embedding []float32, k int, sourceFilter []string) ([]driven.VectorHit, error) {
	if dom == "" {
		return s.Search(ctx, embedding, k, sourceFilter)
	}

	name := sanitise(dom)
	s.mu.RLock()
	_, ok := s.partitions[name]
	s.mu.RUnlock()
	if !ok {
		logger.Debug("No partition for domain %q", dom)
		return []driven.VectorHit{}, nil
	}

	return s.search(ctx, []string{name}, embedding, k, sourceFilter)
}

// search queries the named partitions concurrently and merges by score.
// A chunk lives in exactly one partition, so no deduplication is needed.
func (s *Store) search(ctx context.Context, names []string, embedding []float32, k int, sourceFilter []string) ([]driven.VectorHit, error) {
	if k <= 0 || len(names) == 0 {
		return []driven.VectorHit{}, nil
	}

	// Deterministic partition order makes equal-score merges stable
	sort.Strings(names)

	perPartition := make([][]driven.VectorHit, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		s.mu.RLock()
		p := s.partitions[name]
		s.mu.RUnlock()
		if p == nil {
			continue
		}
		i := i
		g.Go(func() error {
			hits, err := p.Search(ctx, embedding, k, sourceFilter)
			if err != nil {
				return fmt.Errorf("partition %s: %w", names[i], err)
			}
			perPartition[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []driven.VectorHit
	for _, hits := range perPartition {
		merged = append(merged, hits...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if k > len(merged) {
		k = len(merged)
	}
	return merged[:k], nil
}

func (s *Store) partitionNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.partitions))
	for name := range s.partitions {
		names = append(names, name)
	}
	return names
}

// Count returns the number of indexed chunks across all partitions.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, p := range s.partitions {
		n, err := p.Count(ctx)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// manifest records the partition layout for Load.
type manifest struct {
	Dimension  int      `json:"dimension"`
	Partitions []string `json:"partitions"`
}

// Persist writes every partition file plus the manifest. Partitions
// are flushed concurrently; each partition file is written serially by
// its own store.
func (s *Store) Persist(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	names := s.partitionNames()
	sort.Strings(names)

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		s.mu.RLock()
		p := s.partitions[name]
		s.mu.RUnlock()
		g.Go(func() error {
			return p.Persist(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m := manifest{Dimension: s.dimension, Partitions: names}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, manifestName), data, 0600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Load reconstructs a previously persisted domain-routed store.
func Load(dir string, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	s, err := New(m.Dimension, append(opts, WithDir(dir))...)
	if err != nil {
		return nil, err
	}

	for _, name := range m.Partitions {
		p, err := filestore.Load(s.partitionPath(name))
		if err != nil {
			return nil, fmt.Errorf("loading partition %s: %w", name, err)
		}
		s.partitions[name] = p
	}
	return s, nil
}

// Close releases resources.
func (s *Store) Close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.partitions {
		if err := p.Close(); err != nil {
			return err
		}
	}
	return nil
}
