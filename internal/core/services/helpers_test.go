package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/vectormath"
)

// fakeEmbedder produces deterministic 2-dimensional embeddings derived
// from the text, so identical texts always embed identically. Texts
// containing failOn fail the call; texts containing stallOn block until
// the context expires.
type fakeEmbedder struct {
	mu      sync.Mutex
	failOn  string
	stallOn string
	calls   int
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, fmt.Errorf("embedding backend unavailable")
	}
	if f.stallOn != "" && strings.Contains(text, f.stallOn) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	var sum float32
	for _, r := range text {
		sum += float32(r % 13)
	}
	return vectormath.Normalise([]float32{sum + 1, float32(len(text) + 1)}), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int   { return 2 }
func (f *fakeEmbedder) ModelName() string { return "fake-embed" }
func (f *fakeEmbedder) Close() error      { return nil }

// scriptedVectorStore replays canned hits and records how it was
// searched.
type scriptedVectorStore struct {
	responses [][]driven.VectorHit

	searchedK       []int
	searchedDomains []string
	searchedFilters [][]string
}

var _ driven.VectorStore = (*scriptedVectorStore)(nil)

func (s *scriptedVectorStore) Add(context.Context, []domain.Chunk) error { return nil }

func (s *scriptedVectorStore) Search(_ context.Context, _ []float32, k int, filter []string) ([]driven.VectorHit, error) {
	s.searchedK = append(s.searchedK, k)
	s.searchedDomains = append(s.searchedDomains, "")
	s.searchedFilters = append(s.searchedFilters, filter)
	return s.next(), nil
}

func (s *scriptedVectorStore) SearchDomain(_ context.Context, dom string, _ []float32, k int, filter []string) ([]driven.VectorHit, error) {
	s.searchedK = append(s.searchedK, k)
	s.searchedDomains = append(s.searchedDomains, dom)
	s.searchedFilters = append(s.searchedFilters, filter)
	return s.next(), nil
}

func (s *scriptedVectorStore) next() []driven.VectorHit {
	if len(s.responses) == 0 {
		return nil
	}
	hits := s.responses[0]
	s.responses = s.responses[1:]
	return hits
}

func (s *scriptedVectorStore) Count(context.Context) (int, error) { return 0, nil }
func (s *scriptedVectorStore) Persist(context.Context) error      { return nil }
func (s *scriptedVectorStore) Close() error                       { return nil }
