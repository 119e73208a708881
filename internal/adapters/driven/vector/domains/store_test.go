package domains

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/vectormath"
)

func labelled(id, dom string, confidence float64, vec []float32) domain.Chunk {
	return domain.Chunk{
		ID:        id,
		Embedding: vectormath.Normalise(vec),
		Metadata: domain.ChunkMetadata{
			SourcePath:    "/notes/" + id + ".txt",
			PrimaryDomain: dom,
			Confidence:    confidence,
		},
	}
}

// seededStore routes chunks into biology, algebra and the default
// partition.
func seededStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(2, WithMinConfidence(0.4))
	require.NoError(t, err)

	err = s.Add(context.Background(), []domain.Chunk{
		labelled("bio1", "biology", 0.9, []float32{1, 0}),
		labelled("alg1", "algebra", 0.8, []float32{0, 1}),
		labelled("none", "", 0, []float32{1, 1}),
		labelled("weak", "history", 0.2, []float32{1, 2}),
	})
	require.NoError(t, err)
	return s
}

func TestAdd_RoutesByPrimaryDomain(t *testing.T) {
	s := seededStore(t)

	assert.ElementsMatch(t, []string{"biology", "algebra", DefaultPartition}, s.partitionNames())
}

func TestAdd_LowConfidenceFallsToDefault(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	// "weak" (confidence 0.2) and "none" both live in the default partition
	hits, err := s.SearchDomain(ctx, DefaultPartition, []float32{1, 1}, 10, nil)
	require.NoError(t, err)
	ids := hitIDs(hits)
	assert.ElementsMatch(t, []string{"none", "weak"}, ids)

	// The history partition was never created
	hits, err = s.SearchDomain(ctx, "history", []float32{1, 1}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchDomain_Single(t *testing.T) {
	s := seededStore(t)

	hits, err := s.SearchDomain(context.Background(), "biology", []float32{1, 0}, 10, nil)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "bio1", hits[0].ChunkID)
}

func TestSearchDomain_UnknownDomainIsEmptyNotError(t *testing.T) {
	s := seededStore(t)

	hits, err := s.SearchDomain(context.Background(), "chemistry", []float32{1, 0}, 10, nil)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchDomain_EmptyDomainSearchesAll(t *testing.T) {
	s := seededStore(t)

	all, err := s.Search(context.Background(), []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	viaEmpty, err := s.SearchDomain(context.Background(), "", []float32{1, 0}, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, all, viaEmpty)
}

func TestSearch_MergesAcrossPartitionsByScore(t *testing.T) {
	s := seededStore(t)

	hits, err := s.Search(context.Background(), []float32{1, 0}, 10, nil)

	require.NoError(t, err)
	require.Len(t, hits, 4)
	assert.Equal(t, "bio1", hits[0].ChunkID) // exact match first
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestSearch_TopKAppliesToMergedResult(t *testing.T) {
	s := seededStore(t)

	hits, err := s.Search(context.Background(), []float32{1, 0}, 2, nil)

	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearch_SourceFilterCrossesPartitions(t *testing.T) {
	s := seededStore(t)

	hits, err := s.Search(context.Background(), []float32{1, 0}, 10,
		[]string{"bio1.txt", "none.txt"})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bio1", "none"}, hitIDs(hits))
}

func TestCount_SumsPartitions(t *testing.T) {
	s := seededStore(t)

	count, err := s.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestPersistAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(2, WithDir(dir), WithMinConfidence(0.4))
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, []domain.Chunk{
		labelled("bio1", "biology", 0.9, []float32{1, 0}),
		labelled("alg1", "algebra", 0.8, []float32{0, 1}),
		labelled("none", "", 0, []float32{1, 1}),
	}))
	require.NoError(t, s.Persist(ctx))

	loaded, err := Load(dir)
	require.NoError(t, err)

	count, err := loaded.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	want, err := s.Search(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	got, err := loaded.Search(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Domain routing survives the round trip
	hits, err := loaded.SearchDomain(ctx, "biology", []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "bio1", hits[0].ChunkID)
}

func TestRouteDomain_SanitisesPartitionNames(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	require.NoError(t, s.Add(context.Background(), []domain.Chunk{
		labelled("x", "Cell Biology", 0.9, []float32{1, 0}),
	}))

	assert.Contains(t, s.partitionNames(), "cell-biology")
}

func TestAdd_MissingEmbedding(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)

	err = s.Add(context.Background(), []domain.Chunk{{ID: "x"}})

	assert.True(t, errors.Is(err, domain.ErrMissingEmbedding))
}

func hitIDs(hits []driven.VectorHit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	return ids
}
