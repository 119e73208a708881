package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
)

func seeded(t *testing.T) *ChunkStore {
	t.Helper()
	s := NewChunkStore()
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "lecture9", Title: "Lecture 9"}))
	require.NoError(t, s.SaveChunks(ctx, []domain.Chunk{
		{ID: "b", DocumentID: "lecture9", Content: "second", Position: 1},
		{ID: "a", DocumentID: "lecture9", Content: "first", Position: 0},
	}))
	return s
}

func TestSaveDocument_Upsert(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, &domain.Document{ID: "lecture9", Title: "Revised"}))

	doc, err := s.GetDocument(ctx, "lecture9")
	require.NoError(t, err)
	assert.Equal(t, "Revised", doc.Title)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestGetDocument_NotFound(t *testing.T) {
	s := NewChunkStore()

	_, err := s.GetDocument(context.Background(), "absent")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSaveChunks_UpsertByID(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.SaveChunks(ctx, []domain.Chunk{
		{ID: "a", DocumentID: "lecture9", Content: "replaced", Position: 0},
	}))

	count, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	chunk, err := s.GetChunk(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "replaced", chunk.Content)
}

func TestGetChunks_OrderedByPosition(t *testing.T) {
	s := seeded(t)

	chunks, err := s.GetChunks(context.Background(), "lecture9")

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].ID)
	assert.Equal(t, "b", chunks[1].ID)
}

func TestScanChunks_InsertionOrder(t *testing.T) {
	s := seeded(t)

	var seen []string
	err := s.ScanChunks(context.Background(), func(c domain.Chunk) error {
		seen = append(seen, c.ID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, seen)
}

func TestScanChunks_StopsOnError(t *testing.T) {
	s := seeded(t)
	boom := errors.New("boom")

	calls := 0
	err := s.ScanChunks(context.Background(), func(domain.Chunk) error {
		calls++
		return boom
	})

	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, calls)
}
