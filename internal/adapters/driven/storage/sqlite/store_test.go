package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDocument() *domain.Document {
	return &domain.Document{
		ID:         "lecture9",
		SourcePath: "/notes/lecture9.txt",
		Title:      "Lecture 9",
		Domain:     "biology",
		Content:    "the krebs cycle",
		Pages: []domain.PageSpan{
			{Label: "1", Start: 0, End: 15},
		},
	}
}

func testChunks(docID string) []domain.Chunk {
	return []domain.Chunk{
		{
			ID:         domain.NewChunkID(docID, 0, "the krebs"),
			DocumentID: docID,
			Content:    "the krebs",
			Position:   0,
			Embedding:  []float32{0.1, 0.2, 0.3},
			Metadata: domain.ChunkMetadata{
				SourcePath:    "/notes/lecture9.txt",
				Title:         "Lecture 9",
				Page:          "1",
				PrimaryDomain: "biology",
				Confidence:    0.9,
			},
		},
		{
			ID:         domain.NewChunkID(docID, 1, "cycle"),
			DocumentID: docID,
			Content:    "cycle",
			Position:   1,
			Embedding:  []float32{0.4, 0.5, 0.6},
			Metadata: domain.ChunkMetadata{
				SourcePath: "/notes/lecture9.txt",
				Title:      "Lecture 9",
				Page:       "1",
			},
		},
	}
}

func TestSaveDocument_AndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := testDocument()

	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "lecture9")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.SourcePath, got.SourcePath)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Domain, got.Domain)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, doc.Pages, got.Pages)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSaveDocument_UpsertPreservesCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument()
	require.NoError(t, store.SaveDocument(ctx, doc))
	created := doc.CreatedAt

	time.Sleep(10 * time.Millisecond)
	doc.Title = "Lecture 9 (revised)"
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "lecture9")
	require.NoError(t, err)
	assert.Equal(t, "Lecture 9 (revised)", got.Title)
	assert.WithinDuration(t, created, got.CreatedAt, time.Second)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestGetDocument_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument(context.Background(), "absent")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSaveChunks_AndGetChunk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDocument()))

	chunks := testChunks("lecture9")
	require.NoError(t, store.SaveChunks(ctx, chunks))

	got, err := store.GetChunk(ctx, chunks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, chunks[0].Content, got.Content)
	assert.Equal(t, chunks[0].Embedding, got.Embedding)
	assert.Equal(t, chunks[0].Metadata, got.Metadata)
}

func TestSaveChunks_UpsertByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDocument()))

	chunks := testChunks("lecture9")
	require.NoError(t, store.SaveChunks(ctx, chunks))

	// Re-save with modified content under the same IDs
	chunks[0].Embedding = []float32{0.9, 0.9, 0.9}
	require.NoError(t, store.SaveChunks(ctx, chunks))

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := store.GetChunk(ctx, chunks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.9, 0.9, 0.9}, got.Embedding)
}

func TestGetChunk_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetChunk(context.Background(), "absent")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetChunks_OrderedByPosition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDocument()))

	chunks := testChunks("lecture9")
	// Save out of order
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{chunks[1], chunks[0]}))

	got, err := store.GetChunks(ctx, "lecture9")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, 1, got[1].Position)
}

func TestScanChunks_VisitsEveryChunk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDocument()))
	chunks := testChunks("lecture9")
	require.NoError(t, store.SaveChunks(ctx, chunks))

	var seen []string
	err := store.ScanChunks(ctx, func(c domain.Chunk) error {
		seen = append(seen, c.ID)
		return nil
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{chunks[0].ID, chunks[1].ID}, seen)
}

func TestScanChunks_StopsOnCallbackError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, testDocument()))
	require.NoError(t, store.SaveChunks(ctx, testChunks("lecture9")))

	boom := errors.New("boom")
	calls := 0
	err := store.ScanChunks(ctx, func(domain.Chunk) error {
		calls++
		return boom
	})

	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, calls)
}

func TestCountChunks_Empty(t *testing.T) {
	store := newTestStore(t)

	count, err := store.CountChunks(context.Background())

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveDocument(ctx, testDocument()))
	require.NoError(t, store.SaveChunks(ctx, testChunks("lecture9")))
	require.NoError(t, store.Close())

	// Reopening runs migrations idempotently and finds the data
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
