package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/storage/memory"
	"github.com/brightpath-ai/tutorkit/internal/adapters/driven/vector/filestore"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driving"
	"github.com/brightpath-ai/tutorkit/internal/parsers"
	"github.com/brightpath-ai/tutorkit/internal/parsers/plaintext"
	"github.com/brightpath-ai/tutorkit/internal/postprocessors"
	"github.com/brightpath-ai/tutorkit/internal/postprocessors/chunker"
)

type ingestFixture struct {
	service     *IngestService
	chunkStore  *memory.ChunkStore
	vectorStore *filestore.Store
	embedder    *fakeEmbedder
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	vs, err := filestore.New(2)
	require.NoError(t, err)

	f := &ingestFixture{
		chunkStore:  memory.NewChunkStore(),
		vectorStore: vs,
		embedder:    &fakeEmbedder{},
	}
	f.service = NewIngestService(
		parsers.NewRegistry(plaintext.New()),
		postprocessors.NewPipeline(chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(10))),
		f.chunkStore,
		f.vectorStore,
		f.embedder,
	)
	return f
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestIngest_IndexesFiles(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	paths := []string{
		writeFile(t, dir, "lecture9.txt", "The Krebs cycle oxidises acetyl-CoA to carbon dioxide."),
		writeFile(t, dir, "lecture10.txt", "Quadratic equations have at most two real roots."),
	}

	result, err := f.service.Ingest(ctx, paths, driving.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Documents)
	assert.Positive(t, result.Chunks)
	assert.Empty(t, result.Skipped)

	stored, err := f.chunkStore.CountChunks(ctx)
	require.NoError(t, err)
	indexed, err := f.vectorStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Chunks, stored)
	assert.Equal(t, stored, indexed)

	doc, err := f.chunkStore.GetDocument(ctx, "lecture9")
	require.NoError(t, err)
	assert.Equal(t, paths[0], doc.SourcePath)
}

func TestIngest_ReingestionUpdatesInPlace(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	path := writeFile(t, dir, "notes.txt", "Photosynthesis converts light energy into chemical energy.")

	first, err := f.service.Ingest(ctx, []string{path}, driving.IngestOptions{})
	require.NoError(t, err)
	chunksAfterFirst, err := f.chunkStore.GetChunks(ctx, "notes")
	require.NoError(t, err)

	second, err := f.service.Ingest(ctx, []string{path}, driving.IngestOptions{})
	require.NoError(t, err)
	chunksAfterSecond, err := f.chunkStore.GetChunks(ctx, "notes")
	require.NoError(t, err)

	// Same content, same deterministic IDs: nothing duplicated anywhere
	assert.Equal(t, first.Chunks, second.Chunks)
	require.Equal(t, len(chunksAfterFirst), len(chunksAfterSecond))
	for i := range chunksAfterFirst {
		assert.Equal(t, chunksAfterFirst[i].ID, chunksAfterSecond[i].ID)
	}

	indexed, err := f.vectorStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Chunks, indexed)
}

func TestIngest_PerFileIsolation(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	good := writeFile(t, dir, "good.txt", "Mitochondria are the site of aerobic respiration.")
	missing := filepath.Join(dir, "absent.txt")

	result, err := f.service.Ingest(ctx, []string{good, missing}, driving.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Documents)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, missing, result.Skipped[0].Path)
	assert.NotEmpty(t, result.Skipped[0].Reason)

	// The good file made it in despite the failure
	_, err = f.chunkStore.GetDocument(ctx, "good")
	assert.NoError(t, err)
}

func TestIngest_EmbeddingFailureSkipsFile(t *testing.T) {
	f := newIngestFixture(t)
	f.embedder.failOn = "entropy"
	dir := t.TempDir()
	ctx := context.Background()

	good := writeFile(t, dir, "ok.txt", "Ionic bonds form between oppositely charged ions.")
	bad := writeFile(t, dir, "bad.txt", "The entropy of an isolated system never decreases.")

	result, err := f.service.Ingest(ctx, []string{good, bad}, driving.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Documents)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, bad, result.Skipped[0].Path)
	assert.Contains(t, result.Skipped[0].Reason, "embedding")

	// Nothing from the failed file leaked into the stores
	_, err = f.chunkStore.GetDocument(ctx, "bad")
	assert.Error(t, err)
}

func TestIngest_FileTimeoutSkipsFile(t *testing.T) {
	f := newIngestFixture(t)
	f.embedder.stallOn = "osmosis"
	dir := t.TempDir()
	ctx := context.Background()

	fast := writeFile(t, dir, "fast.txt", "Diffusion moves solutes down a concentration gradient.")
	slow := writeFile(t, dir, "slow.txt", "Water crosses the membrane by osmosis.")

	service := NewIngestService(
		parsers.NewRegistry(plaintext.New()),
		postprocessors.NewPipeline(chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(10))),
		f.chunkStore,
		f.vectorStore,
		f.embedder,
		WithFileTimeout(20*time.Millisecond),
	)

	result, err := service.Ingest(ctx, []string{fast, slow}, driving.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Documents)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, slow, result.Skipped[0].Path)
	assert.Contains(t, result.Skipped[0].Reason, "deadline")

	// The timed-out file left nothing behind: the stores hold exactly
	// the fast file's records.
	_, err = f.chunkStore.GetDocument(ctx, "slow")
	assert.Error(t, err)
	stored, err := f.chunkStore.CountChunks(ctx)
	require.NoError(t, err)
	indexed, err := f.vectorStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Chunks, stored)
	assert.Equal(t, stored, indexed)
}

func TestIngest_EmptyFileIsSkipped(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()

	empty := writeFile(t, dir, "empty.txt", "")

	result, err := f.service.Ingest(context.Background(), []string{empty}, driving.IngestOptions{})

	require.NoError(t, err)
	assert.Zero(t, result.Documents)
	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0].Reason, "no content")
}

func TestIngest_DomainLabelAppliesToBatch(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	path := writeFile(t, dir, "cells.txt", "Eukaryotic cells contain membrane-bound organelles.")

	_, err := f.service.Ingest(ctx, []string{path}, driving.IngestOptions{DomainLabel: "biology"})
	require.NoError(t, err)

	doc, err := f.chunkStore.GetDocument(ctx, "cells")
	require.NoError(t, err)
	assert.Equal(t, "biology", doc.Domain)

	chunks, err := f.chunkStore.GetChunks(ctx, "cells")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, "biology", c.Metadata.PrimaryDomain)
	}
}

func TestRebuild_RestoresIndexFromChunkStore(t *testing.T) {
	f := newIngestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	path := writeFile(t, dir, "lecture9.txt", "Glycolysis splits glucose into two pyruvate molecules.")
	result, err := f.service.Ingest(ctx, []string{path}, driving.IngestOptions{})
	require.NoError(t, err)

	query, err := f.embedder.Embed(ctx, "glucose")
	require.NoError(t, err)
	want, err := f.vectorStore.Search(ctx, query, 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, want)

	// A fresh, empty index rebuilt from the chunk store answers the same
	fresh, err := filestore.New(2)
	require.NoError(t, err)
	rebuilt := NewIngestService(
		parsers.NewRegistry(plaintext.New()),
		postprocessors.NewPipeline(chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(10))),
		f.chunkStore,
		fresh,
		f.embedder,
	)

	count, err := rebuilt.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Chunks, count)

	got, err := fresh.Search(ctx, query, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRebuild_EmptyStore(t *testing.T) {
	f := newIngestFixture(t)

	count, err := f.service.Rebuild(context.Background())

	require.NoError(t, err)
	assert.Zero(t, count)
}
