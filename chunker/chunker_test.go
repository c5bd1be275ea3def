package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/storage"
	"github.com/tkoide/corpora/storage/badger"
)

func newTestRepos(t *testing.T) (storage.DocumentRepository, storage.ChunkRepository) {
	t.Helper()
	docRepo, chunkRepo, runRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		runRepo.Close()
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return docRepo, chunkRepo
}

func ingestText(t *testing.T, docRepo storage.DocumentRepository, sourceID, text string) *core.Document {
	t.Helper()
	doc := &core.Document{
		SourceType:  "note",
		SourceID:    sourceID,
		RawText:     text,
		ContentHash: core.ContentHash(text),
	}
	stored, _, err := docRepo.UpsertDocument(context.Background(), doc)
	require.NoError(t, err)
	return stored
}

func TestChunkerFirstPass(t *testing.T) {
	docRepo, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	long := ingestText(t, docRepo, "long", strings.Repeat("a", 1900))
	ingestText(t, docRepo, "tiny", "too short")

	c, err := NewChunker(docRepo, chunkRepo, nil)
	require.NoError(t, err)

	report, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunked)
	assert.Equal(t, 1, report.SkippedShort)
	assert.Equal(t, 3, report.ChunksInserted)
	assert.Equal(t, 0, report.ChunksDeleted)

	chunks, err := chunkRepo.GetChunksForDocument(ctx, long.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, 1600, chunks[2].StartChar)
	assert.Equal(t, 1900, chunks[2].EndChar)
}

func TestChunkerSecondPassNoWork(t *testing.T) {
	docRepo, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	ingestText(t, docRepo, "doc", strings.Repeat("a", 500))

	c, err := NewChunker(docRepo, chunkRepo, nil)
	require.NoError(t, err)

	_, err = c.Run(ctx)
	require.NoError(t, err)

	// Nothing changed, so the second pass does nothing
	report, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Chunked)
	assert.Equal(t, 0, report.ChunksInserted)
}

func TestChunkerShortDocStaysEligible(t *testing.T) {
	docRepo, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	doc := ingestText(t, docRepo, "grows", "too short")

	c, err := NewChunker(docRepo, chunkRepo, nil)
	require.NoError(t, err)

	// Skipped, fingerprint untouched, so it is re-skipped next pass
	report, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedShort)

	report, err = c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedShort)

	// Content grows past the threshold and the document gets chunked
	doc.RawText = strings.Repeat("b", 100)
	doc.ContentHash = core.ContentHash(doc.RawText)
	_, _, err = docRepo.UpsertDocument(ctx, doc)
	require.NoError(t, err)

	report, err = c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunked)
	assert.Equal(t, 0, report.SkippedShort)
	assert.Equal(t, 1, report.ChunksInserted)
}

func TestChunkerRebuildOnChange(t *testing.T) {
	docRepo, chunkRepo := newTestRepos(t)
	ctx := context.Background()

	doc := ingestText(t, docRepo, "doc", strings.Repeat("a", 1900))

	c, err := NewChunker(docRepo, chunkRepo, nil)
	require.NoError(t, err)

	_, err = c.Run(ctx)
	require.NoError(t, err)

	// Re-ingest with changed content; the chunk set shrinks to one window
	doc.RawText = strings.Repeat("b", 600)
	doc.ContentHash = core.ContentHash(doc.RawText)
	_, _, err = docRepo.UpsertDocument(ctx, doc)
	require.NoError(t, err)

	report, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunked)
	assert.Equal(t, 1, report.ChunksInserted)
	assert.Equal(t, 3, report.ChunksDeleted)

	chunks, err := chunkRepo.GetChunksForDocument(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.Repeat("b", 600), chunks[0].Text)
}

func TestChunkerConfigValidation(t *testing.T) {
	docRepo, chunkRepo := newTestRepos(t)

	_, err := NewChunker(docRepo, chunkRepo, &Config{Size: 0, Stride: 800})
	assert.Error(t, err)

	_, err = NewChunker(docRepo, chunkRepo, &Config{Size: 1000, Stride: 0})
	assert.Error(t, err)

	_, err = NewChunker(docRepo, chunkRepo, &Config{Size: 500, Stride: 800})
	assert.Error(t, err)
}
