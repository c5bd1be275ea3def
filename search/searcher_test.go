package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkoide/corpora/ai/mock"
	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/storage"
	"github.com/tkoide/corpora/storage/badger"
)

type fixture struct {
	docs   storage.DocumentRepository
	chunks storage.ChunkRepository
	runs   storage.RunRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docRepo, chunkRepo, runRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		runRepo.Close()
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return &fixture{docs: docRepo, chunks: chunkRepo, runs: runRepo}
}

// seedRun stores one document split into chunks and a raw 3-dimensional run
// with one handcrafted vector per chunk.
func (f *fixture) seedRun(t *testing.T, chunkTexts []string, vectors [][]float32) (*core.EmbeddingRun, []*core.Chunk) {
	t.Helper()
	ctx := context.Background()

	text := ""
	for _, chunkText := range chunkTexts {
		text += chunkText
	}
	doc, _, err := f.docs.UpsertDocument(ctx, &core.Document{
		SourceType:  "note",
		SourceID:    "seed",
		RawText:     text,
		ContentHash: core.ContentHash(text),
	})
	require.NoError(t, err)

	chunks := make([]*core.Chunk, len(chunkTexts))
	offset := 0
	for i, chunkText := range chunkTexts {
		chunks[i] = &core.Chunk{
			ChunkIndex: i,
			StartChar:  offset,
			EndChar:    offset + len(chunkText),
			Text:       chunkText,
		}
		offset += len(chunkText)
	}
	_, _, err = f.chunks.ReplaceDocumentChunks(ctx, doc, chunks)
	require.NoError(t, err)

	run, err := f.runs.CreateRun(ctx, &core.EmbeddingRun{
		Model:     "test-model",
		Dimension: 3,
		Normalize: false,
		BatchSize: 16,
	})
	require.NoError(t, err)

	embeddings := make([]*core.ChunkEmbedding, len(vectors))
	for i, vector := range vectors {
		embeddings[i] = &core.ChunkEmbedding{ChunkID: chunks[i].Id, Vector: vector}
	}
	_, err = f.runs.AddChunkEmbeddings(ctx, run.Id, embeddings...)
	require.NoError(t, err)

	return run, chunks
}

func queryEmbedder(vector []float32) *mock.MockEmbedder {
	emb := mock.NewMockEmbedderWithDimension(len(vector))
	emb.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return emb
}

func TestNewSearcher(t *testing.T) {
	f := newFixture(t)
	emb := mock.NewMockEmbedderWithDimension(3)

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(f.docs, f.chunks, f.runs, emb)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(f.docs, f.chunks, f.runs, emb, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(f.docs, f.chunks, f.runs, emb, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewSearcher(nil, f.chunks, f.runs, emb)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewSearcher(f.docs, nil, f.runs, emb)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil run repository", func(t *testing.T) {
		_, err := NewSearcher(f.docs, f.chunks, nil, emb)
		assert.Equal(t, ErrRunRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(f.docs, f.chunks, f.runs, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestFindSimilarRanksByScore(t *testing.T) {
	f := newFixture(t)
	run, chunks := f.seedRun(t,
		[]string{"about artificial intelligence", "about machine learning", "about cooking recipes"},
		[][]float32{
			{0.9, 0.1, 0.0},
			{0.85, 0.15, 0.0},
			{0.1, 0.1, 0.8},
		})

	searcher, err := NewSearcher(f.docs, f.chunks, f.runs, queryEmbedder([]float32{0.88, 0.12, 0.0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), run.Id, "artificial intelligence query", 10)
	require.NoError(t, err)

	// The cooking vector falls below the 0.60 threshold
	require.Len(t, results, 2)
	assert.Equal(t, chunks[0].Id, results[0].Chunk.Id)
	assert.Equal(t, chunks[1].Id, results[1].Chunk.Id)
	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}

	// Each hit carries its source document
	assert.Equal(t, "seed", results[0].Document.SourceID)
	assert.Equal(t, results[0].Chunk.DocumentID, results[0].Document.Id)
}

func TestFindSimilarMaxHits(t *testing.T) {
	f := newFixture(t)
	run, _ := f.seedRun(t,
		[]string{"a", "b", "c"},
		[][]float32{
			{1.0, 0.0, 0.0},
			{0.95, 0.05, 0.0},
			{0.9, 0.1, 0.0},
		})

	searcher, err := NewSearcher(f.docs, f.chunks, f.runs, queryEmbedder([]float32{1.0, 0.0, 0.0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), run.Id, "query", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilarMinScore(t *testing.T) {
	f := newFixture(t)
	run, _ := f.seedRun(t,
		[]string{"a", "b"},
		[][]float32{
			{0.9, 0.1, 0.0},
			{0.1, 0.1, 0.8},
		})

	searcher, err := NewSearcher(f.docs, f.chunks, f.runs,
		queryEmbedder([]float32{0.88, 0.12, 0.0}), WithMinScore(0.0))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), run.Id, "query", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilarEmptyRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	run, err := f.runs.CreateRun(ctx, &core.EmbeddingRun{
		Model:     "test-model",
		Dimension: 3,
		BatchSize: 16,
	})
	require.NoError(t, err)

	searcher, err := NewSearcher(f.docs, f.chunks, f.runs, queryEmbedder([]float32{1.0, 0.0, 0.0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, run.Id, "query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilarUnknownRun(t *testing.T) {
	f := newFixture(t)

	searcher, err := NewSearcher(f.docs, f.chunks, f.runs, queryEmbedder([]float32{1.0, 0.0, 0.0}))
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), 999, "query", 10)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindSimilarDimensionCheck(t *testing.T) {
	f := newFixture(t)
	run, _ := f.seedRun(t,
		[]string{"a"},
		[][]float32{{1.0, 0.0, 0.0}})

	// Query embedder produces 2-dimensional vectors against a 3-dimensional run
	searcher, err := NewSearcher(f.docs, f.chunks, f.runs, queryEmbedder([]float32{1.0, 0.0}))
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), run.Id, "query", 10)
	assert.Error(t, err)
}

func TestFindSimilarNormalizedRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, _, err := f.docs.UpsertDocument(ctx, &core.Document{
		SourceType:  "note",
		SourceID:    "norm",
		RawText:     "text",
		ContentHash: core.ContentHash("text"),
	})
	require.NoError(t, err)
	chunks := []*core.Chunk{{ChunkIndex: 0, StartChar: 0, EndChar: 4, Text: "text"}}
	_, _, err = f.chunks.ReplaceDocumentChunks(ctx, doc, chunks)
	require.NoError(t, err)

	run, err := f.runs.CreateRun(ctx, &core.EmbeddingRun{
		Model:     "test-model",
		Dimension: 3,
		Normalize: true,
		BatchSize: 16,
	})
	require.NoError(t, err)
	_, err = f.runs.AddChunkEmbeddings(ctx, run.Id,
		&core.ChunkEmbedding{ChunkID: chunks[0].Id, Vector: []float32{1.0, 0.0, 0.0}})
	require.NoError(t, err)

	// The raw query vector is scaled to unit length before scoring, so the
	// oversized magnitude must not inflate the similarity
	searcher, err := NewSearcher(f.docs, f.chunks, f.runs, queryEmbedder([]float32{10.0, 0.0, 0.0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, run.Id, "query", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
}
