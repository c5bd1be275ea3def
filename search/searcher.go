// Copyright 2026 Takumi Koide
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tkoide/corpora/ai"
	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/embedder"
	"github.com/tkoide/corpora/storage"
)

// Searcher provides semantic search over the chunks embedded under one run.
type Searcher struct {
	docs     storage.DocumentRepository
	chunks   storage.ChunkRepository
	runs     storage.RunRepository
	embedder ai.Embedder
	minScore float32
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinScore sets the minimum similarity a hit must reach.
// Default is 0.60.
func WithMinScore(minScore float32) Option {
	return func(s *Searcher) error {
		s.minScore = minScore
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	docs storage.DocumentRepository,
	chunks storage.ChunkRepository,
	runs storage.RunRepository,
	emb ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if runs == nil {
		return nil, ErrRunRepositoryRequired
	}
	if emb == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		docs:     docs,
		chunks:   chunks,
		runs:     runs,
		embedder: emb,
		minScore: 0.60,
		logger:   slog.Default().With("component", "search"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches the given run for chunks similar to the query.
// Returns up to maxHits results, ranked by similarity descending.
func (s *Searcher) FindSimilar(ctx context.Context, runID core.ID, query string, maxHits int) ([]*core.SearchResult, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", runID, err)
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	if len(vector) != run.Dimension {
		return nil, fmt.Errorf("query vector has %d dimensions, run %d expects %d",
			len(vector), run.Id, run.Dimension)
	}
	// Dot product equals cosine similarity only for unit vectors, so the
	// query must match the run's normalization.
	if run.Normalize {
		vector = embedder.NormalizeVector(vector)
	}

	type hit struct {
		chunkID core.ID
		score   float32
	}
	var hits []hit
	err = s.runs.ForEachEmbedding(ctx, run.Id, func(emb *core.ChunkEmbedding) error {
		score := dotProduct(vector, emb.Vector)
		if score >= s.minScore {
			hits = append(hits, hit{chunkID: emb.ChunkID, score: score})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("error scanning run embeddings", "run", run.Id, "err", err)
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(hits, func(a, b hit) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return 0
	})
	if maxHits > 0 && len(hits) > maxHits {
		hits = hits[:maxHits]
	}

	results := make([]*core.SearchResult, 0, len(hits))
	docCache := make(map[core.ID]*core.Document)
	for _, h := range hits {
		chunk, err := s.chunks.GetChunk(ctx, h.chunkID)
		if err != nil {
			s.logger.Error("error retrieving chunk", "chunk", h.chunkID, "err", err)
			return nil, err
		}

		doc, ok := docCache[chunk.DocumentID]
		if !ok {
			doc, err = s.docs.GetDocument(ctx, chunk.DocumentID)
			if err != nil {
				s.logger.Error("error retrieving document", "document", chunk.DocumentID, "err", err)
				return nil, err
			}
			docCache[chunk.DocumentID] = doc
		}

		results = append(results, &core.SearchResult{
			Chunk:    chunk,
			Document: doc,
			Score:    h.score,
		})
	}

	s.logger.Debug("search complete", "run", run.Id, "query", query, "hits", len(results))
	return results, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
