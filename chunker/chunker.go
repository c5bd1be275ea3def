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


package chunker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/tkoide/corpora/storage"
)

// Config holds configuration for the chunking operation.
type Config struct {
	// Size is the window length in runes
	Size int

	// Stride is the distance between window starts in runes.
	// Size - Stride is the overlap between consecutive windows.
	Stride int

	// MinLength is the minimum document length in runes. Shorter documents
	// are skipped without touching their chunked fingerprint, so they come
	// back as targets if their content ever grows.
	MinLength int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Size:      1000,
		Stride:    800,
		MinLength: 50,
	}
}

// Validate checks that the configuration can produce terminating windows.
func (c *Config) Validate() error {
	if c.Size <= 0 {
		return errors.New("chunker config: Size must be positive")
	}
	if c.Stride <= 0 {
		return errors.New("chunker config: Stride must be positive")
	}
	if c.Stride > c.Size {
		return errors.New("chunker config: Stride must not exceed Size")
	}
	if c.MinLength < 0 {
		return errors.New("chunker config: MinLength must not be negative")
	}
	return nil
}

// Report summarizes one chunking pass.
type Report struct {
	// Chunked is the number of documents whose chunk sets were rebuilt
	Chunked int

	// SkippedShort is the number of stale documents below MinLength
	SkippedShort int

	// ChunksInserted is the total number of chunk rows written
	ChunksInserted int

	// ChunksDeleted is the total number of prior chunk rows removed
	ChunksDeleted int
}

// Chunker rebuilds the chunk sets of documents whose content changed since
// they were last chunked. Unchanged documents are never touched, so the
// operation is cheap to re-run.
type Chunker struct {
	docs   storage.DocumentRepository
	chunks storage.ChunkRepository
	config *Config
	logger *slog.Logger
}

// NewChunker creates a new chunker.
func NewChunker(docs storage.DocumentRepository, chunks storage.ChunkRepository, config *Config) (*Chunker, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Chunker{
		docs:   docs,
		chunks: chunks,
		config: config,
		logger: slog.Default().With("component", "chunker"),
	}, nil
}

// Run chunks every stale document: one whose chunked fingerprint is absent
// or disagrees with its content fingerprint. Each document's old chunks are
// deleted, the new windows inserted, and the fingerprint stamped, so a crash
// mid-pass leaves the remaining documents stale for the next run.
func (c *Chunker) Run(ctx context.Context) (*Report, error) {
	stale, err := c.docs.StaleDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to select stale documents: %w", err)
	}

	report := &Report{}
	if len(stale) == 0 {
		c.logger.Info("no stale documents to chunk")
		return report, nil
	}

	c.logger.Info("chunking stale documents", "count", len(stale),
		"size", c.config.Size, "stride", c.config.Stride)

	for _, doc := range stale {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if utf8.RuneCountInString(doc.RawText) < c.config.MinLength {
			report.SkippedShort++
			c.logger.Debug("skipping short document", "document", doc.Id,
				"length", utf8.RuneCountInString(doc.RawText))
			continue
		}

		windows := SplitWindows(doc.RawText, c.config.Size, c.config.Stride)
		inserted, deleted, err := c.chunks.ReplaceDocumentChunks(ctx, doc, windows)
		if err != nil {
			return report, fmt.Errorf("failed to chunk document %d: %w", doc.Id, err)
		}

		report.Chunked++
		report.ChunksInserted += inserted
		report.ChunksDeleted += deleted

		if deleted > 0 {
			c.logger.Debug("rebuilt document chunks", "document", doc.Id,
				"inserted", inserted, "deleted", deleted)
		}
	}

	c.logger.Info("chunking complete", "chunked", report.Chunked,
		"skipped_short", report.SkippedShort,
		"inserted", report.ChunksInserted, "deleted", report.ChunksDeleted)
	return report, nil
}
