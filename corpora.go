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


package corpora

import (
	"io"
	"log/slog"

	"github.com/tkoide/corpora/ai"
	"github.com/tkoide/corpora/ai/openai"
	"github.com/tkoide/corpora/chunker"
	"github.com/tkoide/corpora/embedder"
	"github.com/tkoide/corpora/ingest"
	"github.com/tkoide/corpora/search"
	"github.com/tkoide/corpora/storage"
	"github.com/tkoide/corpora/storage/badger"
)

// Database bundles the storage backend, its repositories and the embedding
// client behind one handle. It is the assembly point for the pipeline stages:
// ingest, chunk, embed, search.
type Database struct {
	backend   *badger.Backend
	docRepo   storage.DocumentRepository
	chunkRepo storage.ChunkRepository
	runRepo   storage.RunRepository
	embedder  ai.Embedder
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemory opens the backend without a backing file. All data is lost on
// close; intended for tests and experiments.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create document repository
	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create run repository
	runRepo, err := badger.NewRunRepository(backend)
	if err != nil {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create embedding client with configured settings
	emb, err := openai.NewEmbedder(options.aiConfig)
	if err != nil {
		runRepo.Close()
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		runRepo:   runRepo,
		embedder:  emb,
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close repositories
	if err := db.runRepo.Close(); err != nil {
		db.logger.Error("error closing run repository", "err", err)
		return err
	}
	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) RunRepository() storage.RunRepository {
	return db.runRepo
}

func (db *Database) Embedder() ai.Embedder {
	return db.embedder
}

func (db *Database) NewIngestor() (*ingest.Ingestor, error) {
	return ingest.NewIngestor(db.docRepo)
}

func (db *Database) NewChunker(config *chunker.Config) (*chunker.Chunker, error) {
	return chunker.NewChunker(db.docRepo, db.chunkRepo, config)
}

// NewEmbedRunner builds an embed runner. A non-nil emb overrides the
// database's own embedding client; a pass that resumes a persisted run
// builds its client from the run's recorded model rather than from the
// configuration the database was opened with.
func (db *Database) NewEmbedRunner(emb ai.Embedder, config *embedder.Config, progress io.Writer) (*embedder.Runner, error) {
	if emb == nil {
		emb = db.embedder
	}
	return embedder.NewRunner(db.runRepo, emb, config, progress)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.docRepo, db.chunkRepo, db.runRepo, db.embedder, opts...)
}
