package storage

import (
	"context"

	"github.com/tkoide/corpora/core"
)

// Repository provides common storage operations shared across all repositories.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing canonical documents.
type DocumentRepository interface {
	Repository

	// UpsertDocument inserts or merges a document by its natural key
	// (SourceType, SourceID). On conflict all mutable fields are replaced,
	// IngestedAt is refreshed, and the stored Id and ChunkedHash are kept.
	// Returns the stored document and whether a new row was created.
	UpsertDocument(ctx context.Context, doc *core.Document) (*core.Document, bool, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentBySource retrieves a document by its natural key.
	// Returns ErrNotFound if no document matches.
	GetDocumentBySource(ctx context.Context, sourceType, sourceID string) (*core.Document, error)

	// StaleDocuments returns every document whose chunk set is absent or out
	// of date: ChunkedHash is empty or differs from ContentHash.
	StaleDocuments(ctx context.Context) ([]*core.Document, error)

	// SetChunkedHash stamps the fingerprint a document was last chunked
	// against. Returns ErrNotFound if the document doesn't exist.
	SetChunkedHash(ctx context.Context, id core.ID, hash string) error

	// CountDocuments returns the total number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// ChunkRepository provides operations for managing derived text chunks.
type ChunkRepository interface {
	Repository

	// ReplaceDocumentChunks atomically swaps a document's chunk set for the
	// given windows and stamps ChunkedHash = ContentHash. When the document
	// was chunked before, the prior set is deleted first, cascading to any
	// chunk embeddings that referenced the deleted chunks. Inserts are
	// batched and idempotent on (DocumentID, ChunkIndex); the final batch
	// commits together with the stamp.
	// Returns the number of chunks inserted and deleted.
	ReplaceDocumentChunks(ctx context.Context, doc *core.Document, chunks []*core.Chunk) (inserted, deleted int, err error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunksForDocument returns a document's chunks ordered by ChunkIndex.
	GetChunksForDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// RunRepository provides operations for embedding runs and their vectors.
type RunRepository interface {
	Repository

	// CreateRun persists a new immutable embedding run and assigns its ID
	// and CreatedAt. Runs are never updated after creation.
	CreateRun(ctx context.Context, run *core.EmbeddingRun) (*core.EmbeddingRun, error)

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id core.ID) (*core.EmbeddingRun, error)

	// ListRuns returns all runs ordered by ID.
	ListRuns(ctx context.Context) ([]*core.EmbeddingRun, error)

	// UnembeddedChunks returns chunks that have no embedding under the given
	// run. A chunk embedded under a different run is still a target. The
	// selection is always computed fresh against the store. limit caps the
	// result; 0 means unlimited.
	UnembeddedChunks(ctx context.Context, runID core.ID, limit int) ([]*core.Chunk, error)

	// AddChunkEmbeddings inserts embedding rows for a run with
	// insert-or-ignore semantics on (RunID, ChunkID). Every vector's length
	// must equal the run's declared dimension; a mismatch fails the whole
	// batch with ErrDimensionMismatch. Returns the number actually inserted.
	AddChunkEmbeddings(ctx context.Context, runID core.ID, embeddings ...*core.ChunkEmbedding) (int, error)

	// GetChunkEmbedding retrieves the embedding of one chunk under one run.
	// Returns ErrNotFound if no row exists.
	GetChunkEmbedding(ctx context.Context, runID, chunkID core.ID) (*core.ChunkEmbedding, error)

	// CountEmbeddings returns the number of embedding rows under a run.
	CountEmbeddings(ctx context.Context, runID core.ID) (int, error)

	// ForEachEmbedding streams every embedding row under a run.
	// Iteration stops on the first error from fn.
	ForEachEmbedding(ctx context.Context, runID core.ID, fn func(*core.ChunkEmbedding) error) error
}
