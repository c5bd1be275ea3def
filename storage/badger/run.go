package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) (*RunRepository, error) {
	idSeq, err := backend.GetSequence(runIDSeq)
	if err != nil {
		return nil, err
	}

	return &RunRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *RunRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *RunRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// CreateRun persists a new immutable embedding run.
func (r *RunRepository) CreateRun(ctx context.Context, run *core.EmbeddingRun) (*core.EmbeddingRun, error) {
	if err := core.ValidateRun(run); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := nextSequenceID(r.idSeq)
		if err != nil {
			return err
		}
		run.Id = nextID
		run.CreatedAt = time.Now().UTC()

		if err := tx.Set(makeRunKey(run.Id), storage.MarshalRun(run)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (r *RunRepository) GetRun(ctx context.Context, id core.ID) (*core.EmbeddingRun, error) {
	var result *core.EmbeddingRun
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRun(tx, makeRunKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListRuns returns all runs ordered by ID.
func (r *RunRepository) ListRuns(ctx context.Context) ([]*core.EmbeddingRun, error) {
	var results []*core.EmbeddingRun
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var run *core.EmbeddingRun
			err := iter.Item().Value(func(val []byte) error {
				var err error
				run, err = storage.UnmarshalRun(val)
				return err
			})
			if err != nil {
				return err
			}
			if run != nil {
				results = append(results, run)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Record keys sort lexically, not numerically
	slices.SortFunc(results, func(a, b *core.EmbeddingRun) int {
		return int(a.Id) - int(b.Id)
	})
	return results, nil
}

// UnembeddedChunks returns chunks with no embedding row under the given run,
// lowest chunk ID first. The selection is computed fresh on every call so
// chunks embedded since the last invocation drop out on their own.
func (r *RunRepository) UnembeddedChunks(ctx context.Context, runID core.ID, limit int) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeRunKey(runID)); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}

			// Anti-join against this run's embedding rows
			_, err = tx.Get(makeEmbeddingKey(runID, chunk.Id))
			if err == badger.ErrKeyNotFound {
				results = append(results, chunk)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Chunk) int {
		return int(a.Id) - int(b.Id)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// AddChunkEmbeddings inserts embedding rows for a run, skipping (run, chunk)
// pairs that already have one. A vector whose length disagrees with the
// run's dimension fails the whole batch before anything is written.
func (r *RunRepository) AddChunkEmbeddings(ctx context.Context, runID core.ID, embeddings ...*core.ChunkEmbedding) (int, error) {
	inserted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		run, err := readRun(tx, makeRunKey(runID))
		if err != nil {
			return err
		}
		if run == nil {
			return storage.ErrNotFound
		}

		for _, emb := range embeddings {
			if len(emb.Vector) != run.Dimension {
				return storage.ErrDimensionMismatch
			}
		}

		for _, emb := range embeddings {
			emb.RunID = runID
			key := makeEmbeddingKey(runID, emb.ChunkID)

			_, err := tx.Get(key)
			if err == nil {
				// Already embedded under this run
				continue
			}
			if err != badger.ErrKeyNotFound {
				return err
			}

			if err := tx.Set(key, storage.MarshalChunkEmbedding(emb)); err != nil {
				return err
			}
			reverseKey := makeEmbeddingChunkKey(emb.ChunkID, runID)
			if err := tx.Set(reverseKey, storage.MarshalID(runID)); err != nil {
				return err
			}
			inserted++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetChunkEmbedding retrieves the embedding of one chunk under one run.
func (r *RunRepository) GetChunkEmbedding(ctx context.Context, runID, chunkID core.ID) (*core.ChunkEmbedding, error) {
	var result *core.ChunkEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(runID, chunkID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalChunkEmbedding(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// CountEmbeddings returns the number of embedding rows under a run.
func (r *RunRepository) CountEmbeddings(ctx context.Context, runID core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makePartialEmbeddingKey(runID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ForEachEmbedding streams every embedding row under a run.
func (r *RunRepository) ForEachEmbedding(ctx context.Context, runID core.ID, fn func(*core.ChunkEmbedding) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingKey(runID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var emb *core.ChunkEmbedding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				emb, err = storage.UnmarshalChunkEmbedding(val)
				return err
			})
			if err != nil {
				return err
			}
			if emb == nil {
				continue
			}
			if err := fn(emb); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readRun reads an embedding run from the transaction.
func readRun(tx *badger.Txn, key []byte) (*core.EmbeddingRun, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var run *core.EmbeddingRun
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		run, unmarshalErr = storage.UnmarshalRun(val)
		return unmarshalErr
	})
	return run, err
}
