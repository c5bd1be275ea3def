package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/storage"
)

// insertBatchSize bounds how many chunk rows go into one transaction so a
// long document cannot blow the transaction size limit.
const insertBatchSize = 200

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceDocumentChunks swaps a document's chunk set for the given chunks and
// stamps ChunkedHash = ContentHash. Any prior chunks are deleted first along
// with their embedding rows; the new set is inserted in batches keyed on
// (DocumentID, ChunkIndex), skipping indexes that already exist. The stamp
// commits together with the last batch, so a crash mid-rebuild leaves the
// document stale and the next pass redoes it.
func (r *ChunkRepository) ReplaceDocumentChunks(ctx context.Context, doc *core.Document, chunks []*core.Chunk) (int, int, error) {
	for _, chunk := range chunks {
		chunk.DocumentID = doc.Id
		if err := core.ValidateChunk(chunk); err != nil {
			return 0, 0, err
		}
	}

	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		deleted, err = r.deleteDocumentChunks(tx, doc.Id)
		if err != nil {
			return err
		}
		if len(chunks) == 0 {
			// Nothing to insert; stamp here so the document stops
			// showing up as stale.
			if err := stampChunkedHash(tx, doc.Id, doc.ContentHash); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, 0, err
	}

	inserted := 0
	for start := 0; start < len(chunks); start += insertBatchSize {
		end := min(start+insertBatchSize, len(chunks))
		batch := chunks[start:end]
		last := end == len(chunks)

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, chunk := range batch {
				indexKey := makeChunkDocumentKey(doc.Id, chunk.ChunkIndex)
				existingID, err := readIndexedID(tx, indexKey)
				if err != nil {
					return err
				}
				if existingID != 0 {
					// Already present, keep the stored row
					chunk.Id = existingID
					continue
				}

				chunk.Id, err = nextSequenceID(r.idSeq)
				if err != nil {
					return err
				}
				if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
					return err
				}
				if err := tx.Set(indexKey, storage.MarshalID(chunk.Id)); err != nil {
					return err
				}
				inserted++
			}
			if last {
				if err := stampChunkedHash(tx, doc.Id, doc.ContentHash); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return inserted, deleted, err
		}
	}

	return inserted, deleted, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
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

// GetChunksForDocument returns a document's chunks ordered by ChunkIndex.
func (r *ChunkRepository) GetChunksForDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkDocumentKey(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := readChunk(tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// CountChunks returns the total number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

// deleteDocumentChunks removes every chunk of a document plus the embedding
// rows that reference them. Runs inside an open transaction; the caller
// commits. Returns the number of chunks deleted.
func (r *ChunkRepository) deleteDocumentChunks(tx *badger.Txn, documentID core.ID) (int, error) {
	// Collect first; badger disallows deleting under an open iterator.
	type staleChunk struct {
		indexKey []byte
		chunkID  core.ID
	}
	var stale []staleChunk

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkDocumentKey(documentID)
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		indexKey := iter.Item().KeyCopy(nil)
		var chunkID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			chunkID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			iter.Close()
			return 0, err
		}
		stale = append(stale, staleChunk{indexKey: indexKey, chunkID: chunkID})
	}
	iter.Close()

	for _, sc := range stale {
		if err := deleteChunkEmbeddings(tx, sc.chunkID); err != nil {
			return 0, err
		}
		if err := tx.Delete(makeChunkKey(sc.chunkID)); err != nil {
			return 0, err
		}
		if err := tx.Delete(sc.indexKey); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// deleteChunkEmbeddings cascades a chunk deletion to every embedding row
// referencing it, across all runs, via the chunk-major reverse index.
func deleteChunkEmbeddings(tx *badger.Txn, chunkID core.ID) error {
	var runIDs []core.ID

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialEmbeddingChunkKey(chunkID)
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var runID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			runID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			iter.Close()
			return err
		}
		runIDs = append(runIDs, runID)
	}
	iter.Close()

	for _, runID := range runIDs {
		if err := tx.Delete(makeEmbeddingKey(runID, chunkID)); err != nil {
			return err
		}
		if err := tx.Delete(makeEmbeddingChunkKey(chunkID, runID)); err != nil {
			return err
		}
	}
	return nil
}

// readChunk reads a chunk from the transaction.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}
