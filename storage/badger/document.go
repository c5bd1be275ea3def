package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertDocument inserts or merges a document by its natural key.
// A conflicting row keeps its stored Id and ChunkedHash; every other field is
// replaced and IngestedAt is refreshed. Staleness detection then falls out of
// the preserved ChunkedHash disagreeing with the new ContentHash.
func (r *DocumentRepository) UpsertDocument(ctx context.Context, doc *core.Document) (*core.Document, bool, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, false, err
	}

	created := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		srcKey := makeDocumentSourceKey(doc.SourceType, doc.SourceID)

		existingID, err := readIndexedID(tx, srcKey)
		if err != nil {
			return err
		}

		if existingID == 0 {
			// New document
			nextID, err := nextSequenceID(r.idSeq)
			if err != nil {
				return err
			}
			doc.Id = nextID
			doc.ChunkedHash = ""
			created = true
		} else {
			old, err := readDocument(tx, makeDocumentKey(existingID))
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}
			doc.Id = old.Id
			doc.ChunkedHash = old.ChunkedHash
		}

		doc.IngestedAt = time.Now().UTC()

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if created {
			if err := tx.Set(srcKey, storage.MarshalID(doc.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, false, err
	}
	return doc, created, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
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

// GetDocumentBySource retrieves a document by its natural key.
func (r *DocumentRepository) GetDocumentBySource(ctx context.Context, sourceType, sourceID string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readIndexedID(tx, makeDocumentSourceKey(sourceType, sourceID))
		if err != nil {
			return err
		}
		if id == 0 {
			return storage.ErrNotFound
		}
		result, err = readDocument(tx, makeDocumentKey(id))
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

// StaleDocuments returns documents whose chunk set is missing or out of date.
func (r *DocumentRepository) StaleDocuments(ctx context.Context) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc != nil && !doc.ChunksCurrent() {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Document) int {
		return int(a.Id) - int(b.Id)
	})
	return results, nil
}

// SetChunkedHash stamps the fingerprint a document was last chunked against.
func (r *DocumentRepository) SetChunkedHash(ctx context.Context, id core.ID, hash string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := stampChunkedHash(tx, id, hash); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CountDocuments returns the total number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(documentRecordPrefix + ":")
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

// nextSequenceID draws the next ID from a sequence.
// BadgerDB sequences can return 0 on first call, so we skip it.
func nextSequenceID(seq *badger.Sequence) (core.ID, error) {
	next, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		next, err = seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}

// readDocument reads a document from the transaction.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// readIndexedID reads an ID stored as an index value. Returns 0 when the
// index key is absent; record IDs never take the value 0.
func readIndexedID(tx *badger.Txn, key []byte) (core.ID, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		id, unmarshalErr = storage.UnmarshalID(val)
		return unmarshalErr
	})
	return id, err
}

// stampChunkedHash rewrites a document record with a new ChunkedHash inside
// an open transaction. The caller commits.
func stampChunkedHash(tx *badger.Txn, id core.ID, hash string) error {
	key := makeDocumentKey(id)
	doc, err := readDocument(tx, key)
	if err != nil {
		return err
	}
	if doc == nil {
		return storage.ErrNotFound
	}
	doc.ChunkedHash = hash
	return tx.Set(key, storage.MarshalDocument(doc))
}
