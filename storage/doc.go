// Package storage defines the repository interfaces the content pipeline
// persists through: documents keyed by their source-natural key, chunks keyed
// by (document, index), and embedding runs with their (run, chunk) vectors.
//
// Implementations must provide transactional upsert-with-conflict-resolution,
// batched insert-or-ignore, and the staleness/anti-join selections the
// pipeline stages re-run on every invocation. The badger subpackage is the
// default backend.
package storage
