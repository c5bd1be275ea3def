package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/tkoide/corpora/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	documentSourcePrefix = "docsrc"
	documentIDSeq        = "docrecseq"
	chunkRecordPrefix    = "chkrec"
	chunkDocumentPrefix  = "chkdoc"
	chunkIDSeq           = "chkrecseq"
	runRecordPrefix      = "runrec"
	runIDSeq             = "runrecseq"
	embeddingRunPrefix   = "embrun"
	embeddingChunkPrefix = "embchk"
)

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeDocumentSourceKey generates a composite key for the natural-key index.
// Format: prefix:sourceType:sourceID
func makeDocumentSourceKey(sourceType, sourceID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentSourcePrefix, sourceType, sourceID))
}

// makeChunkKey generates a key for a chunk record by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkDocumentKey generates a composite key for the document index.
// Format: prefix:documentID:chunkIndex
func makeChunkDocumentKey(documentID core.ID, chunkIndex int) []byte {
	prefix := chunkDocumentPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for chunkIndex
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkIndex))
	return buf
}

// makePartialChunkDocumentKey generates a partial key for per-document scans.
// Format: prefix:documentID
func makePartialChunkDocumentKey(documentID core.ID) []byte {
	prefix := chunkDocumentPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for documentID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeRunKey generates a key for an embedding run by ID.
func makeRunKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", runRecordPrefix, id))
}

// makeEmbeddingKey generates a composite key for an embedding row.
// Format: prefix:runID:chunkID
func makeEmbeddingKey(runID, chunkID core.ID) []byte {
	prefix := embeddingRunPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for runID + 8 bytes for chunkID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(runID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialEmbeddingKey generates a partial key for per-run scans.
// Format: prefix:runID
func makePartialEmbeddingKey(runID core.ID) []byte {
	prefix := embeddingRunPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for runID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(runID))
	return buf
}

// makeEmbeddingChunkKey generates a composite key for the chunk-major reverse
// index used to cascade deletes from chunks to their embedding rows.
// Format: prefix:chunkID:runID
func makeEmbeddingChunkKey(chunkID, runID core.ID) []byte {
	prefix := embeddingChunkPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for chunkID + 8 bytes for runID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(runID))
	return buf
}

// makePartialEmbeddingChunkKey generates a partial key for per-chunk scans
// of the reverse index.
// Format: prefix:chunkID
func makePartialEmbeddingChunkKey(chunkID core.ID) []byte {
	prefix := embeddingChunkPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for chunkID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}
