package core

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored entities.
// It is assigned from database sequences at insert time.
type ID uint64

// ContentHash computes the content fingerprint of (already normalized) text:
// a BLAKE2b-256 hex digest. The fingerprint is the dedup key for documents
// without a native source id and the staleness key for derived chunks.
func ContentHash(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Document is a deduplicated unit of raw content pulled from one source.
// Exactly one Document exists per (SourceType, SourceID); re-ingesting the
// same item updates the row in place.
type Document struct {
	Id          ID
	SourceType  string // originating system: "gmail", "notion", "note"
	SourceID    string // source-native id, or the content fingerprint for sources without one
	ContentHash string // fingerprint of the normalized raw text
	RawText     string
	SummaryText string // source-supplied summary, may be empty
	Title       string
	RecordedAt  time.Time // source-asserted timestamp; zero when unknown
	IngestedAt  time.Time // refreshed on every upsert, including no-op re-ingests
	ChunkedHash string    // ContentHash value last chunked; empty means never chunked
	Meta        map[string]string
}

// ChunksCurrent reports whether the document's chunk set matches its content.
// Any mismatch, including a never-chunked document, means the chunks must be
// rebuilt.
func (d *Document) ChunksCurrent() bool {
	return d.ChunkedHash != "" && d.ChunkedHash == d.ContentHash
}

// Chunk is a contiguous, possibly overlapping slice of one document's raw
// text. Offsets are half-open rune offsets into the text at chunking time.
// A chunk lives only as long as its document's content-hash epoch: rechunking
// replaces the whole set.
type Chunk struct {
	Id         ID
	DocumentID ID
	ChunkIndex int // 0-based, dense, ordered by StartChar
	StartChar  int
	EndChar    int
	Text       string
}

// EmbeddingRun is an immutable computation context binding a model, a vector
// dimension and a parameter set. Distinct models or parameters always get a
// new run; runs are never mutated after creation.
type EmbeddingRun struct {
	Id        ID
	Model     string
	Dimension int
	Normalize bool // vectors stored under this run are unit length
	BatchSize int
	CreatedAt time.Time
}

// ChunkEmbedding associates one chunk with one embedding run. The pair
// (RunID, ChunkID) is unique; rows are written once and never updated.
type ChunkEmbedding struct {
	RunID   ID
	ChunkID ID
	Vector  []float32
}

// SearchResult pairs a matched chunk with its document and similarity score.
type SearchResult struct {
	Chunk    *Chunk
	Document *Document
	Score    float32
}
