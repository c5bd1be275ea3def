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


package storage

import (
	"fmt"

	"github.com/tkoide/corpora/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalRun serializes an EmbeddingRun to bytes.
func MarshalRun(run *core.EmbeddingRun) []byte {
	buf := make([]byte, core.EmbeddingRunMUS.Size(*run))
	core.EmbeddingRunMUS.Marshal(*run, buf)
	return buf
}

// UnmarshalRun deserializes an EmbeddingRun from bytes.
func UnmarshalRun(data []byte) (*core.EmbeddingRun, error) {
	run, _, err := core.EmbeddingRunMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: run: %w", ErrSerializationFailed, err)
	}
	return &run, nil
}

// MarshalChunkEmbedding serializes a ChunkEmbedding to bytes.
func MarshalChunkEmbedding(emb *core.ChunkEmbedding) []byte {
	buf := make([]byte, core.ChunkEmbeddingMUS.Size(*emb))
	core.ChunkEmbeddingMUS.Marshal(*emb, buf)
	return buf
}

// UnmarshalChunkEmbedding deserializes a ChunkEmbedding from bytes.
func UnmarshalChunkEmbedding(data []byte) (*core.ChunkEmbedding, error) {
	emb, _, err := core.ChunkEmbeddingMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %w", ErrSerializationFailed, err)
	}
	return &emb, nil
}
