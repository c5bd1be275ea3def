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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - SourceType and SourceID must not be empty (the natural key)
//   - ContentHash must not be empty
//
// NOT validated (populated by the pipeline):
//   - RawText (an empty body still upserts; fields are stored as empty strings)
//   - ChunkedHash (empty until the chunker stamps it)
//   - ID (0 is valid before the store assigns one)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.SourceType == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySourceType)
	}

	if doc.SourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySourceID)
	}

	if doc.ContentHash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContentHash)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentID must be set
//   - ChunkIndex must not be negative
//   - StartChar must be strictly below EndChar
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.DocumentID == 0 {
		return fmt.Errorf("%w: document id is required", ErrInvalidChunk)
	}

	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: chunk index %d is negative", ErrInvalidChunk, chunk.ChunkIndex)
	}

	if chunk.StartChar >= chunk.EndChar {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidOffsets)
	}

	return nil
}

// ValidateRun validates an EmbeddingRun according to domain rules.
//
// Validation rules:
//   - Model must not be empty
//   - Dimension must be positive
func ValidateRun(run *EmbeddingRun) error {
	if run == nil {
		return fmt.Errorf("%w: run is nil", ErrInvalidRun)
	}

	if run.Model == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRun, ErrEmptyModel)
	}

	if run.Dimension <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRun, ErrInvalidDimension)
	}

	return nil
}
