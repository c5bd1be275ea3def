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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidRun indicates an EmbeddingRun failed validation.
	ErrInvalidRun = errors.New("invalid embedding run")

	// ErrEmptySourceType indicates the SourceType field is empty.
	ErrEmptySourceType = errors.New("source type cannot be empty")

	// ErrEmptySourceID indicates the SourceID field is empty.
	ErrEmptySourceID = errors.New("source id cannot be empty")

	// ErrEmptyContentHash indicates the ContentHash field is empty.
	ErrEmptyContentHash = errors.New("content hash cannot be empty")

	// ErrEmptyModel indicates the run Model field is empty.
	ErrEmptyModel = errors.New("model cannot be empty")

	// ErrInvalidDimension indicates a run dimension that is not positive.
	ErrInvalidDimension = errors.New("dimension must be positive")

	// ErrInvalidOffsets indicates chunk offsets that are not half-open ascending.
	ErrInvalidOffsets = errors.New("chunk offsets must satisfy start < end")
)
