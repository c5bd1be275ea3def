// Package embedder computes chunk embeddings under immutable embedding runs.
//
// The package supports batched processing with progress tracking, retry logic
// with exponential backoff, and vector normalization to ensure compatibility
// with cosine similarity search. Inserts are conflict-ignored, so interrupted
// passes resume safely.
package embedder
