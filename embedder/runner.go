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


package embedder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tkoide/corpora/ai"
	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/storage"
)

// Config holds configuration for an embedding run.
type Config struct {
	// Model is the embedding model identifier
	Model string

	// Dimension is the vector length the model produces. Every vector
	// inserted under the run must have exactly this length.
	Dimension int

	// Normalize scales vectors to unit length before persisting. It is
	// recorded on the run so consumers can tell normalized runs from raw.
	Normalize bool

	// BatchSize is the number of chunks embedded per collaborator call
	BatchSize int

	// MaxChunks caps how many chunks one invocation processes.
	// 0 means unlimited.
	MaxChunks int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
// Model and Dimension have no defaults; they describe the model in use.
func DefaultConfig() *Config {
	return &Config{
		Normalize:      true,
		BatchSize:      64,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Validate checks settings needed to open a new run.
func (c *Config) Validate() error {
	if c.Model == "" {
		return errors.New("embedder config: Model is required")
	}
	if c.Dimension <= 0 {
		return errors.New("embedder config: Dimension must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("embedder config: BatchSize must be positive")
	}
	if c.MaxChunks < 0 {
		return errors.New("embedder config: MaxChunks must not be negative")
	}
	return nil
}

// Report summarizes one embedding pass.
type Report struct {
	// RunID is the run this pass worked under
	RunID core.ID

	// Targets is the number of chunks selected for this pass
	Targets int

	// Embedded is the number of vectors actually inserted
	Embedded int

	// Remaining is the number of chunks still lacking an embedding under
	// the run after the pass; zero means the run is complete
	Remaining int
}

// Runner computes chunk embeddings under immutable runs. A pass selects the
// chunks lacking a vector under its run, embeds them in batches, and inserts
// with conflict-ignore, so a crashed or capped pass resumes by re-running.
type Runner struct {
	runs     storage.RunRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewRunner creates a new runner.
// progress: where to write progress output (typically os.Stderr)
func NewRunner(runs storage.RunRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Runner, error) {
	if runs == nil {
		return nil, ErrRunRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Runner{
		runs:     runs,
		embedder: embedder,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "embedder"),
	}, nil
}

// Run opens a new immutable run from the configured model parameters and
// embeds its targets. Distinct models or parameter sets always get distinct
// runs; an existing run is never mutated.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	run, err := r.runs.CreateRun(ctx, &core.EmbeddingRun{
		Model:     r.config.Model,
		Dimension: r.config.Dimension,
		Normalize: r.config.Normalize,
		BatchSize: r.config.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	r.logger.Info("created embedding run", "run", run.Id, "model", run.Model,
		"dimension", run.Dimension, "normalize", run.Normalize)

	return r.process(ctx, run)
}

// Resume continues an existing run. The run's persisted parameters govern
// the pass; the configured model and dimension are ignored so a resume can
// never drift from what the run was opened with.
func (r *Runner) Resume(ctx context.Context, runID core.ID) (*Report, error) {
	run, err := r.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", runID, err)
	}

	r.logger.Info("resuming embedding run", "run", run.Id, "model", run.Model)

	return r.process(ctx, run)
}

// process embeds every chunk the run still lacks a vector for. Selection is
// computed fresh against the store, so a re-invocation picks up exactly
// where a failed or capped pass stopped.
func (r *Runner) process(ctx context.Context, run *core.EmbeddingRun) (*Report, error) {
	targets, err := r.runs.UnembeddedChunks(ctx, run.Id, r.config.MaxChunks)
	if err != nil {
		return nil, fmt.Errorf("failed to select targets: %w", err)
	}

	report := &Report{RunID: run.Id, Targets: len(targets)}
	if len(targets) == 0 {
		fmt.Fprintf(r.progress, "Run %d complete: no chunks lack an embedding\n", run.Id)
		return report, nil
	}

	batchSize := run.BatchSize
	if batchSize <= 0 {
		batchSize = r.config.BatchSize
	}

	fmt.Fprintf(r.progress, "Embedding %d chunks under run %d (batch size: %d)\n",
		len(targets), run.Id, batchSize)

	tracker := NewProgressTracker(r.progress, len(targets), r.config.ReportInterval)
	tracker.Start()

	processed := 0
	for start := 0; start < len(targets); start += batchSize {
		end := min(start+batchSize, len(targets))
		batch := targets[start:end]

		embedded, err := r.processBatch(ctx, run, batch)
		report.Embedded += embedded
		if err != nil {
			return report, err
		}

		processed += len(batch)
		tracker.Update(processed)
	}

	tracker.Finish()

	left, err := r.runs.UnembeddedChunks(ctx, run.Id, 0)
	if err != nil {
		return report, fmt.Errorf("failed to recount targets: %w", err)
	}
	report.Remaining = len(left)

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Run %d: embedded %d chunks in %v (%.1f chunks/sec), %d remaining\n",
		run.Id, report.Embedded, elapsed.Round(time.Second),
		float64(processed)/elapsed.Seconds(), report.Remaining)

	r.logger.Info("embedding pass complete", "run", run.Id,
		"targets", report.Targets, "embedded", report.Embedded, "remaining", report.Remaining)
	return report, nil
}

// processBatch embeds one batch and persists the vectors. Transient
// collaborator failures are retried; the insert is not retried, because
// conflict-ignore makes a whole re-run the safe retry.
func (r *Runner) processBatch(ctx context.Context, run *core.EmbeddingRun, batch []*core.Chunk) (int, error) {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = r.embedder.EmbedTexts(ctx, texts)
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(vectors) != len(batch) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
	}

	if run.Normalize {
		NormalizeVectors(vectors)
	}

	embeddings := make([]*core.ChunkEmbedding, len(batch))
	for i, chunk := range batch {
		embeddings[i] = &core.ChunkEmbedding{
			RunID:   run.Id,
			ChunkID: chunk.Id,
			Vector:  vectors[i],
		}
	}

	inserted, err := r.runs.AddChunkEmbeddings(ctx, run.Id, embeddings...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert embeddings: %w", err)
	}
	return inserted, nil
}
