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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/tkoide/corpora"
	"github.com/tkoide/corpora/ai"
	"github.com/tkoide/corpora/ai/openai"
	"github.com/tkoide/corpora/chunker"
	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/embedder"
	"github.com/tkoide/corpora/ingest"
	"github.com/tkoide/corpora/ingest/gmail"
	"github.com/tkoide/corpora/ingest/notefile"
	"github.com/tkoide/corpora/ingest/notion"
	"github.com/tkoide/corpora/search"
)

func main() {
	// Local .env overrides nothing already exported
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "corpora",
		Usage: "Incremental document ingestion, chunking and embedding pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./corpora_db",
				EnvVars: []string{"CORPORA_DB"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"CORPORA_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "Pull documents from a source into the database",
				Subcommands: []*cli.Command{
					{
						Name:   "gmail",
						Usage:  "Ingest matching Gmail messages",
						Action: ingestGmailCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "query",
								Usage: "Gmail search query selecting messages",
								Value: gmail.DefaultConfig().Query,
							},
							&cli.StringFlag{
								Name:    "token-file",
								Usage:   "Path to OAuth2 token JSON file",
								Value:   "token.json",
								EnvVars: []string{"GMAIL_TOKEN_FILE"},
							},
							&cli.Int64Flag{
								Name:  "max-results",
								Usage: "Maximum number of messages to fetch",
								Value: 50,
							},
						},
					},
					{
						Name:   "notion",
						Usage:  "Ingest pages from a Notion database",
						Action: ingestNotionCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "token",
								Usage:   "Notion integration token",
								EnvVars: []string{"NOTION_TOKEN"},
							},
							&cli.StringFlag{
								Name:    "database-id",
								Usage:   "Notion database to query",
								EnvVars: []string{"NOTION_DATABASE_ID"},
							},
							&cli.StringFlag{
								Name:  "title-property",
								Usage: "Name of the title property",
								Value: "Title",
							},
							&cli.StringFlag{
								Name:  "content-property",
								Usage: "Name of the rich-text property holding the body",
								Value: "content",
							},
						},
					},
					{
						Name:      "file",
						Usage:     "Ingest plain-text note files from a directory",
						ArgsUsage: "<directory>",
						Action:    ingestFileCommand,
					},
				},
			},
			{
				Name:   "chunk",
				Usage:  "Rebuild chunks for documents whose content changed",
				Action: chunkCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "size",
						Usage: "Window length in runes",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "stride",
						Usage: "Distance between window starts in runes",
						Value: 800,
					},
					&cli.IntFlag{
						Name:  "min-length",
						Usage: "Minimum document length in runes",
						Value: 50,
					},
				},
			},
			{
				Name:   "embed",
				Usage:  "Embed chunks under a new or resumed embedding run",
				Action: embedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "embedding-host",
						Usage:   "Embedding service host URL",
						Value:   "http://localhost:11434/v1",
						EnvVars: []string{"CORPORA_EMBEDDING_HOST"},
					},
					&cli.StringFlag{
						Name:    "embedding-model",
						Usage:   "Embedding model name",
						EnvVars: []string{"CORPORA_EMBEDDING_MODEL"},
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "API token for the embedding service",
						EnvVars: []string{"CORPORA_EMBEDDING_TOKEN"},
					},
					&cli.IntFlag{
						Name:  "dimension",
						Usage: "Vector dimension the model produces",
					},
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "Store unit-length vectors",
						Value: true,
					},
					&cli.Uint64Flag{
						Name:  "resume-run",
						Usage: "Resume an existing run instead of creating one",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed in each batch",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "max-chunks",
						Usage: "Maximum chunks to process this invocation (0 = unlimited)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "runs",
				Usage:  "List embedding runs",
				Action: runsCommand,
			},
			{
				Name:      "search",
				Usage:     "Search a run for chunks similar to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "run",
						Usage:    "Embedding run to search",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum similarity a hit must reach",
						Value: 0.60,
					},
					&cli.StringFlag{
						Name:    "embedding-host",
						Usage:   "Embedding service host URL",
						Value:   "http://localhost:11434/v1",
						EnvVars: []string{"CORPORA_EMBEDDING_HOST"},
					},
					&cli.StringFlag{
						Name:    "embedding-model",
						Usage:   "Embedding model name",
						EnvVars: []string{"CORPORA_EMBEDDING_MODEL"},
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "API token for the embedding service",
						EnvVars: []string{"CORPORA_EMBEDDING_TOKEN"},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openDatabase assembles the repositories and embedding client behind one
// handle. Callers must Close the returned database.
func openDatabase(c *cli.Context, opts ...corpora.DatabaseOption) (*corpora.Database, error) {
	db, err := corpora.NewDatabase(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func runIngest(c *cli.Context, source ingest.Source) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ingestor, err := db.NewIngestor()
	if err != nil {
		return err
	}

	report, err := ingestor.Run(context.Background(), source)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Ingested from %s: %d inserted, %d updated, %d failed\n",
		source.Name(), report.Inserted, report.Updated, report.Failed)
	return nil
}

func ingestGmailCommand(c *cli.Context) error {
	source := gmail.NewSource(&gmail.Config{
		Query:      c.String("query"),
		TokenFile:  c.String("token-file"),
		MaxResults: c.Int64("max-results"),
	})
	return runIngest(c, source)
}

func ingestNotionCommand(c *cli.Context) error {
	source, err := notion.NewSource(&notion.Config{
		Token:           c.String("token"),
		DatabaseID:      c.String("database-id"),
		TitleProperty:   c.String("title-property"),
		ContentProperty: c.String("content-property"),
	})
	if err != nil {
		return err
	}
	return runIngest(c, source)
}

func ingestFileCommand(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return fmt.Errorf("directory argument is required")
	}
	return runIngest(c, notefile.NewSource(dir))
}

func chunkCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	chk, err := db.NewChunker(&chunker.Config{
		Size:      c.Int("size"),
		Stride:    c.Int("stride"),
		MinLength: c.Int("min-length"),
	})
	if err != nil {
		return err
	}

	report, err := chk.Run(context.Background())
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Chunked %d documents (%d skipped short): %d chunks inserted, %d deleted\n",
		report.Chunked, report.SkippedShort, report.ChunksInserted, report.ChunksDeleted)
	return nil
}

// resumeModel returns the model a resumed pass must use. The run's persisted
// model governs; naming a different model on the command line is an error,
// never a silent mix of two models' vectors under one run.
func resumeModel(run *core.EmbeddingRun, flagModel string) (string, error) {
	if flagModel != "" && flagModel != run.Model {
		return "", fmt.Errorf("run %d was created with model %q, cannot resume with %q",
			run.Id, run.Model, flagModel)
	}
	return run.Model, nil
}

func embedCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	model := c.String("embedding-model")
	resumeRun := c.Uint64("resume-run")
	if resumeRun != 0 {
		run, err := db.RunRepository().GetRun(ctx, core.ID(resumeRun))
		if err != nil {
			return fmt.Errorf("failed to load run %d: %w", resumeRun, err)
		}
		model, err = resumeModel(run, model)
		if err != nil {
			return err
		}
	} else if c.Int("dimension") <= 0 {
		// A fresh run needs the model parameters up front
		return fmt.Errorf("dimension is required when creating a run")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(model),
		ai.WithToken(c.String("token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	emb, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	embedConfig := &embedder.Config{
		Model:          model,
		Dimension:      c.Int("dimension"),
		Normalize:      c.Bool("normalize"),
		BatchSize:      c.Int("batch-size"),
		MaxChunks:      c.Int("max-chunks"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	runner, err := db.NewEmbedRunner(emb, embedConfig, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", model)
	fmt.Fprintln(os.Stderr)

	if resumeRun != 0 {
		_, err = runner.Resume(ctx, core.ID(resumeRun))
	} else {
		_, err = runner.Run(ctx)
	}
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	return nil
}

func runsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	runs, err := db.RunRepository().ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No embedding runs")
		return nil
	}

	for _, run := range runs {
		count, err := db.RunRepository().CountEmbeddings(ctx, run.Id)
		if err != nil {
			return fmt.Errorf("failed to count embeddings for run %d: %w", run.Id, err)
		}
		fmt.Printf("%d: %s dim=%d normalize=%v vectors=%d created=%s\n",
			run.Id, run.Model, run.Dimension, run.Normalize, count,
			run.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query argument is required")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := openDatabase(c, corpora.WithAIConfig(aiConfig))
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(search.WithMinScore(float32(c.Float64("min-score"))))
	if err != nil {
		return err
	}

	results, err := searcher.FindSimilar(context.Background(),
		core.ID(c.Uint64("run")), query, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		title := hit.Document.Title
		if title == "" {
			title = fmt.Sprintf("%s/%s", hit.Document.SourceType, hit.Document.SourceID)
		}
		fmt.Printf("%d: %s #%d [%0.3f]\n", i, title, hit.Chunk.ChunkIndex, hit.Score)
		fmt.Printf("   %s\n", excerpt(hit.Chunk.Text, 160))
	}
	return nil
}

// excerpt trims text to at most n runes for terminal output.
func excerpt(text string, n int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
