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


package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/storage"
)

// Report summarizes one ingestion pass.
type Report struct {
	// Inserted is the number of new documents created
	Inserted int

	// Updated is the number of existing documents merged
	Updated int

	// Failed is the number of items that could not be stored or fetched
	Failed int
}

// Ingestor pulls documents from sources and upserts them as canonical
// document records. Item failures are counted, not fatal; one bad item
// never aborts the rest of the stream.
type Ingestor struct {
	docs   storage.DocumentRepository
	logger *slog.Logger
}

// NewIngestor creates a new ingestor.
func NewIngestor(docs storage.DocumentRepository) (*Ingestor, error) {
	if docs == nil {
		return nil, ErrRepositoryRequired
	}

	return &Ingestor{
		docs:   docs,
		logger: slog.Default().With("component", "ingestor"),
	}, nil
}

// Run fetches every item the source currently offers and upserts each as a
// document. Raw text is normalized before fingerprinting, so formatting
// noise does not register as a content change. Re-ingesting unchanged
// content refreshes IngestedAt and nothing else, which keeps already-chunked
// documents out of the chunker's way.
func (ing *Ingestor) Run(ctx context.Context, source Source) (*Report, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	results, err := source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.Name(), err)
	}

	ing.logger.Info("ingesting items", "source", source.Name(), "count", len(results))

	report := &Report{}
	for _, result := range results {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if result.Err != nil {
			report.Failed++
			ing.logger.Warn("item fetch failed", "source", source.Name(), "err", result.Err)
			continue
		}

		doc := documentFromItem(result.Item)
		_, created, err := ing.docs.UpsertDocument(ctx, doc)
		if err != nil {
			report.Failed++
			ing.logger.Warn("item upsert failed", "source", source.Name(),
				"source_id", result.Item.SourceID, "err", err)
			continue
		}

		if created {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	ing.logger.Info("ingestion complete", "source", source.Name(),
		"inserted", report.Inserted, "updated", report.Updated, "failed", report.Failed)
	return report, nil
}

// documentFromItem normalizes an item's text and builds the document record
// to upsert. The content fingerprint covers the normalized text only.
func documentFromItem(item *Item) *core.Document {
	normalized := core.NormalizeText(item.RawText)
	return &core.Document{
		SourceType:  item.SourceType,
		SourceID:    item.SourceID,
		ContentHash: core.ContentHash(normalized),
		RawText:     normalized,
		SummaryText: item.SummaryText,
		Title:       item.Title,
		RecordedAt:  item.RecordedAt,
		Meta:        item.Meta,
	}
}
