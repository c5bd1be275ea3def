package ingest

import (
	"context"
	"time"
)

// Item is one raw document pulled from an external source.
type Item struct {
	// SourceType identifies the originating system ("gmail", "notion", "note")
	SourceType string

	// SourceID is the source's native identifier for this document.
	// Together with SourceType it forms the natural key.
	SourceID string

	// RawText is the full text content, before normalization
	RawText string

	// SummaryText is an optional source-supplied summary
	SummaryText string

	// Title is the document title or subject
	Title string

	// RecordedAt is the source-asserted timestamp; zero when unknown
	RecordedAt time.Time

	// Meta is an open key/value bag: sender, recipients, thread linkage,
	// attachment manifest
	Meta map[string]string
}

// Result pairs an item with the per-item error that produced it. A source
// that fails on one item can still deliver the rest.
type Result struct {
	Item *Item
	Err  error
}

// Source pulls documents from one external system.
// Implementations handle their own transport, authentication, and format
// conversion; the ingestor only sees finished items.
type Source interface {
	// Name identifies the source for logging and reports.
	Name() string

	// Fetch retrieves the source's current items. Per-item failures are
	// reported through Result.Err; an error return means the source as a
	// whole was unreachable.
	Fetch(ctx context.Context) ([]Result, error)
}
