// Package notion ingests pages from a Notion database. Each page becomes
// one document: a title property supplies the title and a configured
// rich-text property supplies the raw text; the natural key is the page id.
package notion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/tkoide/corpora/ingest"
)

// SourceType is the natural-key namespace for Notion pages.
const SourceType = "notion"

// Config holds configuration for the Notion source.
type Config struct {
	// Token is the Notion integration token.
	Token string

	// DatabaseID is the Notion database to query.
	DatabaseID string

	// TitleProperty is the name of the title property. Default: "Title".
	TitleProperty string

	// ContentProperty is the name of the rich-text property holding the
	// note body. Default: "content".
	ContentProperty string

	// PageSize caps how many pages one pass fetches. Default: 100.
	PageSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TitleProperty:   "Title",
		ContentProperty: "content",
		PageSize:        100,
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("notion config: Token is required")
	}
	if c.DatabaseID == "" {
		return errors.New("notion config: DatabaseID is required")
	}
	return nil
}

// Source pulls pages from a Notion database.
type Source struct {
	config *Config
	client *notionapi.Client
	logger *slog.Logger
}

var _ ingest.Source = (*Source)(nil)

// NewSource creates a Notion source.
func NewSource(config *Config) (*Source, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TitleProperty == "" {
		config.TitleProperty = "Title"
	}
	if config.ContentProperty == "" {
		config.ContentProperty = "content"
	}
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Source{
		config: config,
		client: notionapi.NewClient(notionapi.Token(config.Token)),
		logger: slog.Default().With("component", "notion-source"),
	}, nil
}

// Name identifies the source.
func (s *Source) Name() string {
	return SourceType
}

// Fetch queries the database newest-first and converts each page to an item.
func (s *Source) Fetch(ctx context.Context) ([]ingest.Result, error) {
	resp, err := s.client.Database.Query(ctx, notionapi.DatabaseID(s.config.DatabaseID),
		&notionapi.DatabaseQueryRequest{
			PageSize: s.config.PageSize,
			Sorts: []notionapi.SortObject{
				{Timestamp: notionapi.TimestampCreated, Direction: notionapi.SortOrderDESC},
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}

	s.logger.Info("queried database", "database", s.config.DatabaseID, "pages", len(resp.Results))

	results := make([]ingest.Result, 0, len(resp.Results))
	for _, page := range resp.Results {
		results = append(results, ingest.Result{Item: s.itemFromPage(&page)})
	}
	return results, nil
}

// itemFromPage maps one Notion page to an item.
func (s *Source) itemFromPage(page *notionapi.Page) *ingest.Item {
	return &ingest.Item{
		SourceType: SourceType,
		SourceID:   page.ID.String(),
		RawText:    richTextValue(page.Properties, s.config.ContentProperty),
		Title:      titleValue(page.Properties, s.config.TitleProperty),
		RecordedAt: page.CreatedTime.UTC(),
		Meta: map[string]string{
			"url": page.URL,
		},
	}
}

// titleValue extracts the plain text of a title property.
func titleValue(props notionapi.Properties, name string) string {
	prop, ok := props[name]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok {
		return ""
	}
	return plainText(title.Title)
}

// richTextValue extracts the plain text of a rich-text property.
func richTextValue(props notionapi.Properties, name string) string {
	prop, ok := props[name]
	if !ok {
		return ""
	}
	rich, ok := prop.(*notionapi.RichTextProperty)
	if !ok {
		return ""
	}
	return plainText(rich.RichText)
}

func plainText(spans []notionapi.RichText) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.PlainText)
	}
	return strings.TrimSpace(b.String())
}
