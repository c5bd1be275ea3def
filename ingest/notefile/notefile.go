// Package notefile ingests plain-text note files from a local directory.
// Notes have no stable native identifier, so the natural key is derived from
// the note's content fingerprint: an edited note is a new document, and the
// same note dropped in twice dedupes to one.
package notefile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/ingest"
)

// SourceType is the natural-key namespace for note files.
const SourceType = "note"

// Source reads note files from a directory.
type Source struct {
	dir    string
	logger *slog.Logger
}

var _ ingest.Source = (*Source)(nil)

// NewSource creates a note file source reading from dir.
func NewSource(dir string) *Source {
	return &Source{
		dir:    dir,
		logger: slog.Default().With("component", "notefile-source"),
	}
}

// Name identifies the source.
func (s *Source) Name() string {
	return SourceType
}

// Fetch reads every .txt and .md file in the directory. Unreadable files are
// reported as per-item failures.
func (s *Source) Fetch(ctx context.Context) ([]ingest.Result, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read note directory: %w", err)
	}

	var results []ingest.Result
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			results = append(results, ingest.Result{Err: fmt.Errorf("read %s: %w", entry.Name(), err)})
			continue
		}

		info, err := entry.Info()
		if err != nil {
			results = append(results, ingest.Result{Err: fmt.Errorf("stat %s: %w", entry.Name(), err)})
			continue
		}

		normalized := core.NormalizeText(string(data))
		item := &ingest.Item{
			SourceType: SourceType,
			// No native ID; the content fingerprint is the identity
			SourceID:   core.ContentHash(normalized),
			RawText:    normalized,
			Title:      strings.TrimSuffix(entry.Name(), ext),
			RecordedAt: info.ModTime().UTC(),
			Meta:       map[string]string{"filename": entry.Name()},
		}
		results = append(results, ingest.Result{Item: item})
	}

	s.logger.Debug("fetched note files", "dir", s.dir, "count", len(results))
	return results, nil
}
