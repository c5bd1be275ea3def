package badger

import (
	"context"
	"testing"

	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/storage"
)

func TestDocumentUpsertBasics(t *testing.T) {
	docRepo, chunkRepo, runRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		runRepo.Close()
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	doc := &core.Document{
		SourceType:  "gmail",
		SourceID:    "msg-001",
		RawText:     "Hello, world!",
		ContentHash: core.ContentHash("Hello, world!"),
		Title:       "greeting",
	}

	stored, created, err := docRepo.UpsertDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to upsert document: %v", err)
	}
	if !created {
		t.Fatal("Expected first upsert to create")
	}
	if stored.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if stored.IngestedAt.IsZero() {
		t.Fatal("Expected IngestedAt to be set")
	}

	retrieved, err := docRepo.GetDocument(ctx, stored.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.RawText != "Hello, world!" {
		t.Fatalf("Expected 'Hello, world!', got '%s'", retrieved.RawText)
	}

	bySource, err := docRepo.GetDocumentBySource(ctx, "gmail", "msg-001")
	if err != nil {
		t.Fatalf("Failed to get document by source: %v", err)
	}
	if bySource.Id != stored.Id {
		t.Fatalf("Expected ID %d, got %d", stored.Id, bySource.Id)
	}
}

func TestDocumentUpsertConflict(t *testing.T) {
	docRepo, chunkRepo, runRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { runRepo.Close(); chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	first := &core.Document{
		SourceType:  "notion",
		SourceID:    "page-1",
		RawText:     "version one",
		ContentHash: core.ContentHash("version one"),
	}
	stored, created, err := docRepo.UpsertDocument(ctx, first)
	if err != nil {
		t.Fatalf("Failed to upsert document: %v", err)
	}
	if !created {
		t.Fatal("Expected first upsert to create")
	}
	firstID := stored.Id
	firstIngestedAt := stored.IngestedAt

	// Pretend the chunker ran against version one
	if err := docRepo.SetChunkedHash(ctx, firstID, first.ContentHash); err != nil {
		t.Fatalf("Failed to set chunked hash: %v", err)
	}

	// Same natural key, new content
	second := &core.Document{
		SourceType:  "notion",
		SourceID:    "page-1",
		RawText:     "version two",
		ContentHash: core.ContentHash("version two"),
	}
	merged, created, err := docRepo.UpsertDocument(ctx, second)
	if err != nil {
		t.Fatalf("Failed to re-upsert document: %v", err)
	}
	if created {
		t.Fatal("Expected second upsert to merge, not create")
	}
	if merged.Id != firstID {
		t.Fatalf("Expected stable ID %d, got %d", firstID, merged.Id)
	}
	if merged.ChunkedHash != core.ContentHash("version one") {
		t.Fatal("Expected upsert to preserve stored ChunkedHash")
	}
	if merged.IngestedAt.Before(firstIngestedAt) {
		t.Fatal("Expected upsert to refresh IngestedAt")
	}

	retrieved, err := docRepo.GetDocument(ctx, firstID)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.RawText != "version two" {
		t.Fatalf("Expected 'version two', got '%s'", retrieved.RawText)
	}

	count, err := docRepo.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to count documents: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 document, got %d", count)
	}
}

func TestDocumentUpsertValidation(t *testing.T) {
	docRepo, chunkRepo, runRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { runRepo.Close(); chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, _, err = docRepo.UpsertDocument(ctx, &core.Document{
		SourceID:    "no-type",
		ContentHash: "abc",
	})
	if err == nil {
		t.Fatal("Expected error for missing source type")
	}

	_, _, err = docRepo.UpsertDocument(ctx, &core.Document{
		SourceType: "gmail",
		SourceID:   "no-hash",
	})
	if err == nil {
		t.Fatal("Expected error for missing content hash")
	}
}

func TestStaleDocuments(t *testing.T) {
	docRepo, chunkRepo, runRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { runRepo.Close(); chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	fresh := &core.Document{
		SourceType:  "note",
		SourceID:    "a",
		RawText:     "already chunked",
		ContentHash: core.ContentHash("already chunked"),
	}
	never := &core.Document{
		SourceType:  "note",
		SourceID:    "b",
		RawText:     "never chunked",
		ContentHash: core.ContentHash("never chunked"),
	}
	changed := &core.Document{
		SourceType:  "note",
		SourceID:    "c",
		RawText:     "changed since",
		ContentHash: core.ContentHash("changed since"),
	}

	for _, doc := range []*core.Document{fresh, never, changed} {
		if _, _, err := docRepo.UpsertDocument(ctx, doc); err != nil {
			t.Fatalf("Failed to upsert document: %v", err)
		}
	}

	// fresh is up to date, changed was chunked against older content
	if err := docRepo.SetChunkedHash(ctx, fresh.Id, fresh.ContentHash); err != nil {
		t.Fatalf("Failed to set chunked hash: %v", err)
	}
	if err := docRepo.SetChunkedHash(ctx, changed.Id, core.ContentHash("older content")); err != nil {
		t.Fatalf("Failed to set chunked hash: %v", err)
	}

	stale, err := docRepo.StaleDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to list stale documents: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("Expected 2 stale documents, got %d", len(stale))
	}

	staleIDs := map[core.ID]bool{}
	for _, doc := range stale {
		staleIDs[doc.Id] = true
	}
	if !staleIDs[never.Id] || !staleIDs[changed.Id] {
		t.Fatal("Expected the never-chunked and changed documents to be stale")
	}
	if staleIDs[fresh.Id] {
		t.Fatal("Expected the up-to-date document not to be stale")
	}
}

func TestDocumentNotFound(t *testing.T) {
	docRepo, chunkRepo, runRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { runRepo.Close(); chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	if _, err := docRepo.GetDocument(ctx, 12345); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := docRepo.GetDocumentBySource(ctx, "gmail", "nope"); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := docRepo.SetChunkedHash(ctx, 12345, "abc"); err != storage.ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
