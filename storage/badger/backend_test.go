package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/tkoide/corpora/core"
	"github.com/tkoide/corpora/storage"
)

func TestOpenBackendInMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	if err != nil {
		t.Fatalf("Failed to open in-memory backend: %v", err)
	}
	if backend.IsClosed() {
		t.Fatal("Expected freshly opened backend to be open")
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("Failed to close backend: %v", err)
	}
	if !backend.IsClosed() {
		t.Fatal("Expected backend to report closed after Close")
	}
}

func TestClosedBackendRejectsOperations(t *testing.T) {
	docRepo, chunkRepo, runRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	runRepo.Close()
	chunkRepo.Close()
	docRepo.Close()
	backend.Close()

	ctx := context.Background()

	if _, err := docRepo.GetDocument(ctx, 1); !errors.Is(err, storage.ErrStorageClosed) {
		t.Fatalf("Expected ErrStorageClosed from GetDocument, got %v", err)
	}
	if _, err := chunkRepo.GetChunk(ctx, 1); !errors.Is(err, storage.ErrStorageClosed) {
		t.Fatalf("Expected ErrStorageClosed from GetChunk, got %v", err)
	}
	if _, err := runRepo.ListRuns(ctx); !errors.Is(err, storage.ErrStorageClosed) {
		t.Fatalf("Expected ErrStorageClosed from ListRuns, got %v", err)
	}

	doc := &core.Document{
		SourceType:  "note",
		SourceID:    "n-1",
		RawText:     "text",
		ContentHash: core.ContentHash("text"),
	}
	if _, _, err := docRepo.UpsertDocument(ctx, doc); !errors.Is(err, storage.ErrStorageClosed) {
		t.Fatalf("Expected ErrStorageClosed from UpsertDocument, got %v", err)
	}
}
