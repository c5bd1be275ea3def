package corpora

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkoide/corpora/ai/mock"
	"github.com/tkoide/corpora/chunker"
	"github.com/tkoide/corpora/embedder"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.ChunkRepository())
		assert.NotNil(t, db.RunRepository())
		assert.NotNil(t, db.Embedder())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
	})

	t.Run("in memory", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory())
		require.NoError(t, err)
		require.NotNil(t, db)
		assert.NoError(t, db.Close())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, db)

	// Close the database
	err = db.Close()
	assert.NoError(t, err)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	t.Run("can create ingestor", func(t *testing.T) {
		ing, err := db.NewIngestor()
		require.NoError(t, err)
		require.NotNil(t, ing)
	})

	t.Run("can create chunker", func(t *testing.T) {
		chk, err := db.NewChunker(chunker.DefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, chk)
	})

	t.Run("can create embed runner", func(t *testing.T) {
		runner, err := db.NewEmbedRunner(nil, embedder.DefaultConfig(), nil)
		require.NoError(t, err)
		require.NotNil(t, runner)
	})

	t.Run("can create embed runner with explicit client", func(t *testing.T) {
		runner, err := db.NewEmbedRunner(mock.NewMockEmbedder(), embedder.DefaultConfig(), nil)
		require.NoError(t, err)
		require.NotNil(t, runner)
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := db.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})
}
