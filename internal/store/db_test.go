package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-datalake-etl/internal/model"
)

func initTestRegistry(t *testing.T) {
	t.Helper()
	require.NoError(t, Init(filepath.Join(t.TempDir(), "registry.db")))
	t.Cleanup(func() { Close() })
}

func TestRecordAndFindArtifact(t *testing.T) {
	initTestRegistry(t)

	artifact := model.SavedArtifact{
		DataPath:     "/lake/api/data.jsonl",
		MetadataPath: "/lake/api/metadata.json",
	}
	require.NoError(t, RecordArtifact("a-1", "API:items", "hash-1", artifact, 42))

	path, found, err := FindByHash("hash-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "/lake/api/data.jsonl", path)

	_, found, err = FindByHash("hash-unknown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListArtifacts(t *testing.T) {
	initTestRegistry(t)

	a := model.SavedArtifact{DataPath: "/lake/a/data.jsonl", MetadataPath: "/lake/a/metadata.json"}
	b := model.SavedArtifact{DataPath: "/lake/b/data.csv", MetadataPath: "/lake/b/metadata.json"}
	require.NoError(t, RecordArtifact("a-1", "API:a", "h1", a, 1))
	require.NoError(t, RecordArtifact("a-2", "FILE:b", "h2", b, 2))

	artifacts, err := ListArtifacts()
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	sources := []string{artifacts[0]["source"].(string), artifacts[1]["source"].(string)}
	assert.ElementsMatch(t, []string{"API:a", "FILE:b"}, sources)
}
