package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithRepairHandlesWhitespace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "articles_registry.json")
	// encoding/json already accepts surrounding spaces, tabs and newlines, so
	// the form feed and vertical tab are what make the raw parse fail and the
	// trim step fire.
	require.NoError(t, os.WriteFile(path, []byte("  \n\t\f{\"articles\":{\"x\":{\"id\":\"x\",\"status\":\"Collected\"}}}\n\v  "), 0o644))

	doc, repaired, err := loadWithRepair(path)
	require.NoError(t, err)
	require.Contains(t, doc.Articles, "x")
	assert.True(t, repaired)
}

func TestLoadWithRepairTruncatesTrailingGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "articles_registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"articles":{"x":{"id":"x","status":"Collected"}}}trailing-garbage-not-json`), 0o644))

	doc, repaired, err := loadWithRepair(path)
	require.NoError(t, err)
	require.Contains(t, doc.Articles, "x")
	assert.True(t, repaired)
}

func TestLoadWithRepairFallsBackToEmptyAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "articles_registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json at all {{{`), 0o644))

	doc, repaired, err := loadWithRepair(path)
	require.NoError(t, err)
	assert.Empty(t, doc.Articles)
	assert.True(t, repaired)

	matches, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
