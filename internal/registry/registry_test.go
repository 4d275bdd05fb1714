package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geraldfingburke/autopress/internal/models"
)

func TestRegisterCollectedThenDuplicateIsNoop(t *testing.T) {
	dir := t.TempDir()
	reg, err := Load(filepath.Join(dir, "articles_registry.json"))
	require.NoError(t, err)

	article := models.Article{ID: "a1", URL: "https://example.com/a", OriginalTitle: "Hello", SourceType: models.SourceRSS}

	ok, err := reg.RegisterCollected(article)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.RegisterCollected(article)
	require.NoError(t, err)
	assert.False(t, ok, "re-registering the same id must be a no-op")

	assert.True(t, reg.IsRegistered("a1"))
	assert.False(t, reg.IsPublished("a1"))
}

func TestLifecycleTransitions(t *testing.T) {
	dir := t.TempDir()
	reg, err := Load(filepath.Join(dir, "articles_registry.json"))
	require.NoError(t, err)

	article := models.Article{ID: "a2", URL: "https://example.com/b", OriginalTitle: "World", SourceType: models.SourceHTML}
	_, err = reg.RegisterCollected(article)
	require.NoError(t, err)

	require.NoError(t, reg.RegisterFiltered("a2", 72.5, "robotics"))
	entry, ok := reg.Get("a2")
	require.True(t, ok)
	assert.Equal(t, models.StatusFiltered, entry.Status)
	assert.Equal(t, "robotics", entry.Category)

	require.NoError(t, reg.RegisterPublished("a2", "/out/site/2026-07-31_robotics_a2", "World, Rebuilt", "world-rebuilt", models.Tokens{Prompt: 100, Completion: 200}))
	entry, ok = reg.Get("a2")
	require.True(t, ok)
	assert.Equal(t, models.StatusPublished, entry.Status)
	assert.True(t, reg.IsPublished("a2"))
	assert.Equal(t, 100, entry.Tokens.Prompt)
	assert.Equal(t, 200, entry.Tokens.Completion)
}

func TestRejectedIsTerminalStatus(t *testing.T) {
	dir := t.TempDir()
	reg, err := Load(filepath.Join(dir, "articles_registry.json"))
	require.NoError(t, err)

	article := models.Article{ID: "a3", URL: "https://example.com/c", SourceType: models.SourceRSS}
	_, err = reg.RegisterCollected(article)
	require.NoError(t, err)

	require.NoError(t, reg.RegisterRejected("a3", 12.0, "duplicate content"))
	entry, ok := reg.Get("a3")
	require.True(t, ok)
	assert.Equal(t, models.StatusRejected, entry.Status)
	assert.Equal(t, "duplicate content", entry.RejectionReason)
}

func TestMutateUnknownIDReturnsError(t *testing.T) {
	dir := t.TempDir()
	reg, err := Load(filepath.Join(dir, "articles_registry.json"))
	require.NoError(t, err)

	err = reg.RegisterFiltered("does-not-exist", 10, "technology")
	assert.Error(t, err)
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	reg, err := Load(filepath.Join(dir, "articles_registry.json"))
	require.NoError(t, err)
	assert.Empty(t, reg.GetAll())
}
