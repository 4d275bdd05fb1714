package publish

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugifyBasic(t *testing.T) {
	assert.Equal(t, "openai-launches-atlas", Slugify("OpenAI Launches Atlas", "abc123"))
}

func TestSlugifyFallsBackToIDWhenEmpty(t *testing.T) {
	got := Slugify("!!!???", "abcdefghijklmnopqrstuvwxyz")
	assert.Equal(t, "article-abcdefghijklmnopqrst", got)
}

func TestUniqueSlugAppendsSuffixOnCollision(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2025-11-03_openai_a1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-11-03_openai_a1", "slug.txt"), []byte("openai-launches-atlas"), 0o644))

	slug, err := UniqueSlug(dir, "openai-launches-atlas")
	require.NoError(t, err)
	assert.Equal(t, "openai-launches-atlas-2", slug)
}

func TestUniqueSlugNoCollisionReturnsCandidate(t *testing.T) {
	dir := t.TempDir()
	slug, err := UniqueSlug(dir, "fresh-slug")
	require.NoError(t, err)
	assert.Equal(t, "fresh-slug", slug)
}

func TestFolderName(t *testing.T) {
	assert.Equal(t, "2025-11-03_openai_a1", FolderName("2025-11-03", "openai", "a1"))
}

func TestIsCompleteRequiresAllThreeFiles(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsComplete(dir))

	for _, f := range RequiredForIdempotencyCheck {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
	}
	assert.True(t, IsComplete(dir))
}

func TestWriteMaterializesAllFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2025-11-03_openai_a1")
	err := Write(dir, ArticleContent{
		Title:           "Title",
		Subtitle:        "Subtitle",
		ArticleMarkdown: "# Body",
		ImageCategories: []string{"ai", "coding", "security"},
		SourceCategory:  "openai",
		Slug:            "title",
		XPost:           "x",
		LinkedInPost:    "li",
		ShortsScript:    "script",
	})
	require.NoError(t, err)

	for _, f := range Files {
		_, statErr := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, statErr, "expected %s to exist", f)
	}
}

func TestWriteOmitsSlugWhenEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "arxiv-2501-00001")
	err := Write(dir, ArticleContent{Title: "T", ArticleMarkdown: "body"})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "slug.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestValidateUnderRoot(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "AIResearch", "2025-11-03_openai_a1")
	outside := filepath.Join(root, "..", "escaped")

	assert.True(t, ValidateUnderRoot(root, inside))
	assert.False(t, ValidateUnderRoot(root, outside))
}
