package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geraldfingburke/autopress/internal/models"
	"github.com/geraldfingburke/autopress/internal/publish"
	"github.com/geraldfingburke/autopress/internal/registry"
)

func setupArticle(t *testing.T, root, id, category string, featured bool) string {
	t.Helper()
	outDir := filepath.Join(root, "output", "site", "2026-07-31_"+category+"_"+id)
	require.NoError(t, publish.Write(outDir, publish.ArticleContent{
		Title:           "A Title",
		ArticleMarkdown: "body",
		Slug:            "a-title",
		SourceCategory:  category,
	}))
	return outDir
}

func TestReconcileBatchVerifiesCompleteOutputAndBackfillsTitle(t *testing.T) {
	root := t.TempDir()
	rawDir := filepath.Join(root, "downloads", "raw")
	require.NoError(t, os.MkdirAll(filepath.Join(rawDir, "2026-07-31"), 0o755))

	reg, err := registry.Load(filepath.Join(root, "articles_registry.json"))
	require.NoError(t, err)

	article := models.Article{ID: "a1", URL: "https://example.com/a", OriginalTitle: "Hello", SourceType: models.SourceRSS}
	_, err = reg.RegisterCollected(article)
	require.NoError(t, err)

	outDir := setupArticle(t, root, "a1", "technology", false)
	relOutDir, err := filepath.Rel(root, outDir)
	require.NoError(t, err)
	require.NoError(t, reg.RegisterPublished("a1", relOutDir, "", "", models.Tokens{}))

	inputPath := filepath.Join(rawDir, "2026-07-31", "a1.json")
	require.NoError(t, os.WriteFile(inputPath, []byte(`{}`), 0o644))

	r := New(reg, root, rawDir, filepath.Join(root, "promo_articles.json"))
	result, err := r.ReconcileBatch([]string{inputPath})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Verified)
	assert.Equal(t, 1, result.TitlesBackfilled)
	assert.Equal(t, 1, result.InputsRemoved)

	entry, ok := reg.Get("a1")
	require.True(t, ok)
	assert.True(t, entry.Verified)
	assert.Equal(t, "A Title", entry.GeneratedTitle)

	_, statErr := os.Stat(inputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReconcileBatchScansSiblingDateFoldersWhenInputMoved(t *testing.T) {
	root := t.TempDir()
	rawDir := filepath.Join(root, "downloads", "raw")
	require.NoError(t, os.MkdirAll(filepath.Join(rawDir, "2026-07-30"), 0o755))

	actualInput := filepath.Join(rawDir, "2026-07-30", "a2.json")
	require.NoError(t, os.WriteFile(actualInput, []byte(`{}`), 0o644))

	reg, err := registry.Load(filepath.Join(root, "articles_registry.json"))
	require.NoError(t, err)

	r := New(reg, root, rawDir, "")
	expectedButMissingPath := filepath.Join(rawDir, "2026-07-31", "a2.json")
	result, err := r.ReconcileBatch([]string{expectedButMissingPath})
	require.NoError(t, err)

	assert.Equal(t, 1, result.InputsRemoved)
	_, statErr := os.Stat(actualInput)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReconcileBatchReportsInputsNotFound(t *testing.T) {
	root := t.TempDir()
	rawDir := filepath.Join(root, "downloads", "raw")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))

	reg, err := registry.Load(filepath.Join(root, "articles_registry.json"))
	require.NoError(t, err)

	r := New(reg, root, rawDir, "")
	result, err := r.ReconcileBatch([]string{filepath.Join(rawDir, "2026-07-31", "ghost.json")})
	require.NoError(t, err)
	assert.Equal(t, 0, result.InputsRemoved)
	assert.Equal(t, 1, result.InputsNotFound)
}

func TestWritePromoFileIncludesOnlyFeaturedPublishedNonHidden(t *testing.T) {
	root := t.TempDir()
	rawDir := filepath.Join(root, "downloads", "raw")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))

	reg, err := registry.Load(filepath.Join(root, "articles_registry.json"))
	require.NoError(t, err)

	_, err = reg.RegisterCollected(models.Article{ID: "f1", URL: "https://example.com/f1"})
	require.NoError(t, err)
	outDir := setupArticle(t, root, "f1", "robotics", true)
	relOutDir, err := filepath.Rel(root, outDir)
	require.NoError(t, err)
	require.NoError(t, reg.RegisterFiltered("f1", 90, "robotics"))
	require.NoError(t, reg.RegisterPublished("f1", relOutDir, "Featured Article", "", models.Tokens{}))
	require.NoError(t, reg.SetFeatured("f1", true))

	_, err = reg.RegisterCollected(models.Article{ID: "f2", URL: "https://example.com/f2"})
	require.NoError(t, err)
	outDir2 := setupArticle(t, root, "f2", "robotics", false)
	relOutDir2, err := filepath.Rel(root, outDir2)
	require.NoError(t, err)
	require.NoError(t, reg.RegisterPublished("f2", relOutDir2, "Not Featured", "", models.Tokens{}))

	promoFile := filepath.Join(root, "promo_articles.json")
	r := New(reg, root, rawDir, promoFile)
	_, err = r.ReconcileBatch(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(promoFile)
	require.NoError(t, err)

	var promoted []PromoArticle
	require.NoError(t, json.Unmarshal(data, &promoted))
	require.Len(t, promoted, 1)
	assert.Equal(t, "f1", promoted[0].ID)
	assert.Equal(t, "a-title", promoted[0].Slug)
}
