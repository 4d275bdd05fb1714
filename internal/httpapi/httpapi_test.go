package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geraldfingburke/autopress/internal/models"
	"github.com/geraldfingburke/autopress/internal/registry"
)

func newTestServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()
	reg, err := registry.Load(filepath.Join(t.TempDir(), "articles_registry.json"))
	require.NoError(t, err)

	loopStats := func() (*models.LoopStats, error) { return models.NewLoopStats(), nil }
	return New(reg, loopStats, nil), reg
}

func publishArticle(t *testing.T, reg *registry.Registry, id, category, slug string, featured bool) {
	t.Helper()
	_, err := reg.RegisterCollected(models.Article{ID: id, URL: "https://example.com/" + id})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterFiltered(id, 80, category))
	require.NoError(t, reg.RegisterPublished(id, "output/site/"+id, "Title "+id, slug, models.Tokens{}))
	if featured {
		require.NoError(t, reg.SetFeatured(id, true))
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListArticlesFiltersHiddenAndByCategory(t *testing.T) {
	s, reg := newTestServer(t)
	publishArticle(t, reg, "a1", "robotics", "a1-slug", false)
	publishArticle(t, reg, "a2", "quantum", "a2-slug", false)
	require.NoError(t, reg.SetHidden("a2", true))

	req := httptest.NewRequest(http.MethodGet, "/articles?category=robotics", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Articles []models.ArticleMetadata `json:"articles"`
		Total    int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Articles, 1)
	assert.Equal(t, "a1", body.Articles[0].ID)
}

func TestListArticlesFeaturedFirst(t *testing.T) {
	s, reg := newTestServer(t)
	publishArticle(t, reg, "a1", "robotics", "a1-slug", false)
	publishArticle(t, reg, "a2", "robotics", "a2-slug", true)

	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var body struct {
		Articles []models.ArticleMetadata `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Articles, 2)
	assert.Equal(t, "a2", body.Articles[0].ID, "featured article must sort ahead of an unfeatured one published no later")
}

func TestGetArticleBySlug(t *testing.T) {
	s, reg := newTestServer(t)
	publishArticle(t, reg, "a1", "robotics", "unique-slug", false)

	req := httptest.NewRequest(http.MethodGet, "/articles/unique-slug", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var entry models.ArticleMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "a1", entry.ID)
}

func TestGetArticleNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/articles/nope", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetFeaturedTogglesRegistry(t *testing.T) {
	s, reg := newTestServer(t)
	publishArticle(t, reg, "a1", "robotics", "a1-slug", false)

	req := httptest.NewRequest(http.MethodPost, "/articles/a1/featured", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	entry, ok := reg.Get("a1")
	require.True(t, ok)
	assert.True(t, entry.Featured)
}

func TestResolveIDExtractsArxivIDFromFolderName(t *testing.T) {
	s, reg := newTestServer(t)
	_, err := reg.RegisterCollected(models.Article{ID: "2501.01234", URL: "https://arxiv.org/abs/2501.01234"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/articles/2501.01234_quantum-paper/hidden", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	entry, ok := reg.Get("2501.01234")
	require.True(t, ok)
	assert.True(t, entry.Hidden)
}

func TestLoopStatsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/loop/stats", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.LoopStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.CyclesRun)
}
