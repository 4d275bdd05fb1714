package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverURLsDirectLinkSelector(t *testing.T) {
	body := `<html><body>
  <a href="/news/2025/story-one">One</a>
  <a href="/category/tech">Category</a>
  <a href="/news/2025/story-two">Two</a>
</body></html>`

	urls, err := discoverURLs(body, "https://example.com/blog", SiteRules{Mode: ModeDirectLinkSelector})
	require.NoError(t, err)
	assert.Contains(t, urls, "https://example.com/news/2025/story-one")
	assert.Contains(t, urls, "https://example.com/news/2025/story-two")
}

func TestFilterCandidatesDropsNonArticlePaths(t *testing.T) {
	candidates := []string{
		"https://example.com/category/tech",
		"https://example.com/news/2025/a-real-story",
		"https://example.com/blog",
		"https://example.com/author/jane",
	}
	out := filterCandidates(candidates, "https://example.com/blog")
	assert.Contains(t, out, "https://example.com/news/2025/a-real-story")
	assert.NotContains(t, out, "https://example.com/category/tech")
	assert.NotContains(t, out, "https://example.com/blog")
	assert.NotContains(t, out, "https://example.com/author/jane")
}

func TestFilterCandidatesDedupes(t *testing.T) {
	candidates := []string{
		"https://example.com/news/2025/a",
		"https://example.com/news/2025/a",
	}
	out := filterCandidates(candidates, "https://example.com/blog")
	assert.Len(t, out, 1)
}

func TestIsDeepEnoughPathAllowsYearInShallowPath(t *testing.T) {
	assert.True(t, isDeepEnoughPath("https://example.com/2025/"))
	assert.False(t, isDeepEnoughPath("https://example.com/blog"))
	assert.True(t, isDeepEnoughPath("https://example.com/blog/story"))
}

func TestDiscoverViaRegexFallbackFindsEmbeddedURLs(t *testing.T) {
	body := `<html><body><script>var data = {"url": "https://example.com/news/2025/embedded-story"};</script></body></html>`
	urls, err := discoverURLs(body, "https://example.com/blog", SiteRules{Mode: ModeDirectLinkSelector})
	require.NoError(t, err)
	assert.Contains(t, urls, "https://example.com/news/2025/embedded-story")
}

func TestExtractTitlePrefersH1(t *testing.T) {
	body := `<html><head><title>Page Title</title></head><body><h1>Real Headline</h1></body></html>`
	assert.Equal(t, "Real Headline", extractTitle(body))
}
