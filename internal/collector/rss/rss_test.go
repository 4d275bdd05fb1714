package rss

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeXML(t *testing.T) {
	assert.True(t, looksLikeXML([]byte("<?xml version=\"1.0\"?><rss></rss>")))
	assert.True(t, looksLikeXML([]byte("<rss version=\"2.0\"><channel></channel></rss>")))
	assert.False(t, looksLikeXML([]byte("<html><body>not a feed</body></html>")))
}

func TestSelectBestContainerPrefersArticleTag(t *testing.T) {
	body := `<html><body><nav>site nav</nav><article>` + strings.Repeat("real article content here. ", 50) + `</article></body></html>`
	container := selectBestContainer(body)
	assert.Contains(t, container, "real article content")
	assert.NotContains(t, container, "site nav")
}

func TestSelectBestContainerFallsBackToLongestCandidate(t *testing.T) {
	body := `<html><body><div class="content">` + strings.Repeat("word ", 150) + `</div></body></html>`
	container := selectBestContainer(body)
	assert.Contains(t, container, "word")
	assert.NotContains(t, container, "<body")
}

func TestSelectBestContainerFallsBackToWholeBody(t *testing.T) {
	body := `<html><body><p>too short</p></body></html>`
	container := selectBestContainer(body)
	assert.Contains(t, container, "too short")
}
