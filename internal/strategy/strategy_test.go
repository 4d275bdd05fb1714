package strategy

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBlockerCaptcha(t *testing.T) {
	assert.Equal(t, BlockerCaptcha, detectBlocker([]byte("please solve this recaptcha to continue")))
}

func TestDetectBlockerCookies(t *testing.T) {
	assert.Equal(t, BlockerCookies, detectBlocker([]byte("We use cookies. <button>Accept</button>")))
}

func TestDetectBlockerPaywallShortBody(t *testing.T) {
	short := "This article is behind a paywall, subscribe to continue reading."
	assert.Equal(t, BlockerPaywall, detectBlocker([]byte(short)))
}

func TestDetectBlockerPaywallLongBodyNotFlagged(t *testing.T) {
	long := strings.Repeat("word ", 3000) + "subscribe"
	assert.Equal(t, BlockerNone, detectBlocker([]byte(long)))
}

func TestDetectBlockerNoneOnCleanBody(t *testing.T) {
	assert.Equal(t, BlockerNone, detectBlocker([]byte("<article>plain content</article>")))
}

func TestLooksLikeFeed(t *testing.T) {
	assert.True(t, looksLikeFeed([]byte("  <?xml version=\"1.0\"?><rss></rss>")))
	assert.True(t, looksLikeFeed([]byte("<feed xmlns=\"http://www.w3.org/2005/Atom\">")))
	assert.False(t, looksLikeFeed([]byte("<html><body>not a feed</body></html>")))
}

func TestHasSemanticContainer(t *testing.T) {
	assert.True(t, hasSemanticContainer([]byte("<div class=\"article-content\">text</div>")))
	assert.True(t, hasSemanticContainer([]byte("<article>text</article>")))
	assert.False(t, hasSemanticContainer([]byte("<div class=\"grid\">text</div>")))
}

func TestFindAlternateFeedLinkResolvesRelativeHref(t *testing.T) {
	base, err := url.Parse("https://example.com/blog/")
	require.NoError(t, err)

	html := `<html><head><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head></html>`
	feedURL, found := findAlternateFeedLink([]byte(html), base)
	require.True(t, found)
	assert.Equal(t, "https://example.com/feed.xml", feedURL)
}

func TestFindAlternateFeedLinkAttributeOrderIndependent(t *testing.T) {
	base, err := url.Parse("https://example.com/")
	require.NoError(t, err)

	html := `<link type="application/atom+xml" href="https://example.com/atom.xml" rel="alternate">`
	feedURL, found := findAlternateFeedLink([]byte(html), base)
	require.True(t, found)
	assert.Equal(t, "https://example.com/atom.xml", feedURL)
}

func TestFindAlternateFeedLinkAbsentReturnsFalse(t *testing.T) {
	base, err := url.Parse("https://example.com/")
	require.NoError(t, err)

	html := `<html><head><title>no feed here</title></head></html>`
	_, found := findAlternateFeedLink([]byte(html), base)
	assert.False(t, found)
}
