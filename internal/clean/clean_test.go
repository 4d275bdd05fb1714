package clean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanStripsChromeAndKeepsParagraphs(t *testing.T) {
	html := `
<div>
  <nav>site nav</nav>
  <p class="author">By Jane Doe, Staff Writer</p>
  <p>` + strings.Repeat("This is a real sentence of article body content. ", 3) + `</p>
  <script>var x = 1;</script>
  <footer>copyright 2026</footer>
</div>`

	result, err := Clean(html)
	require.NoError(t, err)
	assert.NotContains(t, result.Plain, "site nav")
	assert.NotContains(t, result.Plain, "copyright")
	assert.NotContains(t, result.Plain, "var x")
	assert.Contains(t, result.Plain, "real sentence of article body")
}

func TestCleanIsDeterministic(t *testing.T) {
	html := `<div><p>` + strings.Repeat("deterministic output please. ", 5) + `</p></div>`
	r1, err := Clean(html)
	require.NoError(t, err)
	r2, err := Clean(html)
	require.NoError(t, err)
	assert.Equal(t, r1.Plain, r2.Plain)
}

func TestCleanDedupesNearIdenticalParagraphs(t *testing.T) {
	para := strings.Repeat("the quick brown fox jumps over the lazy dog near the river bank today ", 2)
	html := `<div><p>` + para + `</p><p>` + para + ` extra</p></div>`
	result, err := Clean(html)
	require.NoError(t, err)
	// The kept paragraph itself contains the sentence twice; the dropped
	// near-duplicate would have added two more.
	assert.Equal(t, 2, strings.Count(result.Plain, "quick brown fox"))
}

func TestCleanNormalizesSmartPunctuation(t *testing.T) {
	html := `<div><p>` + strings.Repeat("She said “hello” and it’s a long test sentence, yes. ", 2) + `</p></div>`
	result, err := Clean(html)
	require.NoError(t, err)
	assert.Contains(t, result.Plain, "\"hello\"")
	assert.Contains(t, result.Plain, "it's")
}

func TestCleanDropsShortParagraphs(t *testing.T) {
	html := `<div><p>too short</p></div>`
	result, err := Clean(html)
	require.NoError(t, err)
	assert.Empty(t, result.Plain)
}
