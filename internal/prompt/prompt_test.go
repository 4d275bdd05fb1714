package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleUsesCustomPromptWithPlaceholder(t *testing.T) {
	cfg := SiteChannelConfig{Enabled: true, CustomPrompt: "Write about {{paper_text}} please."}
	out := Assemble(cfg, nil, ChannelArticle, "quantum computers")
	assert.Contains(t, out, "quantum computers")
	assert.Contains(t, strings.ToLower(out), "json")
}

func TestAssembleFallsBackToTemplateThenDefault(t *testing.T) {
	out := Assemble(SiteChannelConfig{}, []string{"Template says: {paper_text}"}, ChannelArticle, "hello world")
	assert.Contains(t, out, "hello world")

	out = Assemble(SiteChannelConfig{}, nil, ChannelSocial, "hello world")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "linkedin_post")
}

func TestEnsureJSONModeAppendsTailWhenMissing(t *testing.T) {
	out := EnsureJSONMode("plain prompt with no schema", ChannelArticle)
	assert.Contains(t, strings.ToLower(out), "json")
	assert.Contains(t, out, "image_categories")
}

func TestEnsureJSONModeSocialForbidsArticleFields(t *testing.T) {
	out := EnsureJSONMode("plain social prompt", ChannelSocial)
	assert.Contains(t, out, "Do not include")
	assert.Contains(t, out, "article_text")
}

func TestEnsureJSONModeIdempotentWhenAlreadyPresent(t *testing.T) {
	full := "Respond in json with image_categories please"
	out := EnsureJSONMode(full, ChannelArticle)
	assert.Equal(t, full, out)
}

func TestCompressPreservesJSONModeGuarantee(t *testing.T) {
	result := Compress("in order to explain this   article   text, due to the fact that it matters", ChannelArticle)
	assert.Contains(t, strings.ToLower(result.Text), "json")
	// The input carries no JSON-mode tail, so Compress re-appends it; the
	// result may grow by at most that tail.
	assert.LessOrEqual(t, result.CompressedTokens, result.OriginalTokens+estimateTokens(articleSchemaTail))
}

func TestCompressReportsRatio(t *testing.T) {
	result := Compress("one two three four five six seven eight nine ten", ChannelArticle)
	assert.Greater(t, result.OriginalTokens, 0)
	assert.Greater(t, result.Ratio, 0.0)
}

func TestAppendSourceVerification(t *testing.T) {
	out := AppendSourceVerification("base prompt", "https://example.com/a")
	assert.Contains(t, out, "https://example.com/a")
}
