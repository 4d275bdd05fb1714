package writerclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasSocialFields(t *testing.T) {
	complete := ArticleResponse{LinkedInPost: "a", XPost: "b", ShortsScript: "c"}
	assert.True(t, complete.HasSocialFields())

	missing := ArticleResponse{LinkedInPost: "a"}
	assert.False(t, missing.HasSocialFields())
}

func TestTemperatureForDefaults(t *testing.T) {
	assert.Equal(t, float32(defaultArticleTemperature), temperatureFor(Config{}, "article"))
	assert.Equal(t, float32(defaultSocialTemperature), temperatureFor(Config{}, "social"))
	assert.Equal(t, float32(defaultBlogTemperature), temperatureFor(Config{}, "blog"))
}

func TestTemperatureForOverride(t *testing.T) {
	assert.Equal(t, float32(0.2), temperatureFor(Config{Temperature: 0.2}, "article"))
}

func TestStrictRepromptAppendsWarning(t *testing.T) {
	out := strictReprompt("base prompt")
	assert.Contains(t, out, "base prompt")
	assert.Contains(t, out, "valid JSON")
}
