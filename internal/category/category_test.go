package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDomainMatch(t *testing.T) {
	assert.Equal(t, "openai", Detect("https://openai.com/blog/new-model", "New Model Announced"))
}

func TestDetectKeywordMatchInTitle(t *testing.T) {
	assert.Equal(t, "boston_dynamics", Detect("https://example.com/news/1", "Boston Dynamics unveils new Atlas"))
}

func TestDetectQuantumOverride(t *testing.T) {
	got := Detect("https://research.ibm.com/blog/quantum-roadmap", "IBM's Quantum Roadmap for 2030")
	assert.Equal(t, "ibm_quantum", got)
}

func TestDetectDefaultsToTechnology(t *testing.T) {
	assert.Equal(t, DefaultCategory, Detect("https://some-random-blog.example/post", "A totally unrelated story"))
}

func TestDetectPrefersDomainOverKeyword(t *testing.T) {
	got := Detect("https://openai.com/blog/langchain-partnership", "OpenAI and LangChain partner up")
	assert.Equal(t, "openai", got)
}
