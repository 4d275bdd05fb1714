package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeImageCategoriesKeepsKnownTags(t *testing.T) {
	got := sanitizeImageCategories([]string{"AI", "Coding", "security"})
	assert.Equal(t, []string{"ai", "coding", "security"}, got)
}

func TestSanitizeImageCategoriesRemapsUnknownToAI(t *testing.T) {
	got := sanitizeImageCategories([]string{"quantum_computing", "underwater_basket_weaving", ""})
	assert.Equal(t, []string{"quantum_computing", "ai", "ai"}, got)
}

func TestCollectionDateFromPathUsesParentDirWhenDated(t *testing.T) {
	got := CollectionDateFromPath("/data/downloads/raw/2026-07-31/article123.json")
	assert.Equal(t, "2026-07-31", got)
}

func TestCollectionDateFromPathChecksGrandparentWhenImmediateParentIsNotADate(t *testing.T) {
	got := CollectionDateFromPath("/data/downloads/raw/2026-07-31/nested/article123.json")
	assert.Equal(t, "2026-07-31", got)
}

func TestLooksLikeDateRejectsWrongShape(t *testing.T) {
	assert.False(t, looksLikeDate("not-a-date"))
	assert.False(t, looksLikeDate("2026/07/31"))
	assert.True(t, looksLikeDate("2026-07-31"))
}
