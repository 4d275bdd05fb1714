package prompt

import (
	"regexp"
	"strings"
)

// CompressionResult reports the token accounting §4.I requires: pipeline
// token stats are reconciled as saved = original - compressed.
type CompressionResult struct {
	Text              string
	OriginalTokens    int
	CompressedTokens  int
	Ratio             float64
}

// fillerPhrases are shortened (not removed — removing them would change
// meaning) by replacing each with the shorter equivalent at the same index
// in fillerReplacements.
// This is a conservative transform: it only touches whitespace and a small
// set of verbose connective phrases, never article content words.
var fillerPhrases = []string{
	"in order to", "due to the fact that", "at this point in time",
	"for the purpose of", "in the event that", "with regard to",
}

var fillerReplacements = []string{
	"to", "because", "now",
	"for", "if", "regarding",
}

var multiSpace = regexp.MustCompile(`[ \t]+`)
var multiBlankLine = regexp.MustCompile(`\n{3,}`)

// Compress reduces promptText's token footprint while preserving the
// meaning of both instructions and source text, then re-applies the
// JSON-mode guarantee in case the transform stripped the schema tail
// (§4.I's post-condition).
func Compress(promptText string, channel Channel) CompressionResult {
	originalTokens := estimateTokens(promptText)

	compressed := promptText
	for i, phrase := range fillerPhrases {
		compressed = strings.ReplaceAll(compressed, phrase, fillerReplacements[i])
	}
	compressed = multiSpace.ReplaceAllString(compressed, " ")
	compressed = multiBlankLine.ReplaceAllString(compressed, "\n\n")
	compressed = strings.TrimSpace(compressed)

	compressed = EnsureJSONMode(compressed, channel)

	compressedTokens := estimateTokens(compressed)
	ratio := 1.0
	if originalTokens > 0 {
		ratio = float64(compressedTokens) / float64(originalTokens)
	}

	return CompressionResult{
		Text:             compressed,
		OriginalTokens:   originalTokens,
		CompressedTokens: compressedTokens,
		Ratio:            ratio,
	}
}

// estimateTokens uses the common whitespace-split approximation (no
// tokenizer dependency appears anywhere in the retrieval pack for this
// purpose, so token counts here are an estimate, not a vendor-exact count;
// see DESIGN.md).
func estimateTokens(s string) int {
	return len(strings.Fields(s))
}
