// Package clean implements the content cleaning pipeline from spec §4.G:
// it takes the raw HTML of a selected article container and reduces it to
// deduplicated, Unicode-normalized plain prose suitable for the writer
// prompt.
//
// The tag-stripping and attribute-removal steps are a generalization of the
// teacher's scrapeArticleContent helper, which walked a similar selector
// priority list with goquery before handing text off to the LLM.
package clean

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// stripTags are removed entirely, including their contents.
var stripTags = []string{"script", "style", "noscript", "button", "nav", "footer", "header", "img", "picture", "source", "code", "pre"}

// stripClassPattern matches class names the teacher's pack conventionally
// uses for chrome that isn't article body: bylines, share widgets, related
// reading rails, and so on.
var stripClassPattern = regexp.MustCompile(`(?i)author|contributor|citation|navigation|menu|sidebar|related|recommended|share|social|footer|comment|metadata|tag`)

// minParagraphChars is the acceptance floor for an individual paragraph
// before it's considered for inclusion.
const minParagraphChars = 50

// jaccardDuplicateThreshold is the similarity above which a paragraph is
// treated as a near-duplicate of one already accepted.
const jaccardDuplicateThreshold = 0.85

// bylinePattern catches common author-signature lines that slip through
// as paragraphs (e.g. "By Jane Doe, Staff Writer").
var bylinePattern = regexp.MustCompile(`(?i)^by\s+[\w.\s]{2,40}(,|\s-\s|$)`)

// Result is the dual output of the cleaning pipeline: downstream consumers
// use Plain; Minimal holds the same deduplicated paragraphs, joined by
// blank lines, before Unicode normalization and control-character
// stripping.
type Result struct {
	Minimal string
	Plain   string
}

// Clean runs the full §4.G pipeline over containerHTML and returns the
// resulting plain and minimal text. Calling Clean twice on the same input
// is guaranteed to yield byte-identical output, since every step is a pure
// function of the input bytes.
func Clean(containerHTML string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(containerHTML))
	if err != nil {
		return Result{}, err
	}

	for _, tag := range stripTags {
		doc.Find(tag).Remove()
	}

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if class != "" && stripClassPattern.MatchString(class) {
			sel.Remove()
		}
	})

	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml(sel.Text())
	})

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			node.Attr = nil
		}
	})

	paragraphs := extractParagraphs(doc)
	deduped := dedupeJaccard(paragraphs)

	plain := strings.Join(deduped, "\n\n")
	plain = normalizeUnicode(plain)
	plain = stripControlChars(plain)

	return Result{
		Minimal: strings.Join(deduped, "\n\n"),
		Plain:   plain,
	}, nil
}

func extractParagraphs(doc *goquery.Document) []string {
	var out []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := normalizeWhitespace(sel.Text())
		if len(text) < minParagraphChars {
			return
		}
		if bylinePattern.MatchString(text) {
			return
		}
		out = append(out, text)
	})
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// dedupeJaccard drops any paragraph whose normalized word set overlaps an
// already-accepted paragraph above jaccardDuplicateThreshold. This catches
// the "related stories" and newsletter-blurb repeats that survive the tag
// strip because they're legitimately wrapped in <p> tags.
func dedupeJaccard(paragraphs []string) []string {
	var accepted []string
	var acceptedSets []map[string]struct{}

	for _, p := range paragraphs {
		words := wordSet(p)
		isDup := false
		for _, existing := range acceptedSets {
			if jaccardSimilarity(words, existing) > jaccardDuplicateThreshold {
				isDup = true
				break
			}
		}
		if !isDup {
			accepted = append(accepted, p)
			acceptedSets = append(acceptedSets, words)
		}
	}
	return accepted
}

func wordSet(s string) map[string]struct{} {
	lower := strings.ToLower(s)
	fields := strings.Fields(lower)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// unicodeReplacements maps smart punctuation to ASCII equivalents after NFC
// normalization has collapsed any decomposed forms.
var unicodeReplacements = map[string]string{
	"‘": "'", "’": "'",
	"“": "\"", "”": "\"",
	"–": "-", "—": "-",
	"…": "...",
}

func normalizeUnicode(s string) string {
	s = norm.NFC.String(s)
	for from, to := range unicodeReplacements {
		s = strings.ReplaceAll(s, from, to)
	}
	return s
}

func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
