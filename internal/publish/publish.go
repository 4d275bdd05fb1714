// Package publish implements the Publication Layout from spec §4.M:
// deterministic folder naming, SEO slug generation with per-site
// uniqueness, and the fixed nine-file output set, all written through
// atomic per-file replace so a crash never leaves a half-written article
// folder.
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/geraldfingburke/autopress/internal/atomicfile"
)

// Files is the closed set of output files §4.M/§4.K(f) names, in the order
// they're materialized. Scholarly publications (§4.L) omit Slug.
var Files = []string{
	"title.txt", "subtitle.txt", "article.md", "image_categories.txt",
	"source.txt", "slug.txt", "x.txt", "linkedin.txt", "shorts_script.txt",
}

// RequiredForIdempotencyCheck are the files §4.K(a) checks for before
// concluding a folder is already complete.
var RequiredForIdempotencyCheck = []string{"title.txt", "article.md", "slug.txt"}

const maxSlugCollisionAttempts = 1000

var slugStripPattern = regexp.MustCompile(`[^\w\s-]`)
var slugWhitespacePattern = regexp.MustCompile(`\s+`)

// Slugify implements §4.K(e)'s SEO slug algorithm exactly: lowercase,
// strip non-word/non-space/non-hyphen characters, collapse whitespace to
// hyphens. Falls back to a truncated id-derived slug when the title
// produces nothing usable.
func Slugify(title, id string) string {
	lower := strings.ToLower(title)
	stripped := slugStripPattern.ReplaceAllString(lower, "")
	slug := slugWhitespacePattern.ReplaceAllString(strings.TrimSpace(stripped), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		truncated := id
		if len(truncated) > 20 {
			truncated = truncated[:20]
		}
		slug = "article-" + truncated
	}
	return slug
}

// UniqueSlug resolves collisions against existing slug.txt files under
// siteDir by appending -2, -3, … up to maxSlugCollisionAttempts, after
// which it falls back to a timestamp suffix so publication never blocks
// indefinitely.
func UniqueSlug(siteDir, candidate string) (string, error) {
	existing, err := existingSlugs(siteDir)
	if err != nil {
		return "", fmt.Errorf("publish: scan existing slugs under %s: %w", siteDir, err)
	}

	if _, taken := existing[candidate]; !taken {
		return candidate, nil
	}

	for n := 2; n <= maxSlugCollisionAttempts; n++ {
		attempt := fmt.Sprintf("%s-%d", candidate, n)
		if _, taken := existing[attempt]; !taken {
			return attempt, nil
		}
	}

	return fmt.Sprintf("%s-%d", candidate, time.Now().UTC().Unix()), nil
}

func existingSlugs(siteDir string) (map[string]struct{}, error) {
	out := make(map[string]struct{})

	entries, err := os.ReadDir(siteDir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		slugPath := filepath.Join(siteDir, entry.Name(), "slug.txt")
		data, err := os.ReadFile(slugPath)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(string(data))] = struct{}{}
	}
	return out, nil
}

// FolderName builds the §4.M folder-name grammar for a web article:
// YYYY-MM-DD_<category>_<id>.
func FolderName(date, category, id string) string {
	return fmt.Sprintf("%s_%s_%s", date, category, id)
}

// IsComplete reports whether dir already contains every file §4.K(a)
// checks before concluding a prior run already published this article.
func IsComplete(dir string) bool {
	for _, f := range RequiredForIdempotencyCheck {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			return false
		}
	}
	return true
}

// ArticleContent is the set of values materialized into the nine-file
// output set.
type ArticleContent struct {
	Title           string
	Subtitle        string
	ArticleMarkdown string
	ImageCategories []string
	SourceCategory  string
	Slug            string
	XPost           string
	LinkedInPost    string
	ShortsScript    string
}

// Write materializes ArticleContent into dir's nine-file set (minus
// slug.txt when content.Slug is empty, matching §4.L's scholarly variant),
// creating dir first. Every file is written through atomicfile so a crash
// mid-batch never leaves a torn file, even though the directory itself is
// not atomic.
func Write(dir string, content ArticleContent) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("publish: create %s: %w", dir, err)
	}

	writes := map[string]string{
		"title.txt":            content.Title,
		"subtitle.txt":         content.Subtitle,
		"article.md":           content.ArticleMarkdown,
		"image_categories.txt": strings.Join(content.ImageCategories, "\n"),
		"source.txt":           content.SourceCategory,
		"x.txt":                content.XPost,
		"linkedin.txt":         content.LinkedInPost,
		"shorts_script.txt":    content.ShortsScript,
	}
	if content.Slug != "" {
		writes["slug.txt"] = content.Slug
	}

	for _, name := range Files {
		text, ok := writes[name]
		if !ok {
			continue
		}
		if err := writeTextFile(filepath.Join(dir, name), text); err != nil {
			return fmt.Errorf("publish: write %s: %w", name, err)
		}
	}
	return nil
}

// writeTextFile reuses atomicfile's temp+rename discipline for plain text
// through atomicfile.WriteText rather than WriteJSON, since WriteJSON would
// double-quote the raw string.
func writeTextFile(path, content string) error {
	return atomicfile.WriteText(path, content)
}

// NormalizeOutputDir converts an absolute or backslash-containing path to
// the workspace-relative, forward-slash form the registry stores, per
// spec §3 invariant 5.
func NormalizeOutputDir(root, absPath string) string {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		rel = absPath
	}
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.ReplaceAll(rel, "\\", "/")
	return rel
}

// ValidateUnderRoot is used by the orchestrator before persisting
// output_dir, per §4.K(g)'s "verify the folder is a prefix of the site's
// expected base" check.
func ValidateUnderRoot(expectedBase, candidate string) bool {
	expectedAbs, err1 := filepath.Abs(expectedBase)
	candidateAbs, err2 := filepath.Abs(candidate)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(expectedAbs, candidateAbs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
