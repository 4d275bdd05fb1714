// Package html implements the HTML listing-page collector from spec §4.F:
// it discovers article URLs on a listing page via one of three
// configured extraction modes, then runs the same fetch-extract-clean-accept
// sequence as the RSS collector over each discovered URL.
//
// Built on github.com/PuerkitoBio/goquery plus github.com/andybalholm/cascadia
// directly for the article-container mode's per-container link scan,
// promoting goquery's own indirect cascadia dependency to a direct one since
// this package exercises it standalone there. The SPA-shell fallback works
// on raw text with regexp.
package html

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog/log"
	gohtml "golang.org/x/net/html"

	"github.com/geraldfingburke/autopress/internal/clean"
	"github.com/geraldfingburke/autopress/internal/fetch"
	"github.com/geraldfingburke/autopress/internal/models"
)

// Mode selects one of §4.F's three extraction strategies.
type Mode string

const (
	ModeDirectLinkSelector      Mode = "direct_link_selector"
	ModeArticleContainerSelector Mode = "article_container_selector"
	ModeSingleArticlePage       Mode = "single_article_page"
)

// SiteRules configures how a listing page is interpreted.
type SiteRules struct {
	Mode             Mode
	LinkSelector     string
	HrefContains     []string
	ContainerSelector string
	MaxResults       int
}

const interArticleDelay = 500 * time.Millisecond

// candidateOverscan is the §4.F "continue probing up to 3x" multiplier.
const candidateOverscan = 3

var nonArticlePathMarkers = []string{"/category/", "/tag/", "/author/", "/page/", "/feed/", "wp-json"}

var yearInPathPattern = regexp.MustCompile(`/(19|20)\d{2}/`)

// relativeNewsPathPattern finds relative paths like /news/2025/... used by
// the regex fallback when a listing page has no <a> elements at all (a SPA
// shell rendering links client-side).
var relativeNewsPathPattern = regexp.MustCompile(`/news/\d{4}/[\w\-/]+`)

// Collector discovers and fetches articles from HTML listing pages.
type Collector struct {
	client      *fetch.Client
	collectorID string
}

// New builds a Collector around an already-configured fetch client.
func New(client *fetch.Client, collectorID string) *Collector {
	return &Collector{client: client, collectorID: collectorID}
}

// CollectListing fetches listingURL and, per rules.Mode, extracts article
// URLs, then fetches and cleans each one. It accepts up to rules.MaxResults
// articles, probing up to 3x that many candidates to reach the target.
func (c *Collector) CollectListing(ctx context.Context, listingURL string, rules SiteRules) ([]models.Article, error) {
	maxResults := rules.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	if rules.Mode == ModeSingleArticlePage {
		article, ok := c.collectArticle(ctx, listingURL)
		if !ok {
			return nil, fmt.Errorf("html: single-article page %s did not yield acceptable content", listingURL)
		}
		return []models.Article{article}, nil
	}

	result, err := c.client.FetchDirect(ctx, listingURL, fetch.FetchDirectOpts{AntiBot: true})
	if err != nil {
		return nil, fmt.Errorf("html: fetch listing %s: %w", listingURL, err)
	}

	candidates, err := discoverURLs(string(result.Body), listingURL, rules)
	if err != nil {
		return nil, fmt.Errorf("html: discover urls on %s: %w", listingURL, err)
	}

	candidates = filterCandidates(candidates, listingURL)

	cap := maxResults * candidateOverscan
	if len(candidates) > cap {
		candidates = candidates[:cap]
	}

	var articles []models.Article
	for i, candidateURL := range candidates {
		if len(articles) >= maxResults {
			break
		}
		if i > 0 {
			time.Sleep(interArticleDelay)
		}

		article, ok := c.collectArticle(ctx, candidateURL)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

func (c *Collector) collectArticle(ctx context.Context, articleURL string) (models.Article, bool) {
	result, err := c.client.FetchDirect(ctx, articleURL, fetch.FetchDirectOpts{AntiBot: true})
	if err != nil {
		log.Debug().Err(err).Str("url", articleURL).Msg("html collector: article fetch failed, dropping")
		return models.Article{}, false
	}

	title := extractTitle(string(result.Body))
	cleaned, err := clean.Clean(string(result.Body))
	if err != nil {
		log.Debug().Err(err).Str("url", articleURL).Msg("html collector: clean failed, dropping")
		return models.Article{}, false
	}
	if len(cleaned.Plain) < models.MinContentChars {
		return models.Article{}, false
	}

	return models.Article{
		ID:            models.ArticleID(articleURL, title),
		URL:           articleURL,
		OriginalTitle: title,
		SourceType:    models.SourceHTML,
		ContentHTML:   string(result.Body),
		ContentText:   cleaned.Plain,
		CollectorID:   c.collectorID,
	}, true
}

func extractTitle(bodyHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML))
	if err != nil {
		return ""
	}
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		return strings.TrimSpace(h1.Text())
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// discoverURLs implements §4.F's three modes, including the regex fallback
// for SPA shells with zero <a> elements.
func discoverURLs(bodyHTML, listingURL string, rules SiteRules) ([]string, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML))
	if err != nil {
		return nil, err
	}

	switch rules.Mode {
	case ModeArticleContainerSelector:
		return discoverViaContainers(doc, base, rules.ContainerSelector), nil
	default:
		urls := discoverViaLinkSelector(doc, base, rules)
		if len(urls) == 0 {
			return discoverViaRegexFallback(bodyHTML, base, rules.HrefContains), nil
		}
		return urls, nil
	}
}

func discoverViaLinkSelector(doc *goquery.Document, base *url.URL, rules SiteRules) []string {
	selector := rules.LinkSelector
	if selector == "" {
		selector = "a"
	}

	var urls []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if len(rules.HrefContains) > 0 && !matchesAny(href, rules.HrefContains) {
			return
		}
		if resolved, ok := resolveURL(base, href); ok {
			urls = append(urls, resolved)
		}
	})
	return urls
}

// articleLinkSelectors mirrors §4.F's per-container fallback chain for
// finding the "best internal link" when a container itself isn't an <a>.
var articleLinkSelectors = []string{"h1 a", "h2 a", "h3 a", "a.read-more", "a"}

// compiledLinkSelectors pre-compiles articleLinkSelectors with cascadia
// directly (rather than through goquery's .Find sugar) so this fallback
// chain works straight off the underlying *html.Node tree, matching
// §4.F's "the element itself if <a>, else h1 a, h2 a, …, a.read-more" scan
// without allocating a fresh goquery.Selection per candidate.
var compiledLinkSelectors = mustCompileAll(articleLinkSelectors)

func mustCompileAll(selectors []string) []cascadia.Selector {
	compiled := make([]cascadia.Selector, len(selectors))
	for i, s := range selectors {
		compiled[i] = cascadia.MustCompile(s)
	}
	return compiled
}

func discoverViaContainers(doc *goquery.Document, base *url.URL, containerSelector string) []string {
	var urls []string
	doc.Find(containerSelector).Each(func(_ int, container *goquery.Selection) {
		if len(container.Nodes) == 0 {
			return
		}
		node := container.Nodes[0]

		if href, ok := attrOf(node, "href"); ok {
			if resolved, ok := resolveURL(base, href); ok {
				urls = append(urls, resolved)
				return
			}
		}

		for _, sel := range compiledLinkSelectors {
			match := sel.MatchFirst(node)
			if match == nil {
				continue
			}
			if href, ok := attrOf(match, "href"); ok {
				if resolved, ok := resolveURL(base, href); ok {
					urls = append(urls, resolved)
					return
				}
			}
		}
	})
	return urls
}

func attrOf(node *gohtml.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// discoverViaRegexFallback scans raw HTML bytes for absolute URLs matching
// the configured substrings, then relative /news/YYYY/... paths, per
// §4.F's SPA-shell fallback. Unlike the container mode, which matches
// cascadia selectors on the parsed tree, this path works on raw text since
// the whole point of this path is that there's no usable DOM structure.
var absoluteURLPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

func discoverViaRegexFallback(bodyHTML string, base *url.URL, hrefContains []string) []string {
	var urls []string

	for _, match := range absoluteURLPattern.FindAllString(bodyHTML, -1) {
		if len(hrefContains) > 0 && !matchesAny(match, hrefContains) {
			continue
		}
		urls = append(urls, match)
	}

	for _, match := range relativeNewsPathPattern.FindAllString(bodyHTML, -1) {
		if resolved, ok := resolveURL(base, match); ok {
			urls = append(urls, resolved)
		}
	}

	return urls
}

func matchesAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func resolveURL(base *url.URL, href string) (string, bool) {
	parsed, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(parsed).String(), true
}

// filterCandidates dedupes and applies §4.F's non-article-path and
// too-short-path rejection rules.
func filterCandidates(candidates []string, listingURL string) []string {
	seen := make(map[string]struct{}, len(candidates))
	var out []string

	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}

		if c == listingURL {
			continue
		}
		if strings.HasSuffix(c, "#") || strings.Contains(c, listingURL+"#") {
			continue
		}
		if matchesAny(c, nonArticlePathMarkers) {
			continue
		}
		if !isDeepEnoughPath(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// isDeepEnoughPath rejects URLs with too few path segments unless they
// contain a year, per §4.F.
func isDeepEnoughPath(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	nonEmpty := 0
	for _, s := range segments {
		if s != "" {
			nonEmpty++
		}
	}
	if nonEmpty >= 2 {
		return true
	}
	return yearInPathPattern.MatchString(parsed.Path)
}
