// Package rss implements the RSS/Atom collector from spec §4.E.
//
// It is built on github.com/mmcdole/gofeed, the teacher's own RSS
// dependency (server/internal/rss.Service), generalized from "fetch digest
// feeds for a summary email" into the spec's full
// fetch-extract-clean-accept pipeline per item.
package rss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"github.com/geraldfingburke/autopress/internal/clean"
	"github.com/geraldfingburke/autopress/internal/fetch"
	"github.com/geraldfingburke/autopress/internal/models"
)

// containerSelectors is the priority list from §4.E step 2, shared in
// spirit with the HTML collector's own list (§4.F) but specified
// independently since the two components can diverge.
var containerSelectors = []string{
	"article main", "main article", "article .article-body", "article .content",
	"article", ".article-content", ".post-content", ".entry-content",
	"main .content", ".content", "main",
}

const (
	interItemDelay = 500 * time.Millisecond
	interFeedDelay = 2 * time.Second

	bestContainerMinChars     = 1000
	fallbackContainerMinChars = 500
)

// Collector parses feeds and emits canonical Article values.
type Collector struct {
	client      *fetch.Client
	parser      *gofeed.Parser
	maxPerFeed  int
	collectorID string
}

// New builds a Collector around an already-configured fetch client.
// maxPerFeed is the configurable per-feed item cap (§4.E, default 10).
func New(client *fetch.Client, maxPerFeed int, collectorID string) *Collector {
	if maxPerFeed <= 0 {
		maxPerFeed = 10
	}
	return &Collector{
		client:      client,
		parser:      gofeed.NewParser(),
		maxPerFeed:  maxPerFeed,
		collectorID: collectorID,
	}
}

// CollectFeed fetches feedURL, validates it looks like XML, parses items,
// and fetches+cleans each item's full body. Items whose body can't be
// fetched, or whose cleaned text falls under the acceptance threshold, are
// silently dropped per §7 kind (3).
func (c *Collector) CollectFeed(ctx context.Context, feedURL string) ([]models.Article, error) {
	result, err := c.client.FetchDirect(ctx, feedURL, fetch.FetchDirectOpts{AntiBot: true})
	if err != nil {
		return nil, fmt.Errorf("rss: fetch feed %s: %w", feedURL, err)
	}

	if !looksLikeXML(result.Body) {
		return nil, fmt.Errorf("rss: feed body for %s is not XML (got HTML or unknown content)", feedURL)
	}

	feed, err := c.parser.Parse(strings.NewReader(string(result.Body)))
	if err != nil {
		return nil, fmt.Errorf("rss: parse feed %s: %w", feedURL, err)
	}

	items := feed.Items
	if len(items) > c.maxPerFeed {
		items = items[:c.maxPerFeed]
	}

	var articles []models.Article
	for i, item := range items {
		if i > 0 {
			time.Sleep(interItemDelay)
		}

		article, ok := c.collectItem(ctx, item)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// CollectFeeds runs CollectFeed over every feedURL in order, pacing
// inter-feed delay between each.
func (c *Collector) CollectFeeds(ctx context.Context, feedURLs []string) []models.Article {
	var all []models.Article
	for i, feedURL := range feedURLs {
		if i > 0 {
			time.Sleep(interFeedDelay)
		}

		articles, err := c.CollectFeed(ctx, feedURL)
		if err != nil {
			log.Warn().Err(err).Str("feed", feedURL).Msg("rss collector: feed failed, continuing with remaining feeds")
			continue
		}
		all = append(all, articles...)
	}
	return all
}

func (c *Collector) collectItem(ctx context.Context, item *gofeed.Item) (models.Article, bool) {
	result, err := c.client.FetchDirect(ctx, item.Link, fetch.FetchDirectOpts{AntiBot: true})
	if err != nil {
		log.Debug().Err(err).Str("url", item.Link).Msg("rss collector: item fetch failed, dropping")
		return models.Article{}, false
	}

	container := selectBestContainer(string(result.Body))
	cleaned, err := clean.Clean(container)
	if err != nil {
		log.Debug().Err(err).Str("url", item.Link).Msg("rss collector: clean failed, dropping")
		return models.Article{}, false
	}

	if len(cleaned.Plain) < models.MinContentChars {
		return models.Article{}, false
	}

	article := models.Article{
		ID:            models.ArticleID(item.Link, item.Title),
		URL:           item.Link,
		OriginalTitle: item.Title,
		Author:        authorOf(item),
		Summary:       item.Description,
		SourceType:    models.SourceRSS,
		ContentHTML:   container,
		ContentText:   cleaned.Plain,
		CollectorID:   c.collectorID,
	}
	if item.PublishedParsed != nil {
		published := item.PublishedParsed.UTC()
		article.PublishedDate = &published
	}
	return article, true
}

func authorOf(item *gofeed.Item) string {
	if item.Author != nil {
		return item.Author.Name
	}
	if len(item.Authors) > 0 {
		return item.Authors[0].Name
	}
	return ""
}

// selectBestContainer implements §4.E step 2's priority scan: the first
// selector whose extracted text is long enough wins outright; otherwise
// the longest candidate over the lower floor wins; otherwise the whole
// body is used.
func selectBestContainer(bodyHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML))
	if err != nil {
		return bodyHTML
	}

	bestFallback := ""
	bestFallbackLen := 0

	for _, selector := range containerSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := sel.Text()
		if len(text) >= bestContainerMinChars {
			html, _ := goquery.OuterHtml(sel)
			return html
		}
		if len(text) >= fallbackContainerMinChars && len(text) > bestFallbackLen {
			bestFallbackLen = len(text)
			bestFallback, _ = goquery.OuterHtml(sel)
		}
	}

	if bestFallback != "" {
		return bestFallback
	}
	return bodyHTML
}

func looksLikeXML(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<feed") || strings.HasPrefix(trimmed, "<rss")
}
