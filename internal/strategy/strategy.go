// Package strategy implements the adaptive fetch strategy cascade from
// spec §4.D: a source is probed with progressively more aggressive
// tactics until one succeeds or the cascade is exhausted, with every
// attempt's outcome recorded for the caller's diagnostics.
package strategy

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/geraldfingburke/autopress/internal/fetch"
)

// Blocker names a detected reason a fetch did not yield usable content.
type Blocker string

const (
	BlockerNone       Blocker = ""
	BlockerCookies    Blocker = "cookies"
	BlockerPaywall    Blocker = "paywall"
	BlockerCaptcha    Blocker = "captcha"
	BlockerJSRequired Blocker = "js_required"
	Blocker403        Blocker = "403"
	BlockerTimeout    Blocker = "timeout"
	BlockerNoContent  Blocker = "no_content"
)

// minBodyBytesWithContainer and minBodyBytesNoContainer are the success
// thresholds from §4.D: a response must be at least this long, with the
// lower bar applying when a semantic article container marker is found in
// the raw bytes and the higher bar when none is (the strategy engine works
// on raw bytes, not parsed DOM).
const (
	minBodyBytesWithContainer = 1000
	minBodyBytesNoContainer   = 5000
)

// rssAutodiscoverPaths are probed against the base domain when no
// <link rel=alternate> tag is found in the HTML.
var rssAutodiscoverPaths = []string{"/feed", "/rss", "/feed.xml", "/rss.xml", "/blog/feed", "/news/feed", "/atom.xml"}

// alternativePaths are probed as a last HTTP-only resort before escalating
// to JS rendering.
var alternativePaths = []string{"/blog", "/news", "/feed", "/rss", "/en/blog"}

// Attempt records the outcome of a single cascade step.
type Attempt struct {
	Strategy   string
	StatusCode int
	BodyLen    int
	Blocker    Blocker
	Err        error
}

// Recommendation is what the engine hands back: either a successful body
// and the strategy that produced it, or a full diagnostic trail and a
// recommendation to escalate to JS rendering on future runs.
type Recommendation struct {
	Succeeded      bool
	Strategy       string
	Body           []byte
	FinalURL       string
	Attempts       []Attempt
	EscalateToJS   bool
	DiscoveredFeed string
}

// Engine runs the cascade against a *fetch.Client. It never mutates source
// configuration; every run returns a fresh Recommendation for the caller
// to act on.
type Engine struct {
	client *fetch.Client
}

// New builds an Engine around an already-configured fetch client.
func New(client *fetch.Client) *Engine {
	return &Engine{client: client}
}

// Resolve runs the full cascade against rawURL. isHTML enables step 3 (RSS
// autodiscovery); when it is false that step is skipped. Step 5 is always
// recorded as a recommendation only: the engine never runs a renderer
// itself, and the caller decides whether to act on EscalateToJS.
func (e *Engine) Resolve(ctx context.Context, rawURL string, isHTML bool) *Recommendation {
	rec := &Recommendation{}

	if attempt, body, finalURL, ok := e.tryDirect(ctx, rawURL); ok {
		rec.Succeeded = true
		rec.Strategy = attempt.Strategy
		rec.Body = body
		rec.FinalURL = finalURL
		rec.Attempts = append(rec.Attempts, attempt)
		return rec
	} else {
		rec.Attempts = append(rec.Attempts, attempt)
	}

	antiBotAttempt, antiBotResult, antiBotOK := e.tryAntiBot(ctx, rawURL)
	if antiBotOK {
		rec.Succeeded = true
		rec.Strategy = antiBotAttempt.Strategy
		rec.Body = antiBotResult.Body
		rec.FinalURL = antiBotResult.FinalURL
		rec.Attempts = append(rec.Attempts, antiBotAttempt)
		return rec
	}
	rec.Attempts = append(rec.Attempts, antiBotAttempt)

	if isHTML {
		var rawHTML []byte
		if antiBotResult != nil {
			rawHTML = antiBotResult.Body
		}
		if feedURL, attempt, body, ok := e.tryRSSAutodiscover(ctx, rawURL, rawHTML, antiBotAttempt.Blocker); ok {
			rec.Succeeded = true
			rec.Strategy = attempt.Strategy
			rec.Body = body
			rec.FinalURL = feedURL
			rec.DiscoveredFeed = feedURL
			rec.Attempts = append(rec.Attempts, attempt)
			return rec
		} else {
			rec.Attempts = append(rec.Attempts, attempt)
		}
	}

	if attempt, body, finalURL, ok := e.tryAlternativePaths(ctx, rawURL); ok {
		rec.Succeeded = true
		rec.Strategy = attempt.Strategy
		rec.Body = body
		rec.FinalURL = finalURL
		rec.Attempts = append(rec.Attempts, attempt)
		return rec
	} else {
		rec.Attempts = append(rec.Attempts, attempt)
	}

	rec.EscalateToJS = true
	rec.Attempts = append(rec.Attempts, Attempt{Strategy: "js_render_escalation", Blocker: BlockerJSRequired})
	log.Debug().Str("url", rawURL).Msg("adaptive strategy cascade exhausted, recommending JS render escalation")
	return rec
}

func (e *Engine) tryDirect(ctx context.Context, rawURL string) (Attempt, []byte, string, bool) {
	result, err := e.client.FetchDirect(ctx, rawURL, fetch.FetchDirectOpts{})
	return evaluate("direct", result, err)
}

func (e *Engine) tryAntiBot(ctx context.Context, rawURL string) (Attempt, *fetch.Result, bool) {
	result, err := e.client.FetchDirect(ctx, rawURL, fetch.FetchDirectOpts{AntiBot: true, Referer: "https://www.google.com/"})
	attempt, _, _, ok := evaluate("anti_bot", result, err)
	return attempt, result, ok
}

// tryRSSAutodiscover implements §4.D step 3: first parse a
// <link rel=alternate type=application/rss+xml|atom+xml> tag out of the
// HTML already fetched by the preceding steps; only if that tag is absent
// does it fall back to probing the fixed candidate paths against the base
// domain.
func (e *Engine) tryRSSAutodiscover(ctx context.Context, rawURL string, pageHTML []byte, lastBlocker Blocker) (string, Attempt, []byte, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", Attempt{Strategy: "rss_autodiscover", Err: err}, nil, false
	}
	base := parsed.Scheme + "://" + parsed.Host

	if feedURL, found := findAlternateFeedLink(pageHTML, parsed); found {
		result, err := e.client.FetchDirect(ctx, feedURL, fetch.FetchDirectOpts{AntiBot: true})
		attempt, body, _, ok := evaluate("rss_autodiscover:link_alternate", result, err)
		if ok && looksLikeFeed(body) {
			return feedURL, attempt, body, true
		}
	}

	for _, p := range rssAutodiscoverPaths {
		candidate := base + p
		result, err := e.client.FetchDirect(ctx, candidate, fetch.FetchDirectOpts{AntiBot: true})
		attempt, body, _, ok := evaluate("rss_autodiscover:"+p, result, err)
		if ok && looksLikeFeed(body) {
			return candidate, attempt, body, true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return "", Attempt{Strategy: "rss_autodiscover", Blocker: lastBlocker}, nil, false
}

// alternateLinkPattern matches a <link ...> tag carrying an RSS/Atom
// alternate relation, in either attribute order (rel before type, or type
// before rel — both appear in the wild).
var (
	alternateLinkPattern = regexp.MustCompile(`(?i)<link\b[^>]*>`)
	alternateRelPattern  = regexp.MustCompile(`(?i)rel\s*=\s*["']alternate["']`)
	alternateTypePattern = regexp.MustCompile(`(?i)type\s*=\s*["']application/(?:rss|atom)\+xml["']`)
	alternateHrefPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)
)

// findAlternateFeedLink scans pageHTML for a <link rel=alternate
// type=application/rss+xml|atom+xml> tag and resolves its href against
// base, per §4.D step 3.
func findAlternateFeedLink(pageHTML []byte, base *url.URL) (string, bool) {
	for _, tag := range alternateLinkPattern.FindAllString(string(pageHTML), -1) {
		if !alternateRelPattern.MatchString(tag) || !alternateTypePattern.MatchString(tag) {
			continue
		}
		hrefMatch := alternateHrefPattern.FindStringSubmatch(tag)
		if hrefMatch == nil {
			continue
		}
		hrefURL, err := url.Parse(hrefMatch[1])
		if err != nil {
			continue
		}
		return base.ResolveReference(hrefURL).String(), true
	}
	return "", false
}

func (e *Engine) tryAlternativePaths(ctx context.Context, rawURL string) (Attempt, []byte, string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Attempt{Strategy: "alternative_paths", Err: err}, nil, "", false
	}
	base := parsed.Scheme + "://" + parsed.Host

	for _, p := range alternativePaths {
		candidate := base + p
		result, err := e.client.FetchDirect(ctx, candidate, fetch.FetchDirectOpts{AntiBot: true})
		attempt, body, finalURL, ok := evaluate("alternative_path:"+p, result, err)
		if ok {
			return attempt, body, finalURL, true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return Attempt{Strategy: "alternative_paths"}, nil, "", false
}

func looksLikeFeed(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<feed") || strings.HasPrefix(trimmed, "<rss")
}

// evaluate applies the §4.D success criteria to a fetch result.
func evaluate(name string, result *fetch.Result, err error) (Attempt, []byte, string, bool) {
	if err != nil {
		blocker := BlockerTimeout
		return Attempt{Strategy: name, Blocker: blocker, Err: err}, nil, "", false
	}

	attempt := Attempt{Strategy: name, StatusCode: result.StatusCode, BodyLen: len(result.Body)}

	if result.StatusCode == 403 {
		attempt.Blocker = Blocker403
		return attempt, nil, "", false
	}
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		attempt.Blocker = BlockerNoContent
		return attempt, nil, "", false
	}

	if blocker := detectBlocker(result.Body); blocker != BlockerNone {
		attempt.Blocker = blocker
		return attempt, nil, "", false
	}

	hasContainer := hasSemanticContainer(result.Body)
	threshold := minBodyBytesNoContainer
	if hasContainer {
		threshold = minBodyBytesWithContainer
	}
	if len(result.Body) < threshold {
		attempt.Blocker = BlockerNoContent
		return attempt, nil, "", false
	}

	return attempt, result.Body, result.FinalURL, true
}

// detectBlocker implements §4.D's heuristic text search for known access
// blockers. It is deliberately cheap: substring checks over the lowercased
// body, not a DOM parse.
func detectBlocker(body []byte) Blocker {
	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "captcha") || strings.Contains(lower, "recaptcha") {
		return BlockerCaptcha
	}
	if strings.Contains(lower, "cookie") && strings.Contains(lower, "accept") && strings.Contains(lower, "button") {
		return BlockerCookies
	}
	if (strings.Contains(lower, "paywall") || strings.Contains(lower, "subscribe")) && len(body) < 10000 {
		return BlockerPaywall
	}
	return BlockerNone
}

// hasSemanticContainer cheaply checks for the presence of an article-like
// container tag without a full DOM parse, matching the lighter-weight
// criterion the raw-bytes strategy engine can afford (the collectors do
// the real container selection in §4.E/§4.F).
func hasSemanticContainer(body []byte) bool {
	lower := strings.ToLower(string(body))
	for _, marker := range []string{"<article", "article-content", "article-body", "post-content", "entry-content"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
