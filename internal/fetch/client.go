// Package fetch provides the low-level HTTP retrieval primitives used by
// every collector and by the adaptive strategy engine: a client carrying a
// cookie jar and browser-like headers, and an escalation path to an
// external JS-rendering subprocess for pages that refuse to serve content
// to a plain HTTP client.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultUserAgent is used when the system config does not override it.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// defaultFetchTimeout bounds a single plain HTTP fetch, per §4.C's 60s
// client timeout.
const defaultFetchTimeout = 60 * time.Second

// maxRedirects caps automatic redirect following at 5, per §4.C ("up to 5
// redirects") rather than net/http's default of 10.
const maxRedirects = 5

// Client wraps http.Client with the browser-header and cookie-jar behavior
// the adaptive strategy engine relies on to get past naive bot filters.
type Client struct {
	http      *http.Client
	UserAgent string
}

// NewClient builds a Client with a fresh cookie jar so that a site issuing
// a consent or session cookie on the first request has it presented back
// on subsequent requests, the way a real browser would. Per §4.C, the
// transport accepts invalid TLS hostnames (some feeds misconfigure SNI)
// and redirects are capped at 5.
func NewClient(userAgent string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: create cookie jar: %w", err)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &Client{
		http: &http.Client{
			Jar:       jar,
			Timeout:   defaultFetchTimeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("fetch: stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		UserAgent: userAgent,
	}, nil
}

// Result is the raw outcome of a fetch attempt, before any collector tries
// to interpret the body as RSS or HTML.
type Result struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	FinalURL   string
}

// FetchDirectOpts configures a single GET, from plain to full
// anti-bot-header mode.
type FetchDirectOpts struct {
	// AntiBot adds a fuller set of browser headers (Accept, Accept-Language,
	// Referer, Sec-Fetch-*) beyond just the User-Agent. Used on the second
	// rung of the adaptive strategy cascade, after a bare request fails.
	AntiBot bool
	Referer string
}

// FetchDirect performs a single GET against rawURL using this client's
// cookie jar, honoring ctx cancellation.
func (c *Client) FetchDirect(ctx context.Context, rawURL string, opts FetchDirectOpts) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request for %s: %w", rawURL, err)
	}

	req.Header.Set("User-Agent", c.UserAgent)
	if opts.AntiBot {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
		req.Header.Set("Sec-Fetch-Dest", "document")
		req.Header.Set("Sec-Fetch-Mode", "navigate")
		req.Header.Set("Sec-Fetch-Site", "none")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
		if opts.Referer != "" {
			req.Header.Set("Referer", opts.Referer)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body for %s: %w", rawURL, err)
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

// JSRenderTimeout bounds how long the external render subprocess is given
// before it is killed.
const JSRenderTimeout = 45 * time.Second

// FetchRendered escalates to an external JS-rendering command (a headless
// browser CLI configured via system_config.json's js_render_cmd) for pages
// whose content only appears after client-side script execution. The
// command is expected to take the URL as its final argument and print the
// rendered HTML to stdout.
func (c *Client) FetchRendered(ctx context.Context, renderCmd, rawURL string) (*Result, error) {
	if renderCmd == "" {
		return nil, fmt.Errorf("fetch: no js_render_cmd configured, cannot escalate for %s", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, JSRenderTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, renderCmd, rawURL)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Warn().Err(err).Str("url", rawURL).Str("stderr", stderr.String()).Msg("js render subprocess failed")
		return nil, fmt.Errorf("fetch: js render subprocess for %s: %w", rawURL, err)
	}

	return &Result{
		StatusCode: http.StatusOK,
		Body:       stdout.Bytes(),
		FinalURL:   rawURL,
	}, nil
}
