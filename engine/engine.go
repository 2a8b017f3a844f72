// Package engine fetches documents over plain HTTP with a Chrome TLS
// fingerprint. An HTTPEngine is a page.Loader, so a page.Static session
// can scrape server-rendered pages without launching a browser.
package engine

import (
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/pagesweep/cache"
	"github.com/use-agent/pagesweep/models"
	"github.com/use-agent/pagesweep/page"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	maxBody          = 10 << 20
	maxRedirects     = 10
)

// Options configure an HTTPEngine.
type Options struct {
	// Proxy is an http, https or socks5 proxy URL.
	Proxy string

	// UserAgent defaults to a current desktop Chrome.
	UserAgent string

	// Languages is sent as Accept-Language.
	Languages []string

	// Timeout bounds a single fetch. Zero means no limit beyond ctx.
	Timeout time.Duration

	// Cache, when non-nil, serves repeated fetches of the same URL.
	Cache *cache.Cache

	// RootCAs overrides the system certificate pool.
	RootCAs *x509.CertPool
}

// HTTPEngine loads pages over HTTP.
type HTTPEngine struct {
	client    *http.Client
	userAgent string
	language  string
	timeout   time.Duration
	cache     *cache.Cache
}

var _ page.Loader = (*HTTPEngine)(nil)

// NewHTTPEngine creates an HTTPEngine.
func NewHTTPEngine(opts Options) (*HTTPEngine, error) {
	var proxyURL *url.URL
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid proxy URL", err)
		}
		proxyURL = u
	}

	d, err := dialer(proxyURL)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid proxy", err)
	}

	transport := &http.Transport{
		DialContext:       d.DialContext,
		DialTLSContext:    dialTLSChrome(d, opts.RootCAs),
		ForceAttemptHTTP2: false,
	}
	if proxyURL != nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	lang := "en-US,en;q=0.9"
	if len(opts.Languages) > 0 {
		lang = strings.Join(opts.Languages, ",")
	}

	return &HTTPEngine{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: ua,
		language:  lang,
		timeout:   opts.Timeout,
		cache:     opts.Cache,
	}, nil
}

// Load fetches rawURL and returns its HTML. Non-HTML responses and HTTP
// error statuses fail with a NAVIGATION_FAILED error.
func (e *HTTPEngine) Load(ctx context.Context, rawURL string) (string, error) {
	key := cache.Key(rawURL)
	if body, ok := e.cache.Get(key); ok {
		slog.Debug("page cache hit", "url", rawURL)
		return body, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, "build request", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", e.language)
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", models.NewScrapeError(models.ErrCodeTimeout, "fetch "+rawURL, err)
		}
		return "", models.NewScrapeError(models.ErrCodeNavigation, "fetch "+rawURL, err)
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 {
		return "", models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, rawURL), nil)
	}
	if !isHTMLContentType(ct) {
		return "", models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("non-html response (content-type: %s) for %s", ct, rawURL), nil)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeNavigation, "read body", err)
	}
	body := string(raw)

	slog.Debug("page fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	if looksLikeShell(raw) {
		slog.Warn("page looks script-rendered, the browser engine may be required",
			"url", rawURL, "title", extractTitle(raw))
	}

	e.cache.Set(key, body)
	return body, nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
