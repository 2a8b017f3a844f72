package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pagesweep/config"
	"github.com/use-agent/pagesweep/models"
	"github.com/use-agent/pagesweep/page"
	"github.com/ysmood/gson"
)

// domStableWindow is how long the DOM must stay unchanged after a
// navigation before the session reports it done.
const domStableWindow = 300 * time.Millisecond

const defaultActionTimeout = 10 * time.Second

// selectOptionJS selects the option whose value equals v, comparing values
// rather than building a selector, and fires the events a user selection
// would. It reports whether such an option exists.
const selectOptionJS = `function (v) {
	const opt = Array.from(this.options || []).find((o) => o.value === v);
	if (!opt) return false;
	this.value = opt.value;
	this.dispatchEvent(new Event("input", { bubbles: true }));
	this.dispatchEvent(new Event("change", { bubbles: true }));
	return true;
}`

// Session is a page.Session over one Chromium tab.
// It is not safe for concurrent use.
type Session struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	router   *rod.HijackRouter
	detach   bool

	// actionTimeout bounds each rod action and each settle wait.
	actionTimeout time.Duration
}

var _ page.Session = (*Session)(nil)

// prepare installs everything that must be in place before the first
// navigation: scripts registered with EvalOnNewDocument and the hijack
// router only affect documents loaded after them.
func (s *Session) prepare(cfg config.BrowserConfig) error {
	if cfg.Stealth {
		if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
		if len(cfg.Languages) > 0 {
			headers := map[string]string{"Accept-Language": acceptLanguage(cfg.Languages)}
			if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}).Call(s.page); err != nil {
				slog.Warn("setting extra headers failed", "error", err)
			}
		}
	}

	if cfg.DisableJavaScript {
		if err := (proto.EmulationSetScriptExecutionDisabled{Value: true}).Call(s.page); err != nil {
			return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to disable JavaScript", err)
		}
		slog.Info("javascript disabled for session")
	}

	s.router = setupHijack(s.page, cfg.BlockedResourceTypes)
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	actx, cancel := s.bounded(ctx)
	defer cancel()
	if err := s.page.Context(actx).Navigate(url); err != nil {
		return categorizeError(err, "navigation failed")
	}
	s.settle(ctx)
	return nil
}

// FindOne returns the first element matching selector without waiting.
func (s *Session) FindOne(ctx context.Context, selector string) (page.Element, error) {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", selector, err)
	}
	if !has {
		return nil, page.ErrNoMatch
	}
	return &element{el: el}, nil
}

// FindMany returns every element matching selector without waiting.
func (s *Session) FindMany(ctx context.Context, selector string) ([]page.Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", selector, err)
	}
	return wrap(els), nil
}

func (s *Session) Click(ctx context.Context, el page.Element) error {
	e, err := s.own(el)
	if err != nil {
		return err
	}
	actx, cancel := s.bounded(ctx)
	defer cancel()
	if err := e.el.Context(actx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorizeError(err, "click failed")
	}
	s.settle(ctx)
	return nil
}

// Select picks the option whose value attribute equals value and fires the
// change events a user selection would.
func (s *Session) Select(ctx context.Context, el page.Element, value string) error {
	e, err := s.own(el)
	if err != nil {
		return err
	}
	actx, cancel := s.bounded(ctx)
	defer cancel()
	res, err := e.el.Context(actx).Eval(selectOptionJS, value)
	if err != nil {
		return categorizeError(err, fmt.Sprintf("selecting %q failed", value))
	}
	if !res.Value.Bool() {
		return models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("select has no option with value %q", value), nil)
	}
	s.settle(ctx)
	return nil
}

// Close stops the hijack router and, unless the session is detached,
// closes the browser.
func (s *Session) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	if s.detach {
		slog.Info("detach enabled, leaving browser open")
		return nil
	}
	slog.Info("closing browser")
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

// settle waits for the DOM to stop changing, for at most one action
// timeout. It is best effort: the locator polls for whatever it needs next
// anyway.
func (s *Session) settle(ctx context.Context) {
	sctx, cancel := s.bounded(ctx)
	defer cancel()
	if err := s.page.Context(sctx).WaitDOMStable(domStableWindow, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

// bounded derives the context for one rod action.
func (s *Session) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	d := s.actionTimeout
	if d <= 0 {
		d = defaultActionTimeout
	}
	return context.WithTimeout(ctx, d)
}

func (s *Session) own(el page.Element) (*element, error) {
	e, ok := el.(*element)
	if !ok {
		return nil, fmt.Errorf("%w: element does not belong to a browser session", page.ErrUnsupportedElement)
	}
	return e, nil
}

type element struct {
	el *rod.Element
}

func (e *element) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", staleOr(err)
	}
	return text, nil
}

func (e *element) Elements(selector string) ([]page.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, staleOr(err)
	}
	return wrap(els), nil
}

func wrap(els rod.Elements) []page.Element {
	out := make([]page.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el})
	}
	return out
}

// staleOr maps errors about a node or execution context that no longer
// exists to page.ErrStaleElement.
func staleOr(err error) error {
	var notFound *rod.ObjectNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", page.ErrStaleElement, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "Cannot find context with specified id") ||
		strings.Contains(msg, "Could not find node with given id") {
		return fmt.Errorf("%w: %v", page.ErrStaleElement, err)
	}
	return err
}

// acceptLanguage builds a header value with descending q-weights.
func acceptLanguage(langs []string) string {
	parts := make([]string, len(langs))
	for i, l := range langs {
		if i == 0 {
			parts[i] = l
			continue
		}
		q := 1.0 - 0.1*float64(i)
		if q < 0.1 {
			q = 0.1
		}
		parts[i] = fmt.Sprintf("%s;q=%.1f", l, q)
	}
	return strings.Join(parts, ",")
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps rod errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "scrape canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
