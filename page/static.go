package page

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Loader returns the HTML document served at a URL.
type Loader interface {
	Load(ctx context.Context, url string) (string, error)
}

// Static is a Session over server-rendered HTML. Clicking a link or
// changing a <select> loads the target document through the Loader, which
// replaces the whole DOM, so every handle from the previous document turns
// stale exactly like in a live browser.
//
// Static is not safe for concurrent use.
type Static struct {
	loader    Loader
	url       *url.URL
	doc       *goquery.Document
	gen       uint64
	selectors map[string]cascadia.Selector
}

// NewStatic creates a Static session backed by loader.
func NewStatic(loader Loader) *Static {
	return &Static{
		loader:    loader,
		selectors: make(map[string]cascadia.Selector),
	}
}

// URL returns the address of the current document, or "" before the first
// navigation.
func (s *Static) URL() string {
	if s.url == nil {
		return ""
	}
	return s.url.String()
}

func (s *Static) Navigate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("page: parse url %q: %w", rawURL, err)
	}

	body, err := s.loader.Load(ctx, u.String())
	if err != nil {
		return fmt.Errorf("page: load %s: %w", u, err)
	}

	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("page: parse %s: %w", u, err)
	}

	s.url = u
	s.doc = goquery.NewDocumentFromNode(root)
	s.gen++
	return nil
}

func (s *Static) FindOne(_ context.Context, selector string) (Element, error) {
	sel, err := s.find(selector)
	if err != nil {
		return nil, err
	}
	if sel.Length() == 0 {
		return nil, ErrNoMatch
	}
	return s.wrap(sel.First()), nil
}

func (s *Static) FindMany(_ context.Context, selector string) ([]Element, error) {
	sel, err := s.find(selector)
	if err != nil {
		return nil, err
	}
	return s.wrapAll(sel), nil
}

// Click follows the href of an anchor element.
func (s *Static) Click(ctx context.Context, el Element) error {
	e, err := s.own(el)
	if err != nil {
		return err
	}

	href, ok := e.sel.Attr("href")
	if !ok || href == "" || strings.HasPrefix(href, "#") {
		return fmt.Errorf("%w: <%s> has no navigable href", ErrUnsupportedElement, goquery.NodeName(e.sel))
	}

	target, err := s.url.Parse(href)
	if err != nil {
		return fmt.Errorf("page: resolve href %q: %w", href, err)
	}
	return s.Navigate(ctx, target.String())
}

// Select submits the <select> element's form (or the current URL when the
// element has no GET form) with the given option value.
func (s *Static) Select(ctx context.Context, el Element, value string) error {
	e, err := s.own(el)
	if err != nil {
		return err
	}
	if goquery.NodeName(e.sel) != "select" {
		return fmt.Errorf("%w: <%s> is not a select", ErrUnsupportedElement, goquery.NodeName(e.sel))
	}

	hasOption := e.sel.Find("option").FilterFunction(func(_ int, o *goquery.Selection) bool {
		v, ok := o.Attr("value")
		return ok && v == value
	}).Length() > 0
	if !hasOption {
		return fmt.Errorf("page: select has no option with value %q", value)
	}

	name, ok := e.sel.Attr("name")
	if !ok || name == "" {
		name, _ = e.sel.Attr("id")
	}
	if name == "" {
		return fmt.Errorf("%w: select has neither name nor id", ErrUnsupportedElement)
	}

	target := *s.url
	query := target.Query()

	if form := e.sel.Closest("form"); form.Length() > 0 {
		method, _ := form.Attr("method")
		if method != "" && !strings.EqualFold(method, "get") {
			return fmt.Errorf("%w: form method %q", ErrUnsupportedElement, method)
		}
		if action, ok := form.Attr("action"); ok && action != "" {
			resolved, err := s.url.Parse(action)
			if err != nil {
				return fmt.Errorf("page: resolve form action %q: %w", action, err)
			}
			target = *resolved
			query = url.Values{}
		}
		form.Find("input[name]").Each(func(_ int, in *goquery.Selection) {
			typ, _ := in.Attr("type")
			switch strings.ToLower(typ) {
			case "submit", "button", "image", "reset", "file":
				return
			case "checkbox", "radio":
				if _, checked := in.Attr("checked"); !checked {
					return
				}
			}
			n, _ := in.Attr("name")
			v, _ := in.Attr("value")
			query.Set(n, v)
		})
	}

	query.Set(name, value)
	target.RawQuery = query.Encode()
	return s.Navigate(ctx, target.String())
}

// Close is a no-op; a static session holds no external resources.
func (s *Static) Close() error {
	return nil
}

func (s *Static) find(selector string) (*goquery.Selection, error) {
	if s.doc == nil {
		return nil, ErrNotNavigated
	}
	m, err := s.compile(selector)
	if err != nil {
		return nil, err
	}
	return s.doc.FindMatcher(m), nil
}

func (s *Static) compile(selector string) (cascadia.Selector, error) {
	if m, ok := s.selectors[selector]; ok {
		return m, nil
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("page: invalid selector %q: %w", selector, err)
	}
	s.selectors[selector] = m
	return m, nil
}

// own checks that el came from this session's current document.
func (s *Static) own(el Element) (*staticElement, error) {
	e, ok := el.(*staticElement)
	if !ok || e.owner != s {
		return nil, fmt.Errorf("%w: element belongs to another session", ErrUnsupportedElement)
	}
	if e.stale() {
		return nil, ErrStaleElement
	}
	return e, nil
}

func (s *Static) wrap(sel *goquery.Selection) *staticElement {
	return &staticElement{owner: s, gen: s.gen, sel: sel}
}

func (s *Static) wrapAll(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, one *goquery.Selection) {
		out = append(out, s.wrap(one))
	})
	return out
}

type staticElement struct {
	owner *Static
	gen   uint64
	sel   *goquery.Selection
}

func (e *staticElement) stale() bool {
	return e.gen != e.owner.gen
}

func (e *staticElement) Text() (string, error) {
	if e.stale() {
		return "", ErrStaleElement
	}
	return normalizeText(e.sel.Text()), nil
}

func (e *staticElement) Elements(selector string) ([]Element, error) {
	if e.stale() {
		return nil, ErrStaleElement
	}
	m, err := e.owner.compile(selector)
	if err != nil {
		return nil, err
	}
	return e.owner.wrapAll(e.sel.FindMatcher(m)), nil
}

// normalizeText collapses whitespace runs the way rendered innerText does
// for inline content.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
