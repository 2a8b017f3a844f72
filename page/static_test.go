package page

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

const base = "https://example.test/list/"

var testPages = MapLoader{
	base: `<html><body>
		<form action="/list/" method="get">
			<input type="text" name="q" value="bruins">
			<input type="submit" name="go" value="Search">
			<select id="per_page" name="per_page">
				<option value="25">25</option>
				<option value="100">100</option>
			</select>
		</form>
		<ul class="pagination">
			<li><a href="?page_num=1">  1 </a></li>
			<li><a href="?page_num=2">2</a></li>
			<li><a>dead</a></li>
		</ul>
		<table><tbody>
			<tr class="team"><td>
				Boston
				Bruins
			</td><td>1990</td></tr>
		</tbody></table>
	</body></html>`,
	base + "?page_num=1": `<html><body><p id="which">one</p></body></html>`,
	base + "?page_num=2": `<html><body><p id="which">two</p></body></html>`,
	base + "?per_page=100&q=bruins": `<html><body><p id="which">hundred</p></body></html>`,
}

func newTestSession(t *testing.T) *Static {
	t.Helper()
	s := NewStatic(testPages)
	if err := s.Navigate(context.Background(), base); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	return s
}

func TestStatic_FindBeforeNavigate(t *testing.T) {
	s := NewStatic(testPages)
	if _, err := s.FindMany(context.Background(), "a"); !errors.Is(err, ErrNotNavigated) {
		t.Errorf("FindMany error = %v, want ErrNotNavigated", err)
	}
}

func TestStatic_FindOneAndText(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	el, err := s.FindOne(ctx, "tr.team td")
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	text, err := el.Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "Boston Bruins" {
		t.Errorf("Text() = %q, want %q", text, "Boston Bruins")
	}

	if _, err := s.FindOne(ctx, "#missing"); !errors.Is(err, ErrNoMatch) {
		t.Errorf("FindOne(#missing) error = %v, want ErrNoMatch", err)
	}
}

func TestStatic_FindManyEmptyIsNotError(t *testing.T) {
	s := newTestSession(t)
	els, err := s.FindMany(context.Background(), "div.nothing")
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if len(els) != 0 {
		t.Errorf("got %d elements, want 0", len(els))
	}
}

func TestStatic_InvalidSelector(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.FindMany(context.Background(), "a[["); err == nil {
		t.Error("expected error for invalid selector")
	}
}

func TestStatic_ElementsNested(t *testing.T) {
	s := newTestSession(t)
	rows, err := s.FindMany(context.Background(), "tr.team")
	if err != nil || len(rows) != 1 {
		t.Fatalf("FindMany rows = %d, err = %v", len(rows), err)
	}
	cells, err := rows[0].Elements("td")
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("got %d cells, want 2", len(cells))
	}
	year, _ := cells[1].Text()
	if year != "1990" {
		t.Errorf("year = %q, want 1990", year)
	}
}

func TestStatic_ClickFollowsHrefAndStalesHandles(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	links, err := s.FindMany(ctx, "ul.pagination li a")
	if err != nil || len(links) != 3 {
		t.Fatalf("links = %d, err = %v", len(links), err)
	}
	label, _ := links[0].Text()
	if label != "1" {
		t.Errorf("label = %q, want 1", label)
	}

	if err := s.Click(ctx, links[1]); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if s.URL() != base+"?page_num=2" {
		t.Errorf("URL = %q", s.URL())
	}

	p, err := s.FindOne(ctx, "#which")
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got, _ := p.Text(); got != "two" {
		t.Errorf("page text = %q, want two", got)
	}

	// Handles from the previous document must not be usable.
	if _, err := links[0].Text(); !errors.Is(err, ErrStaleElement) {
		t.Errorf("stale Text error = %v, want ErrStaleElement", err)
	}
	if err := s.Click(ctx, links[0]); !errors.Is(err, ErrStaleElement) {
		t.Errorf("stale Click error = %v, want ErrStaleElement", err)
	}
	if _, err := links[0].Elements("span"); !errors.Is(err, ErrStaleElement) {
		t.Errorf("stale Elements error = %v, want ErrStaleElement", err)
	}
}

func TestStatic_ClickWithoutHref(t *testing.T) {
	s := newTestSession(t)
	links, _ := s.FindMany(context.Background(), "ul.pagination li a")
	err := s.Click(context.Background(), links[2])
	if !errors.Is(err, ErrUnsupportedElement) {
		t.Errorf("Click error = %v, want ErrUnsupportedElement", err)
	}
}

func TestStatic_ClickUnknownPage(t *testing.T) {
	loader := MapLoader{
		base: `<a href="/elsewhere">x</a>`,
	}
	s := NewStatic(loader)
	ctx := context.Background()
	if err := s.Navigate(ctx, base); err != nil {
		t.Fatal(err)
	}
	a, _ := s.FindOne(ctx, "a")
	if err := s.Click(ctx, a); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Click error = %v, want ErrPageNotFound", err)
	}
}

func TestStatic_SelectSubmitsForm(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	sel, err := s.FindOne(ctx, "#per_page")
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if err := s.Select(ctx, sel, "100"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	p, _ := s.FindOne(ctx, "#which")
	if got, _ := p.Text(); got != "hundred" {
		t.Errorf("page text = %q, want hundred", got)
	}
}

func TestStatic_SelectMatchesValueVerbatim(t *testing.T) {
	const value = `a\b "é"`
	pages := MapLoader{
		base: `<html><body>
			<select name="team">
				<option value="a">plain</option>
				<option value="a\b &#34;é&#34;">awkward</option>
			</select>
		</body></html>`,
		base + "?" + url.Values{"team": {value}}.Encode(): `<html><body><p id="which">awkward</p></body></html>`,
	}
	s := NewStatic(pages)
	ctx := context.Background()
	if err := s.Navigate(ctx, base); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	sel, err := s.FindOne(ctx, "select")
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if err := s.Select(ctx, sel, value); err != nil {
		t.Fatalf("Select: %v", err)
	}
	p, _ := s.FindOne(ctx, "#which")
	if got, _ := p.Text(); got != "awkward" {
		t.Errorf("page text = %q, want awkward", got)
	}
}

func TestStatic_SelectErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown option", func(t *testing.T) {
		s := newTestSession(t)
		sel, _ := s.FindOne(ctx, "#per_page")
		if err := s.Select(ctx, sel, "7"); err == nil {
			t.Error("expected error for unknown option")
		}
	})

	t.Run("not a select", func(t *testing.T) {
		s := newTestSession(t)
		a, _ := s.FindOne(ctx, "a")
		if err := s.Select(ctx, a, "100"); !errors.Is(err, ErrUnsupportedElement) {
			t.Errorf("error = %v, want ErrUnsupportedElement", err)
		}
	})

	t.Run("foreign element", func(t *testing.T) {
		s := newTestSession(t)
		other := newTestSession(t)
		el, _ := other.FindOne(ctx, "#per_page")
		if err := s.Select(ctx, el, "100"); !errors.Is(err, ErrUnsupportedElement) {
			t.Errorf("error = %v, want ErrUnsupportedElement", err)
		}
	})
}

func TestMapLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testPages.Load(ctx, base); !errors.Is(err, context.Canceled) {
		t.Errorf("Load error = %v, want context.Canceled", err)
	}
}
