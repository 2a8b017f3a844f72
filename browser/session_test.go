package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/pagesweep/config"
	"github.com/use-agent/pagesweep/models"
	"github.com/use-agent/pagesweep/page"
)

func TestAcceptLanguage(t *testing.T) {
	tests := []struct {
		langs []string
		want  string
	}{
		{[]string{"en-US"}, "en-US"},
		{[]string{"en-US", "en"}, "en-US,en;q=0.9"},
		{[]string{"de", "en-US", "en"}, "de,en-US;q=0.9,en;q=0.8"},
	}
	for _, tt := range tests {
		if got := acceptLanguage(tt.langs); got != tt.want {
			t.Errorf("acceptLanguage(%v) = %q, want %q", tt.langs, got, tt.want)
		}
	}
}

func TestPickUserAgent(t *testing.T) {
	agents := []string{"UA-1", "UA-2", "UA-3"}

	if ua := PickUserAgent(config.BrowserConfig{UserAgents: agents}); ua != "" {
		t.Errorf("rotation off: got %q, want empty", ua)
	}
	if ua := PickUserAgent(config.BrowserConfig{RotateUserAgent: true}); ua != "" {
		t.Errorf("no agents: got %q, want empty", ua)
	}

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		ua := PickUserAgent(config.BrowserConfig{RotateUserAgent: true, UserAgents: agents})
		seen[ua] = true
	}
	for _, a := range agents {
		if !seen[a] {
			t.Errorf("agent %q never picked in 200 draws", a)
		}
	}
}

func TestBlockedSet(t *testing.T) {
	got := blockedSet([]string{"Image", "Font", "Bogus"})
	if len(got) != 2 {
		t.Fatalf("got %d types, want 2", len(got))
	}
	if _, ok := got[proto.NetworkResourceTypeImage]; !ok {
		t.Error("Image not blocked")
	}
	if len(blockedSet(nil)) != 0 {
		t.Error("nil names should block nothing")
	}
}

func TestSession_RejectsForeignElements(t *testing.T) {
	s := &Session{}
	var el page.Element = fakeElement{}
	if err := s.Click(context.Background(), el); !errors.Is(err, page.ErrUnsupportedElement) {
		t.Errorf("Click error = %v, want ErrUnsupportedElement", err)
	}
	if err := s.Select(context.Background(), el, "100"); !errors.Is(err, page.ErrUnsupportedElement) {
		t.Errorf("Select error = %v, want ErrUnsupportedElement", err)
	}
}

func TestSession_BoundedActionContext(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		parent  time.Duration
		want    time.Duration
	}{
		{"configured", 50 * time.Millisecond, 0, 50 * time.Millisecond},
		{"unset falls back to default", 0, 0, defaultActionTimeout},
		{"earlier parent deadline wins", time.Minute, 20 * time.Millisecond, 20 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := context.Background()
			if tt.parent > 0 {
				var cancel context.CancelFunc
				parent, cancel = context.WithTimeout(parent, tt.parent)
				defer cancel()
			}

			s := &Session{actionTimeout: tt.timeout}
			start := time.Now()
			ctx, cancel := s.bounded(parent)
			defer cancel()

			deadline, ok := ctx.Deadline()
			if !ok {
				t.Fatal("action context has no deadline")
			}
			const slack = 100 * time.Millisecond
			if got := deadline.Sub(start); got > tt.want+slack || got < tt.want-slack {
				t.Errorf("deadline in %s, want about %s", got, tt.want)
			}
		})
	}

	s := &Session{actionTimeout: 10 * time.Millisecond}
	ctx, cancel := s.bounded(context.Background())
	defer cancel()
	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.Errorf("ctx.Err = %v", ctx.Err())
		}
	case <-time.After(time.Second):
		t.Fatal("action context never expired")
	}
	if err := categorizeError(ctx.Err(), "click failed"); err.Code != models.ErrCodeTimeout {
		t.Errorf("expired action code = %s, want %s", err.Code, models.ErrCodeTimeout)
	}
}

type fakeElement struct{}

func (fakeElement) Text() (string, error)                   { return "", nil }
func (fakeElement) Elements(string) ([]page.Element, error) { return nil, nil }
