package browser

import (
	"context"
	"testing"
	"time"

	"github.com/use-agent/pagesweep/config"
)

func TestNewPacer_DisabledIsNil(t *testing.T) {
	if p := NewPacer(config.DelayConfig{Min: time.Second, Max: 2 * time.Second}, 0); p != nil {
		t.Errorf("NewPacer = %+v, want nil", p)
	}
}

func TestPacer_NextWithinRange(t *testing.T) {
	delay := config.DelayConfig{Random: true, Min: 3 * time.Second, Max: 7 * time.Second}
	p := NewPacer(delay, 0)

	for _, r := range []float64{0, 0.25, 0.5, 0.999} {
		p.rand = func() float64 { return r }
		got := p.Next()
		if got < delay.Min || got > delay.Max {
			t.Errorf("Next() with rand %v = %s, outside [%s, %s]", r, got, delay.Min, delay.Max)
		}
	}

	p.rand = func() float64 { return 0.5 }
	if got := p.Next(); got != 5*time.Second {
		t.Errorf("Next() at midpoint = %s, want 5s", got)
	}
}

func TestPacer_NextDegenerateRange(t *testing.T) {
	p := NewPacer(config.DelayConfig{Random: true, Min: time.Second, Max: time.Second}, 0)
	if got := p.Next(); got != time.Second {
		t.Errorf("Next() = %s, want 1s", got)
	}
}

func TestPacer_WaitRateCap(t *testing.T) {
	p := NewPacer(config.DelayConfig{}, 20) // one token every 50ms
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	// The first wait uses the initial token; the next two each wait ~50ms.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("three waits took %s, want at least ~100ms", elapsed)
	}
}

func TestPacer_WaitCanceled(t *testing.T) {
	p := NewPacer(config.DelayConfig{Random: true, Min: time.Hour, Max: time.Hour}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := p.Wait(ctx); err == nil {
		t.Error("Wait returned nil on a canceled context")
	}
	if time.Since(start) > time.Second {
		t.Error("Wait ignored cancellation")
	}
}
