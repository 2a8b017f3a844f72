package browser

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/use-agent/pagesweep/config"
	"golang.org/x/time/rate"
)

// Pacer spaces out navigations. It combines an optional token-bucket cap on
// navigations per second with an optional uniformly random pause in
// [Min, Max].
type Pacer struct {
	limiter *rate.Limiter
	delay   config.DelayConfig
	rand    func() float64
}

// NewPacer returns a Pacer, or nil when neither random delays nor a rate
// cap are configured.
func NewPacer(delay config.DelayConfig, perSecond float64) *Pacer {
	if !delay.Random && perSecond <= 0 {
		return nil
	}
	p := &Pacer{delay: delay, rand: rand.Float64}
	if perSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return p
}

// Wait blocks until the rate cap admits a navigation and then for the
// random delay, or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Next draws the next random delay. It is zero when random delays are off.
func (p *Pacer) Next() time.Duration {
	if !p.delay.Random {
		return 0
	}
	span := p.delay.Max - p.delay.Min
	if span <= 0 {
		return p.delay.Min
	}
	return p.delay.Min + time.Duration(p.rand()*float64(span))
}
