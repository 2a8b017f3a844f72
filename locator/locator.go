// Package locator waits for DOM elements to appear on a page whose content
// renders asynchronously.
//
// Both operations are a fixed-interval poll over the session's immediate
// find primitives, bounded by a per-call timeout. One reports absence as a
// NotFound error; Many reports it as an empty slice.
package locator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/pagesweep/models"
	"github.com/use-agent/pagesweep/page"
)

// Defaults used when a Locator is built with zero values.
const (
	DefaultInterval = 500 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
)

// PollResult is the outcome of a single bounded poll.
type PollResult[T any] struct {
	Value T
	Found bool
}

// Poll calls try immediately and then every interval until it reports
// found, or until the deadline (now + timeout) has passed. The deadline is
// checked only after a failed try, so a poll never gives up before
// timeout has elapsed. A cancelled ctx ends the poll as not found.
func Poll[T any](ctx context.Context, timeout, interval time.Duration, try func() (T, bool)) PollResult[T] {
	deadline := time.Now().Add(timeout)
	for {
		if v, ok := try(); ok {
			return PollResult[T]{Value: v, Found: true}
		}
		if time.Now().After(deadline) {
			return PollResult[T]{}
		}

		select {
		case <-ctx.Done():
			return PollResult[T]{}
		case <-time.After(interval):
		}
	}
}

// Locator polls a page.Session for elements.
type Locator struct {
	session  page.Session
	interval time.Duration
	timeout  time.Duration
}

// New creates a Locator. Non-positive interval or timeout fall back to
// DefaultInterval and DefaultTimeout.
func New(session page.Session, interval, timeout time.Duration) *Locator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Locator{session: session, interval: interval, timeout: timeout}
}

// Timeout returns the default per-call timeout.
func (l *Locator) Timeout() time.Duration {
	return l.timeout
}

// One waits up to timeout for an element matching selector. A non-positive
// timeout uses the Locator's default. If nothing matches in time it returns
// a *models.ScrapeError with code models.ErrCodeNotFound.
func (l *Locator) One(ctx context.Context, selector string, timeout time.Duration) (page.Element, error) {
	timeout = l.orDefault(timeout)

	var lastErr error
	res := Poll(ctx, timeout, l.interval, func() (page.Element, bool) {
		el, err := l.session.FindOne(ctx, selector)
		if err != nil {
			lastErr = err
			return nil, false
		}
		return el, true
	})
	if res.Found {
		return res.Value, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeTimeout,
			fmt.Sprintf("locating %q interrupted", selector), err)
	}
	return nil, models.NewScrapeError(models.ErrCodeNotFound,
		fmt.Sprintf("element %q not found within %s", selector, timeout), lastErr)
}

// Many waits up to timeout for at least one element matching selector and
// returns all current matches. It never fails: when nothing appears in time
// the result is empty. Find errors are treated as "not yet rendered".
func (l *Locator) Many(ctx context.Context, selector string, timeout time.Duration) []page.Element {
	timeout = l.orDefault(timeout)

	res := Poll(ctx, timeout, l.interval, func() ([]page.Element, bool) {
		els, err := l.session.FindMany(ctx, selector)
		if err != nil {
			slog.Debug("find failed, polling again", "selector", selector, "error", err)
			return nil, false
		}
		return els, len(els) > 0
	})
	if !res.Found {
		return []page.Element{}
	}
	return res.Value
}

func (l *Locator) orDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return l.timeout
	}
	return timeout
}
