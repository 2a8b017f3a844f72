// Package scraper drives a page.Session through a paginated team table and
// collects every row into TeamRecords.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/pagesweep/config"
	"github.com/use-agent/pagesweep/locator"
	"github.com/use-agent/pagesweep/models"
	"github.com/use-agent/pagesweep/page"
)

// sampleSize is how many records are logged after a run.
const sampleSize = 5

// Scraper runs one scrape over an already provisioned session.
// It is not safe for concurrent use.
type Scraper struct {
	session page.Session
	loc     *locator.Locator
	walker  *Walker
	cfg     config.ScraperConfig

	lastErr error
}

// New creates a Scraper. pacer may be nil.
func New(session page.Session, cfg config.ScraperConfig, pacer Pacer) *Scraper {
	loc := locator.New(session, cfg.PollInterval, cfg.LocateTimeout)
	return &Scraper{
		session: session,
		loc:     loc,
		walker:  NewWalker(session, loc, cfg, pacer),
		cfg:     cfg,
	}
}

// Run navigates to the target, enlarges the page size when the page offers
// it, and sweeps the pagination strip.
//
// Run always returns the records collected, which may be partial or empty.
// Whether the sweep completed is reported by Err and in the logs.
func (s *Scraper) Run(ctx context.Context) []models.TeamRecord {
	s.lastErr = nil
	s.walker.Reset()
	start := time.Now()

	if err := s.session.Navigate(ctx, s.cfg.TargetURL); err != nil {
		s.lastErr = categorizeError(err, "navigation to target URL failed")
		slog.Error("navigation failed", "url", s.cfg.TargetURL, "error", err)
		return []models.TeamRecord{}
	}
	slog.Info("navigated", "url", s.cfg.TargetURL)

	s.adjustPageSize(ctx)

	records, err := s.walker.Sweep(ctx)
	if err != nil {
		s.lastErr = err
		slog.Error("sweep ended early", "records", len(records), "error", err)
	}

	for i, r := range records[:min(len(records), sampleSize)] {
		slog.Info("sample record", "index", i, "team", r.TeamName, "year", r.Year)
	}
	slog.Info("scrape finished",
		"records", len(records),
		"pages", len(s.walker.Visited()),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return records
}

// Err returns the error that cut the last Run short, or nil if the sweep
// reached the end of the strip or of the data.
func (s *Scraper) Err() error {
	return s.lastErr
}

// Visited returns the pagination labels processed by the last Run.
func (s *Scraper) Visited() []string {
	return s.walker.Visited()
}

// adjustPageSize selects the configured option of the page-size control.
// Every failure leaves the default page size in place.
func (s *Scraper) adjustPageSize(ctx context.Context) {
	if s.cfg.PageSizeSelector == "" || s.cfg.PageSizeValue == "" {
		return
	}

	control, err := s.loc.One(ctx, s.cfg.PageSizeSelector, s.cfg.LocateTimeout)
	if err != nil {
		slog.Warn("page size control not found, keeping default page size",
			"selector", s.cfg.PageSizeSelector, "error", err)
		return
	}

	if err := s.session.Select(ctx, control, s.cfg.PageSizeValue); err != nil {
		slog.Warn("changing page size failed, keeping default page size",
			"value", s.cfg.PageSizeValue, "error", err)
		return
	}
	if err := sleep(ctx, s.cfg.PageSizeDelay); err != nil {
		slog.Warn("page size delay interrupted", "error", err)
		return
	}
	slog.Info("page size set", "value", s.cfg.PageSizeValue)
}

// categorizeError wraps raw errors into typed ScrapeErrors. Errors that
// already carry a code keep it.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return models.NewScrapeError(se.Code, msg, err)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "scrape canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
