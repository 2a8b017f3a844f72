package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/pagesweep/config"
	"github.com/use-agent/pagesweep/locator"
	"github.com/use-agent/pagesweep/models"
	"github.com/use-agent/pagesweep/page"
	"github.com/use-agent/pagesweep/simhash"
)

// unchangedThreshold is the Hamming distance at or below which two pages of
// records are treated as the same content.
const unchangedThreshold = 3

// Pacer throttles navigations. Wait blocks until the next navigation may
// start or ctx is done.
type Pacer interface {
	Wait(ctx context.Context) error
}

// LabelSet records the pagination labels visited in one sweep.
type LabelSet struct {
	seen  map[string]struct{}
	order []string
}

// NewLabelSet returns an empty set.
func NewLabelSet() *LabelSet {
	return &LabelSet{seen: make(map[string]struct{})}
}

// Add inserts label and reports whether it was new.
func (s *LabelSet) Add(label string) bool {
	if _, ok := s.seen[label]; ok {
		return false
	}
	s.seen[label] = struct{}{}
	s.order = append(s.order, label)
	return true
}

// Contains reports whether label has been added.
func (s *LabelSet) Contains(label string) bool {
	_, ok := s.seen[label]
	return ok
}

// Labels returns the labels in insertion order.
func (s *LabelSet) Labels() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of labels.
func (s *LabelSet) Len() int {
	return len(s.order)
}

// Walker visits each distinct page of a pagination strip once and collects
// the rows of every page.
//
// The strip is re-located before every control is read, because a click
// replaces the DOM and invalidates every handle taken before it.
type Walker struct {
	session page.Session
	loc     *locator.Locator
	rows    *RowExtractor
	cfg     config.ScraperConfig
	pacer   Pacer

	visited *LabelSet
}

// NewWalker creates a Walker. pacer may be nil.
func NewWalker(session page.Session, loc *locator.Locator, cfg config.ScraperConfig, pacer Pacer) *Walker {
	return &Walker{
		session: session,
		loc:     loc,
		rows:    NewRowExtractor(loc, cfg.RowSelector, cfg.CellSelector, cfg.LocateTimeout),
		cfg:     cfg,
		pacer:   pacer,
		visited: NewLabelSet(),
	}
}

// Visited returns the labels processed by the most recent sweep.
func (w *Walker) Visited() []string {
	return w.visited.Labels()
}

// Reset forgets the labels of the previous sweep.
func (w *Walker) Reset() {
	w.visited = NewLabelSet()
}

// Sweep walks the pagination strip in document order and returns the
// records of every visited page, page by page.
//
// The strip is read in a single round whose length is fixed by the first
// lookup. A page with no rows ends the sweep cleanly. A page whose rows
// cannot be extracted aborts it: the records gathered so far are returned
// together with the error. A failed click only skips that page.
func (w *Walker) Sweep(ctx context.Context) ([]models.TeamRecord, error) {
	w.Reset()
	records := make([]models.TeamRecord, 0)

	n := len(w.loc.Many(ctx, w.cfg.PaginationSelector, w.cfg.LocateTimeout))
	slog.Info("pagination strip located", "controls", n)

	var (
		prevPrint uint64
		havePrint bool
	)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return records, categorizeError(err, "sweep interrupted")
		}

		controls := w.loc.Many(ctx, w.cfg.PaginationSelector, w.cfg.LocateTimeout)
		if i >= len(controls) {
			slog.Warn("pagination strip shrank, ending round",
				"index", i, "controls", len(controls), "expected", n)
			break
		}

		text, err := controls[i].Text()
		if err != nil {
			slog.Warn("reading pagination label failed, skipping control",
				"index", i, "error", err)
			continue
		}
		label := strings.TrimSpace(text)

		if !w.visited.Add(label) {
			slog.Debug("page already visited", "label", label)
			continue
		}

		clicked := false
		if label != w.cfg.FirstPageLabel {
			if err := w.navigate(ctx, controls[i]); err != nil {
				slog.Warn("navigation failed, skipping page", "label", label, "error", err)
				continue
			}
			clicked = true
		}

		pageRecords, err := w.rows.Extract(ctx)
		if err != nil {
			slog.Error("row extraction failed, aborting sweep",
				"label", label, "collected", len(records), "error", err)
			return records, err
		}
		if len(pageRecords) == 0 {
			slog.Info("page has no rows, end of data", "label", label)
			return records, nil
		}

		fp := fingerprint(pageRecords)
		if clicked && havePrint && simhash.Similar(prevPrint, fp, unchangedThreshold) {
			slog.Warn("page content unchanged after navigation, settle delay may be too short",
				"label", label, "settle_delay", w.cfg.SettleDelay)
		}
		prevPrint, havePrint = fp, true

		records = append(records, pageRecords...)
		slog.Info("page extracted", "label", label, "rows", len(pageRecords), "total", len(records))
	}

	return records, nil
}

// navigate clicks a control and waits for the new page to settle.
func (w *Walker) navigate(ctx context.Context, control page.Element) error {
	if w.pacer != nil {
		if err := w.pacer.Wait(ctx); err != nil {
			return categorizeError(err, "waiting for navigation slot")
		}
	}
	if err := w.session.Click(ctx, control); err != nil {
		return categorizeError(err, "click on pagination control failed")
	}
	if err := sleep(ctx, w.cfg.SettleDelay); err != nil {
		return categorizeError(err, "settle delay interrupted")
	}
	return nil
}

func fingerprint(records []models.TeamRecord) uint64 {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return simhash.FingerprintRows(rows)
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
