package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/pagesweep/locator"
	"github.com/use-agent/pagesweep/models"
)

// RowExtractor reads the team rows of the current page.
type RowExtractor struct {
	loc          *locator.Locator
	rowSelector  string
	cellSelector string
	timeout      time.Duration
}

// NewRowExtractor creates a RowExtractor. A non-positive timeout uses the
// locator's default.
func NewRowExtractor(loc *locator.Locator, rowSelector, cellSelector string, timeout time.Duration) *RowExtractor {
	return &RowExtractor{
		loc:          loc,
		rowSelector:  rowSelector,
		cellSelector: cellSelector,
		timeout:      timeout,
	}
}

// Extract waits for rows to render and maps each one to a TeamRecord.
//
// No rows within the timeout means the data has ended: Extract returns nil
// and no error. A row that cannot be read, or that has fewer cells than a
// record has fields, fails the whole page with an EXTRACTION_FAILED error.
func (x *RowExtractor) Extract(ctx context.Context) ([]models.TeamRecord, error) {
	rows := x.loc.Many(ctx, x.rowSelector, x.timeout)
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]models.TeamRecord, 0, len(rows))
	for i, row := range rows {
		cells, err := row.Elements(x.cellSelector)
		if err != nil {
			return nil, extractionError(i, "reading cells", err)
		}

		texts := make([]string, 0, models.NumFields)
		for _, cell := range cells[:min(len(cells), models.NumFields)] {
			text, err := cell.Text()
			if err != nil {
				return nil, extractionError(i, "reading cell text", err)
			}
			texts = append(texts, strings.TrimSpace(text))
		}

		rec, err := models.NewTeamRecord(texts)
		if err != nil {
			return nil, extractionError(i, "mapping cells", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func extractionError(row int, what string, err error) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeExtraction,
		fmt.Sprintf("row %d: %s", row, what), err)
}
