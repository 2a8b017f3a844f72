// Package export writes scraped records to files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/use-agent/pagesweep/models"
)

// ErrNoData is returned when there are no records to write. No file is
// created in that case.
var ErrNoData = errors.New("no data to export")

// writer encodes records into a file body.
type writer struct {
	ext    string
	encode func(records []models.TeamRecord) ([]byte, error)
}

var writers = map[string]writer{
	"csv":      {ext: ".csv", encode: encodeCSV},
	"json":     {ext: ".json", encode: encodeJSON},
	"markdown": {ext: ".md", encode: encodeMarkdown},
}

// Formats returns the supported format tags in sorted order.
func Formats() []string {
	out := make([]string, 0, len(writers))
	for f := range writers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Write encodes records in format and writes them to dir/name.<ext>. It
// returns the path written. Format tags are case-insensitive; an unknown
// tag fails with an UNSUPPORTED_FORMAT error.
func Write(records []models.TeamRecord, dir, name, format string) (string, error) {
	w, ok := writers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return "", models.NewScrapeError(models.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported export format %q (supported: %s)", format, strings.Join(Formats(), ", ")), nil)
	}
	if len(records) == 0 {
		return "", ErrNoData
	}

	body, err := w.encode(records)
	if err != nil {
		return "", fmt.Errorf("export: encode %s: %w", format, err)
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}
	path := filepath.Join(dir, name+w.ext)

	// Write to a sibling temp file first so an interrupted run never leaves
	// a truncated export behind.
	tmp, err := os.CreateTemp(dir, "."+name+"-*"+w.ext)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	// CreateTemp makes owner-only files.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}
