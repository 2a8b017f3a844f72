package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/use-agent/pagesweep/export"
	"github.com/use-agent/pagesweep/models"
)

// renderPreview prints the first n records as a table.
func renderPreview(w io.Writer, records []models.TeamRecord, n int) {
	if n <= 0 || len(records) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, 0, models.NumFields)
	for _, name := range models.FieldNames {
		header = append(header, name)
	}
	t.AppendHeader(header)

	for _, r := range records[:min(n, len(records))] {
		row := make(table.Row, 0, models.NumFields)
		for _, v := range r.Values() {
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	if rest := len(records) - n; rest > 0 {
		t.AppendFooter(table.Row{fmt.Sprintf("+%d more", rest)})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func joinFormats() string {
	return strings.Join(export.Formats(), ", ")
}
