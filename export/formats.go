package export

import (
	"bytes"
	"encoding/csv"
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	json "github.com/json-iterator/go"
	"github.com/use-agent/pagesweep/models"
)

// encodeCSV writes a header row of field names and one row per record,
// with CRLF line endings.
func encodeCSV(records []models.TeamRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(models.FieldNames[:]); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := w.Write(r.Values()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// encodeJSON writes an array of objects keyed by field name, in field
// order, indented by four spaces.
func encodeJSON(records []models.TeamRecord) ([]byte, error) {
	return json.MarshalIndent(records, "", "    ")
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// encodeMarkdown renders the records as an HTML table and converts it.
func encodeMarkdown(records []models.TeamRecord) ([]byte, error) {
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, name := range models.FieldNames {
		b.WriteString("<th>" + html.EscapeString(name) + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, r := range records {
		b.WriteString("<tr>")
		for _, v := range r.Values() {
			b.WriteString("<td>" + html.EscapeString(v) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")

	md, err := mdConverter.ConvertString(b.String())
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(md) + "\n"), nil
}
