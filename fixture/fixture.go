// Package fixture renders deterministic paginated team tables as in-memory
// documents for page.Static sessions.
//
// A Site mirrors the layout of the live hockey-teams page: an optional
// page-size form, a "ul.pagination" strip of anchors and a
// "table.table tbody tr.team" body. Each anchor links to "?page_num=<label>"
// relative to the base URL, and the page labelled "1" is also served at the
// base URL itself.
package fixture

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/use-agent/pagesweep/models"
	"github.com/use-agent/pagesweep/page"
)

// BaseURL is the default address fixtures are served under.
const BaseURL = "https://fixture.test/pages/forms/"

// Site describes a paginated fixture.
type Site struct {
	// BaseURL defaults to the package BaseURL.
	BaseURL string

	// Labels is the pagination strip, in document order. Duplicates are
	// allowed and link to the same page.
	Labels []string

	// Pages maps a label to its table rows. A label without an entry has no
	// document, so following its link fails. A nil or empty slice renders a
	// page with an empty table body.
	Pages map[string][][]string

	// PageSize adds a "#per_page" select with options 25, 50 and 100.
	PageSize bool

	// LargePage holds the rows served after the page size is set to 100.
	// Defaults to the rows of page "1".
	LargePage [][]string
}

// Loader renders every page of the site.
func (s Site) Loader() page.MapLoader {
	base := s.base()
	out := make(page.MapLoader, len(s.Pages)+2)

	for label, rows := range s.Pages {
		out[PageURL(base, label)] = s.render(base, rows)
	}
	if rows, ok := s.Pages["1"]; ok {
		out[base] = s.render(base, rows)
	}
	if s.PageSize {
		large := s.LargePage
		if large == nil {
			large = s.Pages["1"]
		}
		out[base+"?per_page=100"] = s.render(base, large)
	}
	return out
}

// URL returns the address the fixture's first page is served at.
func (s Site) URL() string {
	return s.base()
}

func (s Site) base() string {
	if s.BaseURL == "" {
		return BaseURL
	}
	return s.BaseURL
}

// PageURL returns the absolute address of the page labelled label.
func PageURL(base, label string) string {
	return base + "?" + url.Values{"page_num": {label}}.Encode()
}

// Team returns a complete nine-cell row whose team name is name.
func Team(name string, year int) []string {
	wins := 30 + year%20
	losses := 82 - wins - 4
	return []string{
		name,
		strconv.Itoa(year),
		strconv.Itoa(wins),
		strconv.Itoa(losses),
		"4",
		fmt.Sprintf("%.3f", float64(wins)/82),
		strconv.Itoa(200 + wins),
		strconv.Itoa(200 + losses),
		strconv.Itoa(wins - losses),
	}
}

// Teams returns n complete rows named "<prefix> 1" .. "<prefix> n".
func Teams(prefix string, n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = Team(fmt.Sprintf("%s %d", prefix, i+1), 1990+i)
	}
	return rows
}

// Record converts a fixture row into the record a scraper should produce.
func Record(cells []string) models.TeamRecord {
	rec, err := models.NewTeamRecord(cells)
	if err != nil {
		panic(fmt.Sprintf("fixture: %v", err))
	}
	return rec
}

type link struct {
	Href  string
	Label string
}

type view struct {
	Action   string
	PageSize bool
	Links    []link
	Rows     [][]string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>Hockey Teams: Forms, Searching and Pagination</title></head>
<body>
<div class="container">
{{- if .PageSize}}
  <form action="{{.Action}}" method="get" class="form-inline">
    <select id="per_page" name="per_page" class="form-control">
      <option value="25" selected>25</option>
      <option value="50">50</option>
      <option value="100">100</option>
    </select>
  </form>
{{- end}}
  <table class="table">
    <thead><tr><th>Team Name</th><th>Year</th><th>Wins</th><th>Losses</th><th>OT Losses</th><th>Win %</th><th>Goals For (GF)</th><th>Goals Against (GA)</th><th>+ / -</th></tr></thead>
    <tbody>
{{- range .Rows}}
      <tr class="team">{{range .}}
        <td>
          {{.}}
        </td>{{end}}
      </tr>
{{- end}}
    </tbody>
  </table>
  <ul class="pagination">
{{- range .Links}}
    <li><a href="{{.Href}}"> {{.Label}} </a></li>
{{- end}}
  </ul>
</div>
</body>
</html>
`))

func (s Site) render(base string, rows [][]string) string {
	action := base
	if u, err := url.Parse(base); err == nil {
		action = u.Path
	}

	v := view{Action: action, PageSize: s.PageSize, Rows: rows}
	for _, label := range s.Labels {
		v.Links = append(v.Links, link{
			Href:  "?" + url.Values{"page_num": {label}}.Encode(),
			Label: label,
		})
	}

	var b strings.Builder
	if err := pageTmpl.Execute(&b, v); err != nil {
		panic(fmt.Sprintf("fixture: render: %v", err))
	}
	return b.String()
}
