package engine

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// emptyRoots are mount points of client-rendered apps with nothing inside.
var emptyRoots = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
}

// looksLikeShell reports whether an HTTP-fetched document is probably an
// empty page that only a browser would fill in.
func looksLikeShell(body []byte) bool {
	text := visibleText(body)
	if len(text) < 200 {
		return true
	}

	lower := strings.ToLower(string(body))
	for _, root := range emptyRoots {
		if strings.Contains(lower, root) {
			return true
		}
	}
	if reNoscript.MatchString(lower) {
		return true
	}
	return strings.Count(lower, "<script") > 10 && len(text) < 500
}

// extractTitle returns the content of the first <title> element.
func extractTitle(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			if tn, _ := z.TagName(); string(tn) == "title" {
				if z.Next() == html.TextToken {
					return strings.TrimSpace(string(z.Text()))
				}
				return ""
			}
		}
	}
}

// visibleText concatenates the text inside <body>, skipping script, style
// and noscript content.
func visibleText(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := z.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skip++
			}
		case html.EndTagToken:
			tn, _ := z.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if inBody && skip == 0 {
				if t := strings.TrimSpace(string(z.Text())); t != "" {
					buf.WriteString(t)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
