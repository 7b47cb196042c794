// Package reducer turns a rendered HTML document into the two artifacts the
// scrape endpoint returns: the absolute http(s) links it points to and the
// visible text a reader would see.
//
// Reduce is a pure function. It never fails: malformed markup, empty input
// and an unusable base URL all still produce a result.
package reducer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	urlutil "github.com/law-makers/parscrape/internal/utils/url"
)

// Result is the reduced form of one document.
type Result struct {
	Links []string `json:"urls"`
	Text  string   `json:"text"`
}

// skipPrefixes are matched against the raw href before resolution.
var skipPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

// Reduce parses rawHTML, drops script and style subtrees, and returns the
// deduplicated absolute links and the normalized visible text. baseURL is
// only used to resolve relative hrefs.
func Reduce(rawHTML, baseURL string) Result {
	doc := parse(rawHTML)
	doc.Find("script, style").Remove()

	return Result{
		Links: extractLinks(doc, baseURL),
		Text:  normalizeLines(visibleText(doc)),
	}
}

// parse builds the document tree with scripting disabled so <noscript>
// content is parsed as markup rather than raw text.
func parse(rawHTML string) *goquery.Document {
	root, err := html.ParseWithOptions(strings.NewReader(rawHTML), html.ParseOptionEnableScripting(false))
	if err != nil {
		// Only reader errors end up here; a strings.Reader has none.
		root = &html.Node{Type: html.DocumentNode}
	}
	return goquery.NewDocumentFromNode(root)
}

func extractLinks(doc *goquery.Document, baseURL string) []string {
	base := urlutil.ParseBase(baseURL)
	links := newLinkSet()

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if skipHref(href) {
			return
		}
		resolved, ok := urlutil.Resolve(base, href)
		if !ok || !urlutil.HasWebScheme(resolved) {
			return
		}
		links.add(resolved)
	})

	return links.items()
}

func skipHref(href string) bool {
	if href == "" {
		return true
	}
	for _, p := range skipPrefixes {
		if strings.HasPrefix(href, p) {
			return true
		}
	}
	return false
}

// visibleText joins every non-blank text node, trimmed, with "\n".
// Comments and doctype nodes are not text nodes and never contribute.
func visibleText(doc *goquery.Document) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// normalizeLines trims every line and drops the blank ones.
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
