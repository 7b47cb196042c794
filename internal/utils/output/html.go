package output

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// stripTags never carry readable content.
const stripTags = "script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas, template"

// CleanHTML removes non-content elements and every attribute except link
// targets and image sources. When keepImages is false, images go too.
func CleanHTML(htmlContent string, keepImages bool) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find(stripTags).Remove()
	if !keepImages {
		doc.Find("img, picture, figure > source").Remove()
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		kept := node.Attr[:0]
		for _, attr := range node.Attr {
			if keepAttr(node, attr) {
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	})

	out, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func keepAttr(n *html.Node, attr html.Attribute) bool {
	switch n.Data {
	case "a":
		return attr.Key == "href" || attr.Key == "title"
	case "img":
		return attr.Key == "src" || attr.Key == "alt" || attr.Key == "title"
	}
	return false
}
