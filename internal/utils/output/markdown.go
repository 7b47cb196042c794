package output

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/law-makers/parscrape/internal/utils/url"
)

// Markdown renders htmlContent as GitHub-flavored Markdown. Links and image
// sources are resolved against pageURL; images are dropped unless keepImages.
func Markdown(htmlContent, pageURL string, keepImages bool) (string, error) {
	cleaned, err := CleanHTML(htmlContent, keepImages)
	if err != nil {
		return "", fmt.Errorf("failed to clean HTML: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.AddRules(
		md.Rule{
			Filter: []string{"a"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				href, exists := selec.Attr("href")
				if !exists {
					return nil
				}
				text := strings.TrimSpace(content)
				if text == "" {
					text = strings.TrimSpace(selec.Text())
				}
				str := fmt.Sprintf("[%s](%s)", text, urlutil.ResolveURL(pageURL, href))
				if title, ok := selec.Attr("title"); ok && title != "" {
					str = fmt.Sprintf("[%s](%s %q)", text, urlutil.ResolveURL(pageURL, href), title)
				}
				return &str
			},
		},
		md.Rule{
			Filter: []string{"img"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				src, exists := selec.Attr("src")
				if !exists || src == "" {
					empty := ""
					return &empty
				}
				alt, _ := selec.Attr("alt")
				str := fmt.Sprintf("![%s](%s)", alt, urlutil.ResolveURL(pageURL, src))
				return &str
			},
		},
	)

	out, err := converter.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to convert to markdown: %w", err)
	}
	return strings.TrimSpace(out), nil
}
