package study

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"halomind/pkg/errors"
)

// noiseSelector matches page chrome that never carries article content
const noiseSelector = "script, style, noscript, nav, aside, footer, header, form, iframe, svg, template"

// CleanHTML strips page chrome from an HTML document and converts what is
// left to Markdown, shrinking the payload sent for extraction
func CleanHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", errors.Wrap(err, "parse HTML")
	}

	doc.Find(noiseSelector).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	cleaned, err := body.Html()
	if err != nil {
		return "", errors.Wrap(err, "render cleaned HTML")
	}

	markdown, err := htmltomarkdown.ConvertString(cleaned)
	if err != nil {
		return "", errors.Wrap(err, "convert HTML to Markdown")
	}
	return strings.TrimSpace(markdown), nil
}
