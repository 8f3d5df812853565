package nlp

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from a description and collapses whitespace.
// Text that does not parse as HTML is returned trimmed.
func PlainText(description string) string {
	if !strings.ContainsAny(description, "<&") {
		return strings.TrimSpace(description)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return strings.TrimSpace(description)
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
