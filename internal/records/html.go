package records

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText strips markup and collapses whitespace. Block elements are
// separated by a space so adjacent paragraphs do not run together.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapseSpace(html)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find("br, p, div, li, td, th, tr, h1, h2, h3, h4, h5, h6").AfterHtml(" ")
	return collapseSpace(doc.Text())
}

// cleanText converts s to plain text when it looks like markup.
func cleanText(s string) string {
	if looksLikeHTML(s) {
		return HTMLToText(s)
	}
	return strings.TrimSpace(s)
}

func looksLikeHTML(s string) bool {
	i := strings.Index(s, "<")
	return i >= 0 && strings.Contains(s[i:], ">")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
