package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// Feed bodies are capped so a misbehaving source can't bloat the store.
const MaxContentLength = 10000

// HtmlToText strips markup from a feed entry body, returning plain text.
func HtmlToText(html string) (string, error) {
	reader := strings.NewReader(html)
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", errors.Wrap(err, "fail to convert rich-html text to node")
	}
	// goquery Text() will not replace br with newline, add it back so the
	// scorer sees word boundaries.
	doc.Find("br").AfterHtml("\n")
	return strings.TrimSpace(doc.Text()), nil
}

// CleanContent strips markup and truncates to MaxContentLength. On parse
// failure the raw text is kept rather than dropping the item.
func CleanContent(raw string) string {
	text, err := HtmlToText(raw)
	if err != nil {
		text = raw
	}
	if len(text) > MaxContentLength {
		text = text[:MaxContentLength]
	}
	return text
}
