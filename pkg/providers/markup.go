package providers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips JATS/HTML markup from an abstract. Section titles are dropped and
// paragraphs are joined with newlines; input without markup is returned trimmed.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, "<") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}

	doc.Find("jats\\:title, title").Remove()

	var paras []string
	doc.Find("jats\\:p, p").Each(func(_ int, sel *goquery.Selection) {
		if text := collapseSpace(sel.Text()); text != "" {
			paras = append(paras, text)
		}
	})
	if len(paras) > 0 {
		return strings.Join(paras, "\n")
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
