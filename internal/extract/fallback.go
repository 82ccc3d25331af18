package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// FallbackContent walks every <p> in document order and joins their text.
// It is used by the Distiller when no configured extractor produced a
// candidate, and by the ensemble's completeness guard when the winning
// candidate is too thin to stand on its own.
func FallbackContent(htmlBytes []byte) (title, content string, paragraphCount int) {
	node, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil || node == nil {
		return "", "", 0
	}
	title = strings.TrimSpace(findTitle(node))

	var paras []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "p") {
			var b strings.Builder
			collectText(&b, n, false)
			t := strings.TrimSpace(normalizeWhitespace(b.String()))
			if t != "" {
				paras = append(paras, t)
			}
			return // <p> does not nest further <p>s in valid HTML
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return title, strings.Join(paras, "\n\n"), len(paras)
}
