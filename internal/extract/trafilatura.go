package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TrafilaturaExtractor is a goquery-driven heuristic extractor modeled on the
// trafilatura method: it scores block-level elements by text density rather
// than a fixed tag preference list, which makes it a useful second opinion
// next to the tag-order-based DOM heuristic.
type TrafilaturaExtractor struct{}

func (TrafilaturaExtractor) Name() Method { return MethodTrafilatura }

func (TrafilaturaExtractor) Extract(htmlBytes []byte, baseURL string) (*Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, nav, footer, aside, iframe, header").Remove()

	type block struct {
		sel   *goquery.Selection
		words int
	}
	var blocks []block
	doc.Find("div, section, article, main").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		w := wordCount(text)
		if w > 0 {
			blocks = append(blocks, block{sel: s, words: w})
		}
	})
	if len(blocks) == 0 {
		return nil, nil
	}
	best := blocks[0]
	for _, b := range blocks[1:] {
		if b.words > best.words {
			best = b
		}
	}

	var paragraphs []string
	best.sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		t := strings.TrimSpace(p.Text())
		if t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	content := strings.Join(paragraphs, "\n\n")
	if content == "" {
		content = strings.TrimSpace(best.sel.Text())
	}
	if content == "" {
		return nil, nil
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	excerpt := doc.Find(`meta[name="description"]`).AttrOr("content", "")

	return &Candidate{
		Method:         MethodTrafilatura,
		Title:          title,
		Content:        content,
		ParagraphCount: len(paragraphs),
		Confidence:     0.65,
		Metadata:       Metadata{Excerpt: strings.TrimSpace(excerpt)},
	}, nil
}
