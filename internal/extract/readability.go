package extract

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ReadabilityExtractor wraps go-shiori/go-readability, the generic method
// with the highest method-prior in the ensemble's fixed ranking (only the
// marketplace adapters rank above it): it consistently
// finds the main article body on well-formed pages.
type ReadabilityExtractor struct{}

func (ReadabilityExtractor) Name() Method { return MethodReadability }

func (ReadabilityExtractor) Extract(htmlBytes []byte, baseURL string) (*Candidate, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(string(htmlBytes)), u)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, nil
	}
	meta := Metadata{Author: article.Byline, Excerpt: article.Excerpt}
	if !article.PublishedTime.IsZero() {
		meta.PublishDate = article.PublishedTime.Format("2006-01-02T15:04:05Z07:00")
	}
	return &Candidate{
		Method:         MethodReadability,
		Title:          strings.TrimSpace(article.Title),
		Content:        text,
		ParagraphCount: paragraphCount(text),
		Confidence:     0.75,
		Metadata:       meta,
	}, nil
}
