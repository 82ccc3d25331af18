package extract

import "strings"

// Method identifies which extractor produced a Candidate. Values mirror the
// method enum from the data model; the order here carries no ranking (method
// priors are the ensemble package's methodPriors table).
type Method string

const (
	MethodOllama           Method = "ollama"
	MethodReadability      Method = "readability"
	MethodDOMHeuristic     Method = "dom-heuristic"
	MethodTrafilatura      Method = "trafilatura"
	MethodEbayAdapter      Method = "ebay-adapter"
	MethodEbaySearchAdapter Method = "ebay-search-adapter"
	MethodFallback         Method = "fallback"
)

// Metadata carries the optional descriptive fields an extractor may recover
// alongside the main content.
type Metadata struct {
	Author      string `json:"author,omitempty"`
	PublishDate string `json:"publishDate,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
}

// Candidate is one extractor's proposal for the distilled content of a page.
type Candidate struct {
	Method         Method   `json:"method"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	ParagraphCount int      `json:"paragraphCount"`
	Confidence     float64  `json:"confidence"`
	Metadata       Metadata `json:"metadata"`
}

// Extractor produces a Candidate from raw HTML and the page's base URL. It
// may return (nil, nil) when the method simply does not apply to this
// document; an error indicates the extractor itself malfunctioned. Either way
// the Distiller logs and moves on to the next extractor.
type Extractor interface {
	Name() Method
	Extract(htmlBytes []byte, baseURL string) (*Candidate, error)
}

// paragraphCount counts non-empty paragraphs separated by blank lines, the
// same convention FromHTML's normalizeWhitespace produces.
func paragraphCount(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	n := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			n++
		}
	}
	return n
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
