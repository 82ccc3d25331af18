package extract

// DOMHeuristicExtractor is the baseline extractor: it walks the parsed DOM
// looking for <main>/<article>/<body> in that order and applies the
// boilerplate-stripping heuristics in extract.go. It never errors; low
// quality output just scores low in the ensemble.
type DOMHeuristicExtractor struct{}

func (DOMHeuristicExtractor) Name() Method { return MethodDOMHeuristic }

func (DOMHeuristicExtractor) Extract(htmlBytes []byte, baseURL string) (*Candidate, error) {
	doc := FromHTML(htmlBytes)
	if doc.Text == "" && doc.Title == "" {
		return nil, nil
	}
	return &Candidate{
		Method:         MethodDOMHeuristic,
		Title:          doc.Title,
		Content:        doc.Text,
		ParagraphCount: paragraphCount(doc.Text),
		Confidence:     0.5,
	}, nil
}
