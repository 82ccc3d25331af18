// Package ensemble scores a set of extraction candidates and picks the best
// one, with a documented tie-break order and a post-selection completeness
// guard that favors a longer, better-structured runner-up over a thin winner.
package ensemble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperifyio/contentdistiller/internal/extract"
)

// lengthTarget and paragraphTarget are the saturation points for their
// respective subscores: reaching them scores 1.0, below is linear.
const (
	lengthTarget    = 2000
	paragraphTarget = 8
)

// methodPriors ranks methods readability >= trafilatura >= ollama >=
// dom-heuristic >= fallback, as required by the spec. Marketplace adapters
// sit above readability since they are purpose-built for their domain.
var methodPriors = map[extract.Method]float64{
	extract.MethodEbayAdapter:       1.0,
	extract.MethodEbaySearchAdapter: 1.0,
	extract.MethodReadability:       0.9,
	extract.MethodTrafilatura:       0.8,
	extract.MethodOllama:            0.7,
	extract.MethodDOMHeuristic:      0.5,
	extract.MethodFallback:          0.2,
}

// Subscores breaks a composite score into its weighted components.
type Subscores struct {
	Length     float64 `json:"length"`
	Paragraphs float64 `json:"paragraphs"`
	Title      float64 `json:"title"`
	Metadata   float64 `json:"metadata"`
	MethodPrior float64 `json:"methodPrior"`
}

// Score is the ensemble's verdict for one candidate.
type Score struct {
	Composite float64   `json:"compositeScore"`
	Subscores Subscores `json:"subscores"`
}

// weights must be nonnegative and sum to 1; documented here since callers
// may want to cite them in an explanation.
const (
	wLength      = 0.30
	wParagraphs  = 0.20
	wTitle       = 0.15
	wMetadata    = 0.15
	wMethodPrior = 0.20
)

// Result is selectBest's return value.
type Result struct {
	Selected    extract.Candidate
	Score       Score
	Explanation string
}

func saturate(value, target float64) float64 {
	if target <= 0 {
		return 0
	}
	if value >= target {
		return 1
	}
	return value / target
}

func scoreOne(c extract.Candidate, baseURL string) Score {
	lengthSub := saturate(float64(len(c.Content)), lengthTarget)
	paragraphSub := saturate(float64(c.ParagraphCount), paragraphTarget)
	titleSub := 0.0
	if t := strings.TrimSpace(c.Title); t != "" && t != strings.TrimSpace(baseURL) {
		titleSub = 1.0
	}
	present := 0
	if c.Metadata.Author != "" {
		present++
	}
	if c.Metadata.PublishDate != "" {
		present++
	}
	if c.Metadata.Excerpt != "" {
		present++
	}
	metadataSub := float64(present) / 3.0
	prior := methodPriors[c.Method]

	composite := wLength*lengthSub + wParagraphs*paragraphSub + wTitle*titleSub + wMetadata*metadataSub + wMethodPrior*prior
	return Score{
		Composite: composite,
		Subscores: Subscores{
			Length:      lengthSub,
			Paragraphs:  paragraphSub,
			Title:       titleSub,
			Metadata:    metadataSub,
			MethodPrior: prior,
		},
	}
}

// SelectBest scores every candidate and returns the winner. candidates must
// be nonempty; callers with zero candidates should use the fallback path
// instead of calling this. The function never errors.
func SelectBest(candidates []extract.Candidate, baseURL string) Result {
	type scored struct {
		candidate extract.Candidate
		score     Score
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scored{candidate: c, score: scoreOne(c, baseURL)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score.Composite != b.score.Composite {
			return a.score.Composite > b.score.Composite
		}
		if a.candidate.ParagraphCount != b.candidate.ParagraphCount {
			return a.candidate.ParagraphCount > b.candidate.ParagraphCount
		}
		if len(a.candidate.Content) != len(b.candidate.Content) {
			return len(a.candidate.Content) > len(b.candidate.Content)
		}
		return methodPriors[a.candidate.Method] > methodPriors[b.candidate.Method]
	})

	winner := ranked[0]
	var explanation strings.Builder
	fmt.Fprintf(&explanation, "selected %s (composite=%.3f, paragraphs=%d, len=%d)",
		winner.candidate.Method, winner.score.Composite, winner.candidate.ParagraphCount, len(winner.candidate.Content))
	for i := 1; i < len(ranked) && i <= 3; i++ {
		r := ranked[i]
		fmt.Fprintf(&explanation, "; runner-up %s (composite=%.3f)", r.candidate.Method, r.score.Composite)
	}

	return Result{Selected: winner.candidate, Score: winner.score, Explanation: explanation.String()}
}

// thresholds for the completeness guard.
const (
	minParagraphs = 3
	minContentLen = 300
	minWordCount  = 80
)

func isThin(c extract.Candidate) bool {
	words := len(strings.Fields(c.Content))
	return c.ParagraphCount < minParagraphs || len(c.Content) < minContentLen || words < minWordCount
}

func meetsThreshold(c extract.Candidate) bool {
	return c.ParagraphCount >= minParagraphs || len(c.Content) >= minContentLen
}

// ApplyCompletenessGuard implements the post-selection rule: if the winner is
// thin and another candidate clears the paragraph/length bar, that candidate
// replaces the winner. If nothing does, fallback paragraphs (already computed
// by the caller from a DOM pass) are appended until the content threshold is
// met.
func ApplyCompletenessGuard(selected extract.Candidate, all []extract.Candidate, fallbackParagraphs []string) extract.Candidate {
	if !isThin(selected) {
		return selected
	}
	for _, c := range all {
		if c.Method == selected.Method && c.Content == selected.Content {
			continue
		}
		if meetsThreshold(c) {
			return c
		}
	}
	for _, p := range fallbackParagraphs {
		if meetsThreshold(selected) {
			break
		}
		selected.Content = strings.TrimSpace(selected.Content + "\n\n" + p)
		selected.ParagraphCount++
	}
	return selected
}
