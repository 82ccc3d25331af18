package confidence

import (
	"strings"
	"testing"

	"github.com/hyperifyio/contentdistiller/internal/extract"
)

func TestComputeFull_IsDeterministic(t *testing.T) {
	in := Input{
		Selected: extract.Candidate{
			Method:         extract.MethodReadability,
			Title:          "Article",
			Content:        strings.Repeat("word ", 500),
			ParagraphCount: 6,
			Confidence:     0.9,
			Metadata:       extract.Metadata{Author: "a", PublishDate: "d", Excerpt: "e"},
		},
		SourceURL: "https://example.com/a",
	}
	a := ComputeFull(in)
	b := ComputeFull(in)
	if a != b {
		t.Fatalf("expected identical input to yield identical output: %+v vs %+v", a, b)
	}
	if a.Overall <= 0 || a.Overall > 1 {
		t.Fatalf("expected overall in (0,1], got %f", a.Overall)
	}
}

func TestComputeFull_ClampsOutOfRangeExtractionConfidence(t *testing.T) {
	in := Input{Selected: extract.Candidate{Confidence: 5.0}}
	b := ComputeFull(in)
	if b.Extraction != 1 {
		t.Fatalf("expected extraction clamped to 1, got %f", b.Extraction)
	}
}

func TestSourceCredibility_HTTPSScoresHigherThanHTTP(t *testing.T) {
	https := sourceCredibility("https://example.com")
	http := sourceCredibility("http://example.com")
	if https <= http {
		t.Fatalf("expected https (%f) to score higher than http (%f)", https, http)
	}
}

func TestSourceCredibility_PenalizesLinkShorteners(t *testing.T) {
	plain := sourceCredibility("https://example.com/article")
	shortened := sourceCredibility("https://bit.ly/abc123")
	if shortened >= plain {
		t.Fatalf("expected shortener url to score lower: shortened=%f plain=%f", shortened, plain)
	}
}

func TestComputeContentQuality_SaturatesAtTargets(t *testing.T) {
	q := ComputeContentQuality(strings.Repeat("x", 10000), 100)
	if q != 1 {
		t.Fatalf("expected saturation to 1, got %f", q)
	}
	if ComputeContentQuality("", 0) != 0 {
		t.Fatal("expected zero quality for empty content")
	}
}

func TestConsensusScore_NeutralWithoutOtherCandidates(t *testing.T) {
	selected := extract.Candidate{Method: extract.MethodReadability}
	if got := consensusScore(selected, []extract.Candidate{selected}); got != 0.5 {
		t.Fatalf("expected neutral 0.5 with no second opinion, got %f", got)
	}
}
