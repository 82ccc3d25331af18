// Package confidence computes the multi-dimensional, deterministic
// confidence breakdown attached to every DistillationResult.
package confidence

import (
	"net"
	"net/url"
	"strings"

	"github.com/hyperifyio/contentdistiller/internal/extract"
)

// Breakdown is the ConfidenceBreakdown entity: every field lies in [0,1] and
// overall is a fixed, documented weighted combination of the rest.
type Breakdown struct {
	Extraction        float64 `json:"extraction"`
	ContentQuality    float64 `json:"contentQuality"`
	Metadata          float64 `json:"metadata"`
	SourceCredibility float64 `json:"sourceCredibility"`
	Consensus         float64 `json:"consensus"`
	Overall           float64 `json:"overall"`
}

// Weights for the overall composite. Nonnegative, sum to 1.
const (
	wExtraction        = 0.30
	wContentQuality     = 0.25
	wMetadata           = 0.15
	wSourceCredibility  = 0.15
	wConsensus          = 0.15
)

// Input bundles everything ComputeFull needs: the selected candidate, the
// full candidate set (for consensus), and the source URL (for credibility).
type Input struct {
	Selected    extract.Candidate
	AllCandidates []extract.Candidate
	SourceURL   string
}

// ComputeFull returns the full breakdown for a distillation. It is a pure
// function of its input: identical input always yields identical output.
func ComputeFull(in Input) Breakdown {
	extraction := in.Selected.Confidence
	if extraction < 0 {
		extraction = 0
	}
	if extraction > 1 {
		extraction = 1
	}

	contentQuality := ComputeContentQuality(in.Selected.Content, in.Selected.ParagraphCount)
	metadata := metadataScore(in.Selected)
	credibility := sourceCredibility(in.SourceURL)
	consensus := consensusScore(in.Selected, in.AllCandidates)

	overall := wExtraction*extraction + wContentQuality*contentQuality + wMetadata*metadata +
		wSourceCredibility*credibility + wConsensus*consensus

	return Breakdown{
		Extraction:        extraction,
		ContentQuality:    contentQuality,
		Metadata:          metadata,
		SourceCredibility: credibility,
		Consensus:         consensus,
		Overall:           clamp01(overall),
	}
}

// ComputeContentQuality is a cheap heuristic proxy for content quality used
// by the AgenticExtractor when a full breakdown isn't available: it rewards
// longer text with more structural nodes, saturating at generous targets.
func ComputeContentQuality(text string, structuralNodeCount int) float64 {
	lengthScore := clamp01(float64(len(text)) / 2000.0)
	structureScore := clamp01(float64(structuralNodeCount) / 10.0)
	return clamp01(0.6*lengthScore + 0.4*structureScore)
}

func metadataScore(c extract.Candidate) float64 {
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
	return float64(present) / 3.0
}

// sourceCredibility is a coarse, deterministic heuristic: https beats http,
// and a handful of well-known low-trust patterns (IP-literal hosts, obvious
// link-shorteners) score lower. This is intentionally simple; it is a
// heuristic dimension, not an authoritative reputation system.
func sourceCredibility(sourceURL string) float64 {
	u := strings.ToLower(strings.TrimSpace(sourceURL))
	if u == "" {
		return 0.5
	}
	score := 0.5
	if strings.HasPrefix(u, "https://") {
		score += 0.3
	} else if strings.HasPrefix(u, "http://") {
		score += 0.1
	}
	host := ""
	if parsed, err := url.Parse(u); err == nil {
		host = parsed.Hostname()
	}
	if net.ParseIP(host) != nil {
		score -= 0.2
	}
	for _, shortener := range []string{"bit.ly", "tinyurl.com", "t.co"} {
		if host == shortener || strings.HasSuffix(host, "."+shortener) {
			score -= 0.2
		}
	}
	return clamp01(score)
}

// consensusScore measures agreement between candidates: higher when two or
// more candidates produced overlapping titles and content of comparable
// length to the selected one.
func consensusScore(selected extract.Candidate, all []extract.Candidate) float64 {
	if len(all) <= 1 {
		return 0.5 // no second opinion available; neutral
	}
	agreeing := 0
	for _, c := range all {
		if c.Method == selected.Method {
			continue
		}
		titleMatch := strings.EqualFold(strings.TrimSpace(c.Title), strings.TrimSpace(selected.Title)) && selected.Title != ""
		lengthRatio := ratio(len(c.Content), len(selected.Content))
		if titleMatch || lengthRatio >= 0.7 {
			agreeing++
		}
	}
	return clamp01(float64(agreeing) / float64(len(all)-1))
}

func ratio(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
