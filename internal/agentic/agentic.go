// Package agentic drives a live browser page through iterative
// extract/evaluate/improve cycles until a quality threshold is reached or
// the attempt/time budget runs out. The control-flow shape — a bounded loop
// that checks a wall-clock deadline before and after every unit of work and
// always returns the best result seen rather than erroring — mirrors the
// tool-calling orchestration loop used elsewhere in this codebase for
// LLM agents.
package agentic

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/contentdistiller/internal/confidence"
	"github.com/hyperifyio/contentdistiller/internal/distill"
)

// Options configures one AgenticExtractor run.
type Options struct {
	ConfidenceThreshold       float64
	MinContentLength          int
	MaxAttempts               int
	Timeout                   time.Duration
	EnableScrolling           bool
	EnableInteraction         bool
	EnableAlternateExtraction bool
}

func (o Options) withDefaults() Options {
	if o.ConfidenceThreshold == 0 {
		o.ConfidenceThreshold = 0.7
	}
	if o.MinContentLength == 0 {
		o.MinContentLength = 200
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 3
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// AttemptRecord captures one extract/evaluate cycle for the caller's audit
// trail.
type AttemptRecord struct {
	Attempt    int     `json:"attempt"`
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
	ContentLen int     `json:"contentLength"`
	Strategy   string  `json:"strategy,omitempty"`
	Improved   bool    `json:"improved"`
}

// Result is the AgenticResult return value.
type Result struct {
	Best              distill.Result  `json:"best"`
	Attempts          []AttemptRecord `json:"attempts"`
	AppliedImprovements []string      `json:"appliedImprovements"`
	FinalMethod       string          `json:"finalMethod"`
	Duration          time.Duration   `json:"duration"`
	ThresholdMet      bool            `json:"thresholdMet"`
}

// strategy is one named improvement; apply returns true if it changed the
// page in a way worth re-extracting over.
type strategy struct {
	name  string
	apply func(ctx context.Context, page Page) (bool, error)
}

func strategies(opt Options) []strategy {
	var out []strategy
	if opt.EnableScrolling {
		out = append(out, strategy{name: "incremental-scroll", apply: scrollToGrow})
	}
	out = append(out, strategy{name: "dismiss-overlays", apply: dismissOverlays})
	out = append(out, strategy{name: "click-show-more", apply: clickShowMore})
	out = append(out, strategy{name: "wait-for-loaders", apply: waitForLoaders})
	out = append(out, strategy{name: "strip-interference", apply: stripInterference})
	if opt.EnableAlternateExtraction {
		out = append(out, strategy{name: "alternate-container", apply: alternateContainer})
	}
	if !opt.EnableInteraction {
		// interaction-heavy strategies are filtered when disabled
		out = filterOut(out, "click-show-more", "dismiss-overlays")
	}
	return out
}

func filterOut(in []strategy, names ...string) []strategy {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := in[:0:0]
	for _, s := range in {
		if !skip[s.name] {
			out = append(out, s)
		}
	}
	return out
}

// Distiller is the subset of distill.Distiller AgenticExtractor needs; kept
// as an interface so tests can stub it without a real DOM pipeline.
type Distiller interface {
	Distill(ctx context.Context, html []byte, baseURL string, hint *distill.PolicyHint) (distill.Result, error)
}

// Extract runs the EXTRACT -> EVALUATE -> IMPROVE loop against page until the
// confidence threshold and minimum content length are both met, attempts run
// out, or the timeout expires. It never errors: on unrecoverable failure it
// returns the best result observed so far, possibly the zero value if the
// very first extraction failed.
func Extract(ctx context.Context, page Page, d Distiller, opt Options) Result {
	opt = opt.withDefaults()
	deadline := time.Now().Add(opt.Timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	start := time.Now()
	res := Result{}
	var best distill.Result
	bestSet := false

	for attempt := 1; attempt <= opt.MaxAttempts; attempt++ {
		if time.Now().After(deadline) {
			break
		}
		html, err := page.Content(ctx)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("agentic extractor: page content failed")
			break
		}
		result, err := d.Distill(ctx, []byte(html), page.URL(), nil)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("agentic extractor: distill failed")
			break
		}
		record := AttemptRecord{
			Attempt:    attempt,
			Method:     string(result.ExtractionMethod),
			Confidence: result.ExtractionConfidence,
			ContentLen: result.ContentLength,
		}
		res.Attempts = append(res.Attempts, record)

		if !bestSet || isBetter(result, best) {
			best = result
			bestSet = true
		}

		if meetsThreshold(result, opt) {
			res.ThresholdMet = true
			break
		}

		if attempt == opt.MaxAttempts {
			break
		}
		if time.Now().After(deadline) {
			break
		}

		improved := false
		for _, s := range strategies(opt) {
			if res.appliedContains(s.name) {
				continue
			}
			if time.Now().After(deadline) {
				break
			}
			changed, err := s.apply(ctx, page)
			if err != nil {
				log.Debug().Err(err).Str("strategy", s.name).Msg("agentic extractor: strategy failed")
				continue
			}
			if changed {
				res.AppliedImprovements = append(res.AppliedImprovements, s.name)
				record.Strategy = s.name
				record.Improved = true
				res.Attempts[len(res.Attempts)-1] = record
				improved = true
				break
			}
		}
		if !improved {
			break
		}
	}

	res.Best = best
	res.FinalMethod = string(best.ExtractionMethod)
	res.Duration = time.Since(start)
	return res
}

func (r Result) appliedContains(name string) bool {
	for _, a := range r.AppliedImprovements {
		if a == name {
			return true
		}
	}
	return false
}

func meetsThreshold(r distill.Result, opt Options) bool {
	return r.ExtractionConfidence >= opt.ConfidenceThreshold && r.ContentLength >= opt.MinContentLength
}

// isBetter orders candidates by (confidence, contentLength) lexicographic
// maximum, as required for AgenticExtractor's best-across-attempts rule.
func isBetter(a, b distill.Result) bool {
	if a.ExtractionConfidence != b.ExtractionConfidence {
		return a.ExtractionConfidence > b.ExtractionConfidence
	}
	return a.ContentLength > b.ContentLength
}

// computeContentQualityFallback is a package-internal helper giving a cheap
// estimate without a full Distill pass, delegating to the same heuristic the
// ConfidenceScorer exposes for this purpose.
func computeContentQualityFallback(text string, structuralNodeCount int) float64 {
	return confidence.ComputeContentQuality(text, structuralNodeCount)
}
