package agentic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperifyio/contentdistiller/internal/distill"
)

type fakeLocator struct {
	visible bool
	clicked bool
}

func (l *fakeLocator) IsVisible(ctx context.Context, timeoutMs int) (bool, error) { return l.visible, nil }
func (l *fakeLocator) Click(ctx context.Context) error                           { l.clicked = true; return nil }
func (l *fakeLocator) Fill(ctx context.Context, value string) error              { return nil }
func (l *fakeLocator) Type(ctx context.Context, value string) error              { return nil }

type fakePage struct {
	url       string
	content   string
	evalValue float64
}

func (p *fakePage) URL() string                                  { return p.url }
func (p *fakePage) Content(ctx context.Context) (string, error)  { return p.content, nil }
func (p *fakePage) Goto(ctx context.Context, url string, waitUntil string) error {
	p.url = url
	return nil
}
func (p *fakePage) Evaluate(ctx context.Context, expr string, args ...any) (any, error) {
	return p.evalValue, nil
}
func (p *fakePage) WaitForTimeout(ctx context.Context, ms int) error { return nil }
func (p *fakePage) WaitForSelector(ctx context.Context, selector string, state string, timeoutMs int) error {
	return nil
}
func (p *fakePage) Locator(selector string) Locator { return &fakeLocator{} }

type fakeDistiller struct {
	results []distill.Result
	calls   int
	err     error
}

func (f *fakeDistiller) Distill(ctx context.Context, html []byte, baseURL string, hint *distill.PolicyHint) (distill.Result, error) {
	if f.err != nil {
		return distill.Result{}, f.err
	}
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	return f.results[idx], nil
}

func TestExtract_StopsEarlyWhenThresholdMetOnFirstAttempt(t *testing.T) {
	page := &fakePage{url: "https://example.com", content: "<html></html>"}
	d := &fakeDistiller{results: []distill.Result{
		{ExtractionMethod: "readability", ExtractionConfidence: 0.95, ContentLength: 500},
	}}
	res := Extract(context.Background(), page, d, Options{ConfidenceThreshold: 0.7, MinContentLength: 200, MaxAttempts: 3})
	if !res.ThresholdMet {
		t.Fatal("expected threshold to be met")
	}
	if len(res.Attempts) != 1 {
		t.Fatalf("expected exactly 1 attempt once threshold is met, got %d", len(res.Attempts))
	}
	if res.FinalMethod != "readability" {
		t.Fatalf("expected final method readability, got %q", res.FinalMethod)
	}
}

func TestExtract_KeepsBestAcrossAttemptsWhenThresholdNeverMet(t *testing.T) {
	page := &fakePage{url: "https://example.com", content: "<html></html>", evalValue: 1}
	d := &fakeDistiller{results: []distill.Result{
		{ExtractionMethod: "dom-heuristic", ExtractionConfidence: 0.2, ContentLength: 50},
		{ExtractionMethod: "readability", ExtractionConfidence: 0.4, ContentLength: 300},
	}}
	res := Extract(context.Background(), page, d, Options{ConfidenceThreshold: 0.9, MinContentLength: 10000, MaxAttempts: 2})
	if res.ThresholdMet {
		t.Fatal("did not expect threshold to be met")
	}
	if res.Best.ExtractionConfidence != 0.4 {
		t.Fatalf("expected best confidence to be the higher of the two, got %f", res.Best.ExtractionConfidence)
	}
}

func TestExtract_DistillErrorStopsLoopAndReturnsZeroBest(t *testing.T) {
	page := &fakePage{url: "https://example.com", content: "<html></html>"}
	d := &fakeDistiller{err: errors.New("boom")}
	res := Extract(context.Background(), page, d, Options{MaxAttempts: 3})
	if res.ThresholdMet {
		t.Fatal("did not expect threshold met")
	}
	if len(res.Attempts) != 0 {
		t.Fatalf("expected no recorded attempts on immediate distill failure, got %d", len(res.Attempts))
	}
}

func TestExtract_RespectsTimeoutDeadline(t *testing.T) {
	page := &fakePage{url: "https://example.com", content: "<html></html>"}
	d := &fakeDistiller{results: []distill.Result{
		{ExtractionMethod: "dom-heuristic", ExtractionConfidence: 0.1, ContentLength: 10},
	}}
	res := Extract(context.Background(), page, d, Options{ConfidenceThreshold: 0.99, MinContentLength: 99999, MaxAttempts: 10, Timeout: 1 * time.Millisecond})
	if res.ThresholdMet {
		t.Fatal("did not expect threshold met")
	}
	if res.Duration <= 0 {
		t.Fatal("expected a positive duration to be recorded")
	}
}

func TestIsBetter_PrefersHigherConfidenceThenLength(t *testing.T) {
	a := distill.Result{ExtractionConfidence: 0.8, ContentLength: 100}
	b := distill.Result{ExtractionConfidence: 0.6, ContentLength: 900}
	if !isBetter(a, b) {
		t.Fatal("expected higher confidence to win regardless of length")
	}
	c := distill.Result{ExtractionConfidence: 0.6, ContentLength: 50}
	if !isBetter(b, c) {
		t.Fatal("expected equal-confidence tie to go to longer content")
	}
}

func TestMeetsThreshold_RequiresBothConfidenceAndLength(t *testing.T) {
	opt := Options{ConfidenceThreshold: 0.5, MinContentLength: 100}
	if meetsThreshold(distill.Result{ExtractionConfidence: 0.9, ContentLength: 50}, opt) {
		t.Fatal("expected short content to fail threshold despite high confidence")
	}
	if !meetsThreshold(distill.Result{ExtractionConfidence: 0.5, ContentLength: 100}, opt) {
		t.Fatal("expected threshold boundary values to pass")
	}
}
