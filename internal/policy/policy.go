// Package policy implements the Policy Engine external interface: HTML
// transforms applied before extraction (sanitization, tracking-pixel
// removal), reporting which rules fired.
package policy

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Result is the ApplyPolicy return shape from the spec's external interfaces
// section.
type Result struct {
	TransformedHTML string   `json:"transformedHtml"`
	PolicyApplied   bool     `json:"policyApplied"`
	RulesMatched    []string `json:"rulesMatched"`
	FieldsValidated []string `json:"fieldsValidated"`
}

// Hint narrows which rule families run; an empty Hint runs the default set.
type Hint struct {
	SkipSanitize bool
	AllowedTags  []string
}

// Engine applies a fixed pipeline of HTML transforms. It is stateless and
// safe for concurrent use.
type Engine struct{}

// ApplyPolicy runs the transform pipeline. Failures inside a single rule are
// swallowed and recorded as a failure marker in RulesMatched so the Distiller
// can proceed with unprocessed HTML per its step 2 contract; ApplyPolicy
// itself does not return an error.
func (Engine) ApplyPolicy(html string, url string, hint *Hint) Result {
	matched := make([]string, 0, 4)
	validated := make([]string, 0, 2)

	// Blank input has nothing to transform; it is returned unchanged.
	if strings.TrimSpace(html) == "" {
		return Result{TransformedHTML: html, PolicyApplied: false, RulesMatched: matched, FieldsValidated: validated}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{TransformedHTML: html, PolicyApplied: false, RulesMatched: []string{"parse-failed"}}
	}

	if doc.Find(`meta[http-equiv="refresh"]`).Length() > 0 {
		doc.Find(`meta[http-equiv="refresh"]`).Remove()
		matched = append(matched, "strip-meta-refresh")
	}

	trackers := doc.Find(`img[width="1"][height="1"]`)
	if trackers.Length() > 0 {
		trackers.Remove()
		matched = append(matched, "strip-tracking-pixels")
	}

	doc.Find("script[src*=\"analytics\"], script[src*=\"tracking\"]").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
		if !contains(matched, "strip-analytics-scripts") {
			matched = append(matched, "strip-analytics-scripts")
		}
	})

	if doc.Find("title").Length() > 0 {
		validated = append(validated, "title")
	}
	if doc.Find(`meta[name="description"]`).Length() > 0 {
		validated = append(validated, "description")
	}

	out, err := doc.Html()
	if err != nil {
		return Result{TransformedHTML: html, PolicyApplied: false, RulesMatched: append(matched, "serialize-failed")}
	}

	if hint == nil || !hint.SkipSanitize {
		sanitizer := bluemonday.UGCPolicy()
		if hint != nil {
			for _, tag := range hint.AllowedTags {
				sanitizer.AllowElements(tag)
			}
		}
		out = sanitizer.Sanitize(out)
		matched = append(matched, "sanitize-ugc")
	}

	return Result{
		TransformedHTML: out,
		PolicyApplied:   len(matched) > 0,
		RulesMatched:    matched,
		FieldsValidated: validated,
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
