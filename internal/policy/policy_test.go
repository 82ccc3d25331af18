package policy

import (
	"strings"
	"testing"
)

func TestApplyPolicy_StripsTrackingPixelsAndMetaRefresh(t *testing.T) {
	html := `<html><head><title>t</title><meta http-equiv="refresh" content="5"></head>
<body><img src="a.png" width="1" height="1"><p>Hello</p></body></html>`
	res := Engine{}.ApplyPolicy(html, "https://example.com", nil)
	if !res.PolicyApplied {
		t.Fatal("expected policy to report as applied")
	}
	if !contains(res.RulesMatched, "strip-meta-refresh") {
		t.Fatalf("expected strip-meta-refresh in matched rules: %v", res.RulesMatched)
	}
	if !contains(res.RulesMatched, "strip-tracking-pixels") {
		t.Fatalf("expected strip-tracking-pixels in matched rules: %v", res.RulesMatched)
	}
	if strings.Contains(res.TransformedHTML, `http-equiv="refresh"`) {
		t.Fatal("expected meta refresh to be removed from output")
	}
}

func TestApplyPolicy_SkipSanitizeHint(t *testing.T) {
	html := `<html><body><p onclick="evil()">hi</p></body></html>`
	res := Engine{}.ApplyPolicy(html, "https://example.com", &Hint{SkipSanitize: true})
	if contains(res.RulesMatched, "sanitize-ugc") {
		t.Fatal("expected sanitize-ugc to be skipped when SkipSanitize is set")
	}
}

func TestApplyPolicy_SanitizesByDefault(t *testing.T) {
	html := `<html><body><script>alert(1)</script><p>safe text</p></body></html>`
	res := Engine{}.ApplyPolicy(html, "https://example.com", nil)
	if strings.Contains(res.TransformedHTML, "<script>") {
		t.Fatal("expected script tag to be sanitized out")
	}
	if !strings.Contains(res.TransformedHTML, "safe text") {
		t.Fatal("expected surrounding text to survive sanitization")
	}
}

func TestApplyPolicy_InvalidHTMLFallsBackToInputUnchanged(t *testing.T) {
	res := Engine{}.ApplyPolicy("", "https://example.com", nil)
	if res.PolicyApplied {
		t.Fatal("expected no rules to fire on empty input")
	}
}
