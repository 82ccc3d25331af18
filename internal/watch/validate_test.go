package watch

import "testing"

func TestValidateAddWatch_RejectsMissingURL(t *testing.T) {
	if err := validateAddWatch("", AddOptions{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestValidateAddWatch_RejectsMalformedWebhookURL(t *testing.T) {
	if err := validateAddWatch("https://example.com/a", AddOptions{WebhookURL: "not-a-url"}); err == nil {
		t.Fatal("expected error for malformed webhook url")
	}
}

func TestValidateAddWatch_RejectsNegativeThreshold(t *testing.T) {
	if err := validateAddWatch("https://example.com/a", AddOptions{ChangeThreshold: -1}); err == nil {
		t.Fatal("expected error for negative change threshold")
	}
}

func TestValidateAddWatch_AcceptsValidRequest(t *testing.T) {
	if err := validateAddWatch("https://example.com/a", AddOptions{WebhookURL: "https://hooks.example.com/x", ChangeThreshold: 0.5}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
