package diffengine

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDetectChanges_FirstObservationHasNoPrevious(t *testing.T) {
	e := &Engine{Dir: filepath.Join(t.TempDir(), "diffs")}
	det, err := e.DetectChanges(context.Background(), "https://example.com/a", "hello world", Meta{Title: "A"})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !det.HasChanged || det.ChangePercent != 100 {
		t.Fatalf("expected first observation to report 100%% changed, got %+v", det)
	}
	if det.PreviousSnapshot != nil {
		t.Fatal("expected no previous snapshot on first observation")
	}
}

func TestDetectChanges_IdenticalContentReportsNoChange(t *testing.T) {
	e := &Engine{Dir: filepath.Join(t.TempDir(), "diffs")}
	ctx := context.Background()
	if _, err := e.DetectChanges(ctx, "https://example.com/a", "same content", Meta{}); err != nil {
		t.Fatalf("first detect: %v", err)
	}
	det, err := e.DetectChanges(ctx, "https://example.com/a", "same content", Meta{})
	if err != nil {
		t.Fatalf("second detect: %v", err)
	}
	if det.HasChanged || det.ChangePercent != 0 {
		t.Fatalf("expected no change for identical content, got %+v", det)
	}
	if det.PreviousSnapshot == nil {
		t.Fatal("expected a previous snapshot on the second call")
	}
}

func TestDetectChanges_DifferingContentReportsPositivePercent(t *testing.T) {
	e := &Engine{Dir: filepath.Join(t.TempDir(), "diffs")}
	ctx := context.Background()
	if _, err := e.DetectChanges(ctx, "https://example.com/a", "line one\nline two\nline three", Meta{}); err != nil {
		t.Fatalf("first detect: %v", err)
	}
	det, err := e.DetectChanges(ctx, "https://example.com/a", "line one\nline two changed\nline three", Meta{})
	if err != nil {
		t.Fatalf("second detect: %v", err)
	}
	if !det.HasChanged || det.ChangePercent <= 0 {
		t.Fatalf("expected a positive change percent, got %+v", det)
	}
}

func TestGetHistory_ReturnsSnapshotsOldestFirst(t *testing.T) {
	e := &Engine{Dir: filepath.Join(t.TempDir(), "diffs")}
	ctx := context.Background()
	e.DetectChanges(ctx, "https://example.com/a", "v1", Meta{})
	e.DetectChanges(ctx, "https://example.com/a", "v2", Meta{})
	e.DetectChanges(ctx, "https://example.com/a", "v3", Meta{})

	history, err := e.GetHistory("https://example.com/a")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	if history[0].Content != "v1" || history[2].Content != "v3" {
		t.Fatalf("expected oldest-first ordering, got %+v", history)
	}
}

func TestGetHistory_UnknownURLReturnsEmptyNotError(t *testing.T) {
	e := &Engine{Dir: filepath.Join(t.TempDir(), "diffs")}
	history, err := e.GetHistory("https://example.com/never-seen")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %v", history)
	}
}
