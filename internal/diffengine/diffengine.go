// Package diffengine implements the DiffEngine external interface: given a
// URL and freshly distilled content, detect whether it changed from the last
// known snapshot and by how much, and persist the snapshot history.
package diffengine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

// Snapshot is one content fingerprint in a target's history.
type Snapshot struct {
	ContentHash string    `json:"contentHash"`
	Title       string    `json:"title,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Content     string    `json:"content"`
}

// Meta carries the optional fields DetectChanges accepts alongside content.
type Meta struct {
	Title string
}

// Detection is DetectChanges' return shape.
type Detection struct {
	HasChanged       bool      `json:"hasChanged"`
	ChangePercent    float64   `json:"changePercent"`
	CurrentSnapshot  Snapshot  `json:"currentSnapshot"`
	PreviousSnapshot *Snapshot `json:"previousSnapshot,omitempty"`
	Summary          string    `json:"summary"`
}

// HistoryEntry is one row returned by GetHistory, newest-last on disk but
// exposed here exactly as stored; callers wanting newest-first should reverse.
type HistoryEntry struct {
	Snapshot
}

// Engine persists one history file per URL under Dir and computes change
// percentage via a line-level diff, matching the teacher codebase's
// preference for a well-known diff library over a hand-rolled one.
type Engine struct {
	Dir string

	mu sync.Mutex
}

func (e *Engine) historyPath(url string) string {
	h := sha256.Sum256([]byte(url))
	return filepath.Join(e.Dir, hex.EncodeToString(h[:])+".history.jsonl")
}

// DetectChanges compares content against the URL's last recorded snapshot,
// appends the new snapshot to history, and reports the change percentage.
// DiffEngine owns its own persistence; callers never touch the history file
// directly.
func (e *Engine) DetectChanges(ctx context.Context, url string, content string, meta Meta) (Detection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return Detection{}, fmt.Errorf("diffengine: mkdir: %w", err)
	}

	history, err := e.readHistory(url)
	if err != nil {
		return Detection{}, err
	}

	current := Snapshot{
		ContentHash: sha256Hex([]byte(content)),
		Title:       meta.Title,
		Timestamp:   time.Now().UTC(),
		Content:     content,
	}

	var previous *Snapshot
	if len(history) > 0 {
		p := history[len(history)-1]
		previous = &p
	}

	det := Detection{CurrentSnapshot: current, PreviousSnapshot: previous}
	if previous == nil {
		det.HasChanged = true
		det.ChangePercent = 100
		det.Summary = "first observation"
	} else if previous.ContentHash == current.ContentHash {
		det.HasChanged = false
		det.ChangePercent = 0
		det.Summary = "no change"
	} else {
		pct := changePercent(previous.Content, current.Content)
		det.ChangePercent = pct
		det.HasChanged = pct > 0
		det.Summary = fmt.Sprintf("%.1f%% changed", pct)
	}

	if err := e.appendHistory(url, current); err != nil {
		return Detection{}, err
	}
	return det, nil
}

// GetHistory returns every recorded snapshot for url, oldest first (file
// order); WatchManager callers reverse this for newest-first presentation.
func (e *Engine) GetHistory(url string) ([]HistoryEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snaps, err := e.readHistory(url)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, HistoryEntry{Snapshot: s})
	}
	return out, nil
}

func (e *Engine) readHistory(url string) ([]Snapshot, error) {
	p := e.historyPath(url)
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Snapshot
	dec := json.NewDecoder(bytes.NewReader(b))
	for dec.More() {
		var s Snapshot
		if err := dec.Decode(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (e *Engine) appendHistory(url string, s Snapshot) error {
	p := e.historyPath(url)
	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = f.Write(b)
	return err
}

// changePercent uses a line-level diff to estimate how much of the text
// changed: inserted plus deleted characters as a percentage of the total
// length of all diff segments (unchanged text counted once).
func changePercent(oldText, newText string) float64 {
	differ := dmp.New()
	a, b, lines := differ.DiffLinesToChars(oldText, newText)
	diffs := differ.DiffMain(a, b, false)
	diffs = differ.DiffCharsToLines(diffs, lines)

	changed := 0
	total := 0
	for _, d := range diffs {
		n := len(d.Text)
		total += n
		if d.Type != dmp.DiffEqual {
			changed += n
		}
	}
	if total == 0 {
		return 0
	}
	return float64(changed) / float64(total) * 100
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
