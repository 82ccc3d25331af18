// Package watch implements the WatchManager: persistent registration of
// watch targets, cooperative periodic polling, change detection, an
// append-only event log, and webhook fan-out.
package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/contentdistiller/internal/diffengine"
	"github.com/hyperifyio/contentdistiller/internal/distill"
	"github.com/hyperifyio/contentdistiller/internal/fetchclient"
)

// Status values for WatchTarget.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusError  Status = "error"
)

// minInterval is the floor AddWatch normalizes any requested interval to.
const minInterval = 60 * time.Second

// tickInterval is how often the scheduler loop wakes up to look for targets
// that are due.
const tickInterval = 30 * time.Second

// Target is the WatchTarget entity. External callers receive copies; only
// the Manager's tick loop and Pause/Resume/Remove mutate the canonical copy.
type Target struct {
	ID              string     `json:"id"`
	URL             string     `json:"url"`
	Interval        int        `json:"interval"` // seconds
	WebhookURL      string     `json:"webhookURL,omitempty"`
	ChangeThreshold float64    `json:"changeThreshold"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastChecked     *time.Time `json:"lastChecked,omitempty"`
	LastChanged     *time.Time `json:"lastChanged,omitempty"`
	CheckCount      int        `json:"checkCount"`
	ChangeCount     int        `json:"changeCount"`
	LastError       string     `json:"lastError,omitempty"`
}

// Event is the WatchEvent entity, appended to a target's JSONL log.
type Event struct {
	WatchID       string    `json:"watchId"`
	URL           string    `json:"url"`
	Timestamp     time.Time `json:"timestamp"`
	ChangePercent float64   `json:"changePercent"`
	Summary       string    `json:"summary"`
	PreviousHash  string    `json:"previousHash,omitempty"`
	CurrentHash   string    `json:"currentHash"`
}

// AddOptions configures AddWatch.
type AddOptions struct {
	IntervalSeconds int
	WebhookURL      string
	ChangeThreshold float64
}

// Manager is the WatchManager. DataDir layout matches the spec's persisted
// state layout: <data>/watches/<id>/config.json and events.jsonl.
type Manager struct {
	DataDir   string
	Fetch     *fetchclient.Client
	Diff      *diffengine.Engine
	Distiller *distill.Distiller
	Webhook   *http.Client

	mu       sync.Mutex
	targets  map[string]*Target
	ticking  bool
	stopCh   chan struct{}
	started  bool
}

func New(dataDir string, fetch *fetchclient.Client, diff *diffengine.Engine, d *distill.Distiller) *Manager {
	return &Manager{
		DataDir:   dataDir,
		Fetch:     fetch,
		Diff:      diff,
		Distiller: d,
		Webhook:   &http.Client{Timeout: 10 * time.Second},
		targets:   make(map[string]*Target),
	}
}

func (m *Manager) watchDir(id string) string { return filepath.Join(m.DataDir, "watches", id) }
func (m *Manager) configPath(id string) string { return filepath.Join(m.watchDir(id), "config.json") }
func (m *Manager) eventsPath(id string) string { return filepath.Join(m.watchDir(id), "events.jsonl") }

// AddWatch registers a new target, assigns it a UUID, normalizes its
// interval to at least 60s, persists it, and ensures the tick loop is
// running.
func (m *Manager) AddWatch(ctx context.Context, url string, opt AddOptions) (Target, error) {
	if err := validateAddWatch(url, opt); err != nil {
		return Target{}, err
	}
	interval := time.Duration(opt.IntervalSeconds) * time.Second
	if interval < minInterval {
		interval = minInterval
	}
	threshold := opt.ChangeThreshold
	if threshold <= 0 {
		threshold = 1
	}
	t := &Target{
		ID:              uuid.NewString(),
		URL:             url,
		Interval:        int(interval / time.Second),
		WebhookURL:      opt.WebhookURL,
		ChangeThreshold: threshold,
		Status:          StatusActive,
		CreatedAt:       time.Now().UTC(),
	}

	m.mu.Lock()
	m.targets[t.ID] = t
	m.mu.Unlock()

	if err := m.persist(t); err != nil {
		return Target{}, err
	}
	m.ensureRunning()
	return *t, nil
}

// RemoveWatch removes id from memory and deletes its persisted directory.
func (m *Manager) RemoveWatch(id string) bool {
	m.mu.Lock()
	_, ok := m.targets[id]
	delete(m.targets, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	_ = os.RemoveAll(m.watchDir(id))
	return true
}

// PauseWatch toggles status to paused and persists it.
func (m *Manager) PauseWatch(id string) error { return m.setStatus(id, StatusPaused, true) }

// ResumeWatch toggles status to active, clears lastError, and persists it.
func (m *Manager) ResumeWatch(id string) error { return m.setStatus(id, StatusActive, true) }

func (m *Manager) setStatus(id string, status Status, clearErr bool) error {
	m.mu.Lock()
	t, ok := m.targets[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("watch: not found: %s", id)
	}
	t.Status = status
	if clearErr && status == StatusActive {
		t.LastError = ""
	}
	cp := *t
	m.mu.Unlock()
	return m.persist(&cp)
}

// GetWatch returns a read-only copy of target id.
func (m *Manager) GetWatch(id string) (Target, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return Target{}, false
	}
	return *t, true
}

// ListWatches returns read-only copies of every registered target.
func (m *Manager) ListWatches() []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Target, 0, len(m.targets))
	for _, t := range m.targets {
		out = append(out, *t)
	}
	return out
}

// GetEvents returns up to limit events for id, newest-first.
func (m *Manager) GetEvents(id string, limit int) ([]Event, error) {
	b, err := os.ReadFile(m.eventsPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var all []Event
	dec := json.NewDecoder(bytes.NewReader(b))
	for dec.More() {
		var e Event
		if err := dec.Decode(&e); err != nil {
			return nil, err
		}
		all = append(all, e)
	}
	// reverse to newest-first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *Manager) persist(t *Target) error {
	if err := os.MkdirAll(m.watchDir(t.ID), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.configPath(t.ID) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.configPath(t.ID))
}

func (m *Manager) appendEvent(e Event) error {
	f, err := os.OpenFile(m.eventsPath(e.WatchID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = f.Write(b)
	return err
}

// ensureRunning starts the 30s tick loop exactly once.
func (m *Manager) ensureRunning() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.stopCh = make(chan struct{})
	go m.loop(m.stopCh)
}

// Stop releases the background tick timer so it doesn't hold the process
// open; callers should invoke this during shutdown.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	close(m.stopCh)
	m.started = false
}

func (m *Manager) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.tick(context.Background())
		}
	}
}

// tick is single-flight: a second tick is skipped while one is in flight.
func (m *Manager) tick(ctx context.Context) {
	m.mu.Lock()
	if m.ticking {
		m.mu.Unlock()
		return
	}
	m.ticking = true
	targets := make([]*Target, 0, len(m.targets))
	for _, t := range m.targets {
		targets = append(targets, t)
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.ticking = false
		m.mu.Unlock()
	}()

	now := time.Now()
	for _, t := range targets {
		m.mu.Lock()
		due := t.Status == StatusActive && (t.LastChecked == nil || now.Sub(*t.LastChecked) >= time.Duration(t.Interval)*time.Second)
		m.mu.Unlock()
		if !due {
			continue
		}
		m.checkTarget(ctx, t)
	}
}

// checkTarget runs one per-target check: fetch -> distill -> diff -> persist
// -> optional webhook. Any failure is recorded on the target without halting
// the tick.
func (m *Manager) checkTarget(ctx context.Context, t *Target) {
	now := time.Now().UTC()
	result, err := m.Fetch.Fetch(ctx, fetchclient.Request{URL: t.URL, UseCache: false, Mode: fetchclient.ModeHTTP})
	if err != nil {
		m.recordFailure(t, now, err)
		return
	}
	distilled, err := m.Distiller.Distill(ctx, result.Body, t.URL, nil)
	if err != nil {
		m.recordFailure(t, now, err)
		return
	}
	detection, err := m.Diff.DetectChanges(ctx, t.URL, distilled.ContentText, diffengine.Meta{})
	if err != nil {
		m.recordFailure(t, now, err)
		return
	}

	m.mu.Lock()
	t.LastChecked = &now
	t.CheckCount++
	if t.Status == StatusError {
		t.Status = StatusActive
		t.LastError = ""
	}
	changed := detection.HasChanged && detection.ChangePercent >= t.ChangeThreshold
	if changed {
		t.LastChanged = &now
		t.ChangeCount++
	}
	cp := *t
	m.mu.Unlock()

	if changed {
		var prevHash string
		if detection.PreviousSnapshot != nil {
			prevHash = detection.PreviousSnapshot.ContentHash
		}
		ev := Event{
			WatchID:       t.ID,
			URL:           t.URL,
			Timestamp:     now,
			ChangePercent: detection.ChangePercent,
			Summary:       detection.Summary,
			PreviousHash:  prevHash,
			CurrentHash:   detection.CurrentSnapshot.ContentHash,
		}
		if err := m.appendEvent(ev); err != nil {
			log.Warn().Err(err).Str("watch", t.ID).Msg("watch: failed to append event")
		}
		if cp.WebhookURL != "" {
			go m.deliverWebhook(cp.WebhookURL, ev)
		}
	}

	if err := m.persist(&cp); err != nil {
		log.Warn().Err(err).Str("watch", t.ID).Msg("watch: failed to persist target")
	}
}

func (m *Manager) recordFailure(t *Target, now time.Time, err error) {
	m.mu.Lock()
	t.LastChecked = &now
	t.CheckCount++
	t.Status = StatusError
	t.LastError = err.Error()
	cp := *t
	m.mu.Unlock()
	if perr := m.persist(&cp); perr != nil {
		log.Warn().Err(perr).Str("watch", t.ID).Msg("watch: failed to persist error state")
	}
}

// deliverWebhook fires a fire-and-forget POST of the event; non-2xx and
// timeouts are logged and never retried in-tick, per the spec's documented
// webhook policy.
func (m *Manager) deliverWebhook(url string, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "contentdistiller/1.0")
	resp, err := m.Webhook.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("webhookURL", url).Msg("watch: webhook delivery failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Str("webhookURL", url).Msg("watch: webhook returned non-2xx")
	}
}
