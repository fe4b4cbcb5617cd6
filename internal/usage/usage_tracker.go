// Package usage accounts for tokens spent on assistant calls and persists
// the running totals to usage.json in the data directory.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type contextKey struct{}

type callKey int

const (
	surfaceKey callKey = iota
	sessionKey
)

const saveDebounce = 5 * time.Second

// Tracker manages token usage recording and persistence.
type Tracker struct {
	mu        sync.Mutex
	data      UsageData
	filePath  string
	dirty     bool
	saveTimer *time.Timer
	closed    bool
	now       func() time.Time
}

// NewTracker creates a tracker persisting to <dataDir>/usage.json.
// A corrupt file is discarded and counting starts from zero.
func NewTracker(dataDir string) (*Tracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	t := &Tracker{
		filePath: filepath.Join(dataDir, "usage.json"),
		data:     emptyData(),
		now:      time.Now,
	}

	if err := t.Load(); err != nil {
		t.data = emptyData()
	}

	return t, nil
}

func emptyData() UsageData {
	return UsageData{
		Version: "1.0",
		Aggregate: AggregatedStats{
			ByProvider:  make(map[string]TokenCounts),
			ByModel:     make(map[string]TokenCounts),
			BySurface:   make(map[string]TokenCounts),
			ByOperation: make(map[string]TokenCounts),
			BySession:   make(map[string]TokenCounts),
		},
	}
}

// Path returns the persistence file location.
func (t *Tracker) Path() string {
	return t.filePath
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var loaded UsageData
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse usage: %w", err)
	}

	// Ensure maps are initialized if file was empty/partial
	agg := &loaded.Aggregate
	for _, m := range []*map[string]TokenCounts{&agg.ByProvider, &agg.ByModel, &agg.BySurface, &agg.ByOperation, &agg.BySession} {
		if *m == nil {
			*m = make(map[string]TokenCounts)
		}
	}
	t.data = loaded

	return nil
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = false
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}

// Track records a new usage event. Saves are debounced; Close flushes.
func (t *Tracker) Track(ctx context.Context, model, provider string, input, output int, operation string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	surface := stringValue(ctx, surfaceKey)
	sessionID := stringValue(ctx, sessionKey)

	t.data.Aggregate.Total.Add(input, output)
	addToMap(t.data.Aggregate.ByProvider, provider, input, output)
	addToMap(t.data.Aggregate.ByModel, model, input, output)
	addToMap(t.data.Aggregate.BySurface, surface, input, output)
	addToMap(t.data.Aggregate.ByOperation, operation, input, output)
	addToMap(t.data.Aggregate.BySession, sessionID, input, output)

	t.data.LastCall = &UsageEvent{
		Timestamp:     t.now(),
		Model:         model,
		Provider:      provider,
		InputTokens:   input,
		OutputTokens:  output,
		Surface:       surface,
		SessionID:     sessionID,
		OperationType: operation,
	}

	if t.dirty || t.closed {
		return
	}
	t.dirty = true
	t.saveTimer = time.AfterFunc(saveDebounce, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.dirty {
			t.dirty = false
			_ = t.saveLocked()
		}
	})
}

// Close stops the pending autosave and writes the current totals.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.saveTimer != nil {
		t.saveTimer.Stop()
		t.saveTimer = nil
	}
	if !t.dirty {
		return nil
	}
	t.dirty = false
	return t.saveLocked()
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByProvider = copyTokenCountsMap(stats.ByProvider)
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.BySurface = copyTokenCountsMap(stats.BySurface)
	stats.ByOperation = copyTokenCountsMap(stats.ByOperation)
	stats.BySession = copyTokenCountsMap(stats.BySession)
	return stats
}

// LastCall returns the most recent event, if any.
func (t *Tracker) LastCall() (UsageEvent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.data.LastCall == nil {
		return UsageEvent{}, false
	}
	return *t.data.LastCall, true
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

func stringValue(ctx context.Context, key callKey) string {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(contextKey{}).(*Tracker)
	return t
}

// WithCallContext tags the context with the calling surface and session.
func WithCallContext(ctx context.Context, surface, sessionID string) context.Context {
	ctx = context.WithValue(ctx, surfaceKey, surface)
	ctx = context.WithValue(ctx, sessionKey, sessionID)
	return ctx
}
