package ux

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kinship/internal/social"
)

// PreferencesVersion is the current schema version for preferences.json.
const PreferencesVersion = "1.0"

// UserPreferences is the persisted preferences schema.
type UserPreferences struct {
	// Version is the schema version for migration detection
	Version string `json:"version"`

	// Onboarding tracks wizard completion
	Onboarding OnboardingPrefs `json:"onboarding"`

	// Reply shapes generated suggestions
	Reply social.Preferences `json:"reply"`

	// Metrics tracks local usage statistics
	Metrics UserMetrics `json:"metrics"`

	// LastTab is the surface shown when the app was last closed
	LastTab string `json:"last_tab,omitempty"`
}

// OnboardingPrefs records the wizard outcome.
type OnboardingPrefs struct {
	Completed        bool     `json:"completed"`
	CompletedAt      string   `json:"completed_at,omitempty"`
	Channels         []string `json:"channels,omitempty"`
	SelectedContacts []string `json:"selected_contacts,omitempty"`
}

// UserMetrics tracks interaction counters.
type UserMetrics struct {
	SessionsCount    int    `json:"sessions_count"`
	ChatsSent        int    `json:"chats_sent"`
	RepliesSent      int    `json:"replies_sent"`
	DigestsCompleted int    `json:"digests_completed"`
	LastSession      string `json:"last_session,omitempty"`
}

// PreferencesManager handles loading/saving preferences.
type PreferencesManager struct {
	mu          sync.RWMutex
	path        string
	preferences *UserPreferences
	now         func() time.Time
}

// NewPreferencesManager creates a preferences manager for the given file.
func NewPreferencesManager(path string) *PreferencesManager {
	return &PreferencesManager{
		path: path,
		now:  time.Now,
	}
}

// Path returns the preferences file location.
func (pm *PreferencesManager) Path() string {
	return pm.path
}

// Load reads preferences from disk, creating defaults if not exists.
func (pm *PreferencesManager) Load() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	data, err := os.ReadFile(pm.path)
	if err != nil {
		if os.IsNotExist(err) {
			pm.preferences = DefaultUserPreferences()
			return nil
		}
		return fmt.Errorf("failed to read preferences: %w", err)
	}

	prefs := DefaultUserPreferences()
	if err := json.Unmarshal(data, prefs); err != nil {
		return fmt.Errorf("failed to parse preferences: %w", err)
	}
	if prefs.Reply.ForbiddenWords == nil {
		prefs.Reply.ForbiddenWords = []string{}
	}

	pm.preferences = prefs
	return nil
}

// Save writes preferences to disk.
func (pm *PreferencesManager) Save() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.ensureLocked()

	// Ensure directory exists
	dir := filepath.Dir(pm.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(pm.preferences, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.WriteFile(pm.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}

	return nil
}

// Get returns a copy of the current preferences (thread-safe).
func (pm *PreferencesManager) Get() UserPreferences {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if pm.preferences == nil {
		return *DefaultUserPreferences()
	}
	out := *pm.preferences
	out.Onboarding.Channels = append([]string(nil), out.Onboarding.Channels...)
	out.Onboarding.SelectedContacts = append([]string(nil), out.Onboarding.SelectedContacts...)
	out.Reply.ForbiddenWords = append([]string{}, out.Reply.ForbiddenWords...)
	return out
}

// ReplyPreferences returns the stored reply preferences.
func (pm *PreferencesManager) ReplyPreferences() social.Preferences {
	return pm.Get().Reply
}

// SelectedContacts returns the contact IDs chosen during onboarding.
// Empty means all contacts.
func (pm *PreferencesManager) SelectedContacts() []string {
	return pm.Get().Onboarding.SelectedContacts
}

// MarkOnboardingComplete records the wizard outcome.
func (pm *PreferencesManager) MarkOnboardingComplete(reply social.Preferences, channels, contactIDs []string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.ensureLocked()
	pm.preferences.Onboarding = OnboardingPrefs{
		Completed:        true,
		CompletedAt:      pm.now().Format(time.RFC3339),
		Channels:         append([]string(nil), channels...),
		SelectedContacts: append([]string(nil), contactIDs...),
	}
	pm.preferences.Reply = reply
	if pm.preferences.Reply.ForbiddenWords == nil {
		pm.preferences.Reply.ForbiddenWords = []string{}
	}
}

// IsOnboardingComplete returns true if onboarding is done.
func (pm *PreferencesManager) IsOnboardingComplete() bool {
	return pm.Get().Onboarding.Completed
}

// ResetOnboarding forgets the wizard outcome so it runs again.
// Metrics are kept.
func (pm *PreferencesManager) ResetOnboarding() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.ensureLocked()
	pm.preferences.Onboarding = OnboardingPrefs{}
	pm.preferences.Reply = social.DefaultPreferences()
	pm.preferences.LastTab = ""
}

// SetLastTab remembers the active surface.
func (pm *PreferencesManager) SetLastTab(tab string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.ensureLocked()
	pm.preferences.LastTab = tab
}

// IncrementMetric increments a numeric metric.
func (pm *PreferencesManager) IncrementMetric(metric string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.ensureLocked()

	switch metric {
	case "sessions_count":
		pm.preferences.Metrics.SessionsCount++
		pm.preferences.Metrics.LastSession = pm.now().Format(time.RFC3339)
	case "chats_sent":
		pm.preferences.Metrics.ChatsSent++
	case "replies_sent":
		pm.preferences.Metrics.RepliesSent++
	case "digests_completed":
		pm.preferences.Metrics.DigestsCompleted++
	default:
		return fmt.Errorf("unknown metric: %s", metric)
	}

	return nil
}

func (pm *PreferencesManager) ensureLocked() {
	if pm.preferences == nil {
		pm.preferences = DefaultUserPreferences()
	}
}

// DefaultUserPreferences returns defaults for a first run.
func DefaultUserPreferences() *UserPreferences {
	return &UserPreferences{
		Version: PreferencesVersion,
		Reply:   social.DefaultPreferences(),
	}
}
