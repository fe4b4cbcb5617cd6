// Package app holds the root application state shared by every surface:
// onboarding status, the active tab, reply preferences and the contact subset
// that updates are filtered against.
package app

import (
	"fmt"

	"kinship/internal/logging"
	"kinship/internal/onboarding"
	"kinship/internal/social"
	"kinship/internal/ux"
)

// Tab is a top-level surface.
type Tab string

const (
	TabChat    Tab = "chat"
	TabDigest  Tab = "digest"
	TabCircles Tab = "circles"
)

// Tabs lists the surfaces in navigation order.
var Tabs = []Tab{TabChat, TabDigest, TabCircles}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	for _, known := range Tabs {
		if t == known {
			return true
		}
	}
	return false
}

// Next returns the tab after t, wrapping around.
func (t Tab) Next() Tab {
	for i, known := range Tabs {
		if t == known {
			return Tabs[(i+1)%len(Tabs)]
		}
	}
	return TabChat
}

// State is the root composition state. It is owned by the event loop.
type State struct {
	onboarded   bool
	activeTab   Tab
	preferences social.Preferences

	allContacts []social.Contact
	allUpdates  []social.Update
	selected    []string
	contacts    []social.Contact

	store *ux.PreferencesManager
}

// New builds state over the fixtures. When store is non-nil and records a
// completed onboarding, that outcome is restored.
func New(contacts []social.Contact, updates []social.Update, store *ux.PreferencesManager) *State {
	s := &State{
		activeTab:   TabChat,
		preferences: social.DefaultPreferences(),
		allContacts: contacts,
		allUpdates:  updates,
		store:       store,
	}
	if store != nil && store.IsOnboardingComplete() {
		saved := store.Get()
		s.onboarded = true
		s.preferences = saved.Reply
		s.selected = saved.Onboarding.SelectedContacts
		if Tab(saved.LastTab).Valid() {
			s.activeTab = Tab(saved.LastTab)
		}
	}
	s.applySelection()
	return s
}

// Onboarded reports whether the wizard has been completed.
func (s *State) Onboarded() bool { return s.onboarded }

// ActiveTab returns the visible surface.
func (s *State) ActiveTab() Tab { return s.activeTab }

// Preferences returns the reply preferences.
func (s *State) Preferences() social.Preferences { return s.preferences }

// AllContacts returns every known contact.
func (s *State) AllContacts() []social.Contact { return s.allContacts }

// Contacts returns the active contact subset.
func (s *State) Contacts() []social.Contact { return s.contacts }

// Updates returns the updates whose contact is in the active subset.
func (s *State) Updates() []social.Update {
	return social.FilterUpdates(s.allUpdates, s.contacts)
}

// SetTab switches the visible surface. It reports whether the tab changed.
func (s *State) SetTab(t Tab) bool {
	if !t.Valid() || t == s.activeTab {
		return false
	}
	s.activeTab = t
	if s.store != nil {
		s.store.SetLastTab(string(t))
	}
	return true
}

// CompleteOnboarding applies the wizard result. An empty contact selection
// keeps the full contact list. The outcome is persisted when a store is
// attached; a persistence error is returned but the state is still applied.
func (s *State) CompleteOnboarding(res onboarding.Result) error {
	s.preferences = res.Preferences
	s.selected = res.SelectedContactIDs
	s.onboarded = true
	s.activeTab = TabChat
	s.applySelection()
	logging.Onboarding("onboarding complete: tone=%s contacts=%d", s.preferences.Tone, len(s.contacts))

	if s.store == nil {
		return nil
	}
	s.store.MarkOnboardingComplete(res.Preferences, res.SelectedChannels, res.SelectedContactIDs)
	s.store.SetLastTab(string(s.activeTab))
	if err := s.store.Save(); err != nil {
		return fmt.Errorf("failed to save onboarding: %w", err)
	}
	return nil
}

// SetFixtures swaps the contact and update sources, keeping the selection.
func (s *State) SetFixtures(contacts []social.Contact, updates []social.Update) {
	s.allContacts = contacts
	s.allUpdates = updates
	s.applySelection()
}

// Reset returns to the first-run state.
func (s *State) Reset() error {
	s.onboarded = false
	s.activeTab = TabChat
	s.preferences = social.DefaultPreferences()
	s.selected = nil
	s.applySelection()

	if s.store == nil {
		return nil
	}
	s.store.ResetOnboarding()
	if err := s.store.Save(); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// applySelection narrows the contact list to the saved selection. A selection
// that resolves to nobody keeps every contact; it is still remembered so the
// narrowing returns if those contacts reappear.
func (s *State) applySelection() {
	if len(s.selected) == 0 {
		s.contacts = s.allContacts
		return
	}
	s.contacts = social.SelectContacts(s.allContacts, s.selected)
	if len(s.contacts) == 0 {
		logging.Onboarding("selected contacts %v not found among %v; showing everyone", s.selected, social.ContactIDs(s.allContacts))
		s.contacts = s.allContacts
	}
}
