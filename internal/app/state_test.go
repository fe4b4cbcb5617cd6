package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinship/internal/onboarding"
	"kinship/internal/social"
	"kinship/internal/ux"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func updateIDs(us []social.Update) []string {
	out := make([]string, 0, len(us))
	for _, u := range us {
		out = append(out, u.ID)
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	s := New(social.DefaultContacts(), social.DefaultUpdates(now), nil)
	assert.False(t, s.Onboarded())
	assert.Equal(t, TabChat, s.ActiveTab())
	assert.Len(t, s.Contacts(), 5)
	assert.Len(t, s.Updates(), 4)
}

func TestCompleteOnboarding_EmptySelectionKeepsAll(t *testing.T) {
	s := New(social.DefaultContacts(), social.DefaultUpdates(now), nil)
	err := s.CompleteOnboarding(onboarding.Result{Preferences: social.DefaultPreferences()})
	require.NoError(t, err)

	assert.True(t, s.Onboarded())
	assert.Len(t, s.Contacts(), 5)
	assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, updateIDs(s.Updates()))
}

func TestCompleteOnboarding_FiltersUpdates(t *testing.T) {
	s := New(social.DefaultContacts(), social.DefaultUpdates(now), nil)
	require.NoError(t, s.CompleteOnboarding(onboarding.Result{
		Preferences:        social.Preferences{Tone: social.ToneExcited, EmojiUsage: social.EmojiMinimal},
		SelectedContactIDs: []string{"c3", "c5"},
	}))

	assert.Equal(t, []string{"c3", "c5"}, social.ContactIDs(s.Contacts()))
	assert.Equal(t, []string{"u3"}, updateIDs(s.Updates()))
	assert.Equal(t, social.ToneExcited, s.Preferences().Tone)
	assert.Len(t, s.AllContacts(), 5)
}

func TestCompleteOnboarding_PersistsAndRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	store := ux.NewPreferencesManager(path)
	require.NoError(t, store.Load())

	s := New(social.DefaultContacts(), social.DefaultUpdates(now), store)
	require.NoError(t, s.CompleteOnboarding(onboarding.Result{
		Preferences:        social.Preferences{Tone: social.ToneFormal, EmojiUsage: social.EmojiMinimal, ForbiddenWords: []string{}},
		SelectedContactIDs: []string{"c1"},
	}))
	assert.True(t, s.SetTab(TabCircles))

	require.NoError(t, store.Save())

	reloaded := ux.NewPreferencesManager(path)
	require.NoError(t, reloaded.Load())
	restored := New(social.DefaultContacts(), social.DefaultUpdates(now), reloaded)
	assert.True(t, restored.Onboarded())
	assert.Equal(t, social.ToneFormal, restored.Preferences().Tone)
	assert.Equal(t, []string{"c1"}, social.ContactIDs(restored.Contacts()))
	assert.Equal(t, TabCircles, restored.ActiveTab())
}

func TestSetFixtures_SelectionVanishes(t *testing.T) {
	contacts := social.DefaultContacts()
	s := New(contacts, social.DefaultUpdates(now), nil)
	require.NoError(t, s.CompleteOnboarding(onboarding.Result{
		Preferences:        social.DefaultPreferences(),
		SelectedContactIDs: []string{"c1"},
	}))
	require.Equal(t, []string{"c1"}, social.ContactIDs(s.Contacts()))

	s.SetFixtures(contacts[1:], social.DefaultUpdates(now))
	assert.Equal(t, []string{"c2", "c3", "c4", "c5"}, social.ContactIDs(s.Contacts()))
	assert.NotEmpty(t, s.Updates())

	// The selection narrows again once its contact is back.
	s.SetFixtures(contacts, social.DefaultUpdates(now))
	assert.Equal(t, []string{"c1"}, social.ContactIDs(s.Contacts()))
}

func TestNew_RestoredSelectionMissing(t *testing.T) {
	store := ux.NewPreferencesManager(filepath.Join(t.TempDir(), "preferences.json"))
	require.NoError(t, store.Load())
	store.MarkOnboardingComplete(social.DefaultPreferences(), nil, []string{"gone"})

	s := New(social.DefaultContacts(), social.DefaultUpdates(now), store)
	assert.True(t, s.Onboarded())
	assert.Len(t, s.Contacts(), 5)
	assert.Len(t, s.Updates(), 4)
}

func TestSetTab(t *testing.T) {
	s := New(nil, nil, nil)
	assert.False(t, s.SetTab(TabChat), "already active")
	assert.False(t, s.SetTab("settings"))
	assert.True(t, s.SetTab(TabDigest))
	assert.Equal(t, TabDigest, s.ActiveTab())
}

func TestTabNext(t *testing.T) {
	assert.Equal(t, TabDigest, TabChat.Next())
	assert.Equal(t, TabCircles, TabDigest.Next())
	assert.Equal(t, TabChat, TabCircles.Next())
	assert.Equal(t, TabChat, Tab("bogus").Next())
}

func TestSetFixtures_KeepsSelection(t *testing.T) {
	s := New(social.DefaultContacts(), social.DefaultUpdates(now), nil)
	require.NoError(t, s.CompleteOnboarding(onboarding.Result{SelectedContactIDs: []string{"c4"}}))

	extra := append(social.DefaultUpdates(now), social.Update{ID: "u5", ContactID: "c4"})
	s.SetFixtures(social.DefaultContacts(), extra)
	assert.Equal(t, []string{"u4", "u5"}, updateIDs(s.Updates()))
}

func TestReset(t *testing.T) {
	store := ux.NewPreferencesManager(filepath.Join(t.TempDir(), "p.json"))
	s := New(social.DefaultContacts(), social.DefaultUpdates(now), store)
	require.NoError(t, s.CompleteOnboarding(onboarding.Result{SelectedContactIDs: []string{"c4"}}))

	require.NoError(t, s.Reset())
	assert.False(t, s.Onboarded())
	assert.Len(t, s.Contacts(), 5)
	assert.False(t, store.IsOnboardingComplete())
}
