package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinship/internal/social"
)

func TestAdvanceRetreatClamp(t *testing.T) {
	f := New(social.DefaultContacts())
	assert.Equal(t, StepIntro, f.Step())

	f.Retreat()
	assert.Equal(t, StepIntro, f.Step())

	for i := 0; i < 10; i++ {
		f.Advance()
	}
	assert.Equal(t, StepTone, f.Step())
	assert.Equal(t, 1.0, f.Progress())

	f.Retreat()
	assert.Equal(t, StepContacts, f.Step())
	assert.Equal(t, 0.75, f.Progress())
}

func TestFinish_OnlyOnLastStep(t *testing.T) {
	f := New(social.DefaultContacts())
	_, err := f.Finish()
	assert.ErrorIs(t, err, ErrNotFinished)

	f.Advance()
	f.Advance()
	f.Advance()
	res, err := f.Finish()
	require.NoError(t, err)
	assert.Equal(t, social.ToneCasual, res.Preferences.Tone)
	assert.Equal(t, social.EmojiMinimal, res.Preferences.EmojiUsage)
	assert.Equal(t, []string{}, res.Preferences.ForbiddenWords)
	assert.Equal(t, []string{}, res.SelectedContactIDs)
}

func TestToggleContactsKeepsOrder(t *testing.T) {
	f := New(social.DefaultContacts())
	f.ToggleContact("c4")
	f.ToggleContact("c1")
	f.ToggleContact("c3")
	f.ToggleContact("c1")
	f.ToggleContact("nobody")

	assert.True(t, f.ContactSelected("c4"))
	assert.False(t, f.ContactSelected("c1"))
	assert.Equal(t, 2, f.SelectedCount())

	for f.Step() != StepTone {
		f.Advance()
	}
	res, err := f.Finish()
	require.NoError(t, err)
	assert.Equal(t, []string{"c4", "c3"}, res.SelectedContactIDs)
}

func TestToggleChannel(t *testing.T) {
	f := New(nil)
	f.ToggleChannel("whatsapp")
	f.ToggleChannel("social")
	f.ToggleChannel("carrier-pigeon")
	assert.True(t, f.ChannelSelected("whatsapp"))
	assert.False(t, f.ChannelSelected("carrier-pigeon"))

	f.ToggleChannel("whatsapp")
	assert.False(t, f.ChannelSelected("whatsapp"))
	assert.True(t, f.ChannelSelected("social"))
}

func TestVisibleContacts_CaseInsensitive(t *testing.T) {
	f := New(social.DefaultContacts())
	assert.Len(t, f.VisibleContacts(), 5)

	f.SetSearch("AR")
	names := []string{}
	for _, c := range f.VisibleContacts() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Hardik", "Arpit"}, names)

	f.SetSearch("zzz")
	assert.Empty(t, f.VisibleContacts())
}

func TestSetTone(t *testing.T) {
	f := New(nil)
	f.SetTone(social.ToneExcited)
	f.SetTone("sarcastic")
	assert.Equal(t, social.ToneExcited, f.Tone())
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "channels", StepChannels.String())
	assert.Equal(t, "unknown", Step(9).String())
}
