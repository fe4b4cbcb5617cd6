// Package onboarding is the four-step first-run wizard: intro, channels,
// priority contacts and tone. It produces the user's preferences and the
// contact subset the rest of the application works with.
package onboarding

import (
	"errors"
	"strings"

	"kinship/internal/social"
)

// ErrNotFinished is returned by Finish before the last step.
var ErrNotFinished = errors.New("onboarding: not at final step")

// Step is a wizard page.
type Step int

const (
	StepIntro Step = iota + 1
	StepChannels
	StepContacts
	StepTone
)

// Steps is the number of wizard pages.
const Steps = int(StepTone)

func (s Step) String() string {
	switch s {
	case StepIntro:
		return "intro"
	case StepChannels:
		return "channels"
	case StepContacts:
		return "contacts"
	case StepTone:
		return "tone"
	}
	return "unknown"
}

// Option is a selectable channel or tone.
type Option struct {
	ID    string
	Label string
	Icon  string
}

// ChannelOptions are the sources offered on the channels step.
var ChannelOptions = []Option{
	{ID: "whatsapp", Label: "WhatsApp"},
	{ID: "email", Label: "Gmail / Outlook"},
	{ID: "social", Label: "Instagram"},
}

// ToneOptions are the voices offered on the tone step.
var ToneOptions = []Option{
	{ID: string(social.ToneCasual), Label: "Chill / Bestie", Icon: "✌️"},
	{ID: string(social.ToneExcited), Label: "Hype Man", Icon: "🔥"},
	{ID: string(social.ToneFormal), Label: "Professional", Icon: "👔"},
}

// Result is what a finished wizard yields.
type Result struct {
	Preferences        social.Preferences
	SelectedChannels   []string
	SelectedContactIDs []string
}

// Flow holds wizard state.
type Flow struct {
	contacts []social.Contact
	step     Step
	tone     social.Tone
	channels []string
	selected []string
	search   string
}

// New starts a wizard over the candidate contacts.
func New(contacts []social.Contact) *Flow {
	return &Flow{
		contacts: contacts,
		step:     StepIntro,
		tone:     social.ToneCasual,
	}
}

// Step returns the current page.
func (f *Flow) Step() Step { return f.step }

// Progress returns the completed fraction, step/4.
func (f *Flow) Progress() float64 { return float64(f.step) / float64(Steps) }

// Advance moves forward one page, stopping at the last.
func (f *Flow) Advance() {
	if f.step < StepTone {
		f.step++
	}
}

// Retreat moves back one page, stopping at the first.
func (f *Flow) Retreat() {
	if f.step > StepIntro {
		f.step--
	}
}

// ToggleChannel adds or removes a channel option by ID.
// Unknown IDs are ignored.
func (f *Flow) ToggleChannel(id string) {
	if !isChannelOption(id) {
		return
	}
	f.channels = toggle(f.channels, id)
}

// ChannelSelected reports whether a channel option is selected.
func (f *Flow) ChannelSelected(id string) bool { return contains(f.channels, id) }

// ToggleContact adds or removes a contact by ID. Unknown IDs are ignored.
func (f *Flow) ToggleContact(id string) {
	if _, ok := social.FindContact(f.contacts, id); !ok {
		return
	}
	f.selected = toggle(f.selected, id)
}

// ContactSelected reports whether a contact is selected.
func (f *Flow) ContactSelected(id string) bool { return contains(f.selected, id) }

// SelectedCount returns the number of selected contacts.
func (f *Flow) SelectedCount() int { return len(f.selected) }

// SetSearch sets the contact filter.
func (f *Flow) SetSearch(q string) { f.search = q }

// Search returns the contact filter.
func (f *Flow) Search() string { return f.search }

// VisibleContacts returns contacts whose name contains the filter, ignoring case.
func (f *Flow) VisibleContacts() []social.Contact {
	q := strings.ToLower(f.search)
	out := make([]social.Contact, 0, len(f.contacts))
	for _, c := range f.contacts {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

// SetTone selects a tone. Unknown tones are ignored.
func (f *Flow) SetTone(t social.Tone) {
	if t.Valid() {
		f.tone = t
	}
}

// Tone returns the selected tone.
func (f *Flow) Tone() social.Tone { return f.tone }

// Finish returns the wizard's result. It is only valid on the last step.
func (f *Flow) Finish() (Result, error) {
	if f.step != StepTone {
		return Result{}, ErrNotFinished
	}
	return Result{
		Preferences: social.Preferences{
			Tone:           f.tone,
			EmojiUsage:     social.EmojiMinimal,
			ForbiddenWords: []string{},
		},
		SelectedChannels:   append([]string(nil), f.channels...),
		SelectedContactIDs: append([]string{}, f.selected...),
	}, nil
}

func isChannelOption(id string) bool {
	for _, o := range ChannelOptions {
		if o.ID == id {
			return true
		}
	}
	return false
}

func toggle(list []string, id string) []string {
	for i, v := range list {
		if v == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, id)
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
