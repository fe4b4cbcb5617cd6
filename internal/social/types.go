// Package social holds the Kinship domain model: contacts, the updates they
// produce, the user's reply preferences, and the pure projections over them
// (lookup, filtering by the active contact subset, grouping by circle).
package social

import "time"

// Channel is the medium an update arrived through.
type Channel string

const (
	ChannelWhatsApp  Channel = "WhatsApp"
	ChannelInstagram Channel = "Instagram"
	ChannelLinkedIn  Channel = "LinkedIn"
	ChannelEmail     Channel = "Email"
	ChannelSMS       Channel = "SMS"
)

// Channels lists every known channel in display order.
var Channels = []Channel{ChannelWhatsApp, ChannelInstagram, ChannelLinkedIn, ChannelEmail, ChannelSMS}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}

// Circle is the relationship group a contact belongs to.
type Circle string

const (
	CircleFamily        Circle = "Family"
	CircleCloseFriends  Circle = "Close Friends"
	CircleWork          Circle = "Work"
	CircleAcquaintances Circle = "Acquaintances"
)

// Circles lists every known circle.
var Circles = []Circle{CircleFamily, CircleCloseFriends, CircleWork, CircleAcquaintances}

// Valid reports whether c is a known circle.
func (c Circle) Valid() bool {
	for _, known := range Circles {
		if c == known {
			return true
		}
	}
	return false
}

// UpdateType classifies an update.
type UpdateType string

const (
	UpdatePost    UpdateType = "post"
	UpdateMessage UpdateType = "message"
	UpdateEvent   UpdateType = "event"
	UpdateRequest UpdateType = "request"
)

// Valid reports whether t is a known update type.
func (t UpdateType) Valid() bool {
	switch t {
	case UpdatePost, UpdateMessage, UpdateEvent, UpdateRequest:
		return true
	}
	return false
}

// Tone is the voice used for generated replies.
type Tone string

const (
	ToneCasual  Tone = "casual"
	ToneFormal  Tone = "formal"
	ToneExcited Tone = "excited"
)

// Valid reports whether t is a known tone.
func (t Tone) Valid() bool {
	switch t {
	case ToneCasual, ToneFormal, ToneExcited:
		return true
	}
	return false
}

// EmojiUsage controls how heavily generated replies use emoji.
type EmojiUsage string

const (
	EmojiNone    EmojiUsage = "none"
	EmojiMinimal EmojiUsage = "minimal"
	EmojiHeavy   EmojiUsage = "heavy"
)

// Contact is a person in the user's social graph.
type Contact struct {
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	AvatarURL string    `yaml:"avatar_url" json:"avatar_url"`
	Circle    Circle    `yaml:"circle" json:"circle"`
	Channels  []Channel `yaml:"channels" json:"channels"`
}

// Update is a single piece of social activity attributed to a contact.
// PriorityScore and IsRead are carried for display only.
type Update struct {
	ID            string     `yaml:"id" json:"id"`
	ContactID     string     `yaml:"contact_id" json:"contact_id"`
	Type          UpdateType `yaml:"type" json:"type"`
	Channel       Channel    `yaml:"channel" json:"channel"`
	Content       string     `yaml:"content" json:"content"`
	Timestamp     time.Time  `yaml:"timestamp" json:"timestamp"`
	ImageURL      string     `yaml:"image_url,omitempty" json:"image_url,omitempty"`
	Summary       string     `yaml:"summary,omitempty" json:"summary,omitempty"`
	PriorityScore int        `yaml:"priority_score" json:"priority_score"`
	IsRead        bool       `yaml:"is_read" json:"is_read"`
}

// Preferences shape how reply suggestions are phrased.
type Preferences struct {
	Tone           Tone       `json:"tone"`
	EmojiUsage     EmojiUsage `json:"emoji_usage"`
	ForbiddenWords []string   `json:"forbidden_words"`
}

// DefaultPreferences returns the preferences onboarding starts from.
func DefaultPreferences() Preferences {
	return Preferences{
		Tone:           ToneCasual,
		EmojiUsage:     EmojiMinimal,
		ForbiddenWords: []string{},
	}
}
