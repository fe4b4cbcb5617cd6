package conversation

import (
	"time"

	"kinship/internal/social"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry in the conversation. The concrete type is one of
// *TextMessage, *UpdateCardMessage or *SuggestionsMessage.
type Message interface {
	ID() string
	Role() Role
	Time() time.Time
	isMessage()
}

type header struct {
	id   string
	role Role
	at   time.Time
}

func (h header) ID() string      { return h.id }
func (h header) Role() Role      { return h.role }
func (h header) Time() time.Time { return h.at }
func (header) isMessage()        {}

// TextMessage is plain text from the user or the assistant.
type TextMessage struct {
	header
	Text string
}

// UpdateCardMessage presents a social update inline.
type UpdateCardMessage struct {
	header
	Update social.Update
}

// SuggestionsMessage offers reply chips for an update.
type SuggestionsMessage struct {
	header
	Heading     string
	Update      social.Update
	Suggestions []string
}

// NewTextMessage builds a TextMessage.
func NewTextMessage(id string, role Role, at time.Time, text string) *TextMessage {
	return &TextMessage{header: header{id: id, role: role, at: at}, Text: text}
}

// NewUpdateCardMessage builds an UpdateCardMessage authored by the assistant.
func NewUpdateCardMessage(id string, at time.Time, u social.Update) *UpdateCardMessage {
	return &UpdateCardMessage{header: header{id: id, role: RoleModel, at: at}, Update: u}
}

// NewSuggestionsMessage builds a SuggestionsMessage authored by the assistant.
func NewSuggestionsMessage(id string, at time.Time, heading string, u social.Update, suggestions []string) *SuggestionsMessage {
	return &SuggestionsMessage{header: header{id: id, role: RoleModel, at: at}, Heading: heading, Update: u, Suggestions: suggestions}
}

// Text returns the display text of any message variant.
func Text(m Message) string {
	switch v := m.(type) {
	case *TextMessage:
		return v.Text
	case *UpdateCardMessage:
		return v.Update.Content
	case *SuggestionsMessage:
		return v.Heading
	}
	return ""
}

// Kind names the variant of m for persistence and logs.
func Kind(m Message) string {
	switch m.(type) {
	case *TextMessage:
		return "text"
	case *UpdateCardMessage:
		return "update_card"
	case *SuggestionsMessage:
		return "suggestions"
	}
	return "unknown"
}
