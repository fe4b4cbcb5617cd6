// Package conversation holds the chat surface state: an append-only message
// list, the pending input and a busy flag guarding one outstanding request.
//
// Operations that need the assistant or a timer return a tea.Cmd. The command
// runs off the event loop and reports back with a message carrying its task
// token; Update applies the result only if that token is still current.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"kinship/internal/logging"
	"kinship/internal/social"
	"kinship/internal/task"
)

const (
	// GreetingID is the ID of the seeded greeting.
	GreetingID = "init"
	// SentConfirmation is appended after a suggestion chip is sent.
	SentConfirmation = "Sent. 🚀"
	// DefaultConfirmDelay is the pause before SentConfirmation appears.
	DefaultConfirmDelay = 800 * time.Millisecond

	greetingCards = 2
)

// Assistant is the subset of the gateway the conversation uses.
type Assistant interface {
	SuggestReplies(ctx context.Context, update social.Update, contact social.Contact, prefs social.Preferences) []string
	Chat(ctx context.Context, message string, updates []social.Update, contacts []social.Contact) string
}

// Recorder receives every appended message.
type Recorder interface {
	Record(m Message)
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Context      context.Context
	ConfirmDelay time.Duration
	Recorder     Recorder
	Now          func() time.Time
	NewID        func() string
}

// Controller owns the conversation state. It is not safe for concurrent use.
type Controller struct {
	ctx       context.Context
	assistant Assistant
	updates   []social.Update
	contacts  []social.Contact
	prefs     social.Preferences

	messages []Message
	input    string
	busy     bool
	tasks    task.Tracker

	confirmDelay time.Duration
	recorder     Recorder
	now          func() time.Time
	newID        func() string
}

// chatReplyMsg carries an assistant answer.
type chatReplyMsg struct {
	token task.Token
	text  string
}

// sentMsg fires after the confirmation delay.
type sentMsg struct {
	token task.Token
}

// suggestionsMsg carries reply suggestions for an update.
type suggestionsMsg struct {
	token       task.Token
	update      social.Update
	contact     social.Contact
	suggestions []string
}

// New creates a controller and seeds the greeting.
func New(a Assistant, updates []social.Update, contacts []social.Contact, prefs social.Preferences, opts Options) *Controller {
	c := &Controller{
		ctx:          opts.Context,
		assistant:    a,
		updates:      updates,
		contacts:     contacts,
		prefs:        prefs,
		confirmDelay: opts.ConfirmDelay,
		recorder:     opts.Recorder,
		now:          opts.Now,
		newID:        opts.NewID,
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	if c.confirmDelay <= 0 {
		c.confirmDelay = DefaultConfirmDelay
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	c.seed()
	return c
}

// seed adds the greeting and the first update cards to an empty conversation.
func (c *Controller) seed() {
	if len(c.messages) > 0 {
		return
	}
	now := c.now()
	c.append(NewTextMessage(GreetingID, RoleModel, now,
		fmt.Sprintf("Yo! Caught %d updates for you today. Let's lock in. 🔒", len(c.updates))))
	for i, u := range c.updates {
		if i == greetingCards {
			break
		}
		// Cards sort just after the greeting.
		at := now.Add(time.Duration(i+1) * 100 * time.Millisecond)
		c.append(NewUpdateCardMessage("update-"+u.ID, at, u))
	}
}

// Messages returns the conversation in insertion order.
func (c *Controller) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Busy reports whether a request or confirmation is outstanding.
func (c *Controller) Busy() bool { return c.busy }

// Input returns the pending input.
func (c *Controller) Input() string { return c.input }

// SetInput replaces the pending input.
func (c *Controller) SetInput(s string) { c.input = s }

// Contacts returns the contacts the conversation resolves against.
func (c *Controller) Contacts() []social.Contact { return c.contacts }

// SetContext swaps the updates and contacts used for future requests.
// Existing messages are kept.
func (c *Controller) SetContext(updates []social.Update, contacts []social.Contact) {
	c.updates = updates
	c.contacts = contacts
}

// SetPreferences replaces the preferences used for suggestions.
func (c *Controller) SetPreferences(p social.Preferences) { c.prefs = p }

// Submit sends the pending input and clears it.
func (c *Controller) Submit() tea.Cmd {
	cmd := c.SubmitText(c.input)
	if cmd != nil {
		c.input = ""
	}
	return cmd
}

// SubmitText sends text to the assistant. Blank text or a busy controller is a no-op.
func (c *Controller) SubmitText(text string) tea.Cmd {
	if strings.TrimSpace(text) == "" || c.busy {
		return nil
	}
	c.append(NewTextMessage(c.newID(), RoleUser, c.now(), text))
	c.busy = true

	ctx, tok := c.tasks.Begin(c.ctx)
	a, updates, contacts := c.assistant, c.updates, c.contacts
	logging.ChatDebug("chat request started (token=%d)", tok)
	return func() tea.Msg {
		return chatReplyMsg{token: tok, text: a.Chat(ctx, text, updates, contacts)}
	}
}

// SendReply posts a chosen suggestion and confirms after a short delay.
// No assistant call is made.
func (c *Controller) SendReply(text string) tea.Cmd {
	if strings.TrimSpace(text) == "" || c.busy {
		return nil
	}
	c.append(NewTextMessage(c.newID(), RoleUser, c.now(), text))
	c.busy = true
	logging.Chat("suggested reply sent")

	ctx, tok := c.tasks.Begin(c.ctx)
	delay := c.confirmDelay
	return func() tea.Msg {
		// A cancelled wait still reports; Update drops the stale token.
		_ = task.Sleep(ctx, delay)
		return sentMsg{token: tok}
	}
}

// RequestSuggestions asks for reply chips for update. It is a no-op when the
// update's contact is unknown or the controller is busy.
func (c *Controller) RequestSuggestions(update social.Update) tea.Cmd {
	if c.busy {
		return nil
	}
	contact, ok := social.FindContact(c.contacts, update.ContactID)
	if !ok {
		logging.ChatDebug("suggestions skipped: contact %s not found", update.ContactID)
		return nil
	}
	c.busy = true

	ctx, tok := c.tasks.Begin(c.ctx)
	a, prefs := c.assistant, c.prefs
	return func() tea.Msg {
		return suggestionsMsg{
			token:       tok,
			update:      update,
			contact:     contact,
			suggestions: a.SuggestReplies(ctx, update, contact, prefs),
		}
	}
}

// Cancel abandons the outstanding operation. Its result will be ignored.
func (c *Controller) Cancel() {
	if c.tasks.Cancel() {
		logging.ChatDebug("in-flight request cancelled")
	}
	c.busy = false
}

// Update applies a result produced by one of the controller's commands.
// It reports whether msg belonged to this controller.
func (c *Controller) Update(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case chatReplyMsg:
		if c.finish(msg.token) {
			c.append(NewTextMessage(c.newID(), RoleModel, c.now(), msg.text))
		}
	case sentMsg:
		if c.finish(msg.token) {
			c.append(NewTextMessage(c.newID(), RoleModel, c.now(), SentConfirmation))
		}
	case suggestionsMsg:
		if c.finish(msg.token) {
			heading := fmt.Sprintf("Reply to %s:", msg.contact.Name)
			c.append(NewSuggestionsMessage(c.newID(), c.now(), heading, msg.update, msg.suggestions))
		}
	default:
		return false
	}
	return true
}

func (c *Controller) finish(tok task.Token) bool {
	if !c.tasks.Finish(tok) {
		logging.ChatDebug("dropping stale result (token=%d)", tok)
		return false
	}
	c.busy = false
	return true
}

func (c *Controller) append(m Message) {
	c.messages = append(c.messages, m)
	if c.recorder != nil {
		c.recorder.Record(m)
	}
}
