// Package digest implements the story-style digest: one update at a time,
// skipped or replied to, until the cursor runs off the end ("all caught up").
package digest

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"kinship/internal/logging"
	"kinship/internal/social"
	"kinship/internal/task"
)

// DefaultTransitionDelay is how long a card swipes before the cursor moves.
const DefaultTransitionDelay = 200 * time.Millisecond

// Direction is the swipe direction of the card transition.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	}
	return "none"
}

// Stage is a story bar's state relative to the cursor.
type Stage int

const (
	StagePending Stage = iota
	StageCurrent
	StageDone
)

// Suggester produces reply suggestions.
type Suggester interface {
	SuggestReplies(ctx context.Context, update social.Update, contact social.Contact, prefs social.Preferences) []string
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Context         context.Context
	TransitionDelay time.Duration
}

// Controller owns the digest state. It is not safe for concurrent use.
type Controller struct {
	ctx       context.Context
	suggester Suggester
	updates   []social.Update
	contacts  []social.Contact
	prefs     social.Preferences
	delay     time.Duration

	cursor      int
	replying    bool
	suggestions []string
	loading     bool
	direction   Direction

	transition task.Tracker
	request    task.Tracker
}

// advanceMsg fires when a transition completes.
type advanceMsg struct {
	token task.Token
	reply bool
}

// suggestionsMsg carries suggestions for the card that was current when requested.
type suggestionsMsg struct {
	token       task.Token
	suggestions []string
}

// New creates a digest positioned at the first update.
func New(s Suggester, updates []social.Update, contacts []social.Contact, prefs social.Preferences, opts Options) *Controller {
	c := &Controller{
		ctx:       opts.Context,
		suggester: s,
		updates:   updates,
		contacts:  contacts,
		prefs:     prefs,
		delay:     opts.TransitionDelay,
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	if c.delay <= 0 {
		c.delay = DefaultTransitionDelay
	}
	return c
}

// Cursor returns the index of the current update.
func (c *Controller) Cursor() int { return c.cursor }

// Len returns the number of updates in the digest.
func (c *Controller) Len() int { return len(c.updates) }

// Done reports whether every update has been handled.
func (c *Controller) Done() bool { return c.cursor >= len(c.updates) }

// Replying reports whether the reply overlay is open.
func (c *Controller) Replying() bool { return c.replying }

// Loading reports whether suggestions are being fetched.
func (c *Controller) Loading() bool { return c.loading }

// Suggestions returns the suggestions for the open overlay.
func (c *Controller) Suggestions() []string { return c.suggestions }

// Direction returns the direction of the pending transition.
func (c *Controller) Direction() Direction { return c.direction }

// Transitioning reports whether a swipe is in flight.
func (c *Controller) Transitioning() bool { return c.transition.Active() }

// Current returns the update under the cursor and its contact.
// ok is false at the terminal position or when the contact does not resolve.
func (c *Controller) Current() (social.Update, social.Contact, bool) {
	if c.Done() {
		return social.Update{}, social.Contact{}, false
	}
	u := c.updates[c.cursor]
	contact, ok := social.FindContact(c.contacts, u.ContactID)
	return u, contact, ok
}

// Progress returns one stage per update for the story bars.
func (c *Controller) Progress() []Stage {
	out := make([]Stage, len(c.updates))
	for i := range c.updates {
		switch {
		case i < c.cursor:
			out[i] = StageDone
		case i == c.cursor:
			out[i] = StageCurrent
		default:
			out[i] = StagePending
		}
	}
	return out
}

// SetUpdates replaces the update list. A change in length resets the cursor
// and abandons in-flight work. With the length unchanged, an open overlay is
// closed when a different update lands under the cursor.
func (c *Controller) SetUpdates(updates []social.Update, contacts []social.Contact) {
	lengthChanged := len(updates) != len(c.updates)
	before, hadCurrent := c.currentID()
	c.updates = updates
	c.contacts = contacts
	if !lengthChanged {
		if after, ok := c.currentID(); hadCurrent && (!ok || after != before) {
			c.CloseReply()
		}
		return
	}
	logging.Digest("digest reset: %d updates", len(updates))
	c.Cancel()
	c.cursor = 0
}

func (c *Controller) currentID() (string, bool) {
	if c.Done() {
		return "", false
	}
	return c.updates[c.cursor].ID, true
}

// SetPreferences replaces the preferences used for suggestions.
func (c *Controller) SetPreferences(p social.Preferences) { c.prefs = p }

// Skip swipes the current card away to the left. An open overlay is closed
// and its pending request dropped.
func (c *Controller) Skip() tea.Cmd {
	if c.Done() || c.transition.Active() {
		return nil
	}
	if c.replying {
		c.CloseReply()
	}
	return c.startTransition(DirectionLeft, false)
}

// StartReply opens the reply overlay and fetches suggestions for the current
// update. It changes nothing at the terminal position, while the overlay is
// already open, or when the current contact does not resolve.
func (c *Controller) StartReply() tea.Cmd {
	if c.loading || c.replying || c.transition.Active() {
		return nil
	}
	u, contact, ok := c.Current()
	if !ok {
		return nil
	}
	c.replying = true
	c.loading = true
	c.suggestions = nil

	ctx, tok := c.request.Begin(c.ctx)
	s, prefs := c.suggester, c.prefs
	logging.DigestDebug("fetching suggestions for %s", u.ID)
	return func() tea.Msg {
		return suggestionsMsg{token: tok, suggestions: s.SuggestReplies(ctx, u, contact, prefs)}
	}
}

// SendReply sends choice and swipes the card away to the right.
// The choice itself goes nowhere: delivery to real channels is out of scope.
func (c *Controller) SendReply(choice string) tea.Cmd {
	if !c.replying || c.loading || c.Done() || c.transition.Active() {
		return nil
	}
	logging.Digest("reply sent for update %s", c.updates[c.cursor].ID)
	return c.startTransition(DirectionRight, true)
}

// CloseReply dismisses the overlay and drops any pending suggestion request.
func (c *Controller) CloseReply() {
	c.request.Cancel()
	c.replying = false
	c.loading = false
	c.suggestions = nil
}

// Cancel abandons every in-flight operation and closes the overlay.
func (c *Controller) Cancel() {
	c.transition.Cancel()
	c.direction = DirectionNone
	c.CloseReply()
}

// Update applies a result produced by one of the controller's commands.
// It reports whether msg belonged to this controller.
func (c *Controller) Update(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case advanceMsg:
		if !c.transition.Finish(msg.token) {
			return true
		}
		if msg.reply {
			c.replying = false
			c.suggestions = nil
		}
		c.direction = DirectionNone
		if c.cursor < len(c.updates) {
			c.cursor++
		}
		if c.Done() {
			logging.Digest("digest complete")
		}
	case suggestionsMsg:
		if !c.request.Finish(msg.token) {
			return true
		}
		c.suggestions = msg.suggestions
		c.loading = false
	default:
		return false
	}
	return true
}

func (c *Controller) startTransition(dir Direction, reply bool) tea.Cmd {
	c.direction = dir
	ctx, tok := c.transition.Begin(c.ctx)
	delay := c.delay
	return func() tea.Msg {
		_ = task.Sleep(ctx, delay)
		return advanceMsg{token: tok, reply: reply}
	}
}

// IsVisual reports whether an update is best shown image-first:
// it has an image and short content.
func IsVisual(u social.Update) bool {
	return u.ImageURL != "" && len([]rune(u.Content)) < 120
}
