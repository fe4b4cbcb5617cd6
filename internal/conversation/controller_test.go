package conversation

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"kinship/internal/social"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAssistant struct {
	chatCalls    atomic.Int32
	suggestCalls atomic.Int32
	answer       string
	suggestions  []string
}

func (f *fakeAssistant) SuggestReplies(ctx context.Context, u social.Update, c social.Contact, p social.Preferences) []string {
	f.suggestCalls.Add(1)
	return f.suggestions
}

func (f *fakeAssistant) Chat(ctx context.Context, msg string, updates []social.Update, contacts []social.Contact) string {
	f.chatCalls.Add(1)
	return f.answer
}

type memRecorder struct{ got []Message }

func (r *memRecorder) Record(m Message) { r.got = append(r.got, m) }

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, a Assistant, opts Options) *Controller {
	t.Helper()
	var n int
	if opts.NewID == nil {
		opts.NewID = func() string { n++; return fmt.Sprintf("m%d", n) }
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.ConfirmDelay == 0 {
		opts.ConfirmDelay = time.Millisecond
	}
	return New(a, social.DefaultUpdates(fixedNow), social.DefaultContacts(), social.DefaultPreferences(), opts)
}

func TestNew_SeedsGreetingAndCards(t *testing.T) {
	c := newTestController(t, &fakeAssistant{}, Options{})
	msgs := c.Messages()
	require.Len(t, msgs, 3)

	greeting, ok := msgs[0].(*TextMessage)
	require.True(t, ok)
	assert.Equal(t, GreetingID, greeting.ID())
	assert.Equal(t, RoleModel, greeting.Role())
	assert.Equal(t, "Yo! Caught 4 updates for you today. Let's lock in. 🔒", greeting.Text)

	card, ok := msgs[1].(*UpdateCardMessage)
	require.True(t, ok)
	assert.Equal(t, "update-u1", card.ID())
	assert.Equal(t, "u1", card.Update.ID)
	assert.Equal(t, "update-u2", msgs[2].ID())
	assert.True(t, msgs[2].Time().After(msgs[1].Time()))
}

func TestNew_FewerUpdatesThanCards(t *testing.T) {
	c := New(&fakeAssistant{}, nil, social.DefaultContacts(), social.DefaultPreferences(), Options{})
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Yo! Caught 0 updates for you today. Let's lock in. 🔒", Text(msgs[0]))
}

func TestSubmit_BlankIsNoop(t *testing.T) {
	a := &fakeAssistant{answer: "hi"}
	c := newTestController(t, a, Options{})
	before := len(c.Messages())

	assert.Nil(t, c.SubmitText(""))
	assert.Nil(t, c.SubmitText("   "))
	c.SetInput("\t\n")
	assert.Nil(t, c.Submit())

	assert.Len(t, c.Messages(), before)
	assert.False(t, c.Busy())
	assert.Equal(t, "\t\n", c.Input(), "rejected input is kept")
	assert.Zero(t, a.chatCalls.Load())
}

func TestSubmit_RoundTrip(t *testing.T) {
	a := &fakeAssistant{answer: "Hardik is in Ladakh."}
	c := newTestController(t, a, Options{})
	c.SetInput("what's new?")

	cmd := c.Submit()
	require.NotNil(t, cmd)
	assert.Equal(t, "", c.Input())
	assert.True(t, c.Busy())

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	user := msgs[3].(*TextMessage)
	assert.Equal(t, RoleUser, user.Role())
	assert.Equal(t, "what's new?", user.Text)

	assert.True(t, c.Update(cmd()))
	assert.False(t, c.Busy())
	msgs = c.Messages()
	require.Len(t, msgs, 5)
	reply := msgs[4].(*TextMessage)
	assert.Equal(t, RoleModel, reply.Role())
	assert.Equal(t, "Hardik is in Ladakh.", reply.Text)
	assert.Equal(t, int32(1), a.chatCalls.Load())
}

func TestSubmit_WhileBusyIsNoop(t *testing.T) {
	a := &fakeAssistant{answer: "ok"}
	c := newTestController(t, a, Options{})
	before := len(c.Messages())

	first := c.SubmitText("one")
	second := c.SubmitText("two")
	require.NotNil(t, first)
	assert.Nil(t, second)
	assert.Len(t, c.Messages(), before+1)
}

func TestSendReply_Confirms(t *testing.T) {
	a := &fakeAssistant{}
	c := newTestController(t, a, Options{})

	cmd := c.SendReply("Looks amazing!")
	require.NotNil(t, cmd)
	assert.True(t, c.Busy())
	assert.Nil(t, c.SubmitText("blocked"))

	assert.True(t, c.Update(cmd()))
	msgs := c.Messages()
	assert.Equal(t, "Looks amazing!", Text(msgs[len(msgs)-2]))
	assert.Equal(t, SentConfirmation, Text(msgs[len(msgs)-1]))
	assert.Equal(t, RoleModel, msgs[len(msgs)-1].Role())
	assert.False(t, c.Busy())
	assert.Zero(t, a.chatCalls.Load())
	assert.Zero(t, a.suggestCalls.Load())
}

func TestSendReply_BlankIsNoop(t *testing.T) {
	c := newTestController(t, &fakeAssistant{}, Options{})
	c.SetInput("draft")
	assert.Nil(t, c.SendReply(""))
	assert.Equal(t, "draft", c.Input())
}

func TestRequestSuggestions(t *testing.T) {
	a := &fakeAssistant{suggestions: []string{"Love it!", "What model?", "Nice"}}
	c := newTestController(t, a, Options{})
	u := social.DefaultUpdates(fixedNow)[1]

	cmd := c.RequestSuggestions(u)
	require.NotNil(t, cmd)
	assert.True(t, c.Busy())
	assert.True(t, c.Update(cmd()))

	msgs := c.Messages()
	sm, ok := msgs[len(msgs)-1].(*SuggestionsMessage)
	require.True(t, ok)
	assert.Equal(t, "Reply to Arpit:", sm.Heading)
	assert.Equal(t, []string{"Love it!", "What model?", "Nice"}, sm.Suggestions)
	assert.Equal(t, "u2", sm.Update.ID)
	assert.False(t, c.Busy())
}

func TestRequestSuggestions_UnknownContact(t *testing.T) {
	a := &fakeAssistant{suggestions: []string{"x"}}
	c := newTestController(t, a, Options{})
	before := len(c.Messages())

	cmd := c.RequestSuggestions(social.Update{ID: "zz", ContactID: "nobody"})
	assert.Nil(t, cmd)
	assert.False(t, c.Busy())
	assert.Len(t, c.Messages(), before)
	assert.Zero(t, a.suggestCalls.Load())
}

func TestRequestSuggestions_WhileBusy(t *testing.T) {
	a := &fakeAssistant{answer: "ok"}
	c := newTestController(t, a, Options{})
	require.NotNil(t, c.SubmitText("hi"))
	assert.Nil(t, c.RequestSuggestions(social.DefaultUpdates(fixedNow)[0]))
}

func TestCancel_DiscardsStaleResult(t *testing.T) {
	a := &fakeAssistant{answer: "late"}
	c := newTestController(t, a, Options{})

	cmd := c.SubmitText("hello")
	require.NotNil(t, cmd)
	before := len(c.Messages())

	c.Cancel()
	assert.False(t, c.Busy())

	assert.True(t, c.Update(cmd()), "message is still recognised")
	assert.Len(t, c.Messages(), before, "stale answer is dropped")
}

func TestCancel_SendReplyWakesEarly(t *testing.T) {
	c := newTestController(t, &fakeAssistant{}, Options{ConfirmDelay: time.Hour})
	cmd := c.SendReply("hey")
	require.NotNil(t, cmd)
	c.Cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Update(cmd())
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled confirmation did not return")
	}
	assert.NotEqual(t, SentConfirmation, Text(c.Messages()[len(c.Messages())-1]))
}

func TestSupersededResultIgnored(t *testing.T) {
	a := &fakeAssistant{answer: "first"}
	c := newTestController(t, a, Options{})

	stale := c.SubmitText("one")
	c.Cancel()
	fresh := c.SubmitText("two")
	require.NotNil(t, fresh)

	c.Update(stale())
	assert.True(t, c.Busy(), "stale result must not clear busy")
	c.Update(fresh())
	assert.False(t, c.Busy())
}

func TestUpdate_ForeignMessage(t *testing.T) {
	c := newTestController(t, &fakeAssistant{}, Options{})
	assert.False(t, c.Update("not ours"))
}

func TestRecorderSeesEveryMessage(t *testing.T) {
	rec := &memRecorder{}
	c := newTestController(t, &fakeAssistant{answer: "sure"}, Options{Recorder: rec})
	c.Update(c.SubmitText("hey")())

	require.Len(t, rec.got, len(c.Messages()))
	for i, m := range c.Messages() {
		assert.Equal(t, m.ID(), rec.got[i].ID())
	}
}

func TestMessageIDsUnique(t *testing.T) {
	c := New(&fakeAssistant{answer: "a", suggestions: []string{"s"}}, social.DefaultUpdates(fixedNow), social.DefaultContacts(), social.DefaultPreferences(), Options{ConfirmDelay: time.Millisecond})
	c.Update(c.SubmitText("q")())
	c.Update(c.RequestSuggestions(social.DefaultUpdates(fixedNow)[0])())
	c.Update(c.SendReply("s")())

	seen := map[string]bool{}
	for _, m := range c.Messages() {
		assert.False(t, seen[m.ID()], "duplicate id %s", m.ID())
		seen[m.ID()] = true
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "text", Kind(NewTextMessage("a", RoleUser, fixedNow, "x")))
	assert.Equal(t, "update_card", Kind(NewUpdateCardMessage("b", fixedNow, social.Update{})))
	assert.Equal(t, "suggestions", Kind(NewSuggestionsMessage("c", fixedNow, "h", social.Update{}, nil)))
}
