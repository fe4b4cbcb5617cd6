package digest

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"kinship/internal/social"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSuggester struct {
	calls atomic.Int32
	out   []string
}

func (f *fakeSuggester) SuggestReplies(ctx context.Context, u social.Update, c social.Contact, p social.Preferences) []string {
	f.calls.Add(1)
	return f.out
}

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newDigest(s Suggester) *Controller {
	return New(s, social.DefaultUpdates(now), social.DefaultContacts(), social.DefaultPreferences(),
		Options{TransitionDelay: time.Millisecond})
}

// run executes cmd and feeds the result back.
func run(t *testing.T, c *Controller, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	assert.True(t, c.Update(cmd()))
}

func TestSkip_ReachesTerminalAndClamps(t *testing.T) {
	c := newDigest(&fakeSuggester{})
	n := c.Len()
	require.Equal(t, 4, n)

	for i := 0; i < n; i++ {
		assert.False(t, c.Done())
		run(t, c, c.Skip())
		assert.Equal(t, i+1, c.Cursor())
	}
	assert.True(t, c.Done())

	assert.Nil(t, c.Skip())
	assert.Equal(t, n, c.Cursor())
	_, _, ok := c.Current()
	assert.False(t, ok)
}

func TestSkip_DirectionAndSingleTransition(t *testing.T) {
	c := newDigest(&fakeSuggester{})
	cmd := c.Skip()
	require.NotNil(t, cmd)
	assert.Equal(t, DirectionLeft, c.Direction())
	assert.True(t, c.Transitioning())

	assert.Nil(t, c.Skip(), "second skip during transition is ignored")

	run(t, c, cmd)
	assert.Equal(t, DirectionNone, c.Direction())
	assert.Equal(t, 1, c.Cursor())
}

func TestStartReply_FetchesSuggestions(t *testing.T) {
	s := &fakeSuggester{out: []string{"a", "b", "c"}}
	c := newDigest(s)

	cmd := c.StartReply()
	require.NotNil(t, cmd)
	assert.True(t, c.Replying())
	assert.True(t, c.Loading())
	assert.Nil(t, c.StartReply(), "no second request while loading")

	run(t, c, cmd)
	assert.False(t, c.Loading())
	assert.Equal(t, []string{"a", "b", "c"}, c.Suggestions())
	assert.Equal(t, int32(1), s.calls.Load())
}

func TestSendReply_AdvancesRight(t *testing.T) {
	c := newDigest(&fakeSuggester{out: []string{"x"}})
	run(t, c, c.StartReply())

	cmd := c.SendReply("x")
	require.NotNil(t, cmd)
	assert.Equal(t, DirectionRight, c.Direction())

	run(t, c, cmd)
	assert.False(t, c.Replying())
	assert.Empty(t, c.Suggestions())
	assert.Equal(t, 1, c.Cursor())
}

func TestSendReply_RequiresOverlay(t *testing.T) {
	c := newDigest(&fakeSuggester{})
	assert.Nil(t, c.SendReply("x"))
	assert.Equal(t, 0, c.Cursor())
}

func TestStartReply_UnresolvedContactIsNoop(t *testing.T) {
	s := &fakeSuggester{out: []string{"x"}}
	updates := []social.Update{{ID: "u9", ContactID: "ghost"}}
	c := New(s, updates, social.DefaultContacts(), social.DefaultPreferences(), Options{})

	assert.Nil(t, c.StartReply())
	assert.False(t, c.Replying())
	assert.False(t, c.Loading())
	assert.Zero(t, s.calls.Load())
}

func TestStartReply_TerminalIsNoop(t *testing.T) {
	s := &fakeSuggester{}
	c := New(s, nil, social.DefaultContacts(), social.DefaultPreferences(), Options{})
	assert.True(t, c.Done())
	assert.Nil(t, c.StartReply())
	assert.False(t, c.Replying())
	assert.Zero(t, s.calls.Load())
}

func TestCloseReply_DropsLateSuggestions(t *testing.T) {
	c := newDigest(&fakeSuggester{out: []string{"late"}})
	cmd := c.StartReply()
	require.NotNil(t, cmd)

	c.CloseReply()
	assert.False(t, c.Replying())
	assert.False(t, c.Loading())

	run(t, c, cmd)
	assert.Empty(t, c.Suggestions())
	assert.False(t, c.Replying())
}

func TestSuggestionsDoNotLeakAcrossCards(t *testing.T) {
	c := newDigest(&fakeSuggester{out: []string{"for u1"}})
	stale := c.StartReply()
	c.CloseReply()
	run(t, c, c.Skip())

	c.Update(stale())
	assert.Empty(t, c.Suggestions())
	assert.Equal(t, 1, c.Cursor())
}

func TestSetUpdates_LengthChangeResets(t *testing.T) {
	c := newDigest(&fakeSuggester{out: []string{"x"}})
	run(t, c, c.Skip())
	run(t, c, c.Skip())
	pending := c.Skip()
	require.NotNil(t, pending)

	fewer := social.DefaultUpdates(now)[:3]
	c.SetUpdates(fewer, social.DefaultContacts())
	assert.Equal(t, 0, c.Cursor())
	assert.False(t, c.Transitioning())

	c.Update(pending())
	assert.Equal(t, 0, c.Cursor(), "cancelled transition must not advance")
}

func TestSetUpdates_SameLengthKeepsCursor(t *testing.T) {
	c := newDigest(&fakeSuggester{})
	run(t, c, c.Skip())

	updates := social.DefaultUpdates(now.Add(time.Hour))
	c.SetUpdates(updates, social.DefaultContacts())
	assert.Equal(t, 1, c.Cursor())
}

func TestSetUpdates_NewCurrentClosesOverlay(t *testing.T) {
	c := newDigest(&fakeSuggester{out: []string{"for u1"}})
	run(t, c, c.StartReply())
	require.Equal(t, []string{"for u1"}, c.Suggestions())

	reordered := social.DefaultUpdates(now)
	reordered[0], reordered[1] = reordered[1], reordered[0]
	c.SetUpdates(reordered, social.DefaultContacts())
	assert.False(t, c.Replying())
	assert.Empty(t, c.Suggestions())
	assert.Equal(t, 0, c.Cursor())
}

func TestSetUpdates_SameCurrentKeepsOverlay(t *testing.T) {
	c := newDigest(&fakeSuggester{out: []string{"for u1"}})
	run(t, c, c.StartReply())

	c.SetUpdates(social.DefaultUpdates(now.Add(time.Hour)), social.DefaultContacts())
	assert.True(t, c.Replying())
	assert.Equal(t, []string{"for u1"}, c.Suggestions())
}

func TestSkip_WhileReplyingClosesOverlay(t *testing.T) {
	c := newDigest(&fakeSuggester{out: []string{"for u1"}})
	pending := c.StartReply()
	require.NotNil(t, pending)

	cmd := c.Skip()
	require.NotNil(t, cmd)
	assert.False(t, c.Replying())
	assert.False(t, c.Loading())

	// The request for the skipped card arrives late and is dropped.
	c.Update(pending())
	run(t, c, cmd)
	assert.Equal(t, 1, c.Cursor())
	assert.Empty(t, c.Suggestions())
	assert.False(t, c.Replying())
}

func TestProgress(t *testing.T) {
	c := newDigest(&fakeSuggester{})
	run(t, c, c.Skip())
	want := []Stage{StageDone, StageCurrent, StagePending, StagePending}
	if diff := cmp.Diff(want, c.Progress()); diff != "" {
		t.Errorf("Progress mismatch (-want +got):\n%s", diff)
	}
}

func TestCancel_StopsTimer(t *testing.T) {
	c := New(&fakeSuggester{}, social.DefaultUpdates(now), social.DefaultContacts(), social.DefaultPreferences(),
		Options{TransitionDelay: time.Hour})
	cmd := c.Skip()
	c.Cancel()

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		c.Update(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled transition did not return")
	}
	assert.Equal(t, 0, c.Cursor())
}

func TestUpdate_ForeignMessage(t *testing.T) {
	assert.False(t, newDigest(&fakeSuggester{}).Update(struct{}{}))
}

func TestIsVisual(t *testing.T) {
	assert.True(t, IsVisual(social.Update{ImageURL: "x", Content: "short"}))
	assert.False(t, IsVisual(social.Update{Content: "short"}))
	assert.False(t, IsVisual(social.Update{ImageURL: "x", Content: strings.Repeat("a", 120)}))
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "left", DirectionLeft.String())
	assert.Equal(t, "right", DirectionRight.String())
	assert.Equal(t, "none", DirectionNone.String())
}
