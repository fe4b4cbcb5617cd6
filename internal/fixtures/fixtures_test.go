package fixtures

import (
	"context"
	"os"
	"path/filepath"
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

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const sampleYAML = `
contacts:
  - id: c1
    name: Hardik
    circle: Close Friends
    channels: [Instagram, WhatsApp]
  - id: c9
    name: Priya
    circle: Work
    channels: [LinkedIn]
updates:
  - id: u1
    contact_id: c1
    type: post
    channel: Instagram
    content: Back from Ladakh
    age: 2h
    priority_score: 95
  - id: u2
    contact_id: c9
    type: event
    channel: LinkedIn
    content: Started a new role
    timestamp: 2025-05-31T08:00:00Z
    summary: Job change
`

func TestParse(t *testing.T) {
	set, err := Parse([]byte(sampleYAML), now)
	require.NoError(t, err)

	require.Len(t, set.Contacts, 2)
	assert.Equal(t, social.CircleWork, set.Contacts[1].Circle)
	assert.Equal(t, []social.Channel{social.ChannelInstagram, social.ChannelWhatsApp}, set.Contacts[0].Channels)

	require.Len(t, set.Updates, 2)
	assert.Equal(t, now.Add(-2*time.Hour), set.Updates[0].Timestamp)
	assert.Equal(t, time.Date(2025, 5, 31, 8, 0, 0, 0, time.UTC), set.Updates[1].Timestamp)
	assert.Equal(t, "Job change", set.Updates[1].Summary)
	assert.Equal(t, social.UpdateEvent, set.Updates[1].Type)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown contact", "contacts: []\nupdates:\n  - {id: u1, contact_id: zz, type: post, channel: SMS}\n", ErrUnknownContact},
		{"duplicate contact", "contacts:\n  - {id: c1, circle: Family}\n  - {id: c1, circle: Family}\n", ErrDuplicateID},
		{"duplicate update", "contacts:\n  - {id: c1, circle: Family}\nupdates:\n  - {id: u1, contact_id: c1, type: post, channel: SMS}\n  - {id: u1, contact_id: c1, type: post, channel: SMS}\n", ErrDuplicateID},
		{"bad circle", "contacts:\n  - {id: c1, circle: Rivals}\n", ErrInvalidField},
		{"bad channel", "contacts:\n  - {id: c1, circle: Family, channels: [Fax]}\n", ErrInvalidField},
		{"bad type", "contacts:\n  - {id: c1, circle: Family}\nupdates:\n  - {id: u1, contact_id: c1, type: poke, channel: SMS}\n", ErrInvalidField},
		{"bad priority", "contacts:\n  - {id: c1, circle: Family}\nupdates:\n  - {id: u1, contact_id: c1, type: post, channel: SMS, priority_score: 101}\n", ErrInvalidField},
		{"bad age", "contacts:\n  - {id: c1, circle: Family}\nupdates:\n  - {id: u1, contact_id: c1, type: post, channel: SMS, age: yesterday}\n", ErrInvalidField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), now)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := Parse([]byte("contacts: [unclosed"), now)
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default(now).Validate())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), now)
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	w.debounceDur = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// An invalid edit is rejected.
	require.NoError(t, os.WriteFile(path, []byte("contacts:\n  - {id: c1, circle: Rivals}\n"), 0644))
	require.Eventually(t, func() bool { return w.Stats().Rejected >= 1 }, 3*time.Second, 20*time.Millisecond)

	// A valid edit is published.
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))
	deadline := time.After(3 * time.Second)
	for got := false; !got; {
		select {
		case set := <-w.Reloads():
			// A truncate can surface as an empty set before the full write lands.
			got = len(set.Updates) == 2
		case <-deadline:
			t.Fatal("no reload published")
		}
	}
	assert.GreaterOrEqual(t, w.Stats().Reloads, 1)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	w.debounceDur = 10 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, w.Stats().Events)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "f.yaml"))
	require.NoError(t, err)
	w.Stop()
}
