// Package store persists conversation transcripts in SQLite so past sessions
// can be listed and replayed from the command line.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"kinship/internal/conversation"
	"kinship/internal/logging"
)

// Turn is one persisted conversation message.
type Turn struct {
	SessionID   string
	Seq         int
	MessageID   string
	Role        string
	Kind        string
	Text        string
	UpdateID    string
	Suggestions []string
	CreatedAt   time.Time
}

// SessionSummary describes one stored session.
type SessionSummary struct {
	SessionID string
	Turns     int
	StartedAt time.Time
	LastAt    time.Time
}

// writeQueueSize bounds turns waiting for the writer. Beyond it, turns are dropped.
const writeQueueSize = 256

// TranscriptStore is a SQLite-backed transcript log. Turns recorded through a
// Recorder are written by a background writer so callers never wait on disk.
type TranscriptStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string

	qmu    sync.Mutex
	closed bool
	writes chan writeOp
	done   chan struct{}
}

// writeOp is a queued turn, or a flush barrier when flushed is set.
type writeOp struct {
	turn    Turn
	flushed chan struct{}
}

// NewTranscriptStore opens (or creates) the database at path.
// ":memory:" is accepted for tests.
func NewTranscriptStore(path string) (*TranscriptStore, error) {
	if path != ":memory:" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	s := &TranscriptStore{
		db:     db,
		dbPath: path,
		writes: make(chan writeOp, writeQueueSize),
		done:   make(chan struct{}),
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	go s.runWriter()

	logging.Store("transcript store opened: %s", path)
	return s, nil
}

func (s *TranscriptStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcript (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		message_id TEXT NOT NULL,
		role TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT,
		update_id TEXT,
		suggestions_json TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(session_id, message_id)
	);
	CREATE INDEX IF NOT EXISTS idx_transcript_session ON transcript(session_id, seq);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create transcript table: %w", err)
	}
	return nil
}

// Path returns the database location.
func (s *TranscriptStore) Path() string {
	return s.dbPath
}

// Close drains queued turns, stops the writer and closes the database.
func (s *TranscriptStore) Close() error {
	s.qmu.Lock()
	if !s.closed {
		s.closed = true
		close(s.writes)
	}
	s.qmu.Unlock()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Flush blocks until every turn queued before the call is written.
func (s *TranscriptStore) Flush() {
	s.qmu.Lock()
	if s.closed {
		s.qmu.Unlock()
		return
	}
	flushed := make(chan struct{})
	s.writes <- writeOp{flushed: flushed}
	s.qmu.Unlock()
	<-flushed
}

// enqueue hands t to the writer without blocking. It reports whether the turn
// was accepted.
func (s *TranscriptStore) enqueue(t Turn) bool {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.writes <- writeOp{turn: t}:
		return true
	default:
		return false
	}
}

func (s *TranscriptStore) runWriter() {
	defer close(s.done)
	for op := range s.writes {
		if op.flushed != nil {
			close(op.flushed)
			continue
		}
		_ = s.AppendTurn(op.turn)
	}
}

// AppendTurn stores a turn. A turn whose message ID is already stored for the
// session is ignored.
func (s *TranscriptStore) AppendTurn(t Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var suggestions []byte
	if len(t.Suggestions) > 0 {
		var err error
		suggestions, err = json.Marshal(t.Suggestions)
		if err != nil {
			return fmt.Errorf("failed to encode suggestions: %w", err)
		}
	}

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO transcript (session_id, seq, message_id, role, kind, text, update_id, suggestions_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.Seq, t.MessageID, t.Role, t.Kind, t.Text, t.UpdateID, string(suggestions),
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		logging.StoreError("failed to store turn: session=%s message=%s: %v", t.SessionID, t.MessageID, err)
		return err
	}
	logging.StoreDebug("turn stored: session=%s seq=%d kind=%s", t.SessionID, t.Seq, t.Kind)
	return nil
}

// History returns the turns of a session in order. limit <= 0 means all.
func (s *TranscriptStore) History(sessionID string, limit int) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT session_id, seq, message_id, role, kind, text, update_id, suggestions_json, created_at
		 FROM transcript
		 WHERE session_id = ?
		 ORDER BY seq ASC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var text, updateID, suggestions sql.NullString
		var createdAt string
		if err := rows.Scan(&t.SessionID, &t.Seq, &t.MessageID, &t.Role, &t.Kind, &text, &updateID, &suggestions, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Text = text.String
		t.UpdateID = updateID.String
		if suggestions.String != "" {
			if err := json.Unmarshal([]byte(suggestions.String), &t.Suggestions); err != nil {
				logging.StoreError("corrupt suggestions for %s: %v", t.MessageID, err)
			}
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Sessions lists stored sessions, most recent first.
func (s *TranscriptStore) Sessions(limit int) ([]SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT session_id, COUNT(*), MIN(created_at), MAX(created_at)
		 FROM transcript
		 GROUP BY session_id
		 ORDER BY MAX(created_at) DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		var first, last string
		if err := rows.Scan(&ss.SessionID, &ss.Turns, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ss.StartedAt, _ = time.Parse(time.RFC3339Nano, first)
		ss.LastAt, _ = time.Parse(time.RFC3339Nano, last)
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Recorder writes a conversation's messages to one session.
type Recorder struct {
	store     *TranscriptStore
	sessionID string
	seq       int
}

// Session returns a recorder for sessionID. It satisfies conversation.Recorder.
func (s *TranscriptStore) Session(sessionID string) *Recorder {
	return &Recorder{store: s, sessionID: sessionID}
}

// SessionID returns the session the recorder writes to.
func (r *Recorder) SessionID() string { return r.sessionID }

// Record queues m for the background writer and returns immediately.
// Failures are logged, never returned: the transcript is best effort and must
// not disturb the conversation.
func (r *Recorder) Record(m conversation.Message) {
	r.seq++
	t := Turn{
		SessionID: r.sessionID,
		Seq:       r.seq,
		MessageID: m.ID(),
		Role:      string(m.Role()),
		Kind:      conversation.Kind(m),
		Text:      conversation.Text(m),
		CreatedAt: m.Time(),
	}
	switch v := m.(type) {
	case *conversation.UpdateCardMessage:
		t.UpdateID = v.Update.ID
	case *conversation.SuggestionsMessage:
		t.UpdateID = v.Update.ID
		t.Suggestions = v.Suggestions
	}
	if !r.store.enqueue(t) {
		logging.StoreError("transcript queue unavailable, dropped turn: session=%s message=%s", t.SessionID, t.MessageID)
	}
}
