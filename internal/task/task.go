// Package task tracks the single in-flight asynchronous operation owned by a
// controller. Each operation gets a Token and a context; results delivered
// back to the event loop are applied only while their token is current.
package task

import (
	"context"
	"time"
)

// Token identifies one started operation. The zero Token is never issued.
type Token uint64

// Tracker hands out tokens for at most one live operation at a time.
// It is not safe for concurrent use; it belongs to the event loop.
type Tracker struct {
	seq    Token
	live   Token
	cancel context.CancelFunc
}

// Begin cancels any live operation and starts a new one derived from parent.
func (t *Tracker) Begin(parent context.Context) (context.Context, Token) {
	t.stop()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	t.seq++
	t.live = t.seq
	t.cancel = cancel
	return ctx, t.live
}

// Cancel aborts the live operation, if any. Its token becomes stale.
// It reports whether something was cancelled.
func (t *Tracker) Cancel() bool {
	if t.live == 0 {
		return false
	}
	t.stop()
	return true
}

// Finish reports whether tok is the live operation and, if so, releases it.
// Stale tokens return false and leave the tracker unchanged.
func (t *Tracker) Finish(tok Token) bool {
	if tok == 0 || tok != t.live {
		return false
	}
	t.stop()
	return true
}

// Active reports whether an operation is live.
func (t *Tracker) Active() bool {
	return t.live != 0
}

func (t *Tracker) stop() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.live = 0
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
