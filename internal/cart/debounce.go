package cart

import (
	"context"
	"sync"
	"time"
)

// DefaultCommitDelay is how long a quantity stepper settles before its
// value is committed to the backend.
const DefaultCommitDelay = 350 * time.Millisecond

// CommitFunc sends one quantity value to the backend.
type CommitFunc func(ctx context.Context, quantity int) error

// QuantityCommitter coalesces rapid quantity changes into single backend
// commits. It is an explicit state machine:
//
//	idle -> scheduled (a change armed the delay timer)
//	scheduled -> in-flight (the timer fired, or an explicit commit bypassed it)
//	in-flight -> idle (the commit resolved; a queued value re-flushes first)
//
// It holds at most one queued value: the latest request wins and
// intermediate values are dropped. A commit is skipped when the queued
// value equals the last value actually sent.
//
// An in-flight commit always runs to completion; Close only disarms the
// timer, it never aborts the network call.
type QuantityCommitter struct {
	commit CommitFunc
	delay  time.Duration

	mu            sync.Mutex
	timer         *time.Timer
	queued        *int
	lastCommitted int
	inFlight      bool
	quantity      int
	editing       bool
	lastErr       error
}

// NewQuantityCommitter creates a committer seeded with the line item's
// current quantity. A non-positive delay falls back to DefaultCommitDelay.
func NewQuantityCommitter(initial int, delay time.Duration, commit CommitFunc) *QuantityCommitter {
	if delay <= 0 {
		delay = DefaultCommitDelay
	}
	return &QuantityCommitter{
		commit:        commit,
		delay:         delay,
		lastCommitted: initial,
		quantity:      initial,
	}
}

// Change records a user-driven quantity change and (re)schedules the
// commit: the pending target is replaced and the delay restarts.
func (q *QuantityCommitter) Change(quantity int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.quantity = quantity
	q.queued = &quantity
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.delay, func() { q.flush(context.Background()) })
}

// Commit bypasses the delay and flushes the given value immediately.
// Used when the input loses focus or the user confirms explicitly.
func (q *QuantityCommitter) Commit(quantity int) {
	q.mu.Lock()
	q.quantity = quantity
	q.queued = &quantity
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()
	q.flush(context.Background())
}

// flush sends the queued value if there is one worth sending. While a
// commit is in flight a newly queued value stays put; it is flushed
// immediately after the in-flight commit resolves.
func (q *QuantityCommitter) flush(ctx context.Context) {
	q.mu.Lock()
	if q.inFlight {
		q.mu.Unlock()
		return
	}
	if q.queued == nil || *q.queued == q.lastCommitted {
		q.queued = nil
		q.mu.Unlock()
		return
	}
	value := *q.queued
	q.queued = nil
	q.lastCommitted = value
	q.inFlight = true
	q.mu.Unlock()

	err := q.commit(ctx, value)

	q.mu.Lock()
	q.lastErr = err
	q.inFlight = false
	requeued := q.queued != nil
	q.mu.Unlock()

	if requeued {
		q.flush(ctx)
	}
}

// Sync adopts the authoritative quantity from a freshly fetched cart.
// The displayed value only follows when the user is not mid-edit.
func (q *QuantityCommitter) Sync(authoritative int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lastCommitted = authoritative
	if !q.editing {
		q.quantity = authoritative
	}
}

// BeginEdit marks the input as focused.
func (q *QuantityCommitter) BeginEdit() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.editing = true
}

// EndEdit marks the input as blurred.
func (q *QuantityCommitter) EndEdit() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.editing = false
}

// Quantity returns the last user-entered value, regardless of backend
// confirmation.
func (q *QuantityCommitter) Quantity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.quantity
}

// Err returns the error of the most recent commit, if any.
func (q *QuantityCommitter) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

// Close disarms the pending timer on teardown. An in-flight commit is
// left to run to completion.
func (q *QuantityCommitter) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}
