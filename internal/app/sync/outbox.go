package sync

import (
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
)

// OpKind identifies the remote operation an outbox entry stands for.
type OpKind string

const (
	// OpListUpsert pushes the current state of one scan list.
	OpListUpsert OpKind = "LIST_UPSERT"

	// OpOrderReplace swaps every remote list for an order with the local set.
	OpOrderReplace OpKind = "ORDER_REPLACE"

	// OpOrderDelete removes every remote list for an order.
	OpOrderDelete OpKind = "ORDER_DELETE"
)

// Operation is one queued remote mutation. Entries carry identity only; the
// executor loads the current local state at push time, so a delayed retry
// pushes the latest aggregates rather than a stale snapshot.
type Operation struct {
	ID            uuid.UUID
	Kind          OpKind
	ListID        uuid.UUID // set for OpListUpsert
	OrderID       string
	Attempts      int
	EnqueuedAt    time.Time
	NextAttemptAt time.Time
	LastError     string

	bo backoff.BackOff
}

// Outbox is the retry queue between local mutations and the remote store.
// Failed pushes stay queued with exponential backoff until they succeed or
// exhaust their attempts and land in the dead-letter set for manual retry.
type Outbox struct {
	mu      sync.Mutex
	pending []*Operation
	dead    []*Operation

	maxAttempts int
	newBackOff  func() backoff.BackOff
	now         func() time.Time
}

// OutboxOption configures an Outbox.
type OutboxOption func(*Outbox)

// WithMaxAttempts overrides the attempt budget before dead-lettering.
func WithMaxAttempts(n int) OutboxOption {
	return func(o *Outbox) { o.maxAttempts = n }
}

// WithBackOffFactory overrides the per-operation backoff policy.
func WithBackOffFactory(f func() backoff.BackOff) OutboxOption {
	return func(o *Outbox) { o.newBackOff = f }
}

// WithClock overrides the outbox clock for tests.
func WithClock(now func() time.Time) OutboxOption {
	return func(o *Outbox) { o.now = now }
}

const defaultMaxAttempts = 8

// NewOutbox creates an empty outbox.
func NewOutbox(opts ...OutboxOption) *Outbox {
	o := &Outbox{
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 2 * time.Second
			bo.MaxInterval = 5 * time.Minute
			bo.MaxElapsedTime = 0 // attempts are bounded, elapsed time is not
			return bo
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EnqueueListUpsert queues a push of one scan list. A pending push for the
// same list is collapsed; the executor reads current state anyway.
func (o *Outbox) EnqueueListUpsert(listID uuid.UUID, orderID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, op := range o.pending {
		if op.Kind == OpListUpsert && op.ListID == listID {
			return
		}
		// A queued full replace already carries every list of the order.
		if op.Kind == OpOrderReplace && op.OrderID == orderID {
			return
		}
	}
	o.push(&Operation{Kind: OpListUpsert, ListID: listID, OrderID: orderID})
}

// EnqueueOrderReplace queues a full remote swap for an order. Pending per-list
// pushes for the order are dropped; the replace supersedes them.
func (o *Outbox) EnqueueOrderReplace(orderID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.dropOrderOps(orderID)
	o.push(&Operation{Kind: OpOrderReplace, OrderID: orderID})
}

// EnqueueOrderDelete queues a remote wipe for an order, superseding any
// pending pushes for it.
func (o *Outbox) EnqueueOrderDelete(orderID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.dropOrderOps(orderID)
	o.push(&Operation{Kind: OpOrderDelete, OrderID: orderID})
}

func (o *Outbox) dropOrderOps(orderID string) {
	kept := o.pending[:0]
	for _, op := range o.pending {
		if op.OrderID != orderID {
			kept = append(kept, op)
		}
	}
	o.pending = kept
}

func (o *Outbox) push(op *Operation) {
	now := o.now()
	op.ID = uuid.New()
	op.EnqueuedAt = now
	op.NextAttemptAt = now
	op.bo = o.newBackOff()
	o.pending = append(o.pending, op)
}

// Due returns the operations ready for an attempt, oldest first.
func (o *Outbox) Due() []*Operation {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	var due []*Operation
	for _, op := range o.pending {
		if !op.NextAttemptAt.After(now) {
			due = append(due, op)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].EnqueuedAt.Before(due[j].EnqueuedAt) })
	return due
}

// MarkSucceeded removes a completed operation from the queue.
func (o *Outbox) MarkSucceeded(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, op := range o.pending {
		if op.ID == id {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return
		}
	}
}

// MarkFailed records a failed attempt, scheduling the next one with backoff or
// dead-lettering the operation once its attempt budget is spent. It reports
// whether the operation was dead-lettered.
func (o *Outbox) MarkFailed(id uuid.UUID, attemptErr error) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, op := range o.pending {
		if op.ID != id {
			continue
		}
		op.Attempts++
		op.LastError = attemptErr.Error()

		delay := op.bo.NextBackOff()
		if op.Attempts >= o.maxAttempts || delay == backoff.Stop {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			o.dead = append(o.dead, op)
			return true
		}
		op.NextAttemptAt = o.now().Add(delay)
		return false
	}
	return false
}

// Len returns the number of pending operations.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// DeadLetters returns a snapshot of the operations that exhausted their
// attempts.
func (o *Outbox) DeadLetters() []Operation {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Operation, 0, len(o.dead))
	for _, op := range o.dead {
		out = append(out, *op)
	}
	return out
}

// RetryDead moves every dead-lettered operation back into the queue with a
// fresh attempt budget. It returns the number of requeued operations.
func (o *Outbox) RetryDead() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := len(o.dead)
	now := o.now()
	for _, op := range o.dead {
		op.Attempts = 0
		op.LastError = ""
		op.NextAttemptAt = now
		op.bo = o.newBackOff()
		o.pending = append(o.pending, op)
	}
	o.dead = nil
	return n
}
