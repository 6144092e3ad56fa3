package ledger

import "github.com/google/uuid"

// Event payloads. All payloads are immutable values carrying row ids and,
// where cheap to provide, the written values. Handlers run synchronously on
// the call stack of the mutation that caused them, strictly after the
// mutation is durably applied; the engine is not reentrant-safe, so handlers
// must not issue nested mutating calls.

// AccountAdded fires after a new account row is committed.
type AccountAdded struct {
	ID   int64
	Name string
}

// AccountUpdated fires after exactly one account row changed.
type AccountUpdated struct {
	ID int64
}

// AccountRemoved fires after an account row (and, by cascade, its
// transactions) was deleted.
type AccountRemoved struct {
	ID int64
}

// SecurityAdded fires after a new security row is committed.
type SecurityAdded struct {
	ID     int64
	Symbol string
}

// SecurityUpdated fires after exactly one security row changed.
type SecurityUpdated struct {
	ID int64
}

// SecurityRemoved fires after a security row (and its price history) was
// deleted.
type SecurityRemoved struct {
	ID int64
}

// PriceSet fires after a price upsert.
type PriceSet struct {
	SecurityID int64
	Date       int64
	Price      int64
}

// PriceRemoved fires after a price row was deleted.
type PriceRemoved struct {
	SecurityID int64
	Date       int64
}

// TransactionAdded fires exactly once after a compound add-transaction
// operation released its savepoint.
type TransactionAdded struct {
	ID        int64
	AccountID int64
	Action    Action
}

// TransactionUpdated fires after exactly one transaction or detail row
// changed.
type TransactionUpdated struct {
	ID int64
}

// TransactionRemoved fires after a transaction row (and its detail row) was
// deleted.
type TransactionRemoved struct {
	ID int64
}

// Changed fires after any successful mutation, alongside the specific event.
type Changed struct{}

// RolledBack fires after a user-initiated top-level rollback. Internal
// savepoint rollbacks performed by failing compound operations do not fire
// it.
type RolledBack struct{}

// Subscription is the disposable handle returned by Signal.Subscribe.
// Closing it removes the subscriber; Close is idempotent.
type Subscription struct {
	cancel func()
}

// Close unsubscribes the handler.
func (s *Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

type subscriber[T any] struct {
	id uuid.UUID
	fn func(T)
}

// Signal is one publish/subscribe channel of the notification bus. Dispatch
// is a plain synchronous iteration over the subscriber list.
type Signal[T any] struct {
	subs []subscriber[T]
}

// Subscribe registers fn and returns a handle whose Close removes it.
func (s *Signal[T]) Subscribe(fn func(T)) *Subscription {
	id := uuid.New()
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	return &Subscription{cancel: func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}}
}

// emit delivers v to every subscriber in registration order.
func (s *Signal[T]) emit(v T) {
	// Iterate over a copy so a handler closing its own subscription does
	// not skip the next subscriber.
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		sub.fn(v)
	}
}

// Bus is the change notification registry: one typed signal per
// (entity, event) pair, plus the generic Changed and RolledBack signals.
type Bus struct {
	AccountAdded       Signal[AccountAdded]
	AccountUpdated     Signal[AccountUpdated]
	AccountRemoved     Signal[AccountRemoved]
	SecurityAdded      Signal[SecurityAdded]
	SecurityUpdated    Signal[SecurityUpdated]
	SecurityRemoved    Signal[SecurityRemoved]
	PriceSet           Signal[PriceSet]
	PriceRemoved       Signal[PriceRemoved]
	TransactionAdded   Signal[TransactionAdded]
	TransactionUpdated Signal[TransactionUpdated]
	TransactionRemoved Signal[TransactionRemoved]
	Changed            Signal[Changed]
	RolledBack         Signal[RolledBack]
}
