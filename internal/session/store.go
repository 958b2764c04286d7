// Package session holds the client-runtime session state: a single source
// of truth for "who is signed in right now", observable by any number of
// consumers without each one re-deriving it.
package session

import (
	"context"
	"sync"

	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
)

// Store is a replay-latest broadcast holder of the current SessionState.
//
// Set updates the snapshot and enqueues the new state to every live
// subscription, in subscription order, before returning; a Current call
// issued after Set returns never observes the old state. Each subscription
// carries its own unbounded FIFO, so a slow consumer delays only itself and
// never drops a transition. Cancelling one subscription has no effect on
// the others or on the store.
type Store struct {
	mu    sync.Mutex
	state domainauth.SessionState
	subs  []*subscription
	// nextID preserves subscription order across detaches.
	nextID uint64
}

type subscription struct {
	id uint64

	mu     sync.Mutex
	queue  []domainauth.SessionState
	wake   chan struct{} // capacity 1, signals the pump
	out    chan domainauth.SessionState
	closed bool
}

// NewStore creates a Store in the signed-out state. One Store exists per
// client runtime and lives for the process lifetime.
func NewStore() *Store {
	return &Store{state: domainauth.SignedOut()}
}

// Current returns the most recent state set on the store. It never blocks.
func (s *Store) Current() domainauth.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the snapshot and publishes the new state to all active
// subscriptions. Enqueueing happens under the store lock, so every
// subscriber sees transitions in the exact order the store held them.
func (s *Store) Set(state domainauth.SessionState) {
	s.mu.Lock()
	s.state = state
	for _, sub := range s.subs {
		sub.enqueue(state)
	}
	s.mu.Unlock()
}

// Changes subscribes to session transitions. The returned channel first
// yields the current state (replay-latest), then every subsequent Set in
// order. The subscription ends, and the channel closes, when ctx is
// cancelled.
func (s *Store) Changes(ctx context.Context) <-chan domainauth.SessionState {
	sub := &subscription{
		wake: make(chan struct{}, 1),
		out:  make(chan domainauth.SessionState),
	}

	s.mu.Lock()
	sub.id = s.nextID
	s.nextID++
	sub.enqueue(s.state)
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	go sub.pump(ctx, s)
	return sub.out
}

// enqueue appends a state to the subscription's FIFO and wakes the pump.
func (sub *subscription) enqueue(state domainauth.SessionState) {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.queue = append(sub.queue, state)
	sub.mu.Unlock()

	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

// pump drains the FIFO into the outbound channel until ctx is done.
func (sub *subscription) pump(ctx context.Context, s *Store) {
	defer func() {
		s.detach(sub)
		close(sub.out)
	}()

	for {
		state, ok := sub.next()
		if !ok {
			select {
			case <-sub.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case sub.out <- state:
		case <-ctx.Done():
			return
		}
	}
}

// next pops the head of the FIFO, reporting false when it is empty.
func (sub *subscription) next() (domainauth.SessionState, bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.queue) == 0 {
		return domainauth.SessionState{}, false
	}
	state := sub.queue[0]
	sub.queue = sub.queue[1:]
	return state, true
}

// detach removes a finished subscription from the store.
func (s *Store) detach(sub *subscription) {
	sub.mu.Lock()
	sub.closed = true
	sub.queue = nil
	sub.mu.Unlock()

	s.mu.Lock()
	for i, candidate := range s.subs {
		if candidate.id == sub.id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}
