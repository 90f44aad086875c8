// Package notify propagates session-storage changes to every interested
// subscriber, both inside this process and across other console processes
// sharing the same store directory.
package notify

import (
	"context"
	"sync"

	"modpanel.org/internal/store"
)

// Notifier fan-outs payload-free change signals to all active subscribers.
// Two channels feed it: explicit Publish calls after local storage writes,
// and the store watcher for writes made by other processes. Local writers
// publish eagerly so same-process subscribers converge without waiting on a
// filesystem event; the duplicate signals coalesce per subscriber.
type Notifier struct {
	mu    sync.RWMutex
	subs  map[int]chan struct{}
	next  int
	store *store.Store
}

// New creates a notifier bound to the given store.
func New(st *store.Store) *Notifier {
	return &Notifier{
		subs:  make(map[int]chan struct{}),
		store: st,
	}
}

// Subscribe registers a subscriber and returns a channel receiving one signal
// per observed change. The channel is closed and the subscription released
// when ctx ends.
func (n *Notifier) Subscribe(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = ch
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, id)
		close(ch)
		n.mu.Unlock()
	}()

	return ch
}

// Publish signals every subscriber. Signals coalesce per subscriber: a
// subscriber that has not drained its pending signal receives no duplicate.
func (n *Notifier) Publish() {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Run forwards cross-process store changes into the fan-out until ctx ends.
func (n *Notifier) Run(ctx context.Context) error {
	ch, err := n.store.Watch(ctx)
	if err != nil {
		return err
	}
	for range ch {
		n.Publish()
	}
	return nil
}
