package store

import "sync"

// broadcaster fans a stream of values out to multiple subscribers.
//
// Delivery is best-effort: a subscriber that is not keeping up has its
// oldest buffered value dropped rather than blocking the writer. Watch
// channels carry state snapshots, not deltas, so dropping a stale value
// in favor of a newer one loses nothing.
type broadcaster[T any] struct {
	mu   sync.Mutex
	subs map[int]chan T
	next int
}

// subscribe registers a new subscriber channel with the given buffer and
// delivers the initial value immediately, so every watch starts with an
// emission of the current state. The returned cancel func removes the
// subscription and closes the channel; it is safe to call more than once.
func (b *broadcaster[T]) subscribe(buf int, initial T) (<-chan T, func()) {
	if buf < 1 {
		buf = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]chan T)
	}

	id := b.next
	b.next++

	ch := make(chan T, buf)
	ch <- initial
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// closeAll ends every subscription. Outstanding cancel funcs stay safe
// to call; they find their entry already gone.
func (b *broadcaster[T]) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// publish delivers a value to every subscriber without blocking.
func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			// Buffer full: drop the oldest buffered value and retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}
