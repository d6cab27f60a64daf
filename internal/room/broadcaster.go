package room

import (
	"sync"

	"othello-live/internal/shared"
)

// Broadcaster fans one stream of events out to many subscribers, each with
// its own bounded queue. Publish never blocks: a subscriber whose queue is
// full is dropped and its channel closed.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 1
	}
	return &Broadcaster{subs: map[*Subscription]struct{}{}, buffer: buffer}
}

type Subscription struct {
	ch chan shared.Event
	b  *Broadcaster
}

// C yields events until the subscription is closed, dropped or the room removed.
func (s *Subscription) C() <-chan shared.Event { return s.ch }

func (s *Subscription) Close() { s.b.drop(s) }

// Subscribe returns false once the broadcaster has been closed.
func (b *Broadcaster) Subscribe() (*Subscription, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false
	}
	s := &Subscription{ch: make(chan shared.Event, b.buffer), b: b}
	b.subs[s] = struct{}{}
	return s, true
}

// Publish delivers ev to every subscriber with room in its queue and returns
// how many received it.
func (b *Broadcaster) Publish(ev shared.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for s := range b.subs {
		select {
		case s.ch <- ev:
			n++
		default:
			delete(b.subs, s)
			close(s.ch)
		}
	}
	return n
}

func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later Subscribe calls fail.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
	}
	clear(b.subs)
}

func (b *Broadcaster) drop(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}
