package session

import (
	"sync"

	"github.com/hailam/chessarena/internal/game"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// this far behind is dropped rather than allowed to block the game.
const subscriberBuffer = 64

// Broadcaster fans each session's events out to its subscribers.
// Subscribers are weakly held: dropping one never affects the game, and a
// full or abandoned channel gets pruned on the next publish.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan game.Event]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan game.Event]struct{})}
}

// Subscribe registers a new listener for the token's events.
func (b *Broadcaster) Subscribe(token string) chan game.Event {
	ch := make(chan game.Event, subscriberBuffer)
	b.mu.Lock()
	set, ok := b.subs[token]
	if !ok {
		set = make(map[chan game.Event]struct{})
		b.subs[token] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes the listener. An emptied set drops the
// token key entirely.
func (b *Broadcaster) Unsubscribe(token string, ch chan game.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[token]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(b.subs, token)
	}
}

// Publish delivers the event to every current subscriber of the token.
// Sends never block: a subscriber whose buffer is full is pruned and
// closed instead.
func (b *Broadcaster) Publish(token string, ev game.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[token]
	if !ok {
		return
	}
	for ch := range set {
		select {
		case ch <- ev:
		default:
			delete(set, ch)
			close(ch)
		}
	}
	if len(set) == 0 {
		delete(b.subs, token)
	}
}

// Emitter builds the per-token emit closure a game publishes through.
func (b *Broadcaster) Emitter(token string) game.EmitFunc {
	return func(ev game.Event) {
		b.Publish(token, ev)
	}
}
