package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessarena/internal/game"
)

func TestBroadcastFanout(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe("tok")
	ch2 := b.Subscribe("tok")
	other := b.Subscribe("other")

	ev := game.Event{Kind: game.KindStatus, Data: game.StatusPayload{Message: "hi"}}
	b.Publish("tok", ev)

	assert.Equal(t, ev, <-ch1)
	assert.Equal(t, ev, <-ch2)
	select {
	case got := <-other:
		t.Fatalf("unrelated token received %v", got)
	default:
	}
}

func TestBroadcastPreservesOrder(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("tok")

	for i := 0; i < 10; i++ {
		b.Publish("tok", game.Event{Kind: game.KindStatus, Data: i})
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, i, (<-ch).Data)
	}
}

func TestSlowSubscriberDropped(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe("tok")
	fast := b.Subscribe("tok")

	// Overflow the slow subscriber's buffer without draining it.
	for i := 0; i < subscriberBuffer+1; i++ {
		b.Publish("tok", game.Event{Kind: game.KindStatus, Data: i})
		for len(fast) > 0 {
			<-fast
		}
	}

	// The slow channel was closed after its buffered events.
	drained := 0
	for range slow {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained)

	// The fast subscriber still receives.
	b.Publish("tok", game.Event{Kind: game.KindStatus, Data: "still here"})
	assert.Equal(t, "still here", (<-fast).Data)
}

func TestUnsubscribeClosesAndPrunes(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("tok")
	b.Unsubscribe("tok", ch)

	_, open := <-ch
	require.False(t, open)

	// Double unsubscribe is harmless.
	b.Unsubscribe("tok", ch)

	// Publishing to a token with no subscribers is a no-op.
	b.Publish("tok", game.Event{Kind: game.KindStatus})
}
