package llm

import (
	"context"
	"sync"
	"time"
)

// DefaultRequestGap is the minimum spacing between upstream request starts.
const DefaultRequestGap = 3 * time.Second

// Limiter spaces outbound completion requests a fixed interval apart
// across the whole process, whichever game they belong to.
type Limiter struct {
	mu   sync.Mutex
	gap  time.Duration
	next time.Time
}

func NewLimiter(gap time.Duration) *Limiter {
	return &Limiter{gap: gap}
}

// Wait blocks until the caller owns the next request slot. Slots are
// claimed in arrival order; a canceled context forfeits the wait but the
// claimed slot stays spent.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	var wait time.Duration
	if now.Before(l.next) {
		wait = l.next.Sub(now)
		l.next = l.next.Add(l.gap)
	} else {
		l.next = now.Add(l.gap)
	}
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
