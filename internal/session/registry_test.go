package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hailam/chessarena/internal/game"
)

func newHumanGame(t *testing.T) *game.Game {
	t.Helper()
	g, err := game.New(game.Config{
		White: game.Player{Human: true},
		Black: game.Player{Human: true},
	}, func(game.Event) {}, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	return g
}

func TestTokenIssuance(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	a, b := r.NewToken(), r.NewToken()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestPutRejectsLiveGame(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	g1 := newHumanGame(t)
	require.NoError(t, r.Put("tok", g1))

	g2 := newHumanGame(t)
	assert.ErrorIs(t, r.Put("tok", g2), ErrGameInProgress)

	// Once the first game is stopped the token is free again.
	g1.Stop()
	assert.NoError(t, r.Put("tok", g2))

	got, ok := r.Game("tok")
	require.True(t, ok)
	assert.Same(t, g2, got)
}

func TestRemove(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	require.NoError(t, r.Put("tok", newHumanGame(t)))
	r.Remove("tok")
	_, ok := r.Game("tok")
	assert.False(t, ok)
}

func TestCooldown(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))

	remaining, ok := r.CheckCooldown("tok", false)
	assert.True(t, ok)
	assert.Zero(t, remaining)

	remaining, ok = r.CheckCooldown("tok", false)
	assert.False(t, ok)
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, CooldownWindow)

	// Bypass waives without touching the timestamp.
	_, ok = r.CheckCooldown("tok", true)
	assert.True(t, ok)
	_, ok = r.CheckCooldown("tok", false)
	assert.False(t, ok)

	// Other tokens are independent.
	_, ok = r.CheckCooldown("other", false)
	assert.True(t, ok)
}

func TestReap(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))

	finished := newHumanGame(t)
	finished.Stop()
	finished.Run() // exits immediately, stamping finishedAt
	require.NoError(t, r.Put("old", finished))

	live := newHumanGame(t)
	require.NoError(t, r.Put("live", live))

	// A sweep an hour and change from now sees the finished game as stale.
	r.reap(time.Now().Add(reapAge + time.Minute))

	_, ok := r.Game("old")
	assert.False(t, ok)
	_, ok = r.Game("live")
	assert.True(t, ok)
	live.Stop()
}

func TestReapPrunesCooldowns(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	_, ok := r.CheckCooldown("tok", false)
	require.True(t, ok)

	// Inside the window the stamp stays.
	r.reap(time.Now())
	r.mu.Lock()
	_, present := r.cooldowns["tok"]
	r.mu.Unlock()
	assert.True(t, present)

	// Once the window has elapsed the stamp goes with it.
	r.reap(time.Now().Add(CooldownWindow + time.Minute))
	r.mu.Lock()
	_, present = r.cooldowns["tok"]
	r.mu.Unlock()
	assert.False(t, present)
}

func TestReleaseCooldown(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	_, ok := r.CheckCooldown("tok", false)
	require.True(t, ok)
	_, ok = r.CheckCooldown("tok", false)
	require.False(t, ok)

	r.ReleaseCooldown("tok")
	_, ok = r.CheckCooldown("tok", false)
	assert.True(t, ok)
}
