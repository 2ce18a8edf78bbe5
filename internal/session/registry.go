// Package session maps opaque tokens to games and to the subscribers
// watching them. Tokens are capabilities: anyone presenting one acts as
// that session.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hailam/chessarena/internal/game"
)

// ErrGameInProgress rejects a start while a non-terminal game holds the
// token.
var ErrGameInProgress = errors.New("a game is already in progress for this session")

const (
	// CooldownWindow is how long a token waits between game starts that
	// consume the server's shared credentials.
	CooldownWindow = 20 * time.Minute

	// reapInterval is how often the reaper sweeps.
	reapInterval = 5 * time.Minute

	// reapAge is how long a finished game lingers before removal.
	reapAge = time.Hour
)

// Registry owns the token→game map and the per-token shared-credential
// cooldown timestamps. Games are exclusively owned for the life of a
// session; the reaper removes them an hour after they finish.
type Registry struct {
	logger *zap.Logger

	mu        sync.Mutex
	games     map[string]*game.Game
	cooldowns map[string]time.Time
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:    logger,
		games:     make(map[string]*game.Game),
		cooldowns: make(map[string]time.Time),
	}
}

// NewToken issues a fresh opaque session token. Clients may also
// self-generate: any non-empty string is honored as a key on first use.
func (r *Registry) NewToken() string {
	return uuid.NewString()
}

// Game returns the game bound to the token, if any.
func (r *Registry) Game(token string) (*game.Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[token]
	return g, ok
}

// Put binds a game to the token. A token holds at most one live game;
// replacing it requires the prior game to be terminal or aborted.
func (r *Registry) Put(token string, g *game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.games[token]; ok && !prev.Terminal() {
		return ErrGameInProgress
	}
	r.games[token] = g
	return nil
}

// Remove deletes the token's game binding.
func (r *Registry) Remove(token string) {
	r.mu.Lock()
	delete(r.games, token)
	r.mu.Unlock()
}

// CheckCooldown gates game starts that consume shared server credentials.
// The first such start records now; starts within the window are rejected
// with the time remaining. bypass waives the check without touching the
// timestamp.
func (r *Registry) CheckCooldown(token string, bypass bool) (time.Duration, bool) {
	if bypass {
		return 0, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if last, ok := r.cooldowns[token]; ok {
		if remaining := CooldownWindow - now.Sub(last); remaining > 0 {
			return remaining, false
		}
	}
	r.cooldowns[token] = now
	return 0, true
}

// ReleaseCooldown drops the token's cooldown stamp. Start handlers roll
// back a stamp recorded for an attempt that failed after the check.
func (r *Registry) ReleaseCooldown(token string) {
	r.mu.Lock()
	delete(r.cooldowns, token)
	r.mu.Unlock()
}

// StartReaper sweeps finished games until stop closes.
func (r *Registry) StartReaper(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(reapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.reap(time.Now())
			}
		}
	}()
}

// reap removes games that finished more than reapAge before now, and
// cooldown stamps whose window has already elapsed.
func (r *Registry) reap(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := now.Add(-reapAge)
	for token, g := range r.games {
		finished, ok := g.FinishedAt()
		if ok && finished.Before(cutoff) {
			delete(r.games, token)
			r.logger.Info("reaped finished game", zap.String("token", token))
		}
	}
	for token, last := range r.cooldowns {
		if now.Sub(last) >= CooldownWindow {
			delete(r.cooldowns, token)
		}
	}
}
