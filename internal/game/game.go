// Package game runs one chess game to completion: a turn loop alternating
// LLM requests and human input, a chess clock, retry/forfeit policy, and a
// typed event stream consumed by subscribers.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/chessarena/internal/board"
	"github.com/hailam/chessarena/internal/llm"
)

// Rejections the HTTP surface needs to branch on.
var (
	ErrNotYourTurn  = errors.New("not your turn")
	ErrGameFinished = errors.New("game is over")
	ErrMovePending  = errors.New("a move is already pending")
)

// abortSentinel resolves a pending human-move rendezvous when the game is
// stopped; the loop interprets it as abort, never as SAN.
const abortSentinel = "\x00abort"

// networkRefundMs is credited back to the mover's clock when an LLM call
// fails for transport reasons rather than anything the model did.
const networkRefundMs = 120000

// maxPlies caps runaway games.
const maxPlies = 300

// EmitFunc delivers one event to the session's subscribers.
type EmitFunc func(Event)

// Player configures one side: a model label plus the endpoint to reach it
// on. A human side has Human set and no endpoint.
type Player struct {
	Model    string
	Endpoint llm.Endpoint
	Human    bool
}

// Label names the player for event payloads.
func (p Player) Label() string {
	if p.Human {
		return "human"
	}
	return p.Model
}

// Config assembles everything a Game needs at creation.
type Config struct {
	White      Player
	Black      Player
	MaxRetries int

	// Clock. BaseTimeMs 0 means unlimited; IncrementMs is added to the
	// mover's clock after every committed move.
	BaseTimeMs  int64
	IncrementMs int64

	// StartFEN overrides the standard starting position when non-empty.
	StartFEN string
}

// Game owns one board, one move history and one clock, and runs its turn
// loop in a single goroutine. All mutation happens on that goroutine; the
// HTTP surface reads snapshots and hands in human moves through a
// single-slot rendezvous.
type Game struct {
	cfg    Config
	emit   EmitFunc
	client *llm.Client
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	tickWG sync.WaitGroup

	humanMoves chan string

	mu            sync.Mutex
	pos           *board.Position
	history       *History
	result        string
	aborted       bool
	lastMove      *LastMove
	timeWhite     int64
	timeBlack     int64
	unlimited     bool
	turnStartedAt time.Time
	finishedAt    time.Time
}

// New builds a Game. client may be nil only when both sides are human.
func New(cfg Config, emit EmitFunc, client *llm.Client, logger *zap.Logger) (*Game, error) {
	pos := board.NewPosition()
	if cfg.StartFEN != "" {
		parsed, err := board.ParseFEN(cfg.StartFEN)
		if err != nil {
			return nil, fmt.Errorf("start position: %w", err)
		}
		pos = parsed
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Game{
		cfg:        cfg,
		emit:       emit,
		client:     client,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		humanMoves: make(chan string, 1),
		pos:        pos,
		history:    &History{},
		timeWhite:  cfg.BaseTimeMs,
		timeBlack:  cfg.BaseTimeMs,
		unlimited:  cfg.BaseTimeMs <= 0,
	}, nil
}

// player returns the configuration for the given side.
func (g *Game) player(c board.Color) Player {
	if c == board.White {
		return g.cfg.White
	}
	return g.cfg.Black
}

// Run drives the turn loop to completion. It is the only goroutine that
// mutates the board, history and clock.
func (g *Game) Run() {
	g.emit(Event{KindStatus, StatusPayload{Message: fmt.Sprintf(
		"New game: %s (White) vs %s (Black)", g.cfg.White.Label(), g.cfg.Black.Label())}})
	g.emit(Event{KindBoard, g.boardPayload()})
	if !g.unlimited {
		g.emit(Event{KindClock, g.liveClock()})
		g.tickWG.Add(1)
		go g.tickClock()
	}

	for !g.terminal() {
		mover := g.sideToMove()
		if g.preTurnCheck(mover) {
			break
		}
		g.emit(Event{KindStatus, StatusPayload{Message: fmt.Sprintf("%s's turn", mover)}})
		g.startTurn()

		m, dialogue, ok := g.acquireMove(mover)
		if !ok {
			break
		}
		if !g.debitClock(mover) {
			break
		}
		g.commit(mover, m, dialogue)
		if g.checkTerminal(mover) {
			break
		}
	}

	// Join the ticker before the final frame: a tick landing between its
	// terminal check and its emit would otherwise publish a clock event
	// after gameOver.
	g.cancel()
	g.tickWG.Wait()
	g.finish()
}

// preTurnCheck catches a position that is already over for the side about
// to move, so a game starting from (or stopped in) a mated or stalemated
// position never solicits a move.
func (g *Game) preTurnCheck(mover board.Color) bool {
	g.mu.Lock()
	checkmate := g.pos.IsCheckmate(mover)
	stalemate := !checkmate && g.pos.IsStalemate(mover)
	g.mu.Unlock()

	switch {
	case checkmate:
		g.setResult(fmt.Sprintf("%s wins by checkmate!", mover.Other()))
		return true
	case stalemate:
		g.setResult("Draw by stalemate")
		return true
	}
	return false
}

// acquireMove obtains and applies the mover's next move. On success the
// board has already executed it. ok is false when the game ended instead:
// abort, retry exhaustion, or a stop during the wait.
func (g *Game) acquireMove(mover board.Color) (board.Move, *string, bool) {
	if g.player(mover).Human {
		return g.awaitHumanMove(mover)
	}
	return g.llmMove(mover)
}

// awaitHumanMove blocks on the rendezvous until the move endpoint resolves
// it. Submitted SAN was validated on a copy, so a rejection here means the
// submission raced a state change; the loop just waits again.
func (g *Game) awaitHumanMove(mover board.Color) (board.Move, *string, bool) {
	for {
		san := <-g.humanMoves
		if san == abortSentinel {
			return board.Move{}, nil, false
		}

		g.mu.Lock()
		m, err := g.pos.ApplySAN(san, mover)
		g.mu.Unlock()
		if err != nil {
			g.logger.Warn("human move rejected at apply",
				zap.String("san", san), zap.Error(err))
			continue
		}
		return m, nil, true
	}
}

// llmMove runs up to MaxRetries attempts against the mover's endpoint.
// Exhaustion forfeits the game.
func (g *Game) llmMove(mover board.Color) (board.Move, *string, bool) {
	p := g.player(mover)
	moveNumber := g.moveNumber()
	lastIllegal := ""

	for attempt := 1; attempt <= g.cfg.MaxRetries; attempt++ {
		if g.terminal() {
			return board.Move{}, nil, false
		}

		messages := []llm.Message{
			{Role: "system", Content: systemPrompt(mover)},
			{Role: "user", Content: userPrompt(g.pgn(), lastIllegal)},
		}

		res, err := g.client.Complete(g.ctx, p.Endpoint, messages, func(delta, accumulated string) {
			g.emit(Event{KindThinking, ThinkingPayload{
				Color:       mover,
				Model:       p.Model,
				Text:        delta,
				Accumulated: accumulated,
			}})
		})
		if err != nil {
			if g.terminal() {
				return board.Move{}, nil, false
			}
			g.logger.Warn("llm attempt failed",
				zap.String("model", p.Model), zap.Int("attempt", attempt), zap.Error(err))
			g.emit(Event{KindError, ErrorPayload{
				Color:      mover,
				Model:      p.Model,
				Message:    err.Error(),
				Attempt:    attempt,
				MaxRetries: g.cfg.MaxRetries,
			}})
			if llm.IsNetworkError(err) {
				g.refundTime(mover, networkRefundMs)
				g.emit(Event{KindClock, g.liveClock()})
				g.emit(Event{KindStatus, StatusPayload{Message: fmt.Sprintf(
					"Network trouble reaching %s; crediting 2 minutes back to %s", p.Model, mover)}})
			}
			continue
		}

		moveStr, dialogue := parseReply(res.Content)
		g.emit(Event{KindChat, ChatPayload{
			Color:      mover,
			Model:      p.Model,
			Raw:        res.Content,
			Move:       moveStr,
			Dialogue:   dialogue,
			Thinking:   res.Thinking,
			Attempt:    attempt,
			MoveNumber: moveNumber,
		}})

		g.mu.Lock()
		m, err := g.pos.ApplySAN(moveStr, mover)
		g.mu.Unlock()
		if err != nil {
			lastIllegal = moveStr
			g.emit(Event{KindError, ErrorPayload{
				Color:      mover,
				Model:      p.Model,
				Message:    fmt.Sprintf("%q is not a legal move", moveStr),
				Attempt:    attempt,
				MaxRetries: g.cfg.MaxRetries,
			}})
			continue
		}
		return m, dialogue, true
	}

	g.setResult(fmt.Sprintf("%s wins by forfeit (%s failed to make a legal move)",
		mover.Other(), mover))
	return board.Move{}, nil, false
}

// debitClock charges the mover for the turn just taken. Returns false on a
// time loss, which ends the game without committing the move.
func (g *Game) debitClock(mover board.Color) bool {
	g.mu.Lock()
	if g.unlimited {
		g.turnStartedAt = time.Time{}
		g.mu.Unlock()
		return true
	}

	elapsed := time.Since(g.turnStartedAt).Milliseconds()
	rem := &g.timeWhite
	if mover == board.Black {
		rem = &g.timeBlack
	}
	*rem -= elapsed
	if *rem <= 0 {
		*rem = 0
		g.turnStartedAt = time.Time{}
		g.mu.Unlock()
		g.setResult(fmt.Sprintf("%s wins on time", mover.Other()))
		g.emit(Event{KindClock, g.liveClock()})
		return false
	}
	*rem += g.cfg.IncrementMs
	g.turnStartedAt = time.Time{}
	g.mu.Unlock()

	g.emit(Event{KindClock, g.liveClock()})
	return true
}

// commit records the accepted move and publishes it.
func (g *Game) commit(mover board.Color, m board.Move, dialogue *string) {
	g.mu.Lock()
	g.history.Append(m.Notation)
	g.lastMove = &LastMove{From: m.From.String(), To: m.To.String()}
	moveNumber := (g.history.Count()-1)/2 + 1
	g.mu.Unlock()

	g.emit(Event{KindMove, MovePayload{
		Color:      mover,
		Model:      g.player(mover).Label(),
		Notation:   m.Notation,
		From:       m.From.String(),
		To:         m.To.String(),
		MoveNumber: moveNumber,
		Dialogue:   dialogue,
	}})
	g.emit(Event{KindBoard, g.boardPayload()})
}

// checkTerminal evaluates the position after mover's committed move, in the
// binding order: checkmate, stalemate, 50-move draw, check notice, length
// cap. Returns true when the game is over.
func (g *Game) checkTerminal(mover board.Color) bool {
	g.mu.Lock()
	pos := g.pos
	opponent := mover.Other()
	checkmate := pos.IsCheckmate(opponent)
	stalemate := !checkmate && pos.IsStalemate(opponent)
	fiftyMove := pos.IsFiftyMoveDraw()
	inCheck := pos.InCheck(opponent)
	plies := g.history.Count()
	g.mu.Unlock()

	switch {
	case checkmate:
		g.setResult(fmt.Sprintf("%s wins by checkmate!", mover))
		return true
	case stalemate:
		g.setResult("Draw by stalemate")
		return true
	case fiftyMove:
		g.setResult("Draw by 50-move rule")
		return true
	}
	if inCheck {
		g.emit(Event{KindStatus, StatusPayload{Message: fmt.Sprintf("%s is in check!", opponent)}})
	}
	if plies >= maxPlies {
		g.setResult("Draw by excessive length (150+ moves)")
		return true
	}
	return false
}

// finish emits the final gameOver frame and stamps finishedAt. Exactly one
// gameOver per game, always last.
func (g *Game) finish() {
	g.mu.Lock()
	if g.result == "" {
		g.result = "Game stopped by user"
	}
	result := g.result
	pgn := g.history.PGN()
	g.finishedAt = time.Now()
	g.mu.Unlock()

	g.logger.Info("game over", zap.String("result", result), zap.String("pgn", pgn))
	g.emit(Event{KindGameOver, GameOverPayload{Result: result, PGN: pgn}})
}

// tickClock re-emits the live clock once per second so displays count down
// between moves.
func (g *Game) tickClock() {
	defer g.tickWG.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			if g.terminal() {
				return
			}
			g.emit(Event{KindClock, g.liveClock()})
		}
	}
}

// Stop aborts the game. Level-triggered: the loop observes the flag at
// every turn boundary and before each LLM attempt; a pending human
// rendezvous resolves with the abort sentinel.
func (g *Game) Stop() {
	g.mu.Lock()
	if g.aborted {
		g.mu.Unlock()
		return
	}
	g.aborted = true
	if g.result == "" {
		g.result = "Game stopped by user"
	}
	g.mu.Unlock()

	g.cancel()
	select {
	case g.humanMoves <- abortSentinel:
	default:
	}
}

// SubmitMove hands a human SAN move to the waiting loop. The move is
// validated on a copy first so an illegal submission reports back without
// touching the live board.
func (g *Game) SubmitMove(san string) error {
	g.mu.Lock()
	if g.result != "" || g.aborted {
		g.mu.Unlock()
		return ErrGameFinished
	}
	mover := g.pos.SideToMove
	if !g.player(mover).Human {
		g.mu.Unlock()
		return ErrNotYourTurn
	}
	if _, err := g.pos.Copy().ApplySAN(san, mover); err != nil {
		g.mu.Unlock()
		return err
	}
	g.mu.Unlock()

	select {
	case g.humanMoves <- san:
		return nil
	default:
		return ErrMovePending
	}
}

// LegalTargets lists legal destinations from a square for UI highlighting.
func (g *Game) LegalTargets(file, rank int) []board.Square {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos.LegalTargets(board.NewSquare(file, rank))
}

// State produces the full snapshot served to late subscribers and the
// state endpoint.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := State{
		Board:     g.pos.Snapshot(),
		Turn:      g.pos.SideToMove,
		PGN:       g.history.PGN(),
		MoveCount: g.history.Count(),
		Result:    g.result,
		Models: ModelInfo{
			White: g.cfg.White.Label(),
			Black: g.cfg.Black.Label(),
		},
		Captured: CapturedPayload{
			White: append([]board.PieceType(nil), g.pos.CapturedByWhite...),
			Black: append([]board.PieceType(nil), g.pos.CapturedByBlack...),
		},
	}
	if !g.unlimited {
		clock := g.liveClockLocked()
		st.Clock = &clock
	}
	if g.cfg.White.Human {
		side := board.White
		st.HumanSide = &side
	} else if g.cfg.Black.Human {
		side := board.Black
		st.HumanSide = &side
	}
	return st
}

// Terminal reports whether the game has ended or been aborted.
func (g *Game) Terminal() bool {
	return g.terminal()
}

// FinishedAt returns when the game finished, if it has.
func (g *Game) FinishedAt() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finishedAt, !g.finishedAt.IsZero()
}

// Result returns the terminal result string, empty while in progress.
func (g *Game) Result() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result
}

func (g *Game) terminal() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result != "" || g.aborted
}

func (g *Game) sideToMove() board.Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos.SideToMove
}

func (g *Game) pgn() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.history.PGN()
}

func (g *Game) moveNumber() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.history.Count()/2 + 1
}

func (g *Game) setResult(result string) {
	g.mu.Lock()
	if g.result == "" {
		g.result = result
	}
	g.mu.Unlock()
}

func (g *Game) startTurn() {
	g.mu.Lock()
	g.turnStartedAt = time.Now()
	g.mu.Unlock()
}

func (g *Game) refundTime(c board.Color, ms int64) {
	g.mu.Lock()
	if c == board.White {
		g.timeWhite += ms
	} else {
		g.timeBlack += ms
	}
	g.mu.Unlock()
}

// liveClock reads the clock with the in-progress turn deducted from the
// active side.
func (g *Game) liveClock() ClockPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.liveClockLocked()
}

func (g *Game) liveClockLocked() ClockPayload {
	white, black := g.timeWhite, g.timeBlack
	if !g.turnStartedAt.IsZero() {
		elapsed := time.Since(g.turnStartedAt).Milliseconds()
		if g.pos.SideToMove == board.White {
			white -= elapsed
		} else {
			black -= elapsed
		}
	}
	if white < 0 {
		white = 0
	}
	if black < 0 {
		black = 0
	}
	return ClockPayload{WhiteTime: white, BlackTime: black}
}

// boardPayload builds the board event frame.
func (g *Game) boardPayload() BoardPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return BoardPayload{
		Squares:  g.pos.Snapshot(),
		Turn:     g.pos.SideToMove,
		LastMove: g.lastMove,
		Captured: CapturedPayload{
			White: append([]board.PieceType(nil), g.pos.CapturedByWhite...),
			Black: append([]board.PieceType(nil), g.pos.CapturedByBlack...),
		},
	}
}
