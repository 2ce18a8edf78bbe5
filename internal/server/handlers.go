package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hailam/chessarena/internal/board"
	"github.com/hailam/chessarena/internal/config"
	"github.com/hailam/chessarena/internal/game"
	"github.com/hailam/chessarena/internal/llm"
	"github.com/hailam/chessarena/internal/session"
)

// startRequest is the body of POST /api/game/start. Absent per-side fields
// fall back to the server's configured defaults.
type startRequest struct {
	WhiteAPIURL string  `json:"whiteApiUrl"`
	WhiteAPIKey string  `json:"whiteApiKey"`
	WhiteModel  string  `json:"whiteModel"`
	BlackAPIURL string  `json:"blackApiUrl"`
	BlackAPIKey string  `json:"blackApiKey"`
	BlackModel  string  `json:"blackModel"`
	MaxRetries  int     `json:"maxRetries"`
	BaseTime    float64 `json:"baseTime"`  // minutes; 0 = unlimited
	Increment   float64 `json:"increment"` // seconds per move
	HumanSide   string  `json:"humanSide"` // "white", "black" or absent
	Password    string  `json:"password"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"token": s.registry.NewToken()})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	tok := token(r)
	if tok == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if prev, ok := s.registry.Game(tok); ok && !prev.Terminal() {
		writeError(w, http.StatusConflict, "a game is already in progress for this session")
		return
	}

	humanWhite := req.HumanSide == "white"
	humanBlack := req.HumanSide == "black"

	white, err := s.resolvePlayer(board.White, humanWhite, req.WhiteAPIURL, req.WhiteAPIKey, req.WhiteModel, s.cfg.White)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	black, err := s.resolvePlayer(board.Black, humanBlack, req.BlackAPIURL, req.BlackAPIKey, req.BlackModel, s.cfg.Black)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = s.cfg.MaxRetries
	}

	g, err := game.New(game.Config{
		White:       white,
		Black:       black,
		MaxRetries:  maxRetries,
		BaseTimeMs:  int64(req.BaseTime * 60_000),
		IncrementMs: int64(req.Increment * 1000),
	}, s.broadcaster.Emitter(tok), s.client, s.logger.With(zap.String("token", tok)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A start that leans on the server's shared credentials for any LLM
	// side is rate limited per token. Checked only after everything else
	// that can reject the request, so a failed start does not burn the
	// window; a Put lost to a racing start rolls the stamp back.
	shared := (!humanWhite && req.WhiteAPIURL == "" && req.WhiteAPIKey == "") ||
		(!humanBlack && req.BlackAPIURL == "" && req.BlackAPIKey == "")
	bypass := s.cfg.BypassPassword != "" && req.Password == s.cfg.BypassPassword
	if shared {
		if remaining, ok := s.registry.CheckCooldown(tok, bypass); !ok {
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error":       "shared-credential games are rate limited; try again later",
				"remainingMs": remaining.Milliseconds(),
				"bypass":      false,
			})
			return
		}
	}

	if err := s.registry.Put(tok, g); err != nil {
		if shared && !bypass {
			s.registry.ReleaseCooldown(tok)
		}
		if errors.Is(err, session.ErrGameInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	go g.Run()

	s.logger.Info("game started",
		zap.String("token", tok),
		zap.String("white", white.Label()),
		zap.String("black", black.Label()))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game started",
		"state":   g.State(),
		"bypass":  bypass,
	})
}

// resolvePlayer merges a side's request overrides with the server
// defaults. An LLM side must end up with both an endpoint and a
// credential.
func (s *Server) resolvePlayer(c board.Color, human bool, apiURL, apiKey, model string, def config.Side) (game.Player, error) {
	if human {
		return game.Player{Human: true}, nil
	}

	if apiURL == "" {
		apiURL = def.APIURL
	}
	if apiKey == "" {
		apiKey = def.APIKey
	}
	if model == "" {
		model = def.Model
	}
	if apiURL == "" || apiKey == "" {
		return game.Player{}, fmt.Errorf("missing API credentials for %s", c.Name())
	}
	if model == "" {
		return game.Player{}, fmt.Errorf("missing model for %s", c.Name())
	}

	return game.Player{
		Model:    model,
		Endpoint: llm.Endpoint{URL: apiURL, Key: apiKey, Model: model},
	}, nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	tok := token(r)
	if tok == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	if g, ok := s.registry.Game(tok); ok {
		writeJSON(w, http.StatusOK, g.State())
		return
	}
	writeJSON(w, http.StatusOK, defaultState())
}

// defaultState is served when no game exists so a fresh page render needs
// no special casing.
func defaultState() game.State {
	return game.State{
		Board: board.NewPosition().Snapshot(),
		Turn:  board.White,
	}
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	tok := token(r)
	g, ok := s.registry.Game(tok)
	if !ok {
		writeError(w, http.StatusBadRequest, "no game in progress")
		return
	}

	var req struct {
		Move string `json:"move"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Move == "" {
		writeError(w, http.StatusBadRequest, "missing move")
		return
	}

	if err := g.SubmitMove(req.Move); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Move accepted"})
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	type dest struct {
		File int `json:"file"`
		Rank int `json:"rank"`
	}

	moves := []dest{}
	g, ok := s.registry.Game(token(r))
	file, errF := strconv.Atoi(r.URL.Query().Get("file"))
	rank, errR := strconv.Atoi(r.URL.Query().Get("rank"))
	if ok && errF == nil && errR == nil && file >= 0 && file < 8 && rank >= 0 && rank < 8 {
		for _, sq := range g.LegalTargets(file, rank) {
			moves = append(moves, dest{File: sq.File(), Rank: sq.Rank()})
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"moves": moves})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	g, ok := s.registry.Game(token(r))
	if !ok || g.Terminal() {
		writeError(w, http.StatusBadRequest, "no active game")
		return
	}
	g.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Game stopped"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	tok := token(r)
	if tok == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	if g, ok := s.registry.Game(tok); ok {
		g.Stop()
	}
	s.registry.Remove(tok)

	s.broadcaster.Publish(tok, game.Event{
		Kind: game.KindStatus,
		Data: game.StatusPayload{Message: "Game reset"},
	})
	st := defaultState()
	s.broadcaster.Publish(tok, game.Event{
		Kind: game.KindBoard,
		Data: game.BoardPayload{Squares: st.Board, Turn: st.Turn},
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Game reset"})
}
