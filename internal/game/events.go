package game

import "github.com/hailam/chessarena/internal/board"

// Event kinds, matching the names browsers subscribe to.
const (
	KindStatus   = "status"
	KindBoard    = "board"
	KindClock    = "clock"
	KindThinking = "thinking"
	KindChat     = "chat"
	KindMove     = "move"
	KindError    = "error"
	KindGameOver = "gameOver"
	KindState    = "state"
)

// Event is one frame on a game's stream: a kind and its payload.
type Event struct {
	Kind string
	Data interface{}
}

// StatusPayload is a human-readable phase announcement.
type StatusPayload struct {
	Message string `json:"message"`
}

// LastMove names the squares of the most recent move.
type LastMove struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CapturedPayload lists captured piece types per capturing side.
type CapturedPayload struct {
	White []board.PieceType `json:"white"`
	Black []board.PieceType `json:"black"`
}

// BoardPayload is a full board snapshot.
type BoardPayload struct {
	Squares  [8][8]*board.Cell `json:"squares"`
	Turn     board.Color       `json:"turn"`
	LastMove *LastMove         `json:"lastMove,omitempty"`
	Captured CapturedPayload   `json:"captured"`
}

// ClockPayload carries millisecond remainders.
type ClockPayload struct {
	WhiteTime int64 `json:"whiteTime"`
	BlackTime int64 `json:"blackTime"`
}

// ThinkingPayload is one increment of streamed reasoning text.
type ThinkingPayload struct {
	Color       board.Color `json:"color"`
	Model       string      `json:"model"`
	Text        string      `json:"text"`
	Accumulated string      `json:"accumulated"`
}

// ChatPayload reports one LLM attempt, legal or not.
type ChatPayload struct {
	Color      board.Color `json:"color"`
	Model      string      `json:"model"`
	Raw        string      `json:"raw"`
	Move       string      `json:"move"`
	Dialogue   *string     `json:"dialogue,omitempty"`
	Thinking   string      `json:"thinking,omitempty"`
	Attempt    int         `json:"attempt"`
	MoveNumber int         `json:"moveNumber"`
}

// MovePayload reports an accepted move.
type MovePayload struct {
	Color      board.Color `json:"color"`
	Model      string      `json:"model"`
	Notation   string      `json:"notation"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	MoveNumber int         `json:"moveNumber"`
	Dialogue   *string     `json:"dialogue,omitempty"`
}

// ErrorPayload reports a transient turn failure.
type ErrorPayload struct {
	Color      board.Color `json:"color"`
	Model      string      `json:"model"`
	Message    string      `json:"message"`
	Attempt    int         `json:"attempt"`
	MaxRetries int         `json:"maxRetries"`
}

// GameOverPayload is the final frame of every game.
type GameOverPayload struct {
	Result string `json:"result"`
	PGN    string `json:"pgn"`
}

// ModelInfo labels the two players for displays.
type ModelInfo struct {
	White string `json:"white"`
	Black string `json:"black"`
}

// State is the full snapshot served to late subscribers and the state
// endpoint.
type State struct {
	Board     [8][8]*board.Cell `json:"board"`
	Turn      board.Color       `json:"turn"`
	PGN       string            `json:"pgn"`
	MoveCount int               `json:"moveCount"`
	Result    string            `json:"result,omitempty"`
	Models    ModelInfo         `json:"models"`
	Captured  CapturedPayload   `json:"captured"`
	Clock     *ClockPayload     `json:"clock,omitempty"`
	HumanSide *board.Color      `json:"humanSide,omitempty"`
}
