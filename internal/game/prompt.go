package game

import (
	"fmt"
	"strings"

	"github.com/hailam/chessarena/internal/board"
)

// systemPromptTemplate is the fixed instruction set sent on every turn,
// with {{color}} substituted for the side to move. It offers both reply
// schemas: bare SAN and the JSON {"move","dialogue"} object.
const systemPromptTemplate = `You are playing chess as {{color}}. You will be given the game so far in PGN movetext.

Reply with your next move in standard algebraic notation (SAN), for example: e4, Nf3, O-O, exd5, Qxf7+, e8=Q.

You may reply with either:
1. The bare SAN move, nothing else.
2. A JSON object: {"move": "<SAN>", "dialogue": "<a short in-character remark>"}

The move must be legal in the current position. Do not add commentary outside the JSON object.`

// gameStartMessage is the user message for the first ply, before any PGN
// exists.
const gameStartMessage = "The game starts now. You are to move."

// systemPrompt builds the per-color system message.
func systemPrompt(color board.Color) string {
	return strings.ReplaceAll(systemPromptTemplate, "{{color}}", color.String())
}

// userPrompt builds the user message from the movetext so far; on retries
// after an illegal move it names the rejected SAN and demands a legal one.
func userPrompt(pgn, lastIllegal string) string {
	msg := gameStartMessage
	if pgn != "" {
		msg = pgn
	}
	if lastIllegal != "" {
		msg += fmt.Sprintf("\n\nYour previous reply %q was not a legal move. Play a different, legal move.", lastIllegal)
	}
	return msg
}
