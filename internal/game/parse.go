package game

import (
	"encoding/json"
	"regexp"
	"strings"
)

// sanPattern matches a plausible SAN token: a piece letter or pawn file
// followed by square/capture/promotion/check characters.
var sanPattern = regexp.MustCompile(`^[KQRBNa-h][a-h1-8x=+#]*$`)

// castlingLiterals are accepted verbatim wherever a SAN token is expected.
var castlingLiterals = map[string]bool{
	"O-O": true, "O-O-O": true, "0-0": true, "0-0-0": true,
}

// thinkBlockPattern strips any residual <think>...</think> blocks that
// slipped past the stream demultiplexer (a non-streaming upstream can
// return them whole).
var thinkBlockPattern = regexp.MustCompile(`(?is)<think>.*?</think>`)

// parseReply extracts a candidate SAN move and optional dialogue from a raw
// model reply. A JSON object with a "move" field wins; otherwise the reply
// is cleaned up and scanned for a SAN-shaped token, falling back to the
// last token. Dialogue is nil on the fallback path.
func parseReply(raw string) (move string, dialogue *string) {
	if m, d, ok := parseJSONReply(raw); ok {
		return m, d
	}

	text := thinkBlockPattern.ReplaceAllString(raw, "")
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"`)

	tokens := strings.Fields(text)
	switch len(tokens) {
	case 0:
		return "", nil
	case 1:
		text = tokens[0]
	default:
		text = tokens[len(tokens)-1]
		for _, tok := range tokens {
			trimmed := strings.TrimRight(tok, ".,;:!?")
			if sanPattern.MatchString(trimmed) || castlingLiterals[trimmed] {
				text = tok
				break
			}
		}
	}

	return strings.TrimRight(text, ".,;:!?"), nil
}

// parseJSONReply tries the first {...} substring of the reply as a JSON
// object carrying "move" and optionally "dialogue".
func parseJSONReply(raw string) (string, *string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return "", nil, false
	}

	var payload struct {
		Move     string `json:"move"`
		Dialogue string `json:"dialogue"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return "", nil, false
	}
	if payload.Move == "" {
		return "", nil, false
	}

	var dialogue *string
	if payload.Dialogue != "" {
		dialogue = &payload.Dialogue
	}
	return strings.TrimSpace(payload.Move), dialogue, true
}
