package game

import (
	"fmt"
	"strings"
)

// History is the ordered list of SAN strings played so far, one per ply.
// Append-only for the life of a Game.
type History struct {
	sans []string
}

// Append records one ply.
func (h *History) Append(san string) {
	h.sans = append(h.sans, san)
}

// Count returns the number of plies played.
func (h *History) Count() int {
	return len(h.sans)
}

// PGN renders the movetext: "1. e4 e5 2. Nf3 ...". No headers; the client
// synthesizes those for export.
func (h *History) PGN() string {
	var sb strings.Builder
	for i, san := range h.sans {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d. ", i/2+1)
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(san)
	}
	return sb.String()
}
