package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotLegal rejects any SAN that fails to parse, resolves to zero or
// multiple candidate sources, or whose execution would leave the mover's
// own king in check.
var ErrNotLegal = errors.New("not a legal move")

// sanSpec holds the parsed components of a SAN string.
type sanSpec struct {
	piece    PieceType
	dest     Square
	fileHint int // -1 when absent
	rankHint int // -1 when absent
	promo    PieceType
	castleKS bool
	castleQS bool
}

// parseSANText splits a SAN string into its components without consulting
// a position. Check, mate and annotation suffixes are stripped first; the
// capture marker is informational and discarded.
func parseSANText(s string) (sanSpec, error) {
	spec := sanSpec{fileHint: -1, rankHint: -1, promo: NoPieceType}

	s = strings.TrimSpace(s)
	for len(s) > 0 && strings.ContainsRune("+#!?", rune(s[len(s)-1])) {
		s = s[:len(s)-1]
	}

	switch s {
	case "O-O", "0-0":
		spec.piece = King
		spec.castleKS = true
		return spec, nil
	case "O-O-O", "0-0-0":
		spec.piece = King
		spec.castleQS = true
		return spec, nil
	}

	// Parse promotion
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		if idx+1 >= len(s) {
			return spec, fmt.Errorf("missing promotion piece")
		}
		switch s[idx+1] {
		case 'N':
			spec.promo = Knight
		case 'B':
			spec.promo = Bishop
		case 'R':
			spec.promo = Rook
		case 'Q':
			spec.promo = Queen
		default:
			return spec, fmt.Errorf("invalid promotion piece: %c", s[idx+1])
		}
		s = s[:idx]
	}

	// Remove capture marker; a move onto an occupied enemy square is a
	// capture whether or not the SAN says so.
	s = strings.ReplaceAll(s, "x", "")

	// Determine piece type
	spec.piece = Pawn
	if len(s) > 0 {
		switch s[0] {
		case 'N':
			spec.piece = Knight
			s = s[1:]
		case 'B':
			spec.piece = Bishop
			s = s[1:]
		case 'R':
			spec.piece = Rook
			s = s[1:]
		case 'Q':
			spec.piece = Queen
			s = s[1:]
		case 'K':
			spec.piece = King
			s = s[1:]
		}
	}

	// Parse destination (last 2 characters)
	if len(s) < 2 {
		return spec, fmt.Errorf("missing destination square")
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return spec, err
	}
	spec.dest = dest
	s = s[:len(s)-2]

	// Parse disambiguation (file, rank, or both)
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'h':
			spec.fileHint = int(c - 'a')
		case c >= '1' && c <= '8':
			spec.rankHint = int(c - '1')
		default:
			return spec, fmt.Errorf("invalid disambiguation character: %c", c)
		}
	}

	return spec, nil
}

// MoveFromSAN resolves a SAN string for the stated mover against the
// position and returns the move it denotes, without mutating the position.
//
// Resolution order matters: candidates are filtered by geometry and by the
// disambiguation hints, and exactly one must remain before the king-safety
// test runs. SAN that two same-typed pieces could satisfy is rejected as
// ambiguous even when only one of them could move without exposing the
// king.
func (p *Position) MoveFromSAN(san string, mover Color) (Move, error) {
	spec, err := parseSANText(san)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %s", ErrNotLegal, san)
	}

	if spec.castleKS || spec.castleQS {
		if !p.canCastle(mover, spec.castleKS) {
			return Move{}, fmt.Errorf("%w: %s", ErrNotLegal, san)
		}
		rank := 0
		if mover == Black {
			rank = 7
		}
		return Move{
			From:      NewSquare(4, rank),
			To:        castleKingTo(mover, spec.castleKS),
			Piece:     King,
			Promotion: NoPieceType,
			CastleKS:  spec.castleKS,
			CastleQS:  spec.castleQS,
			Notation:  san,
		}, nil
	}

	var from Square
	candidates := 0
	for sq := A1; sq <= H8; sq++ {
		piece := p.Squares[sq]
		if piece == NoPiece || piece.Color() != mover || piece.Type() != spec.piece {
			continue
		}
		if !p.canReach(sq, spec.dest) {
			continue
		}
		if spec.fileHint >= 0 && sq.File() != spec.fileHint {
			continue
		}
		if spec.rankHint >= 0 && sq.Rank() != spec.rankHint {
			continue
		}
		from = sq
		candidates++
	}
	if candidates != 1 {
		return Move{}, fmt.Errorf("%w: %s", ErrNotLegal, san)
	}

	m := p.buildMove(from, spec.dest)
	m.Notation = san
	if spec.promo != NoPieceType {
		if m.Piece != Pawn || spec.dest.RelativeRank(mover) != 7 {
			return Move{}, fmt.Errorf("%w: %s", ErrNotLegal, san)
		}
		m.Promotion = spec.promo
	}

	if p.leavesKingInCheck(m, mover) {
		return Move{}, fmt.Errorf("%w: %s", ErrNotLegal, san)
	}

	return m, nil
}

// ApplySAN validates a SAN string for the stated mover and, when legal,
// executes it. The position is untouched on rejection.
func (p *Position) ApplySAN(san string, mover Color) (Move, error) {
	m, err := p.MoveFromSAN(san, mover)
	if err != nil {
		return Move{}, err
	}
	p.execute(m)
	return m, nil
}
