package board

// canReach reports whether the piece on from can geometrically reach to,
// ignoring king safety. Castling is not geometric and is resolved
// separately.
func (p *Position) canReach(from, to Square) bool {
	if from == to {
		return false
	}
	piece := p.Squares[from]
	if piece == NoPiece {
		return false
	}
	if target := p.Squares[to]; target != NoPiece && target.Color() == piece.Color() {
		return false
	}

	df := to.File() - from.File()
	dr := to.Rank() - from.Rank()

	switch piece.Type() {
	case King:
		return abs(df) <= 1 && abs(dr) <= 1
	case Knight:
		return (abs(df) == 1 && abs(dr) == 2) || (abs(df) == 2 && abs(dr) == 1)
	case Bishop:
		return abs(df) == abs(dr) && p.pathClear(from, to)
	case Rook:
		return (df == 0 || dr == 0) && p.pathClear(from, to)
	case Queen:
		return (abs(df) == abs(dr) || df == 0 || dr == 0) && p.pathClear(from, to)
	case Pawn:
		dir := 1
		if piece.Color() == Black {
			dir = -1
		}
		if df == 0 {
			if dr == dir {
				return p.IsEmpty(to)
			}
			if dr == 2*dir && from.RelativeRank(piece.Color()) == 1 {
				mid := NewSquare(from.File(), from.Rank()+dir)
				return p.IsEmpty(mid) && p.IsEmpty(to)
			}
			return false
		}
		if abs(df) == 1 && dr == dir {
			return !p.IsEmpty(to) || to == p.EnPassant
		}
		return false
	}
	return false
}

// pathClear reports whether every square strictly between from and to is
// empty. from and to must share a rank, file or diagonal.
func (p *Position) pathClear(from, to Square) bool {
	df := sign(to.File() - from.File())
	dr := sign(to.Rank() - from.Rank())

	file, rank := from.File()+df, from.Rank()+dr
	for file != to.File() || rank != to.Rank() {
		if !p.IsEmpty(NewSquare(file, rank)) {
			return false
		}
		file += df
		rank += dr
	}
	return true
}

// attacksSquare reports whether the piece on from attacks the square to.
// Pawns attack diagonally only; occupancy of to does not matter.
func (p *Position) attacksSquare(from, to Square) bool {
	if from == to {
		return false
	}
	piece := p.Squares[from]
	if piece == NoPiece {
		return false
	}

	df := to.File() - from.File()
	dr := to.Rank() - from.Rank()

	switch piece.Type() {
	case Pawn:
		dir := 1
		if piece.Color() == Black {
			dir = -1
		}
		return abs(df) == 1 && dr == dir
	case King:
		return abs(df) <= 1 && abs(dr) <= 1
	case Knight:
		return (abs(df) == 1 && abs(dr) == 2) || (abs(df) == 2 && abs(dr) == 1)
	case Bishop:
		return abs(df) == abs(dr) && p.pathClear(from, to)
	case Rook:
		return (df == 0 || dr == 0) && p.pathClear(from, to)
	case Queen:
		return (abs(df) == abs(dr) || df == 0 || dr == 0) && p.pathClear(from, to)
	}
	return false
}

// IsSquareAttacked reports whether any piece of color by attacks sq.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	for from := A1; from <= H8; from++ {
		piece := p.Squares[from]
		if piece == NoPiece || piece.Color() != by {
			continue
		}
		if p.attacksSquare(from, sq) {
			return true
		}
	}
	return false
}

// InCheck reports whether the king of color c is attacked.
func (p *Position) InCheck(c Color) bool {
	king := p.kingSquare(c)
	if king == NoSquare {
		return false
	}
	return p.IsSquareAttacked(king, c.Other())
}

// canCastle resolves every castling precondition for the given side and
// direction: right held, king and rook on their start squares, the squares
// between them empty, the king not in check, and neither the transit nor
// the landing square attacked.
func (p *Position) canCastle(c Color, kingSide bool) bool {
	if !p.CastlingRights.CanCastle(c, kingSide) {
		return false
	}

	rank := 0
	if c == Black {
		rank = 7
	}
	kingFrom := NewSquare(4, rank)
	if p.Squares[kingFrom] != NewPiece(King, c) {
		return false
	}

	var rookFrom Square
	var between, safe []Square
	if kingSide {
		rookFrom = NewSquare(7, rank)
		between = []Square{NewSquare(5, rank), NewSquare(6, rank)}
		safe = between
	} else {
		rookFrom = NewSquare(0, rank)
		between = []Square{NewSquare(1, rank), NewSquare(2, rank), NewSquare(3, rank)}
		safe = []Square{NewSquare(3, rank), NewSquare(2, rank)}
	}

	if p.Squares[rookFrom] != NewPiece(Rook, c) {
		return false
	}
	for _, sq := range between {
		if !p.IsEmpty(sq) {
			return false
		}
	}
	if p.InCheck(c) {
		return false
	}
	them := c.Other()
	for _, sq := range safe {
		if p.IsSquareAttacked(sq, them) {
			return false
		}
	}
	return true
}

// castleKingTo returns the king's landing square for a castle.
func castleKingTo(c Color, kingSide bool) Square {
	rank := 0
	if c == Black {
		rank = 7
	}
	if kingSide {
		return NewSquare(6, rank)
	}
	return NewSquare(2, rank)
}

// buildMove assembles a prospective non-castle move from a geometric
// reach, deriving capture, en passant and auto-queen promotion flags.
func (p *Position) buildMove(from, to Square) Move {
	piece := p.Squares[from]
	m := Move{From: from, To: to, Piece: piece.Type(), Promotion: NoPieceType}
	if !p.IsEmpty(to) {
		m.Capture = true
	}
	if piece.Type() == Pawn {
		if to == p.EnPassant && from.File() != to.File() {
			m.EnPassant = true
			m.Capture = true
		}
		if to.RelativeRank(piece.Color()) == 7 {
			m.Promotion = Queen
		}
	}
	return m
}

// leavesKingInCheck executes the move on a copy and reports whether the
// mover's own king ends up attacked.
func (p *Position) leavesKingInCheck(m Move, mover Color) bool {
	test := p.Copy()
	test.execute(m)
	return test.InCheck(mover)
}

// LegalTargets enumerates the legal destination squares for the piece on
// from, castling destinations included when the piece is the king.
func (p *Position) LegalTargets(from Square) []Square {
	piece := p.Squares[from]
	if piece == NoPiece {
		return nil
	}
	us := piece.Color()

	var targets []Square
	for to := A1; to <= H8; to++ {
		if !p.canReach(from, to) {
			continue
		}
		if p.leavesKingInCheck(p.buildMove(from, to), us) {
			continue
		}
		targets = append(targets, to)
	}

	if piece.Type() == King {
		if p.canCastle(us, true) {
			targets = append(targets, castleKingTo(us, true))
		}
		if p.canCastle(us, false) {
			targets = append(targets, castleKingTo(us, false))
		}
	}
	return targets
}

// HasAnyLegalMove reports whether color c has at least one legal move.
func (p *Position) HasAnyLegalMove(c Color) bool {
	for from := A1; from <= H8; from++ {
		piece := p.Squares[from]
		if piece == NoPiece || piece.Color() != c {
			continue
		}
		for to := A1; to <= H8; to++ {
			if !p.canReach(from, to) {
				continue
			}
			if !p.leavesKingInCheck(p.buildMove(from, to), c) {
				return true
			}
		}
	}
	return p.canCastle(c, true) || p.canCastle(c, false)
}

// IsCheckmate reports whether color c is checkmated.
func (p *Position) IsCheckmate(c Color) bool {
	return p.InCheck(c) && !p.HasAnyLegalMove(c)
}

// IsStalemate reports whether color c is stalemated.
func (p *Position) IsStalemate(c Color) bool {
	return !p.InCheck(c) && !p.HasAnyLegalMove(c)
}

// IsFiftyMoveDraw reports whether the half-move clock has reached 100.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
