package board

import "fmt"

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side still holds the given right.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// clear removes the given rights. Rights only ever go away; nothing
// restores them for the life of a Position.
func (cr *CastlingRights) clear(rights CastlingRights) {
	*cr &^= rights
}

// Position represents a complete chess position plus the capture record.
type Position struct {
	// Mailbox grid indexed by Square; NoPiece marks an empty square.
	Squares [64]Piece

	// Game state
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int    // Plies since last pawn move or capture (for 50-move rule)
	FullMoveNumber int    // Full move counter, starts at 1

	// Captured piece types in capture order, by the capturing side.
	CapturedByWhite []PieceType
	CapturedByBlack []PieceType
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy creates a deep copy of the position. The grid and scalars copy by
// value; the capture lists get fresh backing arrays so an exploratory
// execute on the copy never disturbs the original.
func (p *Position) Copy() *Position {
	newPos := *p
	newPos.CapturedByWhite = append([]PieceType(nil), p.CapturedByWhite...)
	newPos.CapturedByBlack = append([]PieceType(nil), p.CapturedByBlack...)
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Squares[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Squares[sq] == NoPiece
}

// setPiece places a piece on a square.
func (p *Position) setPiece(piece Piece, sq Square) {
	p.Squares[sq] = piece
}

// removePiece removes and returns the piece on a square.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.Squares[sq]
	p.Squares[sq] = NoPiece
	return piece
}

// kingSquare locates the king of the given color, NoSquare if absent.
func (p *Position) kingSquare(c Color) Square {
	target := NewPiece(King, c)
	for sq := A1; sq <= H8; sq++ {
		if p.Squares[sq] == target {
			return sq
		}
	}
	return NoSquare
}

// recordCapture appends the captured piece's type to the mover's list.
func (p *Position) recordCapture(mover Color, captured Piece) {
	if captured == NoPiece {
		return
	}
	if mover == White {
		p.CapturedByWhite = append(p.CapturedByWhite, captured.Type())
	} else {
		p.CapturedByBlack = append(p.CapturedByBlack, captured.Type())
	}
}

// execute mutates the position by the given already-resolved move and
// performs all post-move bookkeeping: capture lists, en passant target,
// half-move clock, castling rights, promotion and side flip.
func (p *Position) execute(m Move) {
	mover := p.Squares[m.From].Color()

	if m.IsCastle() {
		p.executeCastle(m, mover)
	} else {
		captured := NoPiece
		if m.EnPassant {
			// The captured pawn sits on the target's file at the rank the
			// moving pawn started from.
			captured = p.removePiece(NewSquare(m.To.File(), m.From.Rank()))
		} else if !p.IsEmpty(m.To) {
			captured = p.removePiece(m.To)
		}

		moving := p.removePiece(m.From)
		if m.Promotion != NoPieceType {
			p.setPiece(NewPiece(m.Promotion, mover), m.To)
		} else {
			p.setPiece(moving, m.To)
		}

		p.recordCapture(mover, captured)

		if m.Piece == Pawn || captured != NoPiece {
			p.HalfMoveClock = 0
		} else {
			p.HalfMoveClock++
		}

		// A double pawn push leaves the skipped square as the en passant
		// target; every other move clears it.
		if m.Piece == Pawn && abs(m.To.Rank()-m.From.Rank()) == 2 {
			p.EnPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
		} else {
			p.EnPassant = NoSquare
		}

		if m.Piece == King {
			p.clearSideRights(mover)
		}
		p.clearRookCornerRight(m.From)
		p.clearRookCornerRight(m.To)
	}

	if mover == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = mover.Other()
}

// executeCastle repositions king and rook atomically and clears the
// moving side's rights and the en passant target.
func (p *Position) executeCastle(m Move, mover Color) {
	king := p.removePiece(m.From)
	p.setPiece(king, m.To)

	rank := m.From.Rank()
	if m.CastleKS {
		rook := p.removePiece(NewSquare(7, rank))
		p.setPiece(rook, NewSquare(5, rank))
	} else {
		rook := p.removePiece(NewSquare(0, rank))
		p.setPiece(rook, NewSquare(3, rank))
	}

	p.clearSideRights(mover)
	p.EnPassant = NoSquare
	p.HalfMoveClock++
}

// clearSideRights drops both castling rights for a color.
func (p *Position) clearSideRights(c Color) {
	if c == White {
		p.CastlingRights.clear(WhiteKingSideCastle | WhiteQueenSideCastle)
	} else {
		p.CastlingRights.clear(BlackKingSideCastle | BlackQueenSideCastle)
	}
}

// clearRookCornerRight drops the right tied to a rook's original corner
// when anything leaves it or arrives on it. A rook capture on its corner
// clears the right the same as the rook moving away.
func (p *Position) clearRookCornerRight(sq Square) {
	switch sq {
	case A1:
		p.CastlingRights.clear(WhiteQueenSideCastle)
	case H1:
		p.CastlingRights.clear(WhiteKingSideCastle)
	case A8:
		p.CastlingRights.clear(BlackQueenSideCastle)
	case H8:
		p.CastlingRights.clear(BlackKingSideCastle)
	}
}

// Cell is one occupied square of a board snapshot.
type Cell struct {
	Type  PieceType `json:"type"`
	Color Color     `json:"color"`
}

// Snapshot renders the grid for wire payloads: row 0 is rank 8, row 7 is
// rank 1, columns 0..7 are files a..h. Empty squares are nil.
func (p *Position) Snapshot() [8][8]*Cell {
	var grid [8][8]*Cell
	for row := 0; row < 8; row++ {
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, 7-row)
			if piece := p.PieceAt(sq); piece != NoPiece {
				grid[row][file] = &Cell{Type: piece.Type(), Color: piece.Color()}
			}
		}
	}
	return grid
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	s := "\n"
	for rank := 7; rank >= 0; rank-- {
		s += fmt.Sprintf("%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				s += ". "
			} else {
				s += piece.String() + " "
			}
		}
		s += "\n"
	}
	s += "\n   a b c d e f g h\n\n"
	s += fmt.Sprintf("Side to move: %s\n", p.SideToMove)
	s += fmt.Sprintf("Castling: %s\n", p.CastlingRights)
	s += fmt.Sprintf("En passant: %s\n", p.EnPassant)
	s += fmt.Sprintf("Half-move clock: %d\n", p.HalfMoveClock)
	s += fmt.Sprintf("Full move: %d\n", p.FullMoveNumber)
	return s
}

// Validate checks structural invariants of the position.
func (p *Position) Validate() error {
	if p.kingSquare(White) == NoSquare {
		return fmt.Errorf("white must have exactly one king")
	}
	if p.kingSquare(Black) == NoSquare {
		return fmt.Errorf("black must have exactly one king")
	}
	whiteKings, blackKings := 0, 0
	for sq := A1; sq <= H8; sq++ {
		switch p.Squares[sq] {
		case WhiteKing:
			whiteKings++
		case BlackKing:
			blackKings++
		case WhitePawn, BlackPawn:
			if r := sq.Rank(); r == 0 || r == 7 {
				return fmt.Errorf("pawns cannot be on rank 1 or 8")
			}
		}
	}
	if whiteKings != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if blackKings != 1 {
		return fmt.Errorf("black must have exactly one king")
	}
	return nil
}
