package board

// Move records one validated move: where it goes, what moved, and how.
// It is produced by resolving SAN against a Position and consumed both to
// execute the move and to report it outward.
type Move struct {
	From      Square
	To        Square
	Piece     PieceType
	Promotion PieceType // NoPieceType when the move is not a promotion
	Capture   bool
	EnPassant bool
	CastleKS  bool
	CastleQS  bool
	Notation  string // the SAN string as submitted
}

// IsCastle returns true for either castling direction.
func (m Move) IsCastle() bool {
	return m.CastleKS || m.CastleQS
}

// String returns the UCI form of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPieceType {
		promoChars := map[PieceType]string{Knight: "n", Bishop: "b", Rook: "r", Queen: "q"}
		s += promoChars[m.Promotion]
	}
	return s
}
