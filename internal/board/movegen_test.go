package board

import (
	"testing"
)

func containsSquare(squares []Square, sq Square) bool {
	for _, s := range squares {
		if s == sq {
			return true
		}
	}
	return false
}

func TestLegalTargetsStartPosition(t *testing.T) {
	pos := NewPosition()

	e2 := pos.LegalTargets(E2)
	if len(e2) != 2 || !containsSquare(e2, E3) || !containsSquare(e2, E4) {
		t.Errorf("e2 pawn targets: %v", e2)
	}

	g1 := pos.LegalTargets(G1)
	if len(g1) != 2 || !containsSquare(g1, F3) || !containsSquare(g1, H3) {
		t.Errorf("g1 knight targets: %v", g1)
	}

	if targets := pos.LegalTargets(E1); len(targets) != 0 {
		t.Errorf("boxed-in king should have no targets, got %v", targets)
	}
	if targets := pos.LegalTargets(D1); len(targets) != 0 {
		t.Errorf("boxed-in queen should have no targets, got %v", targets)
	}
	if targets := pos.LegalTargets(E4); targets != nil {
		t.Errorf("empty square should have no targets, got %v", targets)
	}

	// The other side's pieces enumerate too; whose turn it is does not
	// matter for highlighting.
	e7 := pos.LegalTargets(E7)
	if len(e7) != 2 || !containsSquare(e7, E6) || !containsSquare(e7, E5) {
		t.Errorf("e7 pawn targets: %v", e7)
	}
}

func TestLegalTargetsIncludeCastles(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	targets := pos.LegalTargets(E1)
	if !containsSquare(targets, G1) {
		t.Errorf("king targets should include g1 for O-O, got %v", targets)
	}
	if !containsSquare(targets, C1) {
		t.Errorf("king targets should include c1 for O-O-O, got %v", targets)
	}
	if !containsSquare(targets, D2) || !containsSquare(targets, F1) {
		t.Errorf("ordinary king steps missing: %v", targets)
	}
}

func TestLegalTargetsRespectPins(t *testing.T) {
	// The e4 bishop is pinned by the e8 rook and may not move at all.
	pos, err := ParseFEN("4r2k/8/8/8/4B3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if targets := pos.LegalTargets(E4); len(targets) != 0 {
		t.Errorf("pinned bishop should have no targets, got %v", targets)
	}
}

func TestIsSquareAttackedPawnDirection(t *testing.T) {
	pos, err := ParseFEN("7k/8/8/8/4P3/8/8/7K w - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if !pos.IsSquareAttacked(D5, White) || !pos.IsSquareAttacked(F5, White) {
		t.Error("e4 pawn should attack d5 and f5")
	}
	if pos.IsSquareAttacked(E5, White) {
		t.Error("Pawns do not attack straight ahead")
	}
	if pos.IsSquareAttacked(D3, White) {
		t.Error("White pawns do not attack backwards")
	}
}

func TestInCheckDetection(t *testing.T) {
	pos, err := ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if !pos.InCheck(White) {
		t.Error("h4 queen should check the white king")
	}
	if pos.InCheck(Black) {
		t.Error("Black is not in check")
	}
}
