package board

import (
	"testing"
)

func TestCheckmateBackRank(t *testing.T) {
	// White: Ka1, Ra8
	// Black: Kh8, pawns on g7 and h7 blocking escape
	// Black is already in checkmate (Black to move)
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	t.Log("Checkmate position:")
	t.Log(pos)

	if !pos.InCheck(Black) {
		t.Error("Expected black to be in check")
	}
	if !pos.IsCheckmate(Black) {
		t.Error("Expected checkmate but got false")
	}
	if pos.IsStalemate(Black) {
		t.Error("Checkmate must not also read as stalemate")
	}
}

func TestNotCheckmateKingCanCapture(t *testing.T) {
	// Black king on h8, rook on g8 but the king can take it
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if !pos.InCheck(Black) {
		t.Error("Expected black to be in check")
	}
	if pos.IsCheckmate(Black) {
		t.Error("Expected NOT checkmate but got true")
	}
	if !pos.HasAnyLegalMove(Black) {
		t.Error("King capture of the checking rook should be available")
	}
}

func TestFoolsMate(t *testing.T) {
	pos := NewPosition()

	moves := []string{"f3", "e5", "g4", "Qh4"}
	for i, san := range moves {
		mover := White
		if i%2 == 1 {
			mover = Black
		}
		if _, err := pos.ApplySAN(san, mover); err != nil {
			t.Fatalf("move %d (%s): %v", i+1, san, err)
		}
	}

	if !pos.IsCheckmate(White) {
		t.Error("Expected white to be checkmated after Qh4")
	}
	if pos.SideToMove != White {
		t.Errorf("Expected white to move in the final position, got %s", pos.SideToMove)
	}
}

func TestStalemateCorneredKing(t *testing.T) {
	// White king on h1, black king f2 and queen g3. White to move has no
	// legal move and is not in check.
	pos, err := ParseFEN("8/8/8/8/8/6q1/5k2/7K w - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if pos.InCheck(White) {
		t.Error("White must not be in check")
	}
	if pos.HasAnyLegalMove(White) {
		t.Error("White should have no legal moves")
	}
	if !pos.IsStalemate(White) {
		t.Error("Expected stalemate but got false")
	}
	if pos.IsCheckmate(White) {
		t.Error("Stalemate must not read as checkmate")
	}
}

func TestFiftyMoveRule(t *testing.T) {
	pos, err := ParseFEN("k7/8/8/8/8/8/8/K6R w - - 99 80")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if pos.IsFiftyMoveDraw() {
		t.Fatal("Clock at 99 must not yet be a draw")
	}

	// A quiet rook move ticks the clock to 100.
	if _, err := pos.ApplySAN("Rh2", White); err != nil {
		t.Fatalf("Rh2: %v", err)
	}
	if pos.HalfMoveClock != 100 {
		t.Fatalf("Expected half-move clock 100, got %d", pos.HalfMoveClock)
	}
	if !pos.IsFiftyMoveDraw() {
		t.Error("Expected fifty-move draw at clock 100")
	}

	// A pawn move or capture would have reset it instead.
	reset, err := ParseFEN("k7/8/8/8/8/8/P7/K6R w - - 99 80")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}
	if _, err := reset.ApplySAN("a3", White); err != nil {
		t.Fatalf("a3: %v", err)
	}
	if reset.HalfMoveClock != 0 {
		t.Errorf("Pawn move should reset the clock, got %d", reset.HalfMoveClock)
	}
}
