package board

import (
	"encoding/json"
	"testing"
)

func TestCopyIsIndependent(t *testing.T) {
	pos := NewPosition()
	before := pos.ToFEN()

	cp := pos.Copy()
	if _, err := cp.ApplySAN("e4", White); err != nil {
		t.Fatalf("e4 on copy: %v", err)
	}
	if _, err := cp.ApplySAN("d5", Black); err != nil {
		t.Fatalf("d5 on copy: %v", err)
	}
	if _, err := cp.ApplySAN("exd5", White); err != nil {
		t.Fatalf("exd5 on copy: %v", err)
	}

	if pos.ToFEN() != before {
		t.Error("Mutating a copy must not touch the original")
	}
	if len(pos.CapturedByWhite) != 0 {
		t.Errorf("Original capture list grew: %v", pos.CapturedByWhite)
	}
	if len(cp.CapturedByWhite) != 1 {
		t.Errorf("Copy should hold the capture, got %v", cp.CapturedByWhite)
	}
}

func TestRookCaptureClearsCastlingRight(t *testing.T) {
	// Black rook takes the a1 rook on its home corner. White's queen-side
	// right goes with it and does not come back, even though a rook could
	// later reoccupy a1.
	pos, err := ParseFEN("r3k3/8/8/8/8/8/8/R3K2R b KQq - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if _, err := pos.ApplySAN("Rxa1", Black); err != nil {
		t.Fatalf("Rxa1: %v", err)
	}
	if pos.CastlingRights.CanCastle(White, false) {
		t.Error("Queen-side right must clear when the rook is captured on a1")
	}
	if !pos.CastlingRights.CanCastle(White, true) {
		t.Error("King-side right must survive")
	}
	if pos.CastlingRights.CanCastle(Black, false) {
		t.Error("Black spent its rook; the queen-side right leaves with it")
	}
	if len(pos.CapturedByBlack) != 1 || pos.CapturedByBlack[0] != Rook {
		t.Errorf("Expected captured rook, got %v", pos.CapturedByBlack)
	}
}

func TestRookMoveClearsCastlingRightPermanently(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/R3K3 w Q - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if _, err := pos.ApplySAN("Ra2", White); err != nil {
		t.Fatalf("Ra2: %v", err)
	}
	if pos.CastlingRights.CanCastle(White, false) {
		t.Error("Right must clear when the rook leaves a1")
	}

	pos.ApplySAN("Kd8", Black)
	if _, err := pos.ApplySAN("Ra1", White); err != nil {
		t.Fatalf("Ra1: %v", err)
	}
	if pos.CastlingRights.CanCastle(White, false) {
		t.Error("Returning to a1 must not restore the right")
	}
}

func TestKingMoveClearsBothRights(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if _, err := pos.ApplySAN("Ke2", White); err != nil {
		t.Fatalf("Ke2: %v", err)
	}
	if pos.CastlingRights.CanCastle(White, true) || pos.CastlingRights.CanCastle(White, false) {
		t.Error("Both white rights must clear on a king move")
	}
	if !pos.CastlingRights.CanCastle(Black, true) || !pos.CastlingRights.CanCastle(Black, false) {
		t.Error("Black rights must be untouched")
	}
}

func TestHalfMoveClockBookkeeping(t *testing.T) {
	pos := NewPosition()

	pos.ApplySAN("Nf3", White)
	if pos.HalfMoveClock != 1 {
		t.Errorf("Quiet knight move should tick the clock, got %d", pos.HalfMoveClock)
	}
	pos.ApplySAN("Nf6", Black)
	if pos.HalfMoveClock != 2 {
		t.Errorf("Expected clock 2, got %d", pos.HalfMoveClock)
	}
	pos.ApplySAN("e4", White)
	if pos.HalfMoveClock != 0 {
		t.Errorf("Pawn move should reset the clock, got %d", pos.HalfMoveClock)
	}
	pos.ApplySAN("Nxe4", Black)
	if pos.HalfMoveClock != 0 {
		t.Errorf("Capture should reset the clock, got %d", pos.HalfMoveClock)
	}
	if pos.FullMoveNumber != 3 {
		t.Errorf("Expected full move 3, got %d", pos.FullMoveNumber)
	}
}

func TestEnPassantTargetLifecycle(t *testing.T) {
	pos := NewPosition()

	pos.ApplySAN("e4", White)
	if pos.EnPassant != E3 {
		t.Fatalf("Expected target e3, got %s", pos.EnPassant)
	}
	pos.ApplySAN("Nf6", Black)
	if pos.EnPassant != NoSquare {
		t.Errorf("Target should clear on the reply, got %s", pos.EnPassant)
	}
}

func TestSnapshotOrientation(t *testing.T) {
	pos := NewPosition()
	grid := pos.Snapshot()

	// Row 0 is rank 8, so the black pieces come first.
	if c := grid[0][0]; c == nil || c.Type != Rook || c.Color != Black {
		t.Errorf("grid[0][0] should be the a8 rook, got %+v", c)
	}
	if c := grid[0][4]; c == nil || c.Type != King || c.Color != Black {
		t.Errorf("grid[0][4] should be the black king, got %+v", c)
	}
	if c := grid[7][4]; c == nil || c.Type != King || c.Color != White {
		t.Errorf("grid[7][4] should be the white king, got %+v", c)
	}
	if c := grid[6][3]; c == nil || c.Type != Pawn || c.Color != White {
		t.Errorf("grid[6][3] should be the d2 pawn, got %+v", c)
	}
	if grid[4][4] != nil {
		t.Errorf("grid[4][4] should be empty, got %+v", grid[4][4])
	}
}

func TestCellMarshalsLowercaseNames(t *testing.T) {
	raw, err := json.Marshal(Cell{Type: Knight, Color: Black})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"type":"knight","color":"black"}` {
		t.Errorf("unexpected cell JSON: %s", raw)
	}
}

func TestValidateRejectsBrokenPositions(t *testing.T) {
	cases := []struct {
		name string
		fen  string
	}{
		{"no white king", "7k/8/8/8/8/8/8/8 w - - 0 1"},
		{"two black kings", "6kk/8/8/8/8/8/8/K7 w - - 0 1"},
		{"pawn on the back rank", "P6k/8/8/8/8/8/8/K7 w - - 0 1"},
	}
	for _, tc := range cases {
		if _, err := ParseFEN(tc.fen); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}
