package board

import "testing"

func TestColorBasics(t *testing.T) {
	if White.Other() != Black || Black.Other() != White {
		t.Error("Other() should flip the color")
	}
	if White.String() != "White" || Black.Name() != "black" {
		t.Errorf("naming: %s %s", White.String(), Black.Name())
	}

	c, err := ParseColor("white")
	if err != nil || c != White {
		t.Errorf("ParseColor(white) = %v, %v", c, err)
	}
	if _, err := ParseColor("green"); err == nil {
		t.Error("ParseColor(green) should fail")
	}
}

func TestPieceEncoding(t *testing.T) {
	p := NewPiece(Knight, Black)
	if p != BlackKnight || p.Type() != Knight || p.Color() != Black {
		t.Errorf("encoding broke: %v %v %v", p, p.Type(), p.Color())
	}
	if WhiteKing.String() != "K" || BlackQueen.String() != "q" {
		t.Errorf("piece letters: %s %s", WhiteKing.String(), BlackQueen.String())
	}
	if PieceFromChar('n') != BlackKnight || PieceFromChar('R') != WhiteRook {
		t.Error("PieceFromChar mapping broke")
	}
	if PieceFromChar('x') != NoPiece {
		t.Error("unknown char should map to NoPiece")
	}
}

func TestSquareGeometry(t *testing.T) {
	if E4.File() != 4 || E4.Rank() != 3 {
		t.Errorf("e4 file/rank: %d %d", E4.File(), E4.Rank())
	}
	if E4.String() != "e4" || NoSquare.String() != "-" {
		t.Errorf("square names: %s %s", E4.String(), NoSquare.String())
	}
	if NewSquare(4, 3) != E4 {
		t.Error("NewSquare(4,3) should be e4")
	}

	sq, err := ParseSquare("h8")
	if err != nil || sq != H8 {
		t.Errorf("ParseSquare(h8) = %v, %v", sq, err)
	}
	if _, err := ParseSquare("i1"); err == nil {
		t.Error("ParseSquare(i1) should fail")
	}

	if A2.RelativeRank(White) != 1 || A2.RelativeRank(Black) != 6 {
		t.Errorf("relative ranks: %d %d", A2.RelativeRank(White), A2.RelativeRank(Black))
	}
}
