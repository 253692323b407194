package board

import "testing"

func TestSEEWinningPawnCapturesQueen(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	m := NewMove(E4, D5)
	if !pos.SEE(m, 0) {
		t.Error("pawn capturing undefended queen should pass SEE(0)")
	}
	if !pos.SEE(m, seeValue[Queen]-seeValue[Pawn]) {
		t.Error("pawn capturing undefended queen should clear its own net material gain")
	}
}

func TestSEELosingQueenCaptureOfDefendedPawn(t *testing.T) {
	// Queen takes a pawn defended by the king; recapture loses the queen.
	pos, err := ParseFEN("4k3/3p4/8/8/8/8/3Q4/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	m := NewMove(D2, D7)
	if pos.SEE(m, 0) {
		t.Error("queen capturing a king-defended pawn should fail SEE(0)")
	}
}

func TestSEEEqualTradeRookForRook(t *testing.T) {
	// Rook takes a rook defended by the king; the king recaptures.
	pos, err := ParseFEN("8/8/4k3/3r4/8/8/8/3RK3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	m := NewMove(D1, D5)
	if !pos.SEE(m, 0) {
		t.Error("rook for rook trade should be SEE >= 0")
	}
	if pos.SEE(m, 1) {
		t.Error("rook for rook trade should not clear a positive threshold")
	}
}

func TestSEEEnPassantCountsPawnValue(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	if err != nil {
		t.Fatal(err)
	}
	m := NewEnPassant(E5, D6)
	if !pos.SEE(m, seeValue[Pawn]) {
		t.Error("undefended en passant capture should clear a pawn-value threshold")
	}
}
