package nnue

import "github.com/lucidchess/akimbo/internal/board"

// FeatureIndex computes the input index (0..767) of a piece as seen from a
// perspective. Each perspective sees 384 "own" features and 384 "their"
// features are folded into the same encoding by relabeling color relative
// to perspective; black's perspective additionally mirrors the square
// (XOR 56) so both sides train on a board that looks, structurally, the
// same way up. This index never depends on where either king is, unlike
// HalfKP, a king move is just another piece moving.
func FeatureIndex(perspective, pieceColor board.Color, pt board.PieceType, sq board.Square) int {
	c := pieceColor
	s := sq
	if perspective == board.Black {
		c = pieceColor.Other()
		s = sq.Mirror()
	}
	return int(c)*NumPieceTypes*NumSquares + int(pt)*NumSquares + int(s)
}
