package nnue

import "github.com/lucidchess/akimbo/internal/board"

// Accumulator holds the hidden-layer pre-activation values for both
// perspectives, maintained incrementally as pieces move rather than
// recomputed from scratch at every node.
type Accumulator struct {
	White    [Hidden]int16
	Black    [Hidden]int16
	Computed bool
}

// AccumulatorStack mirrors the search's recursion depth: Push before
// descending into a child node, Pop on the way back up. MAX_PLY is shared
// with the search package's ply bound.
type AccumulatorStack struct {
	stack [96]Accumulator
	top   int
}

// NewAccumulatorStack creates an empty stack positioned at the root.
func NewAccumulatorStack() *AccumulatorStack {
	return &AccumulatorStack{}
}

// Push duplicates the current accumulator onto the next stack slot.
func (s *AccumulatorStack) Push() {
	if s.top < len(s.stack)-1 {
		s.stack[s.top+1] = s.stack[s.top]
		s.top++
	}
}

// Pop discards the current accumulator and returns to the parent's.
func (s *AccumulatorStack) Pop() {
	if s.top > 0 {
		s.top--
	}
}

// Current returns the accumulator for the current node.
func (s *AccumulatorStack) Current() *Accumulator {
	return &s.stack[s.top]
}

// Reset collapses the stack back to the root and marks it stale.
func (s *AccumulatorStack) Reset() {
	s.top = 0
	s.stack[0].Computed = false
}

func addFeature(acc *[Hidden]int16, net *Network, idx int) {
	w := &net.FeatureWeights[idx]
	for i := 0; i < Hidden; i++ {
		acc[i] += w[i]
	}
}

func subFeature(acc *[Hidden]int16, net *Network, idx int) {
	w := &net.FeatureWeights[idx]
	for i := 0; i < Hidden; i++ {
		acc[i] -= w[i]
	}
}

// Refresh recomputes both perspectives from scratch by summing the bias and
// every occupied square's feature weight.
func (a *Accumulator) Refresh(pos *board.Position, net *Network) {
	a.White = net.FeatureBias
	a.Black = net.FeatureBias

	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				addFeature(&a.White, net, FeatureIndex(board.White, c, pt, sq))
				addFeature(&a.Black, net, FeatureIndex(board.Black, c, pt, sq))
			}
		}
	}
	a.Computed = true
}

// Update applies the ADD/SUBTRACT feature ops implied by playing m, given
// pos AFTER the move has already been made and the piece m captured (if
// any). It is called from inside Position.Make's caller, not from Make
// itself, so board and nnue stay decoupled.
func (a *Accumulator) Update(net *Network, pos *board.Position, m board.Move, captured board.Piece) {
	if !a.Computed {
		a.Refresh(pos, net)
		return
	}

	to := m.To()
	moved := pos.PieceAt(to)
	if moved == board.NoPiece {
		a.Computed = false
		return
	}
	movingColor := moved.Color()
	from := m.From()

	fromType := moved.Type()
	if m.IsPromotion() {
		fromType = board.Pawn
	}
	subFeature(&a.White, net, FeatureIndex(board.White, movingColor, fromType, from))
	subFeature(&a.Black, net, FeatureIndex(board.Black, movingColor, fromType, from))

	addFeature(&a.White, net, FeatureIndex(board.White, movingColor, moved.Type(), to))
	addFeature(&a.Black, net, FeatureIndex(board.Black, movingColor, moved.Type(), to))

	if captured != board.NoPiece {
		capSq := to
		if m.IsEnPassant() {
			if movingColor == board.White {
				capSq = to - 8
			} else {
				capSq = to + 8
			}
		}
		subFeature(&a.White, net, FeatureIndex(board.White, captured.Color(), captured.Type(), capSq))
		subFeature(&a.Black, net, FeatureIndex(board.Black, captured.Color(), captured.Type(), capSq))
	}

	if m.IsCastling() {
		var rookFrom, rookTo board.Square
		rank := from.Rank()
		if to > from {
			rookFrom = board.NewSquare(7, rank)
			rookTo = board.NewSquare(5, rank)
		} else {
			rookFrom = board.NewSquare(0, rank)
			rookTo = board.NewSquare(3, rank)
		}
		subFeature(&a.White, net, FeatureIndex(board.White, movingColor, board.Rook, rookFrom))
		subFeature(&a.Black, net, FeatureIndex(board.Black, movingColor, board.Rook, rookFrom))
		addFeature(&a.White, net, FeatureIndex(board.White, movingColor, board.Rook, rookTo))
		addFeature(&a.Black, net, FeatureIndex(board.Black, movingColor, board.Rook, rookTo))
	}
}
