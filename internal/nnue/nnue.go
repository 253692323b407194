// Package nnue implements the static evaluator: a single-hidden-layer
// quantized network over a plain 768-feature input (2 sides x 6 piece
// types x 64 squares), evaluated via incrementally maintained per-side
// accumulators.
package nnue

import "github.com/lucidchess/akimbo/internal/board"

// Network architecture constants, matching the plain-768 SCReLU network
// described by original_source/src/network.rs (HIDDEN, QA, QB, SCALE),
// with the hidden width narrowed to 512.
const (
	NumPieceTypes = 6
	NumSquares    = 64
	InputSize     = 2 * NumPieceTypes * NumSquares // 768

	Hidden = 512 // hidden neurons per perspective

	QA    = 255
	QB    = 64
	QAB   = QA * QB
	Scale = 400
)

// screlu is the squared-clipped-ReLU activation: clamp(x, 0, QA)^2.
func screlu(x int16) int32 {
	v := int32(x)
	if v < 0 {
		v = 0
	}
	if v > QA {
		v = QA
	}
	return v * v
}

// Evaluator wraps a loaded Network with the accumulator it maintains across
// a search tree. Unlike the accumulator stack, the Evaluator itself is not
// tied to search depth; callers push/pop explicitly around Make/whatever
// undo mechanism they use, mirroring the incremental-update discipline the
// teacher's own NNUE package used.
type Evaluator struct {
	net   *Network
	stack *AccumulatorStack
}

// NewEvaluator builds an Evaluator. If weightsFile is empty, the network is
// initialized with small deterministic pseudo-random weights so the engine
// still runs (badly) without a shipped weight blob, useful for tests and
// for `bench` before a real network is trained.
func NewEvaluator(weightsFile string) (*Evaluator, error) {
	net := NewNetwork()

	if weightsFile != "" {
		if err := net.LoadWeights(weightsFile); err != nil {
			return nil, err
		}
	} else {
		net.InitRandom(0xC0FFEE)
	}

	return &Evaluator{net: net, stack: NewAccumulatorStack()}, nil
}

// Network returns the Evaluator's underlying weights, so a caller building
// a Lazy SMP pool can hand the same weights to every worker's Evaluator
// without reloading the blob once per thread.
func (e *Evaluator) Network() *Network { return e.net }

// NewEvaluatorFromNetwork builds an Evaluator over an already-loaded
// Network with a fresh accumulator stack. Used to give each Lazy SMP
// worker its own accumulator scratch while all workers score positions
// against identical weights.
func NewEvaluatorFromNetwork(net *Network) *Evaluator {
	return &Evaluator{net: net, stack: NewAccumulatorStack()}
}

// Evaluate returns the static evaluation of pos in centipawns, from the
// side-to-move's perspective.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	acc := e.stack.Current()
	if !acc.Computed {
		acc.Refresh(pos, e.net)
	}
	return e.net.Evaluate(acc, pos.SideToMove)
}

// Push saves accumulator state before descending to a child node.
func (e *Evaluator) Push() { e.stack.Push() }

// Pop restores accumulator state after returning from a child node.
func (e *Evaluator) Pop() { e.stack.Pop() }

// Refresh forces a full recomputation of the current accumulator from pos.
// Needed after loading a FEN or starting a new game; never needed mid-search
// since every feature (including the king) is a plain per-square input and
// updates incrementally.
func (e *Evaluator) Refresh(pos *board.Position) {
	e.stack.Current().Refresh(pos, e.net)
}

// Update applies the incremental feature changes implied by playing m,
// given the position AFTER the move has been made on the board and the
// piece (if any) that m captured.
func (e *Evaluator) Update(pos *board.Position, m board.Move, captured board.Piece) {
	e.stack.Current().Update(e.net, pos, m, captured)
}

// Reset clears the accumulator stack for a new game.
func (e *Evaluator) Reset() { e.stack.Reset() }
