package search

import "github.com/lucidchess/akimbo/internal/board"

// pvLine is a fixed-capacity principal-variation buffer for one ply,
// avoiding a slice allocation on every node the way a triangular PV table
// would if backed by slices.
type pvLine struct {
	moves [MaxPly]board.Move
	len   int
}

func (pv *pvLine) set(m board.Move, child *pvLine) {
	pv.moves[0] = m
	n := copy(pv.moves[1:], child.moves[:child.len])
	pv.len = n + 1
}

func (pv *pvLine) clear() {
	pv.len = 0
}

func (pv *pvLine) slice() []board.Move {
	return pv.moves[:pv.len]
}

// plyEntry is the per-ply scratch a search thread keeps while recursing:
// the static eval at that node (read by the "improving" heuristic two ply
// up), the move currently excluded from singular-extension verification,
// and the PV accumulated at this node. failHighCount is carried in the
// struct but the search neither updates nor reads it.
type plyEntry struct {
	eval          int
	hasEval       bool
	excluded      board.Move
	pv            pvLine
	failHighCount int
}

// nodeTable accumulates, per root move (from,to), how many nodes were
// spent searching under it, used by the soft-time heuristic to stop
// early once one root move has consumed a dominant node share.
type nodeTable [64][64]int64

func (n *nodeTable) add(m board.Move, nodes int64) {
	n[m.From()][m.To()] += nodes
}

func (n *nodeTable) get(m board.Move) int64 {
	return n[m.From()][m.To()]
}
