package search

import "github.com/lucidchess/akimbo/internal/board"

// Move ordering score bands, highest first. MVV-LVA captures, promotions,
// and the two killer slots sit between the hash move and history-ordered
// quiets so a fail-high on a good capture, a queen push, or a repeated
// refutation is tried early without needing to touch the history table at
// all.
const (
	scoreHashMove   int32 = 1 << 22
	scoreGoodCap    int32 = 1 << 21
	scorePromo      int32 = 1 << 20
	scoreKiller1    int32 = 1 << 18
	scoreKiller2    int32 = scoreKiller1 - 1
	scoreCounter    int32 = 1 << 17
	scoreBadCap     int32 = -(1 << 21)
	historyMax      int32 = 16384
	historyMin      int32 = -16384
)

// Killers holds, per ply, the two most recent quiet moves that caused a
// beta cutoff. Checked before the history table since a killer that
// refuted a sibling line is disproportionately likely to refute this one
// too.
type Killers struct {
	moves [MaxPly][2]board.Move
}

// Update records m as the newest killer at ply, shifting the previous
// first slot down. A move already in slot 0 is not re-added.
func (k *Killers) Update(ply int, m board.Move) {
	if k.moves[ply][0] == m {
		return
	}
	k.moves[ply][1] = k.moves[ply][0]
	k.moves[ply][0] = m
}

func (k *Killers) at(ply int) (board.Move, board.Move) {
	return k.moves[ply][0], k.moves[ply][1]
}

// Clear resets all killer slots, done once per iterative-deepening search
// (killers from a previous root search are not useful at a fresh depth).
func (k *Killers) Clear() {
	for i := range k.moves {
		k.moves[i] = [2]board.Move{}
	}
}

// History scores quiet moves by how often they have caused a beta cutoff,
// indexed by [side][piece type][to square], saturating at +/-historyMax so
// a single hot position cannot dominate move ordering for the rest of the
// game tree.
type History struct {
	table [2][6][64]int32
}

func (h *History) score(side board.Color, pt board.PieceType, to board.Square) int32 {
	return h.table[side][pt][to]
}

// Update applies a cutoff bonus to best and a matching malus to every
// other quiet move tried before it at this node (failed []board.Move are
// the quiets searched before the cutoff). The bonus grows linearly with
// depth (historyBonus) and is applied with the saturating gravity formula
// in add.
func (h *History) Update(pos *board.Position, best board.Move, failed []board.Move, depth int) {
	bonus := historyBonus(depth)
	side := pos.SideToMove
	h.add(side, pos, best, bonus)
	for _, m := range failed {
		if m == best {
			continue
		}
		h.add(side, pos, m, -bonus)
	}
}

func (h *History) add(side board.Color, pos *board.Position, m board.Move, bonus int32) {
	pt := pos.PieceAt(m.From()).Type()
	if pt == board.NoPieceType {
		return
	}
	to := m.To()
	v := &h.table[side][pt][to]
	*v += bonus - (*v)*abs32(bonus)/historyMax
	if *v > historyMax {
		*v = historyMax
	}
	if *v < historyMin {
		*v = historyMin
	}
}

func (h *History) Clear() {
	h.table = [2][6][64]int32{}
}

// historyBonus caps the per-cutoff history reward at 1600, well below
// historyMax itself, so no single node can saturate the table outright.
func historyBonus(depth int) int32 {
	b := int32(350 * (depth - 1))
	if b > 1600 {
		b = 1600
	}
	if b < 0 {
		b = 0
	}
	return b
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// CounterMoves remembers, for each (side, piece type, to-square) that made
// the opponent's previous move, the reply that refuted it last time,
// tried right after the killers, before falling back to plain history.
type CounterMoves struct {
	table [2][6][64]board.Move
}

func (c *CounterMoves) Update(side board.Color, prev board.Move, prevPiece board.PieceType, reply board.Move) {
	if prev == board.NoMove {
		return
	}
	c.table[side][prevPiece][prev.To()] = reply
}

func (c *CounterMoves) Get(side board.Color, prev board.Move, prevPiece board.PieceType) board.Move {
	if prev == board.NoMove {
		return board.NoMove
	}
	return c.table[side][prevPiece][prev.To()]
}

// CaptureHistory scores captures the same way History scores quiets,
// indexed by [attacker piece type][victim piece type][to square], used to
// break ties among captures SEE rates as roughly equal trades.
type CaptureHistory struct {
	table [6][6][64]int32
}

func (ch *CaptureHistory) Update(attacker, victim board.PieceType, to board.Square, depth int, good bool) {
	bonus := historyBonus(depth)
	if !good {
		bonus = -bonus
	}
	v := &ch.table[attacker][victim][to]
	*v += bonus - (*v)*abs32(bonus)/historyMax
	if *v > historyMax {
		*v = historyMax
	}
	if *v < historyMin {
		*v = historyMin
	}
}

func (ch *CaptureHistory) score(attacker, victim board.PieceType, to board.Square) int32 {
	return ch.table[attacker][victim][to]
}

// Orderer bundles the move ordering state a single search thread owns. It
// is not shared across threads: each Lazy SMP worker gets its own, so
// killers and history diverge naturally between helper threads the way
// original_source's thread-local tables do.
type Orderer struct {
	Killers  Killers
	History  History
	Counters CounterMoves
	CapHist  CaptureHistory
}

func NewOrderer() *Orderer {
	return &Orderer{}
}

// Score assigns every pseudo-legal move in ml an ordering score. hashMove
// is the move from a successful TT probe at this node (or NoMove); prev is
// the move that led to this node and prevPiece the piece that made it,
// used for the counter-move lookup.
func (o *Orderer) Score(pos *board.Position, ml *board.MoveList, ply int, hashMove board.Move, prev board.Move, prevPiece board.PieceType) []int32 {
	scores := make([]int32, ml.Len())
	k1, k2 := o.Killers.at(ply)
	counter := o.Counters.Get(pos.SideToMove, prev, prevPiece)

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		switch {
		case m == hashMove:
			scores[i] = scoreHashMove
		case m.IsCapture(pos):
			scores[i] = o.scoreCapture(pos, m)
		case m.IsPromotion():
			scores[i] = scorePromo + int32(m.Promotion())
		case m == k1:
			scores[i] = scoreKiller1
		case m == k2:
			scores[i] = scoreKiller2
		case m == counter:
			scores[i] = scoreCounter
		default:
			pt := pos.PieceAt(m.From()).Type()
			scores[i] = o.History.score(pos.SideToMove, pt, m.To())
		}
	}
	return scores
}

func (o *Orderer) scoreCapture(pos *board.Position, m board.Move) int32 {
	attacker := pos.PieceAt(m.From()).Type()
	victim := board.Pawn
	if m.IsEnPassant() {
		victim = board.Pawn
	} else if v := pos.PieceAt(m.To()); v != board.NoPiece {
		victim = v.Type()
	}

	base := scoreBadCap
	if pos.SEE(m, 0) {
		base = scoreGoodCap
	}
	// MVV-LVA as the primary key within a band, capture-history as the
	// tiebreak so repeatedly-good trades of the same shape sort first.
	mvvLva := int32(board.PieceValue[victim]*8 - board.PieceValue[attacker]/8)
	return base + mvvLva + o.CapHist.score(attacker, victim, m.To())/64
}

// NewSearch clears per-iteration state (killers) while letting history and
// counter-move tables persist across the iterative-deepening loop, the way
// original_source's ordering tables survive from one root depth to the next.
func (o *Orderer) NewSearch() {
	o.Killers.Clear()
}
