package search

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/lucidchess/akimbo/internal/board"
	"github.com/lucidchess/akimbo/internal/nnue"
)

// Infinity is a window bound wide enough that no real score can reach it;
// kept distinct from MateScore so mate-distance pruning has room to work.
const Infinity = 32001

// Limits.Depth of 0 means "use MaxPly-1".
const defaultDepth = MaxPly - 1

// Info is one iterative-deepening report, handed to the UCI front-end's
// report callback after every completed depth. A depth interrupted by an
// abort is not reported.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	Mate     bool
	MateIn   int
	Nodes    int64
	Time     time.Duration
	PV       []board.Move
}

// Searcher runs a single-threaded PVS search. Every Lazy SMP worker owns
// its own Searcher; only the transposition table passed to NewSearcher is
// shared between them.
type Searcher struct {
	tt      *Table
	orderer *Orderer
	eval    *nnue.Evaluator
	abort   *atomic.Bool
	tm      *TimeManager

	nodes    int64
	seldepth int
	ply      [MaxPly]plyEntry
	ntable   nodeTable

	// history holds the zobrist hashes of the game leading up to the
	// current search root (from UCI "position ... moves"); repetition
	// detection walks this plus the in-search path.
	history []uint64
	path    [MaxPly]uint64

	rootMove  board.Move
	lastScore int
}

// NewSearcher creates a searcher sharing tt. eval must not be shared with
// another concurrently running Searcher (accumulators are not
// thread-safe).
func NewSearcher(tt *Table, eval *nnue.Evaluator) *Searcher {
	return &Searcher{
		tt:      tt,
		orderer: NewOrderer(),
		eval:    eval,
		abort:   &atomic.Bool{},
	}
}

// SetAbort installs a shared abort flag, used so a single "stop" command
// can halt every Lazy SMP worker through one atomic.
func (s *Searcher) SetAbort(flag *atomic.Bool) {
	s.abort = flag
}

// SetHistory records the zobrist hashes of the game played so far (one per
// ply since the last irreversible move, oldest first), used for
// repetition detection at the search root.
func (s *Searcher) SetHistory(hashes []uint64) {
	s.history = hashes
}

func (s *Searcher) reset() {
	s.nodes = 0
	s.seldepth = 0
	s.ntable = nodeTable{}
	s.orderer.NewSearch()
	s.eval.Reset()
}

// Nodes returns the node count of the most recent (or in-progress) search.
func (s *Searcher) Nodes() int64 { return s.nodes }

// Go runs iterative deepening from pos under limits, calling report after
// each completed depth, and returns the best move and its score. depth 0
// in limits means "no explicit depth cap" (time/nodes still apply).
func (s *Searcher) Go(pos *board.Position, limits Limits, report func(Info)) (board.Move, int) {
	s.reset()
	s.tt.NewSearch()

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth > defaultDepth {
		maxDepth = defaultDepth
	}

	s.tm = NewTimeManager(limits, int(pos.SideToMove), time.Now())

	var best board.Move
	score := 0
	prevScore := 0

	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && !s.tm.ShouldStartIteration() {
			break
		}

		var iterScore int
		if depth < 7 {
			iterScore = s.aspirationFullWindow(pos, depth)
		} else {
			iterScore = s.aspirationSearch(pos, depth, prevScore)
		}

		if s.abort.Load() {
			break
		}

		prevScore = iterScore
		score = iterScore
		if s.ply[0].pv.len > 0 {
			best = s.ply[0].pv.moves[0]
			s.rootMove = best
		}

		if report != nil {
			report(s.makeInfo(depth, score))
		}

		if depth > 8 {
			frac := float64(s.ntable.get(best)) / float64(max64(s.nodes, 1))
			factor := (1.5 - frac) * 1.35
			if time.Since(s.tm.start) >= time.Duration(float64(s.tm.soft)*factor) {
				break
			}
		}

		if isMateScore(score) && matePly(score) <= depth {
			// No point searching deeper once the shortest mate at this
			// depth has been proven.
			break
		}
	}

	s.lastScore = score
	return best, score
}

func (s *Searcher) makeInfo(depth int, score int) Info {
	info := Info{
		Depth:    depth,
		SelDepth: s.seldepth,
		Score:    score,
		Nodes:    s.nodes,
		Time:     s.tm.Elapsed(),
		PV:       append([]board.Move(nil), s.ply[0].pv.slice()...),
	}
	if isMateScore(score) {
		info.Mate = true
		plies := matePly(score)
		mateIn := (plies + 1) / 2
		if score < 0 {
			mateIn = -mateIn
		}
		info.MateIn = mateIn
	}
	return info
}

func isMateScore(score int) bool {
	return score >= MateBound || score <= -MateBound
}

// matePly returns the number of plies to the mate a mate score represents.
func matePly(score int) int {
	if score >= MateBound {
		return MateScore - score
	}
	return MateScore + score
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// aspirationFullWindow runs depth with a full [-Infinity, Infinity] window,
// used for the first several iterations where there is no previous score
// to center a narrow window on.
func (s *Searcher) aspirationFullWindow(pos *board.Position, depth int) int {
	child := pos.Copy()
	return s.pvs(child, -Infinity, Infinity, depth, 0, true, board.NoMove)
}

// aspirationSearch narrows the window around prevScore, widening by
// doubling on either side whenever the search fails outside it.
func (s *Searcher) aspirationSearch(pos *board.Position, depth, prevScore int) int {
	delta := 25
	alpha := prevScore - delta
	beta := prevScore + delta
	if alpha < -Infinity {
		alpha = -Infinity
	}
	if beta > Infinity {
		beta = Infinity
	}

	searchDepth := depth
	for {
		child := pos.Copy()
		score := s.pvs(child, alpha, beta, searchDepth, 0, true, board.NoMove)
		if s.abort.Load() {
			return score
		}

		if score <= alpha {
			beta = (alpha + beta) / 2
			alpha = score - delta
			if alpha < -Infinity {
				alpha = -Infinity
			}
			searchDepth = depth
		} else if score >= beta {
			beta = score + delta
			if beta > Infinity {
				beta = Infinity
			}
			if searchDepth > 1 {
				searchDepth--
			}
		} else {
			return score
		}
		delta *= 2
	}
}

// pvs is alpha-beta search with the principal-variation-search refinement:
// the first move at a node is searched with the full window, later
// siblings with a null window, re-searched at full width only if they beat
// alpha.
func (s *Searcher) pvs(pos *board.Position, alpha, beta, depth, ply int, nullAllowed bool, prevMove board.Move) int {
	s.ply[ply].pv.clear()

	if s.nodes&1023 == 0 && s.checkAbort() {
		return 0
	}
	s.nodes++
	if ply > s.seldepth {
		s.seldepth = ply
	}

	pvNode := beta-alpha > 1

	if ply > 0 {
		if s.isDraw(pos, ply) {
			return 0
		}
		if a := ply - MateScore; a > alpha {
			alpha = a
		}
		if b := MateScore - ply - 1; b < beta {
			beta = b
		}
		if alpha >= beta {
			return alpha
		}
	}

	inCheck := pos.InCheck()
	if inCheck {
		depth++
	}

	if depth <= 0 || ply >= MaxPly-1 {
		return s.qsearch(pos, alpha, beta, ply)
	}

	excluded := s.ply[ply].excluded

	var ttMove board.Move
	var ttScore, ttDepth int
	var ttBound Bound
	var ttHit bool
	if excluded == board.NoMove {
		ttMove, ttScore, ttDepth, ttBound, ttHit = s.tt.Probe(pos.Hash, ply)
		if ttHit && !pvNode && ttDepth >= depth {
			switch ttBound {
			case BoundExact:
				return ttScore
			case BoundLower:
				if ttScore >= beta {
					return ttScore
				}
			case BoundUpper:
				if ttScore <= alpha {
					return ttScore
				}
			}
		}
	}

	staticEval := s.eval.Evaluate(pos)
	if ttHit && ((ttBound == BoundLower && ttScore > staticEval) || (ttBound == BoundUpper && ttScore < staticEval)) {
		staticEval = ttScore
	}
	s.ply[ply].eval = staticEval
	s.ply[ply].hasEval = true

	improving := ply >= 2 && s.ply[ply-2].hasEval && staticEval > s.ply[ply-2].eval

	if !pvNode && !inCheck && abs(beta) < MateBound {
		// Reverse futility pruning.
		if depth <= 8 {
			div := 1
			if improving {
				div = 2
			}
			if staticEval >= beta+80*depth/div {
				return staticEval
			}
		}

		// Razoring.
		if depth <= 2 && staticEval+400*depth < alpha {
			score := s.qsearch(pos, alpha, beta, ply)
			if score < alpha {
				return score
			}
		}

		// Null-move pruning.
		if nullAllowed && depth >= 3 && pos.Phase() > 2 && staticEval >= beta {
			undo := pos.MakeNullMove()
			reduction := 3 + depth/3
			childDepth := depth - 1 - reduction
			if childDepth < 0 {
				childDepth = 0
			}
			s.path[ply] = pos.Hash
			score := -s.pvs(pos, -beta, -beta+1, childDepth, ply+1, false, board.NoMove)
			pos.UnmakeNullMove(undo)
			if s.abort.Load() {
				return 0
			}
			if score >= beta && score < MateBound {
				return beta
			}
		}
	}

	// Internal iterative reduction.
	if depth >= 4 && ttMove == board.NoMove {
		depth--
	}

	moves := pos.GeneratePseudoLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	var prevPiece board.PieceType = board.NoPieceType
	if prevMove != board.NoMove {
		prevPiece = pos.PieceAt(prevMove.To()).Type()
	}
	scores := s.orderer.Score(pos, moves, ply, ttMove, prevMove, prevPiece)

	bestScore := -Infinity
	bestMove := board.NoMove
	bound := BoundUpper
	legal := 0
	var quietsTried []board.Move
	var capturesTried []board.Move

	for i := 0; i < moves.Len(); i++ {
		m := moves.Pick(i, scores)
		if m == excluded {
			continue
		}

		isCapture := m.IsCapture(pos)
		moveScore := scores[i]

		if !pvNode && !inCheck && bestScore > -MateBound {
			div := 2
			if improving {
				div = 1
			}
			if legal > 2+depth*depth/div && moveScore < scoreKiller2 {
				break
			}
			if depth < 7 && moveScore < scoreGoodCap {
				margin := -50 * depth
				if isCapture {
					margin = -90 * depth
				}
				if !pos.SEE(m, margin) {
					continue
				}
			}
		}

		extension := 0
		if m == ttMove && depth >= 6 && ttHit && ttDepth >= depth-3 && ttBound != BoundUpper && abs(ttScore) < MateBound && excluded == board.NoMove {
			singularBeta := ttScore - 2*depth
			s.ply[ply].excluded = m
			singularScore := s.pvs(pos, singularBeta-1, singularBeta, (depth-1)/2, ply, false, prevMove)
			s.ply[ply].excluded = board.NoMove
			if singularScore < singularBeta {
				extension = 1
			} else if ttScore >= beta {
				extension = -1
			}
		}

		captured := capturedBy(pos, m)
		s.eval.Push()
		child := pos.Copy()
		illegal := child.Make(m)
		if illegal {
			s.eval.Pop()
			continue
		}
		s.eval.Update(child, m, captured)
		legal++
		if !isCapture {
			quietsTried = append(quietsTried, m)
		} else {
			capturesTried = append(capturesTried, m)
		}

		nodesBefore := s.nodes
		s.path[ply] = child.Hash

		var score int
		childDepth := depth - 1 + extension
		if legal == 1 {
			score = -s.pvs(child, -beta, -alpha, childDepth, ply+1, true, m)
		} else {
			reduction := 0
			if depth >= 3 && legal > 1 && !isCapture {
				reduction = lateMoveReduction(depth, legal)
				if pvNode {
					reduction--
				}
				if inCheck || child.InCheck() {
					reduction--
				}
				reduction -= int(scores[i] / 8192)
				if reduction < 0 {
					reduction = 0
				}
			}
			reducedDepth := childDepth - reduction
			if reducedDepth < 0 {
				reducedDepth = 0
			}
			score = -s.pvs(child, -alpha-1, -alpha, reducedDepth, ply+1, true, m)
			if score > alpha && (reduction > 0 || score < beta) {
				score = -s.pvs(child, -beta, -alpha, childDepth, ply+1, true, m)
			}
		}

		if ply == 0 {
			s.ntable.add(m, s.nodes-nodesBefore)
		}
		s.eval.Pop()

		if s.abort.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m

			if score > alpha {
				alpha = score
				bound = BoundExact
				s.ply[ply].pv.set(m, &s.ply[ply+1].pv)
			}
		}

		if score >= beta {
			bound = BoundLower
			if !isCapture {
				s.orderer.Killers.Update(ply, m)
				s.orderer.History.Update(pos, m, quietsTried, depth)
				s.orderer.Counters.Update(pos.SideToMove, prevMove, prevPiece, m)
			} else {
				s.updateCaptureHistory(pos, m, capturesTried, depth)
			}
			s.tt.Store(pos.Hash, bestMove, bestScore, depth, ply, bound)
			return score
		}
	}

	if legal == 0 {
		if excluded != board.NoMove {
			return alpha
		}
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	s.tt.Store(pos.Hash, bestMove, bestScore, depth, ply, bound)
	return bestScore
}

// updateCaptureHistory rewards the capture that caused the cutoff and
// penalizes the other captures already tried at this node, mirroring the
// quiet-move history update.
func (s *Searcher) updateCaptureHistory(pos *board.Position, best board.Move, tried []board.Move, depth int) {
	reward := func(m board.Move, good bool) {
		attacker := pos.PieceAt(m.From()).Type()
		victim := board.Pawn
		if !m.IsEnPassant() {
			if v := pos.PieceAt(m.To()); v != board.NoPiece {
				victim = v.Type()
			}
		}
		s.orderer.CapHist.Update(attacker, victim, m.To(), depth, good)
	}
	for _, m := range tried {
		reward(m, m == best)
	}
}

// lateMoveReduction computes the base LMR amount from depth and the
// 1-indexed move count (legal), following ln(depth)*ln(legal) scaling.
func lateMoveReduction(depth, legal int) int {
	if depth < 1 || legal < 1 {
		return 0
	}
	r := 0.77 + (math.Log(float64(depth))/2.67)*math.Log(float64(legal))
	if r < 0 {
		return 0
	}
	return int(r)
}

// qsearch resolves tactical sequences (captures only) so the main search
// never evaluates a position in the middle of a hanging exchange.
func (s *Searcher) qsearch(pos *board.Position, alpha, beta int, ply int) int {
	if s.nodes&1023 == 0 && s.checkAbort() {
		return 0
	}
	s.nodes++
	if ply > s.seldepth {
		s.seldepth = ply
	}

	if ply >= MaxPly-1 {
		return s.eval.Evaluate(pos)
	}

	ttMove, ttScore, _, ttBound, ttHit := s.tt.Probe(pos.Hash, ply)
	if ttHit {
		switch ttBound {
		case BoundExact:
			return ttScore
		case BoundLower:
			if ttScore >= beta {
				return ttScore
			}
		case BoundUpper:
			if ttScore <= alpha {
				return ttScore
			}
		}
	}

	standPat := s.eval.Evaluate(pos)
	if standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}

	moves := pos.GenerateCaptures()
	scores := s.orderer.Score(pos, moves, ply, ttMove, board.NoMove, board.NoPieceType)

	bestScore := standPat
	bestMove := board.NoMove
	bound := BoundUpper

	for i := 0; i < moves.Len(); i++ {
		m := moves.Pick(i, scores)
		if !pos.SEE(m, 1) {
			continue
		}

		captured := capturedBy(pos, m)
		s.eval.Push()
		child := pos.Copy()
		if child.Make(m) {
			s.eval.Pop()
			continue
		}
		s.eval.Update(child, m, captured)

		score := -s.qsearch(child, -beta, -alpha, ply+1)
		s.eval.Pop()
		if s.abort.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
				bound = BoundExact
			}
		}
		if score >= beta {
			s.tt.Store(pos.Hash, bestMove, score, 0, ply, BoundLower)
			return score
		}
	}

	s.tt.Store(pos.Hash, bestMove, bestScore, 0, ply, bound)
	return bestScore
}

func (s *Searcher) checkAbort() bool {
	if s.abort.Load() {
		return true
	}
	if s.tm != nil && s.tm.ShouldStop(s.nodes) {
		s.abort.Store(true)
		return true
	}
	return false
}

// capturedBy returns the piece m removes from the board, read before the
// move is made, so the accumulator update can subtract its feature after
// the move has already changed pos.PieceAt for the mover.
func capturedBy(pos *board.Position, m board.Move) board.Piece {
	if m.IsEnPassant() {
		return board.NewPiece(board.Pawn, pos.SideToMove.Other())
	}
	return pos.PieceAt(m.To())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// isDraw reports 50-move, insufficient material, and threefold repetition
// per the current position and search path.
func (s *Searcher) isDraw(pos *board.Position, ply int) bool {
	if pos.HalfMoveClock >= 100 {
		return true
	}
	if s.isInsufficientMaterial(pos) {
		return true
	}
	return s.isRepetition(pos, ply)
}

// isInsufficientMaterial is a search-local draw heuristic, distinct from
// board.Position.IsInsufficientMaterial's full dead-position check used at
// game-over time: it also treats same-colored-bishop endings as drawn and
// gates on game phase rather than enumerating piece combinations, matching
// the cheaper check search nodes run millions of times a second.
func (s *Searcher) isInsufficientMaterial(pos *board.Position) bool {
	if pos.Phase() > 2 {
		return false
	}
	if pos.Pieces[board.White][board.Pawn]|pos.Pieces[board.Black][board.Pawn] != 0 {
		return false
	}
	if pos.Pieces[board.White][board.Rook]|pos.Pieces[board.Black][board.Rook] != 0 {
		return false
	}
	minor := pos.Pieces[board.White][board.Knight] | pos.Pieces[board.White][board.Bishop] |
		pos.Pieces[board.Black][board.Knight] | pos.Pieces[board.Black][board.Bishop]
	if minor.PopCount() <= 1 {
		return true
	}
	bishops := pos.Pieces[board.White][board.Bishop] | pos.Pieces[board.Black][board.Bishop]
	knights := pos.Pieces[board.White][board.Knight] | pos.Pieces[board.Black][board.Knight]
	if knights == 0 && bishops.PopCount() == minor.PopCount() {
		return sameColorSquares(bishops)
	}
	return false
}

func sameColorSquares(bb board.Bitboard) bool {
	lightCount := 0
	darkCount := 0
	for b := bb; b != 0; {
		sq := b.PopLSB()
		if (int(sq.File())+int(sq.Rank()))%2 == 0 {
			darkCount++
		} else {
			lightCount++
		}
	}
	return lightCount == 0 || darkCount == 0
}

// isRepetition walks the combined game+path hash stack in reverse,
// stepping by 2, up to halfmove+1 entries, looking for a repeat of the
// current position's hash. A repetition counter starts at 1 (2 at the
// search root, requiring strict threefold there) and a hit fires when it
// reaches 0.
func (s *Searcher) isRepetition(pos *board.Position, ply int) bool {
	limit := pos.HalfMoveClock
	count := 1
	if ply == 0 {
		count = 2
	}

	// The current position sits at index total-1 (the last history entry
	// is the root, path[k] holds the position at ply k+1).
	total := len(s.history) + ply
	for i := 2; i <= limit && i < total; i += 2 {
		idx := total - 1 - i
		var h uint64
		if idx < len(s.history) {
			h = s.history[idx]
		} else {
			h = s.path[idx-len(s.history)]
		}
		if h == pos.Hash {
			count--
			if count == 0 {
				return true
			}
		}
	}
	return false
}
