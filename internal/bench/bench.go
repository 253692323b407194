// Package bench implements the engine's "bench" CLI command: search a fixed
// list of positions to a fixed depth and report total nodes, used both as a
// smoke test and, via nodes-per-second, a rough speed regression check
// across commits (the count itself should stay stable for a
// non-functional change, the way zurichess's bench suite checks).
package bench

import (
	"fmt"
	"time"

	"github.com/lucidchess/akimbo/internal/board"
	"github.com/lucidchess/akimbo/internal/nnue"
	"github.com/lucidchess/akimbo/internal/search"
)

// DefaultDepth and DefaultTimeout match the per-position depth/time cap the
// "bench" CLI command runs with.
const (
	DefaultDepth   = 11
	DefaultTimeout = 30 * time.Second
)

// Positions is a small, fixed set of FENs spanning openings, middlegames,
// and endgames, walked on every bench run.
var Positions = []string{
	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP2PPP/R2Q1RK1 w - - 0 10",
	"4rrk1/pp1n3p/3q2pQ/2p1pb2/2PP4/2P3N1/P2B2PP/4RRK1 b - - 7 19",
	"rq3rk1/ppp2ppp/1bnpb3/3N2B1/3NP3/7P/PPPQ1PP1/2KR3R w - - 7 14",
	"r1bq1r1k/1pp1n1pp/1p1p4/4p2Q/4PpP1/2PP2NP/PP1N1P2/2KR3R w - - 2 14",
	"r3r1k1/2p2ppp/p1p1bn2/8/1q2P3/2NPQN2/PPP3PP/R4RK1 b - - 2 15",
	"r1q2rk1/2p1bppp/2Pp4/p6b/Q1PNp3/4B3/PP1R1PPP/2K4R w - - 2 18",
	"4k2r/1pb2ppp/1p2p3/1R1p4/3P4/2r1PN2/P4PPP/1R4K1 b - - 3 22",
	"8/p2B4/PkP5/4p1pK/4Pb1p/5P2/8/8 w - - 1 25",
	"n5k1/1pr3pp/1p2p3/1P2P3/2P4P/8/3r2P1/4R1K1 w - - 0 1",
	"6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1",
	"1r3k2/4npp1/3p3p/p2P1b2/4Qn2/1N1B3R/PPP3PP/2KR4 w - - 1 2",
}

// Result is the outcome of benching a single position.
type Result struct {
	FEN   string
	Nodes int64
	Eval  int
}

// Run searches every position in Positions to depth using net for
// evaluation, each capped at timeout, and returns per-position results plus
// the totals the "bench" command prints.
func Run(net *nnue.Network, depth int, timeout time.Duration) (results []Result, totalNodes int64, elapsed time.Duration) {
	tt := search.NewTable(64)
	eval := nnue.NewEvaluatorFromNetwork(net)
	searcher := search.NewSearcher(tt, eval)

	start := time.Now()
	for _, fen := range Positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			continue
		}

		limits := search.Limits{Depth: depth, MoveTime: timeout}
		searcher.SetHistory([]uint64{pos.Hash})
		_, score := searcher.Go(pos, limits, nil)

		results = append(results, Result{FEN: fen, Nodes: searcher.Nodes(), Eval: score})
		totalNodes += searcher.Nodes()
	}
	elapsed = time.Since(start)
	return results, totalNodes, elapsed
}

// Print runs the default bench and writes a human-readable report, the
// shape the "bench" CLI argument produces.
func Print(net *nnue.Network) {
	results, totalNodes, elapsed := Run(net, DefaultDepth, DefaultTimeout)
	for i, r := range results {
		fmt.Printf("position %2d: nodes %10d eval %6d\n", i+1, r.Nodes, r.Eval)
	}
	fmt.Printf("\n%d positions, %d total nodes, %v elapsed\n", len(results), totalNodes, elapsed)
	if elapsed > 0 {
		fmt.Printf("%.0f nps\n", float64(totalNodes)/elapsed.Seconds())
	}
}
