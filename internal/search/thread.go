package search

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lucidchess/akimbo/internal/board"
	"github.com/lucidchess/akimbo/internal/nnue"
)

// Pool runs Lazy SMP: N independent Searchers recurse from the same root
// position, sharing only the transposition table. Everything else (ply
// scratch, killers, history, node table, PV) is thread-local, so no
// synchronization is needed beyond the TT's own atomics and the shared
// abort flag used to stop every worker together.
type Pool struct {
	tt      *Table
	net     *nnue.Network
	workers []*Searcher
	abort   atomic.Bool
}

// NewPool creates a pool sharing tt and net across n worker Searchers, each
// with its own accumulator stack, killer/history tables, and node counter.
func NewPool(tt *Table, net *nnue.Network, n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{tt: tt, net: net}
	p.Resize(n)
	return p
}

// Resize changes the number of worker Searchers, preserving tt and net.
func (p *Pool) Resize(n int) {
	if n < 1 {
		n = 1
	}
	workers := make([]*Searcher, n)
	for i := range workers {
		eval := nnue.NewEvaluatorFromNetwork(p.net)
		workers[i] = NewSearcher(p.tt, eval)
		workers[i].SetAbort(&p.abort)
	}
	p.workers = workers
}

// Threads returns the current worker count.
func (p *Pool) Threads() int { return len(p.workers) }

// Stop requests every worker to abort at the next node-count check.
func (p *Pool) Stop() {
	p.abort.Store(true)
}

// Go runs the search across all workers and returns the main thread's
// result (worker 0's), the only one whose iterative-deepening reports are
// forwarded via report. Helper threads search the same root to diversify
// the shared transposition table's contents but their own best move and
// score are discarded, per the Lazy SMP design.
func (p *Pool) Go(pos *board.Position, limits Limits, history []uint64, report func(Info)) (board.Move, int) {
	p.abort.Store(false)

	g := &errgroup.Group{}
	for i, w := range p.workers {
		w := w
		isMain := i == 0
		w.SetHistory(history)
		g.Go(func() error {
			var cb func(Info)
			if isMain {
				cb = report
			}
			rootCopy := pos.Copy()
			w.Go(rootCopy, limits, cb)
			return nil
		})
	}
	g.Wait()

	main := p.workers[0]
	return main.rootMove, main.lastScore
}

// NodesSearched sums the node counts of every worker's most recent search.
func (p *Pool) NodesSearched() int64 {
	var total int64
	for _, w := range p.workers {
		total += w.Nodes()
	}
	return total
}

// HashFull reports the shared transposition table's occupancy.
func (p *Pool) HashFull() int { return p.tt.HashFull() }
