package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidchess/akimbo/internal/board"
	"github.com/lucidchess/akimbo/internal/nnue"
)

func newTestSearcher(t *testing.T) *Searcher {
	t.Helper()
	eval, err := nnue.NewEvaluator("")
	require.NoError(t, err)
	return NewSearcher(NewTable(8), eval)
}

func TestFindsMateInOne(t *testing.T) {
	s := newTestSearcher(t)
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	require.NoError(t, err)

	s.SetHistory([]uint64{pos.Hash})
	move, score := s.Go(pos, Limits{Depth: 2}, nil)

	require.NotEqual(t, board.NoMove, move)
	assert.Equal(t, board.NewMove(board.A1, board.A8), move)
	assert.True(t, isMateScore(score))
	assert.Equal(t, 1, matePly(score))
}

func TestNeverReturnsIllegalMoveUnderTacticalPressure(t *testing.T) {
	s := newTestSearcher(t)
	pos, err := board.ParseFEN("rnbqkb1r/pppp1ppp/5n2/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	require.NoError(t, err)

	s.SetHistory([]uint64{pos.Hash})
	move, _ := s.Go(pos, Limits{Depth: 4}, nil)

	legal := pos.GenerateLegalMoves()
	found := false
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i) == move {
			found = true
			break
		}
	}
	assert.True(t, found, "search returned a move not in the legal move list")
}

func TestStartposDepthOneReportsSingleInfoLine(t *testing.T) {
	s := newTestSearcher(t)
	pos := board.NewPosition()
	s.SetHistory([]uint64{pos.Hash})

	var infos []Info
	move, _ := s.Go(pos, Limits{Depth: 1}, func(i Info) {
		infos = append(infos, i)
	})

	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Depth)
	assert.NotEqual(t, board.NoMove, move)
}

func TestSearchIsDeterministicAcrossRepeatedRuns(t *testing.T) {
	pos, err := board.ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	require.NoError(t, err)

	run := func() (board.Move, int) {
		s := newTestSearcher(t)
		s.SetHistory([]uint64{pos.Hash})
		return s.Go(pos.Copy(), Limits{Depth: 5}, nil)
	}

	move1, score1 := run()
	move2, score2 := run()

	assert.Equal(t, move1, move2)
	assert.Equal(t, score1, score2)
}

func TestQuiescenceNeverLosesToHangingCapture(t *testing.T) {
	s := newTestSearcher(t)
	// White queen hangs to a pawn; qsearch from this position must see the
	// recapture and not simply stand pat on material it is about to lose.
	pos, err := board.ParseFEN("4k3/8/8/3p4/4Q3/8/8/4K3 b - - 0 1")
	require.NoError(t, err)

	score := s.qsearch(pos, -Infinity, Infinity, 0)
	assert.Less(t, score, 500) // black should not be down a queen's worth
}

func TestTimeLimitedSearchStopsPromptly(t *testing.T) {
	s := newTestSearcher(t)
	pos := board.NewPosition()
	s.SetHistory([]uint64{pos.Hash})

	start := time.Now()
	move, _ := s.Go(pos, Limits{MoveTime: 100 * time.Millisecond}, nil)
	elapsed := time.Since(start)

	assert.NotEqual(t, board.NoMove, move)
	assert.Less(t, elapsed, 2*time.Second)
}
