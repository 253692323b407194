package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucidchess/akimbo/internal/board"
)

func TestHistoryBonusCapsAt1600(t *testing.T) {
	assert.Equal(t, int32(0), historyBonus(1))
	assert.Equal(t, int32(350), historyBonus(2))
	assert.Equal(t, int32(1600), historyBonus(20))
}

func TestHistoryUpdateRewardsBestAndPenalizesOthers(t *testing.T) {
	pos := board.NewPosition()
	var h History

	best := board.NewMove(board.E2, board.E4)
	other := board.NewMove(board.D2, board.D4)
	h.Update(pos, best, []board.Move{other, best}, 6)

	bestScore := h.score(pos.SideToMove, board.Pawn, board.E4)
	otherScore := h.score(pos.SideToMove, board.Pawn, board.D4)
	assert.Positive(t, bestScore)
	assert.Negative(t, otherScore)
}

func TestKillersUpdateShiftsSlots(t *testing.T) {
	var k Killers
	m1 := board.NewMove(board.G1, board.F3)
	m2 := board.NewMove(board.B1, board.C3)

	k.Update(5, m1)
	k.Update(5, m2)

	got1, got2 := k.at(5)
	assert.Equal(t, m2, got1)
	assert.Equal(t, m1, got2)
}

func TestKillersDuplicateNotReAdded(t *testing.T) {
	var k Killers
	m1 := board.NewMove(board.G1, board.F3)

	k.Update(3, m1)
	k.Update(3, m1)

	got1, got2 := k.at(3)
	assert.Equal(t, m1, got1)
	assert.Equal(t, board.NoMove, got2)
}

func TestCounterMovesIgnoresNoMove(t *testing.T) {
	var c CounterMoves
	c.Update(board.White, board.NoMove, board.Pawn, board.NewMove(board.E7, board.E5))
	assert.Equal(t, board.NoMove, c.Get(board.White, board.NoMove, board.Pawn))
}

func TestOrdererScoresQuietPromotionAboveKillers(t *testing.T) {
	pos, err := board.ParseFEN("7k/4P3/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	o := NewOrderer()
	moves := pos.GenerateLegalMoves()

	scores := o.Score(pos, moves, 0, board.NoMove, board.NoMove, board.NoPieceType)
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.IsPromotion() && !m.IsCapture(pos) {
			assert.Greater(t, scores[i], scoreKiller1)
		}
	}
}

func TestOrdererScoresHashMoveHighest(t *testing.T) {
	pos := board.NewPosition()
	o := NewOrderer()
	moves := pos.GenerateLegalMoves()
	hashMove := moves.Get(0)

	scores := o.Score(pos, moves, 0, hashMove, board.NoMove, board.NoPieceType)
	for i := 1; i < moves.Len(); i++ {
		assert.GreaterOrEqual(t, scores[0], scores[i])
	}
}
