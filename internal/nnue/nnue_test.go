package nnue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidchess/akimbo/internal/board"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator("")
	require.NoError(t, err)
	return e
}

func TestFeatureIndexMirrorsBlackPerspective(t *testing.T) {
	white := FeatureIndex(board.White, board.White, board.Knight, board.B1)
	blackPerspectiveOfWhiteKnight := FeatureIndex(board.Black, board.White, board.Knight, board.B1)

	// From black's perspective, a white piece is seen as "their" piece on
	// the mirrored square, not as "our" piece on the raw square.
	assert.NotEqual(t, white, blackPerspectiveOfWhiteKnight)

	ownKnightFromBlack := FeatureIndex(board.Black, board.Black, board.Knight, board.B8)
	// Black's own knight on b8, mirrored to b1, lands in the same "own
	// piece" bucket white's knight on b1 does from white's perspective.
	assert.Equal(t, white, ownKnightFromBlack)
}

func TestEvaluateTriggersRefreshOnFirstCall(t *testing.T) {
	e := newTestEvaluator(t)
	pos := board.NewPosition()

	score := e.Evaluate(pos)
	assert.True(t, e.stack.Current().Computed)
	// Symmetric starting position; white-to-move evaluation should just be
	// whatever the (randomly initialized) weights say, but it must not
	// panic or overflow wildly.
	assert.Less(t, score, 1_000_000)
	assert.Greater(t, score, -1_000_000)
}

func TestPushUpdatePopRoundTrip(t *testing.T) {
	e := newTestEvaluator(t)
	pos := board.NewPosition()
	e.Refresh(pos)
	before := *e.stack.Current()

	e.Push()
	m := board.NewMove(board.E2, board.E4)
	captured := pos.PieceAt(m.To())
	pos.Make(m)
	e.Update(pos, m, captured)

	assert.True(t, e.stack.Current().Computed)
	e.Pop()

	after := *e.stack.Current()
	assert.Equal(t, before, after)
}

func TestResetCollapsesStack(t *testing.T) {
	e := newTestEvaluator(t)
	pos := board.NewPosition()
	e.Refresh(pos)
	e.Push()
	e.Push()

	e.Reset()
	assert.False(t, e.stack.Current().Computed)
}

func TestWeightsRoundTripThroughFile(t *testing.T) {
	net := NewNetwork()
	net.InitRandom(42)

	path := t.TempDir() + "/weights.bin"
	require.NoError(t, net.SaveWeights(path))

	loaded := NewNetwork()
	require.NoError(t, loaded.LoadWeights(path))
	assert.Equal(t, net.FeatureWeights, loaded.FeatureWeights)
	assert.Equal(t, net.OutputBias, loaded.OutputBias)
}
