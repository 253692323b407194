package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidchess/akimbo/internal/board"
)

func TestTableStoreProbeRoundTrip(t *testing.T) {
	tt := NewTable(1)

	hash := uint64(0x1234_5678_9ABC_DEF0)
	move := board.NewMove(board.E2, board.E4)

	tt.Store(hash, move, 123, 7, 0, BoundExact)

	gotMove, gotScore, gotDepth, gotBound, ok := tt.Probe(hash, 0)
	require.True(t, ok)
	assert.Equal(t, move, gotMove)
	assert.Equal(t, 123, gotScore)
	assert.Equal(t, 7, gotDepth)
	assert.Equal(t, BoundExact, gotBound)
}

func TestTableProbeMissOnKeyCollision(t *testing.T) {
	tt := NewTable(1)
	tt.Store(1, board.NewMove(board.A2, board.A3), 10, 3, 0, BoundExact)

	// Same index as hash 1 (low bits 1), different key (top 16 bits
	// 0xFFFF instead of 0): should miss cleanly.
	_, _, _, _, ok := tt.Probe(0xFFFF_0000_0000_0001, 0)
	assert.False(t, ok)
}

func TestTableShallowerEntrySkipsReplacementAtNonRoot(t *testing.T) {
	tt := NewTable(1)
	hash := uint64(0xAAAA)

	tt.Store(hash, board.NewMove(board.D2, board.D4), 50, 10, 1, BoundExact)
	tt.Store(hash, board.NewMove(board.G1, board.F3), 10, 2, 1, BoundExact)

	move, score, depth, _, ok := tt.Probe(hash, 1)
	require.True(t, ok)
	assert.Equal(t, board.NewMove(board.D2, board.D4), move)
	assert.Equal(t, 50, score)
	assert.Equal(t, 10, depth)
}

func TestTableRootEntryAlwaysOverwritten(t *testing.T) {
	tt := NewTable(1)
	hash := uint64(0xBBBB)

	tt.Store(hash, board.NewMove(board.D2, board.D4), 50, 10, 0, BoundExact)
	tt.Store(hash, board.NewMove(board.G1, board.F3), 10, 2, 0, BoundExact)

	move, _, depth, _, ok := tt.Probe(hash, 0)
	require.True(t, ok)
	assert.Equal(t, board.NewMove(board.G1, board.F3), move)
	assert.Equal(t, 2, depth)
}

func TestTableMateScoreAdjustedAcrossStoreProbe(t *testing.T) {
	tt := NewTable(1)
	hash := uint64(0xCCCC)

	// A root-relative mate score stored and probed at the same ply (5)
	// comes back unchanged.
	tt.Store(hash, board.NoMove, MateScore-3, 10, 5, BoundExact)

	_, score, _, _, ok := tt.Probe(hash, 5)
	require.True(t, ok)
	assert.Equal(t, MateScore-3, score)
}

func TestHashFullReportsOccupancy(t *testing.T) {
	tt := NewTable(1)
	assert.Equal(t, 0, tt.HashFull())

	tt.Store(1, board.NewMove(board.A2, board.A3), 0, 1, 0, BoundExact)
	assert.Greater(t, tt.HashFull(), 0)
}

func TestResizePanicsOnNonPositive(t *testing.T) {
	tt := &Table{}
	assert.Panics(t, func() { tt.Resize(0) })
}
