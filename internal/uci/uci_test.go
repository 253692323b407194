package uci

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidchess/akimbo/internal/board"
	"github.com/lucidchess/akimbo/internal/nnue"
)

func newTestUCI(t *testing.T) *UCI {
	t.Helper()
	eval, err := nnue.NewEvaluator("")
	require.NoError(t, err)
	return New(context.Background(), eval.Network())
}

func (u *UCI) captureOutput() *strings.Builder {
	var b strings.Builder
	u.out = bufio.NewWriter(&b)
	return &b
}

func TestHandleUCIAnnouncesIdentityAndOptions(t *testing.T) {
	u := newTestUCI(t)
	out := u.captureOutput()

	u.handleUCI()

	got := out.String()
	assert.Contains(t, got, "id name Akimbo")
	assert.Contains(t, got, "option name Hash")
	assert.Contains(t, got, "option name Threads")
	assert.Contains(t, got, "option name UCI_Chess960")
	assert.Contains(t, got, "uciok")
}

func TestHandlePositionStartposWithMoves(t *testing.T) {
	u := newTestUCI(t)
	u.handlePosition([]string{"startpos", "moves", "e2e4", "e7e5"})

	assert.Equal(t, board.Black, u.pos.SideToMove)
	assert.Len(t, u.history, 3)
}

func TestHandlePositionFEN(t *testing.T) {
	u := newTestUCI(t)
	fen := "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	u.handlePosition(append([]string{"fen"}, strings.Fields(fen)...))

	assert.Equal(t, board.White, u.pos.SideToMove)
	assert.Len(t, u.history, 1)
}

func TestHandleSetOptionHash(t *testing.T) {
	u := newTestUCI(t)
	u.handleSetOption([]string{"name", "Hash", "value", "128"})
	assert.NotNil(t, u.tt)
}

func TestHandleSetOptionClearHashAndChess960(t *testing.T) {
	u := newTestUCI(t)
	u.handleSetOption([]string{"name", "Clear", "Hash"})
	u.handleSetOption([]string{"name", "UCI_Chess960", "value", "true"})
	assert.True(t, u.chess960)
}

func TestHandleSetOptionThreads(t *testing.T) {
	u := newTestUCI(t)
	u.handleSetOption([]string{"name", "Threads", "value", "2"})
	assert.Equal(t, 2, u.pool.Threads())
}

func TestParseSetOptionHandlesMultiWordNames(t *testing.T) {
	name, value := parseSetOption([]string{"name", "Clear", "Hash"})
	assert.Equal(t, "Clear Hash", name)
	assert.Equal(t, "", value)

	name, value = parseSetOption([]string{"name", "Hash", "value", "64"})
	assert.Equal(t, "Hash", name)
	assert.Equal(t, "64", value)
}

func TestHandleGoDepthOneProducesBestmove(t *testing.T) {
	u := newTestUCI(t)
	out := u.captureOutput()

	u.handleGo([]string{"depth", "1"})

	got := out.String()
	assert.Contains(t, got, "bestmove")
	assert.Contains(t, got, "info depth 1")
}

func TestParseMoveRejectsIllegalString(t *testing.T) {
	u := newTestUCI(t)
	m := u.parseMove("e2e5")
	assert.Equal(t, board.NoMove, m)
}

func TestParseMoveResolvesLegalMove(t *testing.T) {
	u := newTestUCI(t)
	m := u.parseMove("e2e4")
	require.NotEqual(t, board.NoMove, m)
	assert.Equal(t, board.E2, m.From())
	assert.Equal(t, board.E4, m.To())
}

func TestPerftStartposDepthTwo(t *testing.T) {
	u := newTestUCI(t)
	out := u.captureOutput()

	u.handlePerft([]string{"2"})

	assert.Contains(t, out.String(), "Nodes: 400")
}

func TestHandleNewGameResetsPositionAndHistory(t *testing.T) {
	u := newTestUCI(t)
	u.handlePosition([]string{"startpos", "moves", "e2e4"})
	require.Len(t, u.history, 2)

	u.handleNewGame()
	assert.Len(t, u.history, 1)
	assert.Equal(t, board.NewPosition().Hash, u.pos.Hash)
}

func TestParseGoLimitsParsesClockFields(t *testing.T) {
	l := parseGoLimits([]string{"wtime", "60000", "btime", "59000", "winc", "1000", "movestogo", "30"})
	assert.Equal(t, 60000, int(l.WTime.Milliseconds()))
	assert.Equal(t, 59000, int(l.BTime.Milliseconds()))
	assert.Equal(t, 1000, int(l.WInc.Milliseconds()))
	assert.Equal(t, 30, l.MovesToGo)
}
