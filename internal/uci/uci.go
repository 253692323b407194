// Package uci implements the Universal Chess Interface protocol front-end:
// it owns the current position, translates "go"/"position"/"setoption"
// commands into calls against the search pool, and formats search reports
// back onto stdout.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/seekerror/logw"

	"github.com/lucidchess/akimbo/internal/board"
	"github.com/lucidchess/akimbo/internal/nnue"
	"github.com/lucidchess/akimbo/internal/search"
)

const (
	defaultHashMB  = 64
	defaultThreads = 1
	minHashMB      = 1
	maxHashMB      = 4096
	minThreads     = 1
	maxThreads     = 256
)

// UCI owns the engine's protocol-facing state: the current position, the
// game history needed for repetition detection, and the search pool
// threads/hash options are applied to.
type UCI struct {
	ctx context.Context

	pos     *board.Position
	history []uint64

	tt   *search.Table
	eval *nnue.Evaluator
	pool *search.Pool

	chess960 bool

	out *bufio.Writer
}

// New creates a protocol handler with the engine's default hash size and a
// single search thread, evaluating with net (an already-loaded or randomly
// initialized NNUE network).
func New(ctx context.Context, net *nnue.Network) *UCI {
	tt := search.NewTable(defaultHashMB)
	u := &UCI{
		ctx:  ctx,
		pos:  board.NewPosition(),
		tt:   tt,
		eval: nnue.NewEvaluatorFromNetwork(net),
		pool: search.NewPool(tt, net, defaultThreads),
		out:  bufio.NewWriter(os.Stdout),
	}
	u.history = []uint64{u.pos.Hash}
	return u
}

// Run reads UCI commands from stdin until "quit" or EOF.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logw.Debugf(u.ctx, "<< %v", line)

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.writeLine("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "setoption":
			u.handleSetOption(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return
		case "d":
			fmt.Fprintln(os.Stderr, u.pos.String())
		case "perft":
			u.handlePerft(args)
		case "eval":
			u.handleEval()
		default:
			logw.Debugf(u.ctx, "unknown command %q", cmd)
		}
	}
}

func (u *UCI) writeLine(s string) {
	fmt.Fprintln(u.out, s)
	u.out.Flush()
}

func (u *UCI) handleUCI() {
	u.writeLine("id name Akimbo")
	u.writeLine("id author Akimbo contributors")
	u.writeLine(fmt.Sprintf("option name Hash type spin default %d min %d max %d", defaultHashMB, minHashMB, maxHashMB))
	u.writeLine(fmt.Sprintf("option name Threads type spin default %d min %d max %d", defaultThreads, minThreads, maxThreads))
	u.writeLine("option name Clear Hash type button")
	u.writeLine("option name UCI_Chess960 type check default false")
	u.writeLine("uciok")
}

func (u *UCI) handleNewGame() {
	u.pos = board.NewPosition()
	u.history = []uint64{u.pos.Hash}
	u.tt.Clear()
}

// handlePosition implements:
//
//	position startpos [moves m1 m2 ...]
//	position fen <6 fields> [moves m1 m2 ...]
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var moveStart int
	switch args[0] {
	case "startpos":
		u.pos = board.NewPosition()
		moveStart = 1
	case "fen":
		end := len(args)
		for i := 1; i < len(args); i++ {
			if args[i] == "moves" {
				end = i
				break
			}
		}
		pos, err := board.ParseFEN(strings.Join(args[1:end], " "))
		if err != nil {
			logw.Debugf(u.ctx, "invalid fen: %v", err)
			return
		}
		u.pos = pos
		moveStart = end
	default:
		return
	}

	u.history = []uint64{u.pos.Hash}

	if moveStart < len(args) && args[moveStart] == "moves" {
		for _, s := range args[moveStart+1:] {
			m := u.parseMove(s)
			if m == board.NoMove {
				// Illegal move in a position-setup list: skipped silently.
				continue
			}
			if u.pos.Make(m) {
				continue
			}
			u.history = append(u.history, u.pos.Hash)
		}
	}
}

// parseMove resolves a UCI move string against the legal moves of the
// current position, rather than trusting the packed encoding a naive
// from/to/promo parse would produce, so a move string that only coincides
// with a pseudo-legal (but pinned or otherwise illegal) move is rejected.
func (u *UCI) parseMove(s string) board.Move {
	if len(s) < 4 {
		return board.NoMove
	}
	from, err := board.ParseSquare(s[0:2])
	if err != nil {
		return board.NoMove
	}
	to, err := board.ParseSquare(s[2:4])
	if err != nil {
		return board.NoMove
	}
	var promo board.PieceType
	if len(s) >= 5 {
		switch s[4] {
		case 'q':
			promo = board.Queen
		case 'r':
			promo = board.Rook
		case 'b':
			promo = board.Bishop
		case 'n':
			promo = board.Knight
		}
	}

	legal := u.pos.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() {
			if promo != 0 && m.Promotion() == promo {
				return m
			}
			continue
		}
		return m
	}
	return board.NoMove
}

func (u *UCI) handleSetOption(args []string) {
	name, value := parseSetOption(args)
	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		if mb < minHashMB {
			mb = minHashMB
		}
		if mb > maxHashMB {
			mb = maxHashMB
		}
		u.tt.Resize(mb)
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		if n < minThreads {
			n = minThreads
		}
		if n > maxThreads {
			n = maxThreads
		}
		u.pool.Resize(n)
	case "clear hash":
		u.tt.Clear()
	case "uci_chess960":
		u.chess960 = strings.EqualFold(value, "true")
	default:
		// Unknown option: silently ignored, per protocol.
	}
}

// parseSetOption extracts name/value from "name <...> value <...>" tokens;
// both sides may contain spaces (e.g. "Clear Hash").
func parseSetOption(args []string) (name, value string) {
	var nameParts, valueParts []string
	target := &nameParts
	for _, a := range args {
		switch a {
		case "name":
			target = &nameParts
		case "value":
			target = &valueParts
		default:
			*target = append(*target, a)
		}
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " ")
}

func (u *UCI) handleGo(args []string) {
	limits := parseGoLimits(args)

	searchPos := u.pos.Copy()
	history := append([]uint64(nil), u.history...)

	move, _ := u.pool.Go(searchPos, limits, history, func(info search.Info) {
		u.sendInfo(info)
	})

	if move == board.NoMove {
		u.writeLine("bestmove 0000")
		return
	}
	u.writeLine("bestmove " + move.String())
}

func parseGoLimits(args []string) search.Limits {
	var l search.Limits
	for i := 0; i < len(args); i++ {
		next := func() string {
			if i+1 < len(args) {
				i++
				return args[i]
			}
			return ""
		}
		switch args[i] {
		case "depth":
			l.Depth, _ = strconv.Atoi(next())
		case "nodes":
			n, _ := strconv.ParseInt(next(), 10, 64)
			l.Nodes = n
		case "movetime":
			ms, _ := strconv.Atoi(next())
			l.MoveTime = time.Duration(ms) * time.Millisecond
		case "wtime":
			ms, _ := strconv.Atoi(next())
			l.WTime = time.Duration(ms) * time.Millisecond
		case "btime":
			ms, _ := strconv.Atoi(next())
			l.BTime = time.Duration(ms) * time.Millisecond
		case "winc":
			ms, _ := strconv.Atoi(next())
			l.WInc = time.Duration(ms) * time.Millisecond
		case "binc":
			ms, _ := strconv.Atoi(next())
			l.BInc = time.Duration(ms) * time.Millisecond
		case "movestogo":
			l.MovesToGo, _ = strconv.Atoi(next())
		case "infinite":
			l.Infinite = true
		}
	}
	return l
}

func (u *UCI) sendInfo(info search.Info) {
	var b strings.Builder
	fmt.Fprintf(&b, "info depth %d seldepth %d", info.Depth, info.SelDepth)
	if info.Mate {
		fmt.Fprintf(&b, " score mate %d", info.MateIn)
	} else {
		fmt.Fprintf(&b, " score cp %d", info.Score)
	}
	fmt.Fprintf(&b, " time %d nodes %d", info.Time.Milliseconds(), info.Nodes)
	if ms := info.Time.Milliseconds(); ms > 0 {
		fmt.Fprintf(&b, " nps %d", info.Nodes*1000/ms)
	}
	fmt.Fprintf(&b, " hashfull %d", u.pool.HashFull())
	if len(info.PV) > 0 {
		b.WriteString(" pv")
		for _, m := range info.PV {
			b.WriteByte(' ')
			b.WriteString(m.String())
		}
	}
	u.writeLine(b.String())
}

func (u *UCI) handleStop() {
	u.pool.Stop()
}

func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil {
			depth = d
		}
	}
	start := time.Now()
	nodes := perft(u.pos.Copy(), depth)
	elapsed := time.Since(start)

	u.writeLine(fmt.Sprintf("Nodes: %d", nodes))
	u.writeLine(fmt.Sprintf("Time: %v", elapsed))
	if elapsed > 0 {
		u.writeLine(fmt.Sprintf("NPS: %.0f", float64(nodes)/elapsed.Seconds()))
	}
}

// perft counts leaf nodes reached by exhaustively playing every legal move
// to depth, used by the "perft" UCI command.
func perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		child := pos.Copy()
		if child.Make(moves.Get(i)) {
			continue
		}
		nodes += perft(child, depth-1)
	}
	return nodes
}

func (u *UCI) handleEval() {
	u.eval.Reset()
	u.eval.Refresh(u.pos)
	score := u.eval.Evaluate(u.pos)
	u.writeLine(fmt.Sprintf("info string eval %d", score))
}
