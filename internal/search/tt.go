// Package search implements the PVS/alpha-beta search core: the shared
// transposition table, move ordering heuristics, time management, and the
// Lazy SMP worker pool driving them.
package search

import (
	"sync/atomic"

	"github.com/lucidchess/akimbo/internal/board"
)

// Bound records which side of the alpha-beta window a stored score is
// exact on.
type Bound uint8

const (
	BoundNone  Bound = 0
	BoundExact Bound = 1
	BoundLower Bound = 2 // fail-high: score is a lower bound (>= beta)
	BoundUpper Bound = 3 // fail-low: score is an upper bound (<= alpha)
)

// MateScore and the window around it used to detect and ply-adjust mate
// scores crossing the transposition table.
const (
	MateScore = 32000
	MaxPly    = 96
	MateBound = MateScore - MaxPly
)

// entry is the decoded form of a single atomic 64-bit TT slot:
//
//	bits 0-15  : key        (top 16 bits of the zobrist hash)
//	bits 16-31 : best move  (packed board.Move)
//	bits 32-47 : score      (int16)
//	bits 48-55 : depth      (uint8)
//	bits 56-57 : bound      (2 bits)
//	bits 58-63 : age        (6 bits)
type entry struct {
	key   uint16
	move  board.Move
	score int16
	depth uint8
	bound Bound
	age   uint8
}

func pack(e entry) uint64 {
	return uint64(e.key) |
		uint64(e.move)<<16 |
		uint64(uint16(e.score))<<32 |
		uint64(e.depth)<<48 |
		uint64(e.bound)<<56 |
		uint64(e.age&0x3F)<<58
}

func unpack(w uint64) entry {
	return entry{
		key:   uint16(w),
		move:  board.Move(w >> 16),
		score: int16(w >> 32),
		depth: uint8(w >> 48),
		bound: Bound((w >> 56) & 0x3),
		age:   uint8((w >> 58) & 0x3F),
	}
}

// Table is the shared transposition table: a power-of-two array of
// atomically loaded/stored 64-bit words, one entry per slot (no buckets).
// All search threads share a single Table; the only synchronization is the
// atomic load/store of each slot.
type Table struct {
	slots []atomic.Uint64
	mask  uint64
	age   uint8
}

// NewTable allocates a table sized to approximately mb megabytes, rounded
// down to a power of two number of 8-byte slots.
func NewTable(mb int) *Table {
	t := &Table{}
	t.Resize(mb)
	return t
}

// Resize reallocates the table and clears it. Panics on a non-positive
// size: a zero-or-negative hash size is a caller/option-parsing bug that
// should have been clamped before reaching here.
func (t *Table) Resize(mb int) {
	if mb <= 0 {
		panic("search: TT size must be positive")
	}
	bytes := uint64(mb) * 1024 * 1024
	count := bytes / 8
	count = roundDownPow2(count)
	if count == 0 {
		count = 1
	}
	t.slots = make([]atomic.Uint64, count)
	t.mask = count - 1
	t.age = 0
}

func roundDownPow2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	p := uint64(1)
	for p<<1 <= n {
		p <<= 1
	}
	return p
}

// Clear zeroes every slot.
func (t *Table) Clear() {
	for i := range t.slots {
		t.slots[i].Store(0)
	}
}

// NewSearch bumps the generation counter used by the replacement scheme so
// that stale entries from previous searches age out even if rewritten with
// a shallower depth.
func (t *Table) NewSearch() {
	t.age = (t.age + 1) & 0x3F
}

func (t *Table) index(hash uint64) uint64 {
	return hash & t.mask
}

// Probe looks up hash. ok is false on a miss or a key-verification
// mismatch (low bits of hash collided with a different position).
func (t *Table) Probe(hash uint64, ply int) (move board.Move, score int, depth int, bound Bound, ok bool) {
	w := t.slots[t.index(hash)].Load()
	if w == 0 {
		return board.NoMove, 0, 0, BoundNone, false
	}
	e := unpack(w)
	if e.key != uint16(hash>>48) {
		return board.NoMove, 0, 0, BoundNone, false
	}
	return e.move, adjustFromTT(int(e.score), ply), int(e.depth), e.bound, true
}

// Store writes an entry for hash. Replacement is skipped only when ply > 0,
// the slot already holds the same position, and that entry is still deeper
// than the incoming one even after penalizing it for its age; the root
// entry and any entry for a different or shallower position is always
// overwritten.
func (t *Table) Store(hash uint64, move board.Move, score, depth, ply int, bound Bound) {
	idx := t.index(hash)
	key := uint16(hash >> 48)

	old := unpack(t.slots[idx].Load())
	skip := ply > 0 &&
		old.key == key &&
		depth+2*ageDelta(t.age, old.age) < int(old.depth)
	if skip {
		return
	}

	if move == board.NoMove && old.key == key {
		move = old.move // preserve the hash move on a bound-only update
	}

	e := entry{
		key:   key,
		move:  move,
		score: int16(adjustToTT(score, ply)),
		depth: uint8(clampDepth(depth)),
		bound: bound,
		age:   t.age,
	}
	t.slots[idx].Store(pack(e))
}

func ageDelta(current, stored uint8) int {
	d := int(current) - int(stored)
	if d < 0 {
		d += 64
	}
	return d
}

func clampDepth(d int) int {
	if d < 0 {
		return 0
	}
	if d > 255 {
		return 255
	}
	return d
}

// adjustToTT converts a root-relative mate score into one relative to the
// node at ply (distance to mate from this node), so that a stored mate
// score stays correct when the same position is probed at another ply.
func adjustToTT(score, ply int) int {
	if score >= MateBound {
		return score + ply
	}
	if score <= -MateBound {
		return score - ply
	}
	return score
}

// adjustFromTT is the inverse of adjustToTT, applied on probe.
func adjustFromTT(score, ply int) int {
	if score >= MateBound {
		return score - ply
	}
	if score <= -MateBound {
		return score + ply
	}
	return score
}

// HashFull estimates per-mille occupancy by sampling the first 1000 slots
// (or all of them, if the table is smaller) and counting those holding an
// entry written during the current search generation (age).
func (t *Table) HashFull() int {
	sample := 1000
	if len(t.slots) < sample {
		sample = len(t.slots)
	}
	if sample == 0 {
		return 0
	}
	used := 0
	for i := 0; i < sample; i++ {
		w := t.slots[i].Load()
		if w != 0 && unpack(w).age == t.age {
			used++
		}
	}
	return used * 1000 / sample
}
