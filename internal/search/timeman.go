package search

import "time"

// Limits describes a "go" command's time control and search bounds. Zero
// values mean "no limit of this kind"; at least one of the fields is
// normally set by the UCI layer before a search starts.
type Limits struct {
	WTime, BTime   time.Duration
	WInc, BInc     time.Duration
	MovesToGo      int
	Depth          int
	Nodes          int64
	MoveTime       time.Duration
	Infinite       bool
}

// TimeManager converts Limits into a soft and hard deadline for the side to
// move: the soft limit is checked between iterative-deepening iterations
// (a depth already in flight is allowed to finish), the hard limit is
// checked inside the search itself and aborts mid-iteration.
type TimeManager struct {
	start         time.Time
	soft, hard    time.Duration
	nodesLimit    int64
	infinite      bool
}

// moveOverhead is subtracted from the remaining clock time when clamping
// the hard bound, leaving room for UCI round-trip and engine startup
// latency.
const moveOverhead = 30 * time.Millisecond

// NewTimeManager computes the soft/hard budget for side to move from l,
// started at now. With a clock running, alloc = min(time, time/mtg +
// 3*inc/4); with only a fixed movetime, alloc = movetime. The hard bound
// clamps alloc*2 into [1ms, time-moveOverhead]; the soft bound is alloc
// itself for a fixed movetime, alloc*0.6 otherwise.
func NewTimeManager(l Limits, side int, now time.Time) *TimeManager {
	tm := &TimeManager{start: now, nodesLimit: l.Nodes, infinite: l.Infinite}

	var remaining, inc time.Duration
	if side == 0 {
		remaining, inc = l.WTime, l.WInc
	} else {
		remaining, inc = l.BTime, l.BInc
	}

	hasClock := remaining > 0
	hasMoveTime := l.MoveTime > 0

	if !hasClock && !hasMoveTime {
		// No clock information at all: search depth/node-limited only, or
		// fall back to a conservative fixed slice.
		tm.soft, tm.hard = 2*time.Second, 5*time.Second
		return tm
	}

	var alloc time.Duration
	if hasClock {
		mtg := l.MovesToGo
		if mtg <= 0 {
			mtg = 30 // assume a mid-length game when the GUI doesn't send movestogo
		}
		alloc = remaining/time.Duration(mtg) + inc*3/4
		if alloc > remaining {
			alloc = remaining
		}
	} else {
		alloc = l.MoveTime
	}

	hard := alloc * 2
	if max := remaining - moveOverhead; hasClock && max > 0 && hard > max {
		hard = max
	}
	if hard < time.Millisecond {
		hard = time.Millisecond
	}
	tm.hard = hard

	if hasMoveTime {
		tm.soft = alloc
	} else {
		tm.soft = alloc * 6 / 10
	}
	return tm
}

// ShouldStartIteration reports whether there is enough of the soft budget
// left to be worth starting another iterative-deepening depth.
func (tm *TimeManager) ShouldStartIteration() bool {
	if tm.infinite {
		return true
	}
	if tm.soft == 0 {
		return true
	}
	return time.Since(tm.start) < tm.soft
}

// ShouldStop is polled periodically from inside the search (every 1024
// nodes) to catch a hard-limit or node-limit overrun mid-iteration.
func (tm *TimeManager) ShouldStop(nodes int64) bool {
	if tm.infinite {
		return false
	}
	if tm.nodesLimit > 0 && nodes >= tm.nodesLimit {
		return true
	}
	if tm.hard == 0 {
		return false
	}
	return time.Since(tm.start) >= tm.hard
}

// Elapsed returns time since the search started, for UCI `info time`.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.start)
}
