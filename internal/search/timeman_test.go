package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeManagerFixedMoveTime(t *testing.T) {
	now := time.Unix(0, 0)
	tm := NewTimeManager(Limits{MoveTime: 200 * time.Millisecond}, 0, now)

	assert.Equal(t, 200*time.Millisecond, tm.soft)
	assert.Equal(t, 400*time.Millisecond, tm.hard)
}

func TestTimeManagerClockBasedAllocation(t *testing.T) {
	now := time.Unix(0, 0)
	l := Limits{WTime: 60 * time.Second, WInc: 1 * time.Second, MovesToGo: 20}
	tm := NewTimeManager(l, 0, now)

	wantAlloc := 60*time.Second/20 + time.Second*3/4
	assert.Equal(t, wantAlloc*6/10, tm.soft)
	assert.Equal(t, wantAlloc*2, tm.hard)
}

func TestTimeManagerHardBoundClampedToRemaining(t *testing.T) {
	now := time.Unix(0, 0)
	l := Limits{WTime: 500 * time.Millisecond, MovesToGo: 1}
	tm := NewTimeManager(l, 0, now)

	assert.LessOrEqual(t, tm.hard, 500*time.Millisecond-moveOverhead)
}

func TestTimeManagerNoClockFallsBackToFixedSlice(t *testing.T) {
	now := time.Unix(0, 0)
	tm := NewTimeManager(Limits{Depth: 6}, 0, now)

	assert.Equal(t, 2*time.Second, tm.soft)
	assert.Equal(t, 5*time.Second, tm.hard)
}

func TestTimeManagerInfiniteNeverStops(t *testing.T) {
	now := time.Unix(0, 0)
	tm := NewTimeManager(Limits{Infinite: true}, 0, now)

	assert.True(t, tm.ShouldStartIteration())
	assert.False(t, tm.ShouldStop(1_000_000))
}
