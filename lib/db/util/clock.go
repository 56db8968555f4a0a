package util

import (
	"sync/atomic"
	"time"
)

// Clock provides milliseconds of a monotonic time source.
// Only differences between two readings are meaningful.
type Clock interface {
	NowMillis() uint64
}

// MonotonicClock reads the process monotonic clock.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a clock that starts counting at 1ms,
// so that zero can be used as "never" by callers.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now().Add(-time.Millisecond)}
}

func (c *MonotonicClock) NowMillis() uint64 {
	// time.Since uses the monotonic reading of c.start
	return uint64(time.Since(c.start).Milliseconds())
}

// ManualClock only advances when told to. It is safe for concurrent use,
// tests may advance it while a server loop reads it.
type ManualClock struct {
	now atomic.Uint64
}

func NewManualClock(start uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

func (c *ManualClock) NowMillis() uint64 { return c.now.Load() }

// Advance moves the clock forward by d (truncated to milliseconds).
func (c *ManualClock) Advance(d time.Duration) {
	c.now.Add(uint64(d.Milliseconds()))
}

// Set moves the clock to an absolute reading.
func (c *ManualClock) Set(ms uint64) { c.now.Store(ms) }

var (
	_ Clock = (*MonotonicClock)(nil)
	_ Clock = (*ManualClock)(nil)
)
