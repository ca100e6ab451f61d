package storage

import (
	"sync/atomic"
	"time"
)

// Clock hands out strictly increasing UTC timestamps with microsecond
// precision, the finest resolution Postgres and SQLite keep.
type Clock struct {
	last atomic.Int64
	now  func() time.Time
}

// NewClock returns a Clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Now returns a timestamp later than any previously returned by c.
func (c *Clock) Now() time.Time {
	for {
		now := c.wall().UnixMicro()
		last := c.last.Load()
		if now <= last {
			now = last + 1
		}
		if c.last.CompareAndSwap(last, now) {
			return time.UnixMicro(now).UTC()
		}
	}
}

// After returns a timestamp later than both prev and any value previously
// returned by c.
func (c *Clock) After(prev time.Time) time.Time {
	floor := prev.UnixMicro()
	for {
		last := c.last.Load()
		if last >= floor {
			break
		}
		if c.last.CompareAndSwap(last, floor) {
			break
		}
	}
	return c.Now()
}

func (c *Clock) wall() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
