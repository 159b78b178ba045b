package privateer

import (
	"sync"
	"time"
)

// Clock supplies timestamps to time-based protocols such as target locking.
type Clock interface {
	Now() time.Time
}

type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (m *ManualClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *ManualClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

func (m *ManualClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// SimClock counts simulated seconds. As a Clock it reports the epoch plus
// the elapsed simulated time, so it stops when the simulation pauses.
type SimClock struct {
	epoch   time.Time
	elapsed float64
	frames  uint64
}

func NewSimClock() *SimClock {
	return &SimClock{epoch: time.Unix(0, 0).UTC()}
}

func (c *SimClock) Now() time.Time {
	return c.epoch.Add(time.Duration(c.elapsed * float64(time.Second)))
}

// Seconds is the simulated time elapsed since the clock was created.
func (c *SimClock) Seconds() float64 { return c.elapsed }

// Frames counts every Tick, including zero-length ones.
func (c *SimClock) Frames() uint64 { return c.frames }

// Advance moves simulated time forward by dt seconds and counts a frame.
func (c *SimClock) Advance(dt float64) {
	c.frames++
	if dt > 0 {
		c.elapsed += dt
	}
}
