package session

import "time"

// TickInterval is the nominal spacing between clock ticks.
const TickInterval = 100 * time.Millisecond

// Clock turns periodic wake-ups into elapsed wall-clock durations.
//
// Each enable starts a new generation; ticks carry the generation they were
// scheduled for, so ticks from an earlier enable or delivered after disable
// are dropped instead of being replayed.
type Clock struct {
	interval time.Duration
	enabled  bool
	gen      uint64
	last     time.Time
}

// NewClock returns a disabled clock. A non-positive interval uses TickInterval.
func NewClock(interval time.Duration) *Clock {
	if interval <= 0 {
		interval = TickInterval
	}
	return &Clock{interval: interval}
}

// Interval returns the nominal tick spacing.
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// Enabled reports whether ticks are currently accepted.
func (c *Clock) Enabled() bool {
	return c.enabled
}

// Sync enables or disables the clock. start is true when the clock has just
// been enabled and the caller must schedule the first tick for gen.
func (c *Clock) Sync(enabled bool, now time.Time) (gen uint64, start bool) {
	if enabled == c.enabled {
		return c.gen, false
	}
	c.enabled = enabled
	c.gen++
	if !enabled {
		return c.gen, false
	}
	c.last = now
	return c.gen, true
}

// Tick returns the time elapsed since the previous accepted tick. ok is false
// for stale generations or while disabled; the caller must not reschedule.
func (c *Clock) Tick(gen uint64, now time.Time) (elapsed time.Duration, ok bool) {
	if !c.enabled || gen != c.gen {
		return 0, false
	}
	elapsed = now.Sub(c.last)
	c.last = now
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, true
}
