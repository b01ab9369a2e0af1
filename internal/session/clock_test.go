package session

import (
	"testing"
	"time"
)

func TestClockSyncStartsGeneration(t *testing.T) {
	c := NewClock(0)
	if c.Interval() != TickInterval {
		t.Fatalf("expected default interval, got %v", c.Interval())
	}
	now := time.Unix(1000, 0)
	gen, start := c.Sync(true, now)
	if !start || gen == 0 {
		t.Fatalf("expected start with new generation, got gen=%d start=%v", gen, start)
	}
	if again, start := c.Sync(true, now); start || again != gen {
		t.Fatalf("re-sync while enabled should be a no-op")
	}
}

func TestClockTickMeasuresWallClock(t *testing.T) {
	c := NewClock(TickInterval)
	now := time.Unix(1000, 0)
	gen, _ := c.Sync(true, now)

	elapsed, ok := c.Tick(gen, now.Add(250*time.Millisecond))
	if !ok || elapsed != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v ok=%v", elapsed, ok)
	}
	elapsed, ok = c.Tick(gen, now.Add(300*time.Millisecond))
	if !ok || elapsed != 50*time.Millisecond {
		t.Fatalf("expected 50ms, got %v ok=%v", elapsed, ok)
	}
}

func TestClockDropsStaleTicks(t *testing.T) {
	c := NewClock(TickInterval)
	now := time.Unix(1000, 0)
	old, _ := c.Sync(true, now)
	c.Sync(false, now)
	if _, ok := c.Tick(old, now.Add(time.Second)); ok {
		t.Fatalf("tick after disable should be dropped")
	}

	gen, start := c.Sync(true, now.Add(5*time.Second))
	if !start || gen == old {
		t.Fatalf("re-enable should start a new generation")
	}
	if _, ok := c.Tick(old, now.Add(6*time.Second)); ok {
		t.Fatalf("tick from earlier generation should be dropped")
	}
	elapsed, ok := c.Tick(gen, now.Add(5100*time.Millisecond))
	if !ok || elapsed != 100*time.Millisecond {
		t.Fatalf("pause time should not count, got %v ok=%v", elapsed, ok)
	}
}

func TestClockClampsBackwardsTime(t *testing.T) {
	c := NewClock(TickInterval)
	now := time.Unix(1000, 0)
	gen, _ := c.Sync(true, now)
	elapsed, ok := c.Tick(gen, now.Add(-time.Second))
	if !ok || elapsed != 0 {
		t.Fatalf("expected 0 for backwards time, got %v", elapsed)
	}
}
