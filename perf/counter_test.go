package perf

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestCounterTally(t *testing.T) {
	tests := []struct {
		name      string
		step      time.Duration
		frames    int
		wantTally []int // 1-based frame numbers that tally
		wantFPS   float64
	}{
		{"10 fps", 100 * time.Millisecond, 21, []int{10, 20}, 10},
		{"4 fps", 250 * time.Millisecond, 8, []int{4, 8}, 4},
		{"slow frames", 2 * time.Second, 3, []int{1, 2, 3}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := newFakeClock()
			c := NewCounter(WithClock(clk), WithMaxFPS(0))

			var tallies []int
			for i := 1; i <= tt.frames; i++ {
				clk.advance(tt.step)
				c.Frame()
				if c.Tallied() {
					tallies = append(tallies, i)
				}
			}
			if diff := cmp.Diff(tt.wantTally, tallies); diff != "" {
				t.Errorf("tallied frames mismatch (-want +got):\n%s", diff)
			}
			if c.FPS() != tt.wantFPS {
				t.Errorf("FPS() = %v, want %v", c.FPS(), tt.wantFPS)
			}
			if len(clk.sleeps) != 0 {
				t.Errorf("uncapped counter slept %v", clk.sleeps)
			}
		})
	}
}

func TestCounterMaxFPS(t *testing.T) {
	clk := newFakeClock()
	c := NewCounter(WithClock(clk), WithMaxFPS(100))

	clk.advance(4 * time.Millisecond)
	c.Frame()
	clk.advance(20 * time.Millisecond)
	c.Frame()
	clk.advance(9 * time.Millisecond)
	c.Frame()

	want := []time.Duration{6 * time.Millisecond, time.Millisecond}
	if diff := cmp.Diff(want, clk.sleeps); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
}

func TestCounterSetMaxFPS(t *testing.T) {
	c := NewCounter(WithClock(newFakeClock()))
	if c.MaxFPS() != DefaultMaxFPS {
		t.Errorf("MaxFPS() = %d, want %d", c.MaxFPS(), DefaultMaxFPS)
	}
	c.SetMaxFPS(-5)
	if c.MaxFPS() != 0 {
		t.Errorf("MaxFPS() after SetMaxFPS(-5) = %d, want 0", c.MaxFPS())
	}
	c.SetMaxFPS(60)
	if c.MaxFPS() != 60 {
		t.Errorf("MaxFPS() = %d, want 60", c.MaxFPS())
	}
}

func TestCounterReset(t *testing.T) {
	clk := newFakeClock()
	c := NewCounter(WithClock(clk), WithMaxFPS(0))

	for range 9 {
		clk.advance(100 * time.Millisecond)
		c.Frame()
	}
	c.Reset()
	clk.advance(500 * time.Millisecond)
	c.Frame()
	if c.Tallied() {
		t.Error("Tallied() = true within half a second of Reset")
	}
	clk.advance(500 * time.Millisecond)
	c.Frame()
	if !c.Tallied() || c.FPS() != 2 {
		t.Errorf("after reset: Tallied() = %v, FPS() = %v; want true, 2", c.Tallied(), c.FPS())
	}
}
