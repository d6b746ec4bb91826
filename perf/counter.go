// Package perf measures frame rate and optionally caps it.
//
// A Counter is fed once per presented frame. Every second it tallies the
// frames seen since the previous tally into an FPS figure:
//
//	c := perf.NewCounter()
//	for running {
//		render()
//		c.Frame()
//		if c.Tallied() {
//			fmt.Println(c.FPS(), "frames/second")
//		}
//	}
package perf

import (
	"time"

	"github.com/gogpu/sprite"
)

// DefaultMaxFPS is the frame cap of a new Counter.
const DefaultMaxFPS = 240

// TallyInterval is how often a Counter computes FPS.
const TallyInterval = time.Second

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time         { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Option configures a Counter.
type Option func(*Counter)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Counter) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithMaxFPS sets the initial frame cap. Zero disables it.
func WithMaxFPS(fps int) Option {
	return func(p *Counter) { p.maxFPS = max(fps, 0) }
}

// Counter tallies frames per second. It is not safe for concurrent use.
type Counter struct {
	clock Clock

	lastTally time.Time
	lastFrame time.Time
	frames    int
	tallied   bool
	fps       float64

	maxFPS int
}

// NewCounter returns a Counter capped at DefaultMaxFPS.
func NewCounter(opts ...Option) *Counter {
	c := &Counter{clock: systemClock{}, maxFPS: DefaultMaxFPS}
	for _, opt := range opts {
		opt(c)
	}
	now := c.clock.Now()
	c.lastTally = now
	c.lastFrame = now
	return c
}

// Reset restarts the current tally window. The last FPS is kept.
func (c *Counter) Reset() {
	c.lastTally = c.clock.Now()
	c.frames = 0
	c.tallied = false
}

// Frame records one frame. When at least TallyInterval has passed since
// the last tally, the FPS is recomputed and Tallied reports true until the
// next call. With a frame cap set, Frame sleeps so that consecutive calls
// are at least 1/max seconds apart.
func (c *Counter) Frame() {
	c.frames++

	now := c.clock.Now()
	if elapsed := now.Sub(c.lastTally); elapsed >= TallyInterval {
		c.fps = float64(c.frames) / elapsed.Seconds()
		c.tallied = true
		c.lastTally = now
		c.frames = 0
		sprite.Logger().Debug("perf: tally", "fps", c.fps)
	} else {
		c.tallied = false
	}

	if c.maxFPS <= 0 {
		return
	}
	minFrame := time.Second / time.Duration(c.maxFPS)
	if d := now.Sub(c.lastFrame); d < minFrame {
		c.clock.Sleep(minFrame - d)
	}
	c.lastFrame = c.clock.Now()
}

// FPS returns the most recent tally, or zero before the first.
func (c *Counter) FPS() float64 { return c.fps }

// Tallied reports whether the last Frame produced a new tally.
func (c *Counter) Tallied() bool { return c.tallied }

// MaxFPS returns the frame cap; zero means uncapped.
func (c *Counter) MaxFPS() int { return c.maxFPS }

// SetMaxFPS changes the frame cap. Zero or less removes it.
func (c *Counter) SetMaxFPS(fps int) { c.maxFPS = max(fps, 0) }
