// Package animation drives keyframe selection from elapsed time.
package animation

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidInterval is returned for a frame interval that is not positive.
var ErrInvalidInterval = errors.New("frame interval must be positive")

// Selection is the frame pair and blend weight chosen for one render.
type Selection struct {
	Frame  int
	Next   int
	Weight float32
}

// Clock maps elapsed time onto a fractional frame position.
// The position is elapsed/interval plus a manual offset, wrapped into
// [0, n) when looping and clamped to [0, n-1] otherwise.
type Clock struct {
	mu  sync.Mutex
	now func() time.Time

	interval time.Duration
	loop     bool
	offset   float64

	running bool
	paused  bool
	started time.Time
	// elapsed accumulates time from previous runs.
	elapsed time.Duration
	restart bool
}

// NewClock returns a stopped clock.
func NewClock(interval time.Duration, loop bool) (*Clock, error) {
	if interval <= 0 {
		return nil, errors.Wrapf(ErrInvalidInterval, "got %v", interval)
	}
	return &Clock{
		now:      time.Now,
		interval: interval,
		loop:     loop,
	}, nil
}

// SetTimeSource replaces the wall clock, mainly for tests.
func (c *Clock) SetTimeSource(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.elapsed += c.now().Sub(c.started)
		c.started = now()
	}
	c.now = now
}

func (c *Clock) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// SetInterval changes the frame interval, keeping the current frame position.
func (c *Clock) SetInterval(d time.Duration) error {
	if d <= 0 {
		return errors.Wrapf(ErrInvalidInterval, "got %v", d)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pos := c.rawLocked()
	c.interval = d
	c.resetLocked()
	c.offset = pos
	return nil
}

func (c *Clock) Loop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loop
}

func (c *Clock) SetLoop(loop bool) {
	c.mu.Lock()
	c.loop = loop
	c.mu.Unlock()
}

// Start begins counting elapsed time. Starting a running clock does nothing.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		c.running = true
		c.started = c.now()
	}
}

// Stop freezes elapsed time.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.elapsed += c.now().Sub(c.started)
		c.running = false
	}
}

// Pause stops the clock until Resume; Activate leaves a paused clock stopped.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
	if c.running {
		c.elapsed += c.now().Sub(c.started)
		c.running = false
	}
}

// Resume undoes Pause. The clock restarts on the next Activate.
func (c *Clock) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

func (c *Clock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Elapsed returns the total running time since the last reset.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsedLocked()
}

// RequestRestart makes the next Activate rewind to frame 0.
func (c *Clock) RequestRestart() {
	c.mu.Lock()
	c.restart = true
	c.mu.Unlock()
}

// Activate is called once per render: it starts the clock on first use and
// honors a pending restart.
func (c *Clock) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.restart {
		c.restart = false
		c.offset = 0
		c.resetLocked()
	}
	if !c.running && !c.paused {
		c.running = true
		c.started = c.now()
	}
}

// Next steps one frame forward independent of elapsed time.
func (c *Clock) Next() {
	c.mu.Lock()
	c.offset++
	c.mu.Unlock()
}

// Previous steps one frame back independent of elapsed time.
func (c *Clock) Previous() {
	c.mu.Lock()
	c.offset--
	c.mu.Unlock()
}

// SetPosition jumps to a fractional frame position and clears elapsed time.
func (c *Clock) SetPosition(frame float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.offset = frame
}

// Position returns the fractional frame position for a sequence of n frames.
func (c *Clock) Position(n int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked(n)
}

// Select picks the frame to draw for n frames. With interpolate, Next is the
// following frame (wrapping) and Weight the fractional progress toward it.
func (c *Clock) Select(n int, interpolate bool) Selection {
	if n <= 0 {
		return Selection{}
	}
	pos := c.Position(n)
	frame := int(math.Floor(pos))
	if frame >= n {
		frame = n - 1
	}
	sel := Selection{Frame: frame, Next: frame}
	if interpolate {
		sel.Next = (frame + 1) % n
		sel.Weight = float32(pos - float64(frame))
	}
	return sel
}

func (c *Clock) positionLocked(n int) float64 {
	if n <= 0 {
		return 0
	}
	pos := c.rawLocked()
	count := float64(n)
	if c.loop {
		pos = math.Mod(pos, count)
		if pos < 0 {
			pos += count
		}
		return pos
	}
	return math.Max(0, math.Min(pos, count-1))
}

func (c *Clock) rawLocked() float64 {
	return float64(c.elapsedLocked())/float64(c.interval) + c.offset
}

func (c *Clock) elapsedLocked() time.Duration {
	if c.running {
		return c.elapsed + c.now().Sub(c.started)
	}
	return c.elapsed
}

func (c *Clock) resetLocked() {
	c.elapsed = 0
	if c.running {
		c.started = c.now()
	}
}
