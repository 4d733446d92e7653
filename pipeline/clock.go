package pipeline

import (
	"time"

	"github.com/pthm-cable/slime/config"
)

// Clock produces FrameParams once per visual frame.
type Clock struct {
	measured bool
	fixed    float32
	maxDT    float32
	now      func() time.Time

	start   time.Time
	last    time.Time
	started bool
}

// NewClock creates a frame clock. now may be nil to use time.Now.
func NewClock(cfg config.FrameConfig, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{
		measured: cfg.DeltaMode == config.DeltaMeasured,
		fixed:    cfg.DeltaTime,
		maxDT:    cfg.MaxDeltaTime,
		now:      now,
	}
}

// Start resets elapsed time to zero.
func (c *Clock) Start() {
	c.start = c.now()
	c.last = c.start
	c.started = true
}

// Tick returns the parameters for the next frame. Elapsed time is
// microseconds since Start truncated to 32 bits. In fixed mode the delta is
// the configured constant; in measured mode it is the wall time since the
// previous tick, clamped to max_delta_time.
func (c *Clock) Tick() FrameParams {
	if !c.started {
		c.Start()
	}
	now := c.now()
	p := FrameParams{
		ElapsedMicros: uint32(now.Sub(c.start).Microseconds()),
		DeltaTime:     c.fixed,
	}
	if c.measured {
		dt := float32(now.Sub(c.last).Seconds())
		if dt <= 0 {
			dt = c.fixed
		}
		if c.maxDT > 0 && dt > c.maxDT {
			dt = c.maxDT
		}
		p.DeltaTime = dt
	}
	c.last = now
	return p
}
