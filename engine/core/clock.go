package core

import "time"

/**
 * @brief Measures how long a piece of GPU work took, including the wait for
 * the device. A clock accumulates across Start/Stop pairs until Reset.
 */
type Clock struct {
	now     func() time.Time
	start   time.Time
	elapsed time.Duration
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Start does nothing when the clock is already running.
func (c *Clock) Start() {
	if !c.start.IsZero() {
		return
	}
	c.start = c.now()
}

// Stop freezes the clock and returns the total measured so far.
func (c *Clock) Stop() time.Duration {
	if !c.start.IsZero() {
		c.elapsed += c.now().Sub(c.start)
		c.start = time.Time{}
	}
	return c.elapsed
}

func (c *Clock) Running() bool {
	return !c.start.IsZero()
}

// Elapsed includes the running interval, if any.
func (c *Clock) Elapsed() time.Duration {
	if c.start.IsZero() {
		return c.elapsed
	}
	return c.elapsed + c.now().Sub(c.start)
}

func (c *Clock) Reset() {
	c.start = time.Time{}
	c.elapsed = 0
}
