package harness

// Clock is the simulator's logical time source. Now is in milliseconds and only
// moves when a scenario waits; Next numbers trace events.
type Clock struct {
	now int64
	seq int64
}

// NewClock returns a clock at time zero. The first call to Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current time in milliseconds.
func (c *Clock) Now() int64 {
	return c.now
}

// AdvanceTo moves the clock forward to t. Earlier times are ignored.
func (c *Clock) AdvanceTo(t int64) {
	if t > c.now {
		c.now = t
	}
}

// Next increments and returns the event sequence number.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}

// Reset returns the clock to time zero.
func (c *Clock) Reset() {
	c.now = 0
	c.seq = 0
}
