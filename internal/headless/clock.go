// Package headless provides simulated media collaborators: a virtual clock,
// movies and sounds with fixed durations, a recording graphics sink and
// input replayed from a YAML file. It drives the engine without a window or
// audio device.
package headless

// Clock is a virtual millisecond clock advanced only by Sleep.
type Clock struct {
	now uint32
}

// NewClock creates a clock reading start.
func NewClock(start uint32) *Clock { return &Clock{now: start} }

// Millis returns the virtual time.
func (c *Clock) Millis() uint32 { return c.now }

// Sleep advances the virtual time by ms without blocking.
func (c *Clock) Sleep(ms uint32) { c.now += ms }

// Advance is Sleep under a name that reads better in tests.
func (c *Clock) Advance(ms uint32) { c.now += ms }
