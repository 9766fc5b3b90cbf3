package stats

import "sync/atomic"

// CounterCell is a single atomic counter. Inc, Dec, Add and Load are
// lock-free and safe to call from any goroutine without holding the
// registry lock — that is the hot path this whole package exists to keep
// fast. Set is advisory: it is used for Stamp cells, which in practice have
// at most one writer at a time, and may race harmlessly against a
// concurrent Load from a publish pass.
type CounterCell struct {
	v atomic.Int64
}

// Inc increments the cell by one.
func (c *CounterCell) Inc() { c.v.Add(1) }

// Dec decrements the cell by one.
func (c *CounterCell) Dec() { c.v.Add(-1) }

// Add adds delta to the cell. delta may be negative.
func (c *CounterCell) Add(delta int64) { c.v.Add(delta) }

// Set stores value into the cell, overwriting whatever was there.
func (c *CounterCell) Set(value int64) { c.v.Store(value) }

// Load returns the cell's current value.
func (c *CounterCell) Load() int64 { return c.v.Load() }
