package gr

import (
	"fmt"
	"io"

	"github.com/gogpu/gr/cache"
	"github.com/gogpu/gr/device"
)

// Stats is a snapshot of context activity since the last ResetStats.
type Stats struct {
	Cache   cache.Stats
	Device  device.Stats
	Flushes int
	Lost    int
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("%s; %s; flushes=%d lost=%d", s.Cache, s.Device, s.Flushes, s.Lost)
}

// Stats returns the context's counters.
func (c *Context) Stats() Stats {
	return Stats{
		Cache:   c.cache.Stats(),
		Device:  c.dev.Stats(),
		Flushes: c.sched.Flushes() - c.flushBase,
		Lost:    c.lost,
	}
}

// ResetStats zeroes the cache, device and flush counters.
func (c *Context) ResetStats() {
	c.cache.ResetStats()
	c.dev.ResetStats()
	c.flushBase = c.sched.Flushes()
}

// PrintStats writes a human-readable report of Stats to w.
func (c *Context) PrintStats(w io.Writer) error {
	s := c.Stats()
	_, err := fmt.Fprintf(w,
		"textures: %d/%d entries, %d/%d bytes, %d locked, %d unbudgeted\n"+
			"cache: %d hits, %d misses, %d creates, %d failed, %d evictions\n"+
			"device: %s\n"+
			"flushes: %d, lost: %d\n",
		s.Cache.Count, s.Cache.Budget.MaxCount, s.Cache.Bytes, s.Cache.Budget.MaxBytes,
		s.Cache.LockedCount, s.Cache.UnbudgetedCount,
		s.Cache.Hits, s.Cache.Misses, s.Cache.Creates, s.Cache.CreateFailures, s.Cache.Evictions,
		s.Device, s.Flushes, s.Lost)
	return err
}
