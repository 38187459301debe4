package cache

import "fmt"

// Default texture cache limits.
const (
	DefaultMaxCount       = 256
	DefaultMaxBytes int64 = 16 * 1024 * 1024
)

// Budget is the (count, bytes) ceiling the cache keeps budgeted entries
// under by evicting unlocked ones.
type Budget struct {
	MaxCount int
	MaxBytes int64
}

// DefaultBudget returns 256 entries and 16 MiB.
func DefaultBudget() Budget {
	return Budget{MaxCount: DefaultMaxCount, MaxBytes: DefaultMaxBytes}
}

// Stats is a snapshot of cache occupancy and counters.
type Stats struct {
	Budget Budget

	// Count and Bytes cover budgeted entries only.
	Count       int
	Bytes       int64
	LockedCount int
	Unlocked    int

	UnbudgetedCount int
	UnbudgetedBytes int64

	Hits           uint64
	Misses         uint64
	Creates        uint64
	CreateFailures uint64
	Evictions      uint64
	EvictedBytes   int64

	PeakCount int
	PeakBytes int64

	// Abandoned counts resources dropped by FreeAll without device calls.
	Abandoned int
}

// OverBudget reports whether the snapshot exceeds its budget.
func (s Stats) OverBudget() bool {
	return s.Count > s.Budget.MaxCount || s.Bytes > s.Budget.MaxBytes
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Cache[%d/%d entries, %d/%d KB, %d locked, %d hits, %d misses, %d evictions]",
		s.Count, s.Budget.MaxCount,
		s.Bytes/1024, s.Budget.MaxBytes/1024,
		s.LockedCount, s.Hits, s.Misses, s.Evictions)
}
