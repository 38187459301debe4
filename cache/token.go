package cache

import "fmt"

// Token is an opaque lock handle on a cache entry. The zero value is the
// empty token returned on misses and allocation failures.
type Token struct {
	idx uint32
	gen uint32
}

// IsEmpty reports whether the token names no entry.
func (t Token) IsEmpty() bool { return t.gen == 0 }

// String implements fmt.Stringer.
func (t Token) String() string {
	if t.IsEmpty() {
		return "Token(empty)"
	}
	return fmt.Sprintf("Token(%d/%d)", t.idx, t.gen)
}

// LockPolicy controls what FindAndLock does with an entry that is already
// locked.
type LockPolicy uint8

const (
	// LockExclusive skips locked entries: a second lock of the same
	// resource misses instead of aliasing it.
	LockExclusive LockPolicy = iota

	// LockSingle returns a locked entry without taking another lock and
	// locks an unlocked one. Used for shareable resources.
	LockSingle

	// LockNested always takes another lock.
	LockNested
)
