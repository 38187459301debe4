package cache

import (
	"errors"
	"fmt"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/internal/logging"
)

// ErrInconsistent is returned by Validate when internal bookkeeping is
// corrupt.
var ErrInconsistent = errors.New("cache: inconsistent state")

// entry is one arena slot.
type entry struct {
	key      Key
	res      device.Resource
	size     int64
	gen      uint32
	locks    int32
	live     bool
	budgeted bool

	inLRU      bool
	prev, next int32

	// stamp orders unlock events; the highest stamp is the most recently
	// unlocked entry.
	stamp uint64
}

// ResourceCache is a budgeted, key-addressed store of lockable device
// resources with LRU eviction.
//
// ResourceCache is not safe for concurrent use.
type ResourceCache struct {
	entries []entry
	free    []int32
	index   map[Key][]int32
	lru     lruList

	budget Budget
	count  int
	bytes  int64

	unbudgetedCount int
	unbudgetedBytes int64

	clock   uint64
	purging bool
	onEvict func(Key, device.Resource)

	stats Stats
}

// New creates a cache with budget b.
func New(b Budget) *ResourceCache {
	return &ResourceCache{
		index:  make(map[Key][]int32),
		lru:    newLRUList(),
		budget: b,
	}
}

// SetEvictHook installs fn, called with every entry evicted by a purge or
// released by its last Unlock, before the resource is released. FreeAll and
// ReleaseAll do not call it. fn may call back into the cache.
func (c *ResourceCache) SetEvictHook(fn func(Key, device.Resource)) {
	c.onEvict = fn
}

// Budget returns the current budget.
func (c *ResourceCache) Budget() Budget { return c.budget }

// SetBudget replaces the budget and purges down to it.
func (c *ResourceCache) SetBudget(b Budget) {
	c.budget = b
	c.PurgeToBudget()
}

// Len returns the number of live entries, budgeted or not.
func (c *ResourceCache) Len() int { return c.count + c.unbudgetedCount }

// FindAndLock looks key up and locks a matching entry according to policy.
// It returns the empty token on a miss and never allocates.
func (c *ResourceCache) FindAndLock(key Key, policy LockPolicy) Token {
	i := c.pick(key, policy)
	if i == nilIndex {
		c.stats.Misses++
		return Token{}
	}
	c.stats.Hits++
	e := &c.entries[i]
	if policy == LockSingle && e.locks > 0 {
		return Token{idx: uint32(i), gen: e.gen}
	}
	c.lock(i)
	return Token{idx: uint32(i), gen: e.gen}
}

// pick chooses the entry FindAndLock would return.
func (c *ResourceCache) pick(key Key, policy LockPolicy) int32 {
	best := nilIndex
	for _, i := range c.index[key] {
		e := &c.entries[i]
		if e.locks > 0 {
			if policy != LockExclusive && (best == nilIndex || c.entries[best].locks == 0) {
				best = i
			}
			continue
		}
		if best != nilIndex && c.entries[best].locks > 0 {
			// Shared policies prefer an entry that is already held.
			continue
		}
		if best == nilIndex || e.stamp > c.entries[best].stamp {
			best = i
		}
	}
	return best
}

// CreateAndLock creates a resource with create and inserts it under key with
// one lock. Budget pressure evicts unlocked entries but never fails the
// insertion. A create error yields the empty token.
func (c *ResourceCache) CreateAndLock(key Key, create func() (device.Resource, error)) Token {
	res, err := create()
	if err != nil || res == nil {
		c.stats.CreateFailures++
		logging.L().Debug("cache: create failed", "key", key, "err", err)
		return Token{}
	}
	return c.AddAndLock(key, res)
}

// AddAndLock inserts an existing resource under key with one lock.
func (c *ResourceCache) AddAndLock(key Key, res device.Resource) Token {
	tok := c.insert(key, res, true)
	c.stats.Creates++
	c.PurgeToBudget()
	return tok
}

// AddUnbudgeted registers a caller-owned resource. It does not count against
// the budget, is never returned by FindAndLock and is released when its last
// lock is dropped.
func (c *ResourceCache) AddUnbudgeted(key Key, res device.Resource) Token {
	return c.insert(key, res, false)
}

func (c *ResourceCache) insert(key Key, res device.Resource, budgeted bool) Token {
	var i int32
	if n := len(c.free); n > 0 {
		i = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		c.entries = append(c.entries, entry{gen: 1})
		i = int32(len(c.entries) - 1)
	}
	e := &c.entries[i]
	e.key = key
	e.res = res
	e.size = res.SizeBytes()
	e.locks = 1
	e.live = true
	e.budgeted = budgeted
	e.inLRU = false
	e.prev, e.next = nilIndex, nilIndex
	e.stamp = 0

	if budgeted {
		c.index[key] = append(c.index[key], i)
		c.count++
		c.bytes += e.size
		c.stats.PeakCount = max(c.stats.PeakCount, c.count)
		c.stats.PeakBytes = max(c.stats.PeakBytes, c.bytes)
	} else {
		c.unbudgetedCount++
		c.unbudgetedBytes += e.size
	}
	return Token{idx: uint32(i), gen: e.gen}
}

// Lock takes an additional lock on a live entry. It returns false for empty
// or stale tokens.
func (c *ResourceCache) Lock(tok Token) bool {
	i, ok := c.resolve(tok)
	if !ok {
		return false
	}
	c.lock(i)
	return true
}

func (c *ResourceCache) lock(i int32) {
	e := &c.entries[i]
	if e.locks == 0 {
		c.lru.remove(c.entries, i)
	}
	e.locks++
}

// Unlock drops one lock. When the count reaches zero a budgeted entry
// becomes the most recently unlocked LRU entry and the cache purges to
// budget immediately; an unbudgeted entry is released.
func (c *ResourceCache) Unlock(tok Token) {
	i, ok := c.resolve(tok)
	if !ok {
		if !tok.IsEmpty() {
			misuse("unlock of stale token", "token", tok)
		}
		return
	}
	e := &c.entries[i]
	if e.locks <= 0 {
		misuse("unbalanced unlock", "key", e.key)
		return
	}
	e.locks--
	if e.locks > 0 {
		return
	}
	if !e.budgeted {
		c.evict(i)
		return
	}
	c.clock++
	e.stamp = c.clock
	c.lru.pushBack(c.entries, i)
	c.PurgeToBudget()
}

// Resource returns the resource behind tok, or nil for empty and stale
// tokens.
func (c *ResourceCache) Resource(tok Token) device.Resource {
	i, ok := c.resolve(tok)
	if !ok {
		return nil
	}
	return c.entries[i].res
}

// Key returns the key tok was inserted under.
func (c *ResourceCache) Key(tok Token) (Key, bool) {
	i, ok := c.resolve(tok)
	if !ok {
		return Key{}, false
	}
	return c.entries[i].key, true
}

// LockCount returns the number of locks held on tok's entry (0 when stale).
func (c *ResourceCache) LockCount(tok Token) int {
	i, ok := c.resolve(tok)
	if !ok {
		return 0
	}
	return int(c.entries[i].locks)
}

// IsLocked reports whether tok names a live, locked entry.
func (c *ResourceCache) IsLocked(tok Token) bool {
	return c.LockCount(tok) > 0
}

// IsValid reports whether tok names a live entry.
func (c *ResourceCache) IsValid(tok Token) bool {
	_, ok := c.resolve(tok)
	return ok
}

func (c *ResourceCache) resolve(tok Token) (int32, bool) {
	if tok.IsEmpty() || int(tok.idx) >= len(c.entries) {
		return nilIndex, false
	}
	e := &c.entries[tok.idx]
	if !e.live || e.gen != tok.gen {
		return nilIndex, false
	}
	return int32(tok.idx), true
}

// PurgeToBudget evicts unlocked entries, oldest unlock first, until the
// cache fits its budget or nothing evictable remains.
func (c *ResourceCache) PurgeToBudget() {
	if c.purging {
		return
	}
	c.purging = true
	defer func() { c.purging = false }()

	for c.overBudget() {
		i := c.lru.front()
		if i == nilIndex {
			break
		}
		c.evict(i)
	}
	if debugChecks {
		if err := c.Validate(); err != nil {
			misuse(err.Error())
		}
	}
}

// PurgeUnlocked evicts every unlocked entry.
func (c *ResourceCache) PurgeUnlocked() {
	if c.purging {
		return
	}
	c.purging = true
	defer func() { c.purging = false }()

	for i := c.lru.front(); i != nilIndex; i = c.lru.front() {
		c.evict(i)
	}
}

func (c *ResourceCache) overBudget() bool {
	return c.count > c.budget.MaxCount || c.bytes > c.budget.MaxBytes
}

// evict removes entry i, notifies the hook and releases the resource.
func (c *ResourceCache) evict(i int32) {
	e := &c.entries[i]
	key, res := e.key, e.res
	budgeted := e.budgeted
	c.unlink(i)
	if budgeted {
		c.stats.Evictions++
		c.stats.EvictedBytes += res.SizeBytes()
		logging.L().Debug("cache: evict", "key", key, "bytes", res.SizeBytes())
	}
	if c.onEvict != nil {
		c.onEvict(key, res)
	}
	res.Release()
}

// unlink removes entry i from every structure and recycles its slot.
func (c *ResourceCache) unlink(i int32) {
	e := &c.entries[i]
	c.lru.remove(c.entries, i)
	if e.budgeted {
		ids := c.index[e.key]
		for j, id := range ids {
			if id == i {
				ids[j] = ids[len(ids)-1]
				ids = ids[:len(ids)-1]
				break
			}
		}
		if len(ids) == 0 {
			delete(c.index, e.key)
		} else {
			c.index[e.key] = ids
		}
		c.count--
		c.bytes -= e.size
	} else {
		c.unbudgetedCount--
		c.unbudgetedBytes -= e.size
	}
	c.retire(i)
}

// retire invalidates every token of slot i and puts it on the free list.
func (c *ResourceCache) retire(i int32) {
	e := &c.entries[i]
	e.res = nil
	e.live = false
	e.locks = 0
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	c.free = append(c.free, i)
}

// FreeAll drops every resource regardless of lock state without calling the
// device (the device is gone) and invalidates every outstanding token.
func (c *ResourceCache) FreeAll() {
	n := c.dropAll(device.Resource.Abandon)
	c.stats.Abandoned += n
	logging.L().Debug("cache: abandoned all resources", "count", n)
}

// ReleaseAll releases every resource through the device regardless of lock
// state and invalidates every outstanding token.
func (c *ResourceCache) ReleaseAll() {
	n := c.dropAll(device.Resource.Release)
	logging.L().Debug("cache: released all resources", "count", n)
}

func (c *ResourceCache) dropAll(drop func(device.Resource)) int {
	n := 0
	for i := range c.entries {
		e := &c.entries[i]
		if !e.live {
			continue
		}
		drop(e.res)
		n++
		e.inLRU = false
		c.retire(int32(i))
	}
	c.index = make(map[Key][]int32)
	c.lru.reset()
	c.count, c.bytes = 0, 0
	c.unbudgetedCount, c.unbudgetedBytes = 0, 0
	return n
}

// Stats returns a snapshot of occupancy and counters.
func (c *ResourceCache) Stats() Stats {
	s := c.stats
	s.Budget = c.budget
	s.Count = c.count
	s.Bytes = c.bytes
	s.Unlocked = c.lru.len
	s.LockedCount = c.count - c.lru.len
	s.UnbudgetedCount = c.unbudgetedCount
	s.UnbudgetedBytes = c.unbudgetedBytes
	return s
}

// ResetStats clears the counters but keeps occupancy.
func (c *ResourceCache) ResetStats() {
	c.stats = Stats{Abandoned: c.stats.Abandoned}
}

// Validate checks the internal invariants: counters match the arena, every
// unlocked budgeted entry is on the LRU list in stamp order, locked entries
// are not, and the cache is within budget unless every budgeted entry is
// locked.
func (c *ResourceCache) Validate() error {
	count, unbudgeted := 0, 0
	var bytes int64
	unlocked := 0
	for i := range c.entries {
		e := &c.entries[i]
		if !e.live {
			if e.inLRU {
				return fmt.Errorf("%w: dead entry %d on LRU", ErrInconsistent, i)
			}
			continue
		}
		if !e.budgeted {
			unbudgeted++
			continue
		}
		count++
		bytes += e.size
		if e.locks == 0 {
			unlocked++
			if !e.inLRU {
				return fmt.Errorf("%w: unlocked entry %d missing from LRU", ErrInconsistent, i)
			}
		} else if e.inLRU {
			return fmt.Errorf("%w: locked entry %d on LRU", ErrInconsistent, i)
		}
	}
	if count != c.count || bytes != c.bytes || unbudgeted != c.unbudgetedCount {
		return fmt.Errorf("%w: counters %d/%d/%d, arena %d/%d/%d", ErrInconsistent,
			c.count, c.bytes, c.unbudgetedCount, count, bytes, unbudgeted)
	}
	if unlocked != c.lru.len {
		return fmt.Errorf("%w: LRU holds %d entries, %d unlocked", ErrInconsistent, c.lru.len, unlocked)
	}
	var last uint64
	for i := c.lru.head; i != nilIndex; i = c.entries[i].next {
		if c.entries[i].stamp < last {
			return fmt.Errorf("%w: LRU out of unlock order at %d", ErrInconsistent, i)
		}
		last = c.entries[i].stamp
	}
	if c.overBudget() && unlocked > 0 {
		return fmt.Errorf("%w: over budget with %d evictable entries", ErrInconsistent, unlocked)
	}
	return nil
}
