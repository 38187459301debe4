package cache

// nilIndex terminates the intrusive LRU list.
const nilIndex int32 = -1

// lruList is an intrusive doubly-linked list threaded through the prev/next
// fields of arena entries. The head is the oldest unlocked entry (next to be
// evicted), the tail the most recently unlocked one.
type lruList struct {
	head int32
	tail int32
	len  int
}

func newLRUList() lruList {
	return lruList{head: nilIndex, tail: nilIndex}
}

// pushBack appends entry i at the tail.
func (l *lruList) pushBack(entries []entry, i int32) {
	e := &entries[i]
	e.prev = l.tail
	e.next = nilIndex
	if l.tail == nilIndex {
		l.head = i
	} else {
		entries[l.tail].next = i
	}
	l.tail = i
	e.inLRU = true
	l.len++
}

// remove unlinks entry i. It is a no-op for entries not on the list.
func (l *lruList) remove(entries []entry, i int32) {
	e := &entries[i]
	if !e.inLRU {
		return
	}
	if e.prev == nilIndex {
		l.head = e.next
	} else {
		entries[e.prev].next = e.next
	}
	if e.next == nilIndex {
		l.tail = e.prev
	} else {
		entries[e.next].prev = e.prev
	}
	e.prev, e.next = nilIndex, nilIndex
	e.inLRU = false
	l.len--
}

// front returns the oldest unlocked entry or nilIndex.
func (l *lruList) front() int32 { return l.head }

// reset empties the list without touching entries.
func (l *lruList) reset() { *l = newLRUList() }
