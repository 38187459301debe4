package cache

import "testing"

func newLRUEntries(n int) []entry {
	entries := make([]entry, n)
	for i := range entries {
		entries[i].prev, entries[i].next = nilIndex, nilIndex
	}
	return entries
}

func TestLRUList(t *testing.T) {
	entries := newLRUEntries(3)
	l := newLRUList()
	if l.front() != nilIndex || l.len != 0 {
		t.Fatalf("new list = %+v", l)
	}

	l.pushBack(entries, 0)
	l.pushBack(entries, 1)
	l.pushBack(entries, 2)
	if l.len != 3 {
		t.Errorf("len = %d, want 3", l.len)
	}
	if l.front() != 0 {
		t.Errorf("front = %d, want 0", l.front())
	}

	// Touching 0 moves it behind 2.
	l.remove(entries, 0)
	l.pushBack(entries, 0)
	if l.front() != 1 {
		t.Errorf("front after touch = %d, want 1", l.front())
	}

	// Removing from the middle keeps the links consistent.
	l.remove(entries, 2)
	if entries[1].next != 0 || entries[0].prev != 1 {
		t.Errorf("links after middle remove: 1.next=%d 0.prev=%d", entries[1].next, entries[0].prev)
	}
	if entries[2].inLRU {
		t.Error("removed entry still marked in list")
	}

	l.remove(entries, 1)
	l.remove(entries, 0)
	if l.front() != nilIndex || l.len != 0 {
		t.Errorf("drained list = %+v", l)
	}
}

func TestLRUListRemoveNotListed(t *testing.T) {
	entries := newLRUEntries(2)
	l := newLRUList()
	l.pushBack(entries, 0)
	l.remove(entries, 1)
	if l.len != 1 || l.front() != 0 {
		t.Errorf("removing an unlisted entry changed the list: %+v", l)
	}
	l.reset()
	if l.front() != nilIndex || l.len != 0 {
		t.Errorf("reset list = %+v", l)
	}
}
