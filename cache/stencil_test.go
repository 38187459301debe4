package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStencilCacheAttachDetach(t *testing.T) {
	c := New(DefaultBudget())
	s := NewStencilCache(c)

	sb := &fakeStencil{fakeResource: fakeResource{size: 256}, w: 8, h: 8, samples: 1}
	tok := s.AddAndLock(sb)
	assert.Equal(t, 1, s.Attachments(tok))
	assert.True(t, c.IsLocked(tok))

	// A second render target of the same size shares the buffer.
	found, tok2 := s.Find(8, 8, 1)
	require.NotNil(t, found)
	assert.Same(t, sb, found)
	assert.Equal(t, tok, tok2)
	assert.Equal(t, 2, s.Attachments(tok))
	assert.Equal(t, 1, c.LockCount(tok), "sharing keeps a single cache lock")

	s.Unlock(tok)
	assert.True(t, c.IsLocked(tok))
	s.Unlock(tok)
	assert.False(t, c.IsLocked(tok), "last detach unlocks")
	assert.Equal(t, 0, sb.released, "unlocked stencil buffers stay cached")

	// Re-attach to another render target relocks without reallocating.
	again, tok3 := s.Find(8, 8, 1)
	assert.Same(t, sb, again)
	assert.True(t, c.IsLocked(tok3))
	assert.Equal(t, 1, s.Attachments(tok3))
}

func TestStencilCacheMissOnDifferentSize(t *testing.T) {
	c := New(DefaultBudget())
	s := NewStencilCache(c)
	s.AddAndLock(&fakeStencil{w: 8, h: 8, samples: 1})

	sb, tok := s.Find(8, 8, 4)
	assert.Nil(t, sb)
	assert.True(t, tok.IsEmpty())
	sb, _ = s.Find(16, 8, 1)
	assert.Nil(t, sb)
}

func TestStencilCacheEvictsUnderBudget(t *testing.T) {
	c := New(Budget{MaxCount: 1, MaxBytes: 1 << 20})
	s := NewStencilCache(c)
	a := &fakeStencil{fakeResource: fakeResource{size: 1}, w: 4, h: 4, samples: 1}
	b := &fakeStencil{fakeResource: fakeResource{size: 1}, w: 8, h: 8, samples: 1}
	tokA := s.AddAndLock(a)
	tokB := s.AddAndLock(b)

	s.Unlock(tokA)
	assert.Equal(t, 1, a.released, "stencil buffers follow the same LRU budget")
	assert.Equal(t, 0, s.Attachments(tokA))
	assert.Equal(t, 1, s.Attachments(tokB))
}

func TestStencilCacheAfterFreeAll(t *testing.T) {
	c := New(DefaultBudget())
	s := NewStencilCache(c)
	tok := s.AddAndLock(&fakeStencil{w: 4, h: 4, samples: 1})
	c.FreeAll()
	s.Reset()

	assert.Equal(t, 0, s.Attachments(tok))
	sb, _ := s.Find(4, 4, 1)
	assert.Nil(t, sb)
}
