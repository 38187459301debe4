package cache

import "github.com/gogpu/gr/device"

// StencilCache is a typed view of a ResourceCache for stencil buffers.
//
// A stencil buffer holds one cache lock while at least one render target is
// attached to it. When the last attachment goes away the buffer becomes
// purge-eligible but stays cached, so Find can hand it to another render
// target of the same size later.
type StencilCache struct {
	cache    *ResourceCache
	attached map[Token]int
}

// NewStencilCache returns a stencil view over c.
func NewStencilCache(c *ResourceCache) *StencilCache {
	return &StencilCache{cache: c, attached: make(map[Token]int)}
}

// AddAndLock registers sb, locks it and counts one attachment.
func (s *StencilCache) AddAndLock(sb device.StencilBuffer) Token {
	key := StencilKey(sb.Width(), sb.Height(), sb.SampleCount())
	tok := s.cache.AddAndLock(key, sb)
	s.attached[tok] = 1
	return tok
}

// Find returns a cached stencil buffer for (width, height, samples) and
// counts one more attachment on it. An unlocked buffer is locked again; one
// already attached elsewhere is shared. It returns nil and the empty token on
// a miss.
func (s *StencilCache) Find(width, height, samples int) (device.StencilBuffer, Token) {
	s.prune()
	tok := s.cache.FindAndLock(StencilKey(width, height, samples), LockSingle)
	if tok.IsEmpty() {
		return nil, Token{}
	}
	sb, ok := s.cache.Resource(tok).(device.StencilBuffer)
	if !ok {
		misuse("non-stencil resource under stencil key", "token", tok)
		return nil, Token{}
	}
	s.attached[tok]++
	return sb, tok
}

// Unlock drops one attachment. The last one unlocks the cache entry.
func (s *StencilCache) Unlock(tok Token) {
	n, ok := s.attached[tok]
	if !ok || !s.cache.IsValid(tok) {
		delete(s.attached, tok)
		if !tok.IsEmpty() {
			misuse("stencil unlock of unknown token", "token", tok)
		}
		return
	}
	n--
	if n > 0 {
		s.attached[tok] = n
		return
	}
	delete(s.attached, tok)
	s.cache.Unlock(tok)
}

// Attachments returns the attachment count of tok.
func (s *StencilCache) Attachments(tok Token) int {
	if !s.cache.IsValid(tok) {
		return 0
	}
	return s.attached[tok]
}

// Reset forgets every attachment, for use after the underlying cache was
// freed.
func (s *StencilCache) Reset() {
	clear(s.attached)
}

// prune drops attachment records whose entries died with the cache.
func (s *StencilCache) prune() {
	for tok := range s.attached {
		if !s.cache.IsValid(tok) {
			delete(s.attached, tok)
		}
	}
}
