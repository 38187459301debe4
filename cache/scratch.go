package cache

import (
	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/internal/logging"
)

// MatchMode selects how strictly ScratchMatcher.Lock matches a descriptor.
type MatchMode uint8

const (
	// MatchExact requires identical size, format, flags and sample count.
	MatchExact MatchMode = iota

	// MatchApprox accepts any texture at least as large, with the same
	// format and sample count, whose render target and stencil capability
	// covers the request.
	MatchApprox
)

// String implements fmt.Stringer.
func (m MatchMode) String() string {
	if m == MatchApprox {
		return "Approx"
	}
	return "Exact"
}

// minApproxSize is the smallest edge MatchApprox rounds up to.
const minApproxSize = 16

// TextureCreator creates the device texture for a scratch miss.
type TextureCreator func(desc device.TextureDesc) (device.Texture, error)

// ScratchMatcher hands out content-free textures from a ResourceCache.
// Scratch keys live in their own domain and never collide with client
// texture keys.
type ScratchMatcher struct {
	cache  *ResourceCache
	create TextureCreator

	// MaxSize caps the power-of-two rounding of MatchApprox. 0 means no
	// cap.
	MaxSize int
}

// NewScratchMatcher returns a matcher over c creating textures with create.
func NewScratchMatcher(c *ResourceCache, create TextureCreator) *ScratchMatcher {
	return &ScratchMatcher{cache: c, create: create}
}

// Lock returns a locked texture matching desc under mode, creating one on a
// miss. The texture's contents are undefined. A texture is never handed to
// two callers before an intervening Unlock. The empty token is returned when
// the device cannot create the texture.
func (m *ScratchMatcher) Lock(desc device.TextureDesc, mode MatchMode) Token {
	want := desc
	if mode == MatchApprox {
		want.Width = m.roundUp(desc.Width)
		want.Height = m.roundUp(desc.Height)
	}

	if tok := m.search(want, mode); !tok.IsEmpty() {
		return tok
	}

	tex, err := m.create(want)
	if err != nil || tex == nil {
		m.cache.stats.CreateFailures++
		logging.L().Debug("cache: scratch create failed", "desc", want, "err", err)
		return Token{}
	}
	// The device may adjust the descriptor; later searches match what it
	// actually created.
	return m.cache.AddAndLock(ScratchKey(tex.Desc()), tex)
}

// search walks the candidate descriptors: the request itself, then for
// MatchApprox progressively looser ones (render target added, stencil
// allowed, width doubled, height doubled).
func (m *ScratchMatcher) search(want device.TextureDesc, mode MatchMode) Token {
	cand := want
	doubledW, doubledH := false, false
	for {
		if tok := m.cache.FindAndLock(ScratchKey(cand), LockExclusive); !tok.IsEmpty() {
			return tok
		}
		if mode == MatchExact {
			return Token{}
		}
		switch {
		case cand.Flags&device.TextureRenderTarget == 0:
			cand.Flags |= device.TextureRenderTarget
		case cand.Flags&device.TextureNoStencil != 0:
			cand.Flags &^= device.TextureNoStencil
		case !doubledW:
			cand.Flags = want.Flags
			cand.Width = want.Width * 2
			doubledW = true
		case !doubledH:
			cand.Flags = want.Flags
			cand.Width = want.Width
			cand.Height = want.Height * 2
			doubledH = true
		default:
			return Token{}
		}
	}
}

func (m *ScratchMatcher) roundUp(n int) int {
	p := max(minApproxSize, device.NextPow2(n))
	if m.MaxSize > 0 && p > m.MaxSize {
		return max(n, min(m.MaxSize, p))
	}
	return p
}

// Texture returns the texture behind tok.
func (m *ScratchMatcher) Texture(tok Token) device.Texture {
	tex, _ := m.cache.Resource(tok).(device.Texture)
	return tex
}

// Unlock returns a scratch texture to the cache.
func (m *ScratchMatcher) Unlock(tok Token) {
	m.cache.Unlock(tok)
}
