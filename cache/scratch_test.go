package cache

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gr/device"
)

func rgba(w, h int, flags device.TextureFlags) device.TextureDesc {
	return device.TextureDesc{Width: w, Height: h, Format: gputypes.TextureFormatRGBA8Unorm, Flags: flags}
}

func TestScratchExactMatch(t *testing.T) {
	c := New(DefaultBudget())
	f := &textureFactory{}
	m := NewScratchMatcher(c, f.create)

	desc := rgba(30, 20, device.TextureRenderTarget)
	tok := m.Lock(desc, MatchExact)
	require.False(t, tok.IsEmpty())
	tex := m.Texture(tok)
	assert.Equal(t, desc, tex.Desc())

	// A second lock of the same descriptor never aliases the first.
	tok2 := m.Lock(desc, MatchExact)
	require.False(t, tok2.IsEmpty())
	assert.NotSame(t, tex, m.Texture(tok2))
	assert.Len(t, f.created, 2)

	m.Unlock(tok)
	tok3 := m.Lock(desc, MatchExact)
	assert.Same(t, tex, m.Texture(tok3), "unlocked scratch texture is reused")
	assert.Len(t, f.created, 2)

	// Different format never matches.
	other := desc
	other.Format = gputypes.TextureFormatBGRA8Unorm
	tok4 := m.Lock(other, MatchExact)
	assert.Equal(t, gputypes.TextureFormatBGRA8Unorm, m.Texture(tok4).Format())
}

func TestScratchApproxRoundsToPow2(t *testing.T) {
	c := New(DefaultBudget())
	f := &textureFactory{}
	m := NewScratchMatcher(c, f.create)

	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{5, 3, 16, 16},
		{100, 17, 128, 32},
		{256, 256, 256, 256},
	}
	for _, tt := range tests {
		tok := m.Lock(rgba(tt.w, tt.h, device.TextureRenderTarget), MatchApprox)
		require.False(t, tok.IsEmpty())
		tex := m.Texture(tok)
		assert.Equal(t, tt.wantW, tex.Width())
		assert.Equal(t, tt.wantH, tex.Height())
		m.Unlock(tok)
	}
}

func TestScratchApproxReusesLargerTexture(t *testing.T) {
	c := New(DefaultBudget())
	f := &textureFactory{}
	m := NewScratchMatcher(c, f.create)

	big := m.Lock(rgba(128, 64, device.TextureRenderTarget), MatchApprox)
	bigTex := m.Texture(big)
	m.Unlock(big)

	// 60x40 rounds to 64x64; the 128x64 texture is found by doubling width.
	tok := m.Lock(rgba(60, 40, device.TextureRenderTarget), MatchApprox)
	assert.Same(t, bigTex, m.Texture(tok))
	assert.Len(t, f.created, 1)
}

func TestScratchApproxCapabilitySuperset(t *testing.T) {
	c := New(DefaultBudget())
	f := &textureFactory{}
	m := NewScratchMatcher(c, f.create)

	rt := m.Lock(rgba(32, 32, device.TextureRenderTarget), MatchApprox)
	rtTex := m.Texture(rt)
	m.Unlock(rt)

	// A plain texture request may be served by a render target with stencil.
	tok := m.Lock(rgba(32, 32, 0), MatchApprox)
	assert.Same(t, rtTex, m.Texture(tok))
	m.Unlock(tok)

	// But never the other way round.
	plain := m.Lock(rgba(16, 16, 0), MatchExact)
	plainTex := m.Texture(plain)
	m.Unlock(plain)
	tok = m.Lock(rgba(16, 16, device.TextureRenderTarget), MatchApprox)
	assert.NotSame(t, plainTex, m.Texture(tok))
	assert.Equal(t, device.TextureRenderTarget, m.Texture(tok).Desc().Flags)
}

func TestScratchNeverSmallerOrDifferentFormat(t *testing.T) {
	c := New(DefaultBudget())
	f := &textureFactory{}
	m := NewScratchMatcher(c, f.create)

	sizes := []int{1, 7, 16, 33, 64, 100, 130}
	var held []Token
	for _, w := range sizes {
		for _, h := range sizes {
			for _, mode := range []MatchMode{MatchExact, MatchApprox} {
				desc := rgba(w, h, device.TextureRenderTarget|device.TextureNoStencil)
				tok := m.Lock(desc, mode)
				require.False(t, tok.IsEmpty())
				tex := m.Texture(tok)
				assert.GreaterOrEqual(t, tex.Width(), w)
				assert.GreaterOrEqual(t, tex.Height(), h)
				assert.Equal(t, desc.Format, tex.Format())
				if mode == MatchExact {
					assert.Equal(t, desc, tex.Desc())
				}
				held = append(held, tok)
				if len(held) > 3 {
					m.Unlock(held[0])
					held = held[1:]
				}
			}
		}
	}
}

func TestScratchCreateFailure(t *testing.T) {
	c := New(DefaultBudget())
	f := &textureFactory{fail: true}
	m := NewScratchMatcher(c, f.create)

	tok := m.Lock(rgba(8, 8, device.TextureRenderTarget), MatchApprox)
	assert.True(t, tok.IsEmpty())
	assert.Nil(t, m.Texture(tok))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(1), c.Stats().CreateFailures)
}

func TestScratchKeyedByCreatedDescriptor(t *testing.T) {
	c := New(DefaultBudget())
	// The device pads widths to a multiple of 8.
	f := &textureFactory{adjust: func(d device.TextureDesc) device.TextureDesc {
		d.Width = (d.Width + 7) &^ 7
		return d
	}}
	m := NewScratchMatcher(c, f.create)

	tok := m.Lock(rgba(30, 20, device.TextureRenderTarget), MatchExact)
	require.False(t, tok.IsEmpty())
	tex := m.Texture(tok)
	assert.Equal(t, 32, tex.Width())
	m.Unlock(tok)

	again := m.Lock(rgba(32, 20, device.TextureRenderTarget), MatchExact)
	assert.Same(t, tex, m.Texture(again), "lookup by the created size reuses the texture")
	assert.Len(t, f.created, 1)
	m.Unlock(again)

	other := m.Lock(rgba(30, 20, device.TextureRenderTarget), MatchExact)
	assert.NotSame(t, tex, m.Texture(other), "requested size does not match a padded texture exactly")
}

func TestScratchMaxSizeCapsRounding(t *testing.T) {
	c := New(DefaultBudget())
	f := &textureFactory{}
	m := NewScratchMatcher(c, f.create)
	m.MaxSize = 1000

	tok := m.Lock(rgba(900, 10, device.TextureRenderTarget), MatchApprox)
	require.False(t, tok.IsEmpty())
	assert.Equal(t, 1000, m.Texture(tok).Width())
	assert.Equal(t, 16, m.Texture(tok).Height())
}

func TestScratchKeysDoNotCollideWithTextureKeys(t *testing.T) {
	desc := rgba(16, 16, 0)
	assert.NotEqual(t, ScratchKey(desc), TextureKey(0, 16, 16, 0))
}
