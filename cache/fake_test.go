package cache

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
)

var errFakeOOM = errors.New("fake: out of memory")

// fakeResource records how it was disposed of.
type fakeResource struct {
	name      string
	size      int64
	released  int
	abandoned int
}

func (r *fakeResource) SizeBytes() int64 { return r.size }
func (r *fakeResource) Release()         { r.released++ }
func (r *fakeResource) Abandon()         { r.abandoned++ }
func (r *fakeResource) IsValid() bool    { return r.released == 0 && r.abandoned == 0 }

// fakeTexture is a texture without a device behind it.
type fakeTexture struct {
	fakeResource
	desc device.TextureDesc
}

func newFakeTexture(desc device.TextureDesc) *fakeTexture {
	return &fakeTexture{fakeResource: fakeResource{size: desc.SizeBytes()}, desc: desc}
}

func (t *fakeTexture) Desc() device.TextureDesc             { return t.desc }
func (t *fakeTexture) Width() int                           { return t.desc.Width }
func (t *fakeTexture) Height() int                          { return t.desc.Height }
func (t *fakeTexture) Format() gputypes.TextureFormat       { return t.desc.Format }
func (t *fakeTexture) AsRenderTarget() device.RenderTarget { return nil }

// fakeStencil is a stencil buffer without a device behind it.
type fakeStencil struct {
	fakeResource
	w, h, samples int
}

func (s *fakeStencil) Width() int       { return s.w }
func (s *fakeStencil) Height() int      { return s.h }
func (s *fakeStencil) SampleCount() int { return s.samples }
func (s *fakeStencil) Bits() int        { return 8 }

// textureFactory counts creations and can be told to fail.
type textureFactory struct {
	created []*fakeTexture
	fail    bool
	// adjust, when set, changes the descriptor the way a device might.
	adjust func(device.TextureDesc) device.TextureDesc
}

func (f *textureFactory) create(desc device.TextureDesc) (device.Texture, error) {
	if f.fail {
		return nil, errFakeOOM
	}
	if f.adjust != nil {
		desc = f.adjust(desc)
	}
	t := newFakeTexture(desc)
	f.created = append(f.created, t)
	return t, nil
}

func res(name string, size int64) *fakeResource {
	return &fakeResource{name: name, size: size}
}

func addRes(c *ResourceCache, id uint64, r *fakeResource) Token {
	return c.AddAndLock(TextureKey(id, 1, 1, 0), r)
}
