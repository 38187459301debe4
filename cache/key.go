package cache

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/device"
)

// Kind separates key domains so keys of different resource kinds never
// collide.
type Kind uint8

const (
	KindTexture Kind = iota + 1
	KindScratch
	KindStencil
)

var kindNames = [...]string{
	KindTexture: "texture",
	KindScratch: "scratch",
	KindStencil: "stencil",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Key identifies a resource independently of its contents. Several entries
// may share one key; lookups pick an unlocked one.
type Key struct {
	Kind    Kind
	ID      uint64
	Width   int
	Height  int
	Format  gputypes.TextureFormat
	Flags   device.TextureFlags
	Samples int

	// Variant carries sampler-derived bits of texture keys.
	Variant uint32
}

// Texture key variant bits.
const (
	// VariantStretched marks the power-of-two copy of a texture that is
	// sampled with a tiling wrap mode on a device without NPOT tiling.
	VariantStretched uint32 = 1 << iota
)

// TextureKey returns the key of a client texture.
func TextureKey(id uint64, width, height int, variant uint32) Key {
	return Key{Kind: KindTexture, ID: id, Width: width, Height: height, Variant: variant}
}

// ScratchKey returns the key of a scratch texture with desc.
func ScratchKey(desc device.TextureDesc) Key {
	return Key{
		Kind:    KindScratch,
		Width:   desc.Width,
		Height:  desc.Height,
		Format:  desc.Format,
		Flags:   desc.Flags,
		Samples: desc.Samples(),
	}
}

// StencilKey returns the key of a stencil buffer.
func StencilKey(width, height, samples int) Key {
	if samples < 1 {
		samples = 1
	}
	return Key{Kind: KindStencil, Width: width, Height: height, Samples: samples}
}

// String implements fmt.Stringer.
func (k Key) String() string {
	switch k.Kind {
	case KindTexture:
		return fmt.Sprintf("texture(%#x %dx%d v%d)", k.ID, k.Width, k.Height, k.Variant)
	case KindStencil:
		return fmt.Sprintf("stencil(%dx%d s%d)", k.Width, k.Height, k.Samples)
	default:
		return fmt.Sprintf("%s(%dx%d %s %s s%d)", k.Kind, k.Width, k.Height, k.Format, k.Flags, k.Samples)
	}
}
