package device

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/geom"
)

func TestBytesPerPixel(t *testing.T) {
	tests := []struct {
		format gputypes.TextureFormat
		want   int
	}{
		{gputypes.TextureFormatRGBA8Unorm, 4},
		{gputypes.TextureFormatBGRA8Unorm, 4},
		{gputypes.TextureFormatR8Unorm, 1},
		{gputypes.TextureFormatDepth24PlusStencil8, 4},
		{gputypes.TextureFormatRGBA16Float, 0},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := BytesPerPixel(tt.format); got != tt.want {
				t.Errorf("BytesPerPixel() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNextPow2(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {16, 16}, {17, 32}, {1000, 1024}, {4096, 4096},
	}
	for _, tt := range tests {
		if got := NextPow2(tt.in); got != tt.want {
			t.Errorf("NextPow2(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if !IsPow2(NextPow2(tt.in)) {
			t.Errorf("NextPow2(%d) is not a power of two", tt.in)
		}
	}
}

func TestTextureDescSizeBytes(t *testing.T) {
	desc := TextureDesc{Width: 16, Height: 8, Format: gputypes.TextureFormatRGBA8Unorm}
	if got := desc.SizeBytes(); got != 512 {
		t.Errorf("SizeBytes() = %d, want 512", got)
	}

	desc.Flags = TextureRenderTarget
	desc.SampleCount = 4
	if got := desc.SizeBytes(); got != 512*5 {
		t.Errorf("multisampled SizeBytes() = %d, want %d", got, 512*5)
	}
}

func TestBlendCanTweakAlphaForCoverage(t *testing.T) {
	tests := []struct {
		name  string
		blend Blend
		want  bool
	}{
		{"src-over", BlendSrcOver, true},
		{"src", BlendSrc, false},
		{"additive", Blend{Src: gputypes.BlendFactorOne, Dst: gputypes.BlendFactorOne}, true},
		{"modulate", Blend{Src: gputypes.BlendFactorZero, Dst: gputypes.BlendFactorSrc}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.blend.CanTweakAlphaForCoverage(); got != tt.want {
				t.Errorf("CanTweakAlphaForCoverage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrawStateCanDisableBlend(t *testing.T) {
	s := NewDrawState(nil)
	if !s.CanDisableBlend() {
		t.Error("opaque src-over should allow disabling blend")
	}
	s.Color = RGBA8(255, 0, 0, 128)
	if s.CanDisableBlend() {
		t.Error("translucent src-over must keep blending")
	}
	s.Blend = BlendSrc
	if !s.CanDisableBlend() {
		t.Error("src copy never needs blending")
	}
}

func TestGeometryTriangles(t *testing.T) {
	pts := make([]geom.Point, 5)
	tests := []struct {
		name string
		g    Geometry
		want [][3]int
	}{
		{"list", Geometry{Primitive: Triangles, Positions: pts[:3]}, [][3]int{{0, 1, 2}}},
		{"fan", Geometry{Primitive: TriangleFan, Positions: pts[:4]}, [][3]int{{0, 1, 2}, {0, 2, 3}}},
		{"strip", Geometry{Primitive: TriangleStrip, Positions: pts[:4]}, [][3]int{{0, 1, 2}, {2, 1, 3}}},
		{"indexed", Geometry{Primitive: Triangles, Positions: pts[:4], Indices: []uint16{3, 2, 1}}, [][3]int{{3, 2, 1}}},
		{"lines", Geometry{Primitive: Lines, Positions: pts[:2]}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.g.Triangles()
			if len(got) != len(tt.want) {
				t.Fatalf("Triangles() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("triangle %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestColorBytes(t *testing.T) {
	c := RGBA8(255, 0, 0, 128)
	b := c.Bytes()
	if b[0] != 128 || b[1] != 0 || b[3] != 128 {
		t.Errorf("Bytes() = %v, want premultiplied [128 0 0 128]", b)
	}
}
