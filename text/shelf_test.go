package text

import "testing"

func TestShelfPacker(t *testing.T) {
	type alloc struct {
		w, h   int
		x, y   int
		wantOK bool
	}
	tests := []struct {
		name   string
		allocs []alloc
	}{
		{"row", []alloc{{10, 10, 0, 0, true}, {10, 10, 11, 0, true}, {10, 10, 22, 0, true}}},
		{"new shelf", []alloc{{30, 10, 0, 0, true}, {30, 10, 0, 11, true}}},
		{"last shelf grows", []alloc{{10, 5, 0, 0, true}, {10, 12, 11, 0, true}, {10, 3, 22, 0, true}, {20, 3, 0, 13, true}}},
		{"too wide", []alloc{{40, 1, 0, 0, false}}},
		{"full", []alloc{{39, 39, 0, 0, true}, {1, 1, 0, 0, false}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newShelfPacker(40, 40, 1)
			for i, a := range tt.allocs {
				x, y, ok := p.allocate(a.w, a.h)
				if ok != a.wantOK {
					t.Fatalf("alloc %d ok = %v", i, ok)
				}
				if ok && (x != a.x || y != a.y) {
					t.Errorf("alloc %d at (%d,%d), want (%d,%d)", i, x, y, a.x, a.y)
				}
			}
		})
	}
}

func TestShelfPackerReset(t *testing.T) {
	p := newShelfPacker(16, 16, 0)
	if _, _, ok := p.allocate(16, 16); !ok {
		t.Fatal("first allocation failed")
	}
	if p.utilization() != 1 {
		t.Errorf("utilization = %v", p.utilization())
	}
	if _, _, ok := p.allocate(1, 1); ok {
		t.Fatal("packer should be full")
	}
	p.reset()
	if x, y, ok := p.allocate(4, 4); !ok || x != 0 || y != 0 {
		t.Errorf("after reset: (%d,%d,%v)", x, y, ok)
	}
}
