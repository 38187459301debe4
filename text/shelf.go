package text

// shelfPacker implements shelf-based rectangle packing.
//
// Rectangles are placed left to right on horizontal shelves. A shelf is as
// tall as its tallest item; when an item does not fit on any shelf a new
// one is opened below the last.
type shelfPacker struct {
	width, height int
	padding       int
	shelves       []shelf
	used          int
}

type shelf struct {
	y, height int
	x         int // next free column
}

func newShelfPacker(width, height, padding int) *shelfPacker {
	return &shelfPacker{width: width, height: height, padding: padding}
}

// allocate reserves a w x h rectangle and returns its top-left corner.
func (p *shelfPacker) allocate(w, h int) (x, y int, ok bool) {
	pw, ph := w+p.padding, h+p.padding
	if pw > p.width || ph > p.height {
		return 0, 0, false
	}
	for i := range p.shelves {
		s := &p.shelves[i]
		if s.x+pw > p.width {
			continue
		}
		if h > s.height {
			// Only the last shelf can grow.
			if i != len(p.shelves)-1 || s.y+ph > p.height {
				continue
			}
			s.height = h
		}
		x, y = s.x, s.y
		s.x += pw
		p.used += w * h
		return x, y, true
	}

	y = 0
	if n := len(p.shelves); n > 0 {
		last := p.shelves[n-1]
		y = last.y + last.height + p.padding
	}
	if y+ph > p.height {
		return 0, 0, false
	}
	p.shelves = append(p.shelves, shelf{y: y, height: h, x: pw})
	p.used += w * h
	return 0, y, true
}

func (p *shelfPacker) reset() {
	p.shelves = p.shelves[:0]
	p.used = 0
}

// utilization returns the fraction of the area covered by allocations.
func (p *shelfPacker) utilization() float64 {
	return float64(p.used) / float64(p.width*p.height)
}
