package recording

import (
	"fmt"

	"github.com/gogpu/gr/device"
	"github.com/gogpu/gr/internal/logging"
)

// Category classifies a draw for scheduling.
type Category uint8

const (
	// CategoryNone is the state before the first draw.
	CategoryNone Category = iota

	// Buffered draws are recorded into the draw buffer.
	Buffered

	// Unbuffered draws go straight to the device.
	Unbuffered

	// Text draws come from the text context and are recorded into the
	// draw buffer.
	Text
)

var categoryNames = [...]string{
	CategoryNone: "None",
	Buffered:     "Buffered",
	Unbuffered:   "Unbuffered",
	Text:         "Text",
}

// String implements fmt.Stringer.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// FlushFlags modify Scheduler.Flush.
type FlushFlags uint8

const (
	// FlushForceCurrentRenderTarget binds the current render target in the
	// device even if no draw needed it. Device state is set lazily, so a
	// flush alone may leave the target unbound.
	FlushForceCurrentRenderTarget FlushFlags = 1 << iota

	// FlushDiscard drops pending buffered draws instead of submitting them,
	// for frames that will never be shown.
	FlushDiscard
)

// Scheduler routes draws to the draw buffer or the device and flushes the
// buffer whenever the draw category changes, so the device observes draws
// in issue order.
//
// Scheduler is not safe for concurrent use.
type Scheduler struct {
	dev     device.Device
	buf     *Buffer
	last    Category
	flushes int
}

// NewScheduler creates a scheduler in front of dev.
func NewScheduler(dev device.Device) *Scheduler {
	return &Scheduler{dev: dev, buf: NewBuffer()}
}

// Prepare announces a draw of category cat and returns the target the draw
// must be issued to. A category change flushes pending buffered draws to the
// device first.
func (s *Scheduler) Prepare(cat Category) device.Target {
	if s.last != CategoryNone && cat != s.last {
		logging.L().Debug("recording: category change flush", "from", s.last, "to", cat, "pending", s.buf.Len())
		s.playback()
	}
	s.last = cat
	if cat == Unbuffered {
		return s.dev
	}
	return s.buf
}

// Flush forces pending buffered draws to the device and submits them, or
// drops them when FlushDiscard is set.
func (s *Scheduler) Flush(flags FlushFlags) {
	if flags&FlushDiscard != 0 {
		logging.L().Debug("recording: discard flush", "dropped", s.buf.Len())
		s.buf.Reset()
		s.flushes++
	} else {
		s.playback()
	}
	if flags&FlushForceCurrentRenderTarget != 0 {
		s.dev.ForceRenderTarget()
	}
	if flags&FlushDiscard == 0 {
		s.dev.Submit()
	}
}

// playback replays and resets the buffer. Every call is one flush point.
func (s *Scheduler) playback() {
	s.flushes++
	if s.buf.Len() == 0 {
		return
	}
	s.buf.Playback(s.dev)
	s.buf.Reset()
}

// Flushes returns the number of flush points so far.
func (s *Scheduler) Flushes() int { return s.flushes }

// Pending returns the number of buffered commands.
func (s *Scheduler) Pending() int { return s.buf.Len() }

// Last returns the category of the most recent draw.
func (s *Scheduler) Last() Category { return s.last }

// Buffer returns the draw buffer.
func (s *Scheduler) Buffer() *Buffer { return s.buf }

// Device returns the device the scheduler flushes to.
func (s *Scheduler) Device() device.Device { return s.dev }

// Reset drops pending draws without playback and forgets the last category.
// Used when the device was lost.
func (s *Scheduler) Reset() {
	s.buf.Reset()
	s.last = CategoryNone
}
