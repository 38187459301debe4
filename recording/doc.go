// Package recording defers device commands and decides when they must reach
// the device.
//
// # Architecture
//
// The package has three parts:
//
//   - GeometryPool: arena storage for the vertex and index data of deferred
//     draws, reset wholesale after playback.
//   - Buffer: an in-order draw buffer. It implements device.Target, records
//     Clear and Draw commands and replays them to a device in issue order,
//     merging consecutive draws that share a state.
//   - Scheduler: the draw-category state machine. Every draw announces its
//     Category; a change of category flushes the buffer first so the device
//     never sees draws out of order.
//
// # Categories
//
// Buffered and Text draws are recorded into the Buffer. Unbuffered draws go
// straight to the device. Switching between any two categories plays the
// buffer back first:
//
//	s := recording.NewScheduler(dev)
//	s.Prepare(recording.Buffered).Draw(&st, &g1) // recorded
//	s.Prepare(recording.Buffered).Draw(&st, &g2) // recorded
//	s.Prepare(recording.Text).Draw(&st, &glyphs)  // flush, then recorded
//	s.Flush(0)                                     // playback and submit
package recording
