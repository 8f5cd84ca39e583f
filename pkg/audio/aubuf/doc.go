// ABOUTME: Elastic sample queue package
// ABOUTME: Absorbs size and cadence mismatches between audio producers and consumers
// Package aubuf provides Queue, a thread-safe byte queue that accepts
// arbitrarily sized S16LE writes and hands out fixed-size frames.
//
// The queue starts at MinBytes and doubles its capacity on demand up to
// MaxBytes. When the cap is hit the configured Policy decides between
// discarding the oldest audio (DropOldest) and refusing the write
// (RejectWrite).
//
// Three read flavours exist:
//   - ReadExact: one frame if a full frame is buffered
//   - ReadTimed: like ReadExact, but holds data back while refilling after an underrun
//   - ReadImmediate: whatever is buffered, zero-filled to a full frame
package aubuf
