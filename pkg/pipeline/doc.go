// ABOUTME: Media pipeline package
// ABOUTME: Sources, sinks and the event bus the bridge drives
// Package pipeline models the external media framework the bridge talks to.
//
// A Source delivers raw S16LE buffers of arbitrary size on its own
// goroutine (or device thread) through a HandoffFunc. A Sink accepts
// timestamped buffers via Push. Both post status on a Bus, whose sync
// handler decides per event whether it is consumed or queued.
//
// Elements are usually built from descriptors:
//
//	src, err := pipeline.NewSource("file:ring.wav", params)
//	sink, err := pipeline.NewSink("malgo", params)
//
// Sources: tone[:freq], file:<path>, device[:name], inter:<channel>.
// Sinks: oto, malgo[:name], file:<path>, null, inter:<channel>.
package pipeline
