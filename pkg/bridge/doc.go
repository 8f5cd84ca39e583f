// ABOUTME: Audio bridge package
// ABOUTME: Paces an irregular media pipeline into fixed ptime frames and back
// Package bridge connects an independently clocked media pipeline to a
// softphone's fixed-cadence audio interface.
//
// A Source receives arbitrarily sized buffers from a pipeline source on
// the pipeline's delivery goroutine, queues them, and hands exactly one
// frame of ptime audio at a time to a ReadHandler. A Player runs its own
// goroutine that asks a WriteHandler for one frame per ptime, stamps it
// relative to the stream's base time, and pushes it to a pipeline sink.
//
// Both directions share the lifecycle Running, Stopping, Stopped. End of
// stream and pipeline errors move a stream to Stopping; Close releases
// everything and reaches Stopped.
//
//	src, err := bridge.OpenSource(audio.Params{}, "file:ring.wav",
//	    func(f *audio.Frame) { enc.Encode(f.Samples) },
//	    func(err error) { log.Println(err) })
//	defer src.Close()
package bridge
