// ABOUTME: Test app to measure playback pacing
// ABOUTME: Drives a player into a timestamp-keeping null sink and reports jitter
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/bridge"
	"github.com/deepsentinel/baresip/pkg/pipeline"
)

var (
	ptime    = flag.Int("ptime", 20, "Frame duration in milliseconds")
	rate     = flag.Int("rate", 8000, "Sample rate")
	duration = flag.Duration("duration", 5*time.Second, "How long to run")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	fmt.Println("=== Playback Pacing Test ===")
	fmt.Println("This test will:")
	fmt.Println("1. Open a player on a null sink that records timestamps")
	fmt.Println("2. Let the pacer push silence for the requested duration")
	fmt.Println("3. Compare pushed timestamps against the nominal frame period")
	fmt.Println()

	params := audio.Params{SampleRate: *rate, Ptime: *ptime}.WithDefaults()
	sink := pipeline.NewNullSink(true)

	player, err := bridge.OpenPlayer(params, "", func(f *audio.Frame) {
		f.Silence()
	}, func(err error) {
		log.Printf("Pipeline error: %v", err)
	}, bridge.WithPipelineSink(sink))
	if err != nil {
		log.Fatalf("Failed to open player: %v", err)
	}

	fmt.Printf("Running %s at %s...\n", *duration, params)
	time.Sleep(*duration)

	if err := player.Close(); err != nil {
		log.Printf("Close error: %v", err)
	}

	report(sink.Timestamps(), params.FrameDuration(), *duration)
	log.Printf("Test complete")
}

func report(pts []time.Duration, period, elapsed time.Duration) {
	if len(pts) < 2 {
		log.Printf("Not enough pushes to measure (%d)", len(pts))
		return
	}

	var minGap, maxGap, total time.Duration
	minGap = time.Hour
	for i := 1; i < len(pts); i++ {
		gap := pts[i] - pts[i-1]
		total += gap
		if gap < minGap {
			minGap = gap
		}
		if gap > maxGap {
			maxGap = gap
		}
	}
	mean := total / time.Duration(len(pts)-1)
	expected := int(elapsed / period)

	fmt.Printf("pushes:   %d (nominal %d)\n", len(pts), expected)
	fmt.Printf("period:   %v nominal, %v mean\n", period, mean)
	fmt.Printf("gap:      min %v, max %v\n", minGap, maxGap)
	fmt.Printf("drift:    %v over the run\n", pts[len(pts)-1]-time.Duration(len(pts)-1)*period)
}
