package main

import (
	"fmt"
	"io"
	"time"

	"distpack/internal/observ"
	"distpack/internal/pipeline"
)

// recordTimings copies one target's stage durations into the run timer.
func recordTimings(timer *observ.Timer, name string, timings pipeline.Timings) {
	for _, stage := range pipeline.Stages {
		if timings.Has(stage) {
			timer.Record(name+"/"+string(stage), timings.Duration(stage), "")
		}
	}
}

func printTransformStats(out io.Writer, stats pipeline.Stats) error {
	_, err := fmt.Fprintf(out, "transform: %d modules, %d rewritten, %d cached, %.1f ms\n",
		stats.Modules, stats.Changed, stats.CacheHits, toMillis(stats.Elapsed))
	return err
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
