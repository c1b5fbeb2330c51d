package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestBuildAllRunsEveryTarget(t *testing.T) {
	targets := []string{"cli", "lib", "worker"}
	done := make([]string, len(targets))
	err := BuildAll(context.Background(), targets, 2, func(_ context.Context, i int, name string) error {
		done[i] = name
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(targets, done); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildAllLimitsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	err := BuildAll(context.Background(), make([]int, 8), 2, func(context.Context, int, int) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 2 {
		t.Fatalf("peak concurrency %d exceeds limit", peak.Load())
	}
}

func TestBuildAllStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	err := BuildAll(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, _ int, v int) error {
		if v == 1 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestTimings(t *testing.T) {
	var tm Timings
	if tm.Has(StageMinify) {
		t.Fatal("empty timings")
	}
	tm.Set(StageMinify, 3*time.Millisecond)
	tm.Add(StageTransform, time.Millisecond)
	tm.Add(StageTransform, time.Millisecond)
	if got := tm.Sum(StageMinify, StageTransform); got != 5*time.Millisecond {
		t.Fatalf("Sum = %v", got)
	}
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	Emit(ChannelSink{Ch: ch}, "cli", StageBundle, StatusDone, nil, time.Second)
	got := <-ch
	if got.Target != "cli" || got.Stage != StageBundle || got.Status != StatusDone {
		t.Fatalf("event = %+v", got)
	}
	Emit(nil, "cli", StageBundle, StatusDone, nil, 0)
}
