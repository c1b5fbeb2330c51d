package observ

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTimerReport(t *testing.T) {
	base := time.Unix(0, 0)
	ticks := []time.Time{base, base.Add(3 * time.Millisecond)}
	timer := NewTimer()
	timer.now = func() time.Time {
		now := ticks[0]
		ticks = ticks[1:]
		return now
	}

	idx := timer.Begin("load manifest")
	timer.End(idx, "distpack.toml")
	timer.Record("bundle cli", 7*time.Millisecond, "")
	timer.End(42, "ignored")

	want := Report{
		TotalMS: 10,
		Phases: []PhaseReport{
			{Name: "load manifest", DurationMS: 3, Note: "distpack.toml"},
			{Name: "bundle cli", DurationMS: 7},
		},
	}
	if diff := cmp.Diff(want, timer.Report()); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	summary := timer.Summary()
	if !strings.Contains(summary, "// distpack.toml") || !strings.Contains(summary, "total") {
		t.Fatalf("summary = %q", summary)
	}
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	timer.End(timer.Begin("x"), "")
	if got := timer.Report(); len(got.Phases) != 0 {
		t.Fatalf("nil timer report = %+v", got)
	}
}
