package pipeline

import "time"

// Stage describes a high-level build phase.
type Stage string

const (
	// StageResolve is alias resolution during the bundle.
	StageResolve Stage = "resolve"
	// StageTransform is the per-module rewrite stage.
	StageTransform Stage = "transform"
	// StageBundle is the host bundler run.
	StageBundle Stage = "bundle"
	// StageMinify is the final chunk minification.
	StageMinify Stage = "minify"
	// StageWrite writes the artifact.
	StageWrite Stage = "write"
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageResolve, StageTransform, StageBundle, StageMinify, StageWrite}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a target (or for the overall build when
// Target is empty).
type Event struct {
	Target  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Emit sends one event when sink is set.
func Emit(sink ProgressSink, target string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Target: target, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

// EmitQueued marks every target as waiting.
func EmitQueued(sink ProgressSink, targets []string) {
	if sink == nil {
		return
	}
	for _, target := range targets {
		sink.OnEvent(Event{Target: target, Stage: StageBundle, Status: StatusQueued})
	}
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Add accumulates a duration for the given stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
