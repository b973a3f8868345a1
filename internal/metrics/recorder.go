package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultSkipped  ResultLabel = "skipped"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for preflight steps, entry builds
// and whole runs.
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	IncStepResult(step string, result ResultLabel)
	ObserveEntryBuild(entry string, d time.Duration, success bool)
	SetBundleBytes(entry string, n int64)
	IncRunOutcome(mode string, outcome ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration)     {}
func (NoopRecorder) IncStepResult(string, ResultLabel)             {}
func (NoopRecorder) ObserveEntryBuild(string, time.Duration, bool) {}
func (NoopRecorder) SetBundleBytes(string, int64)                  {}
func (NoopRecorder) IncRunOutcome(string, ResultLabel)             {}
