package preflight

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
	"git.home.luguber.info/inful/webbuilder/internal/metrics"
)

// ErrSkipped marks a step that did not apply to the project.
var ErrSkipped = stderrors.New("step skipped")

// Step is a single preflight check.
type Step interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner executes steps in order.
type Runner struct {
	steps    []Step
	recorder metrics.Recorder
}

// NewRunner creates a runner for steps.
func NewRunner(steps ...Step) *Runner {
	return &Runner{steps: steps, recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// Steps returns the names of the configured steps in run order.
func (r *Runner) Steps() []string {
	names := make([]string, 0, len(r.steps))
	for _, s := range r.steps {
		names = append(names, s.Name())
	}
	return names
}

// Run executes every step in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context) error {
	for _, step := range r.steps {
		name := step.Name()
		select {
		case <-ctx.Done():
			r.recorder.IncStepResult(name, metrics.ResultCanceled)
			return errors.WrapError(ctx.Err(), errors.CategoryPreflight, "preflight canceled").
				WithContext("step", name).
				Build()
		default:
		}

		t0 := time.Now()
		err := step.Run(ctx)
		dur := time.Since(t0)
		r.recorder.ObserveStepDuration(name, dur)

		switch {
		case err == nil:
			r.recorder.IncStepResult(name, metrics.ResultSuccess)
			slog.Info("Preflight step passed", logfields.Step(name), logfields.Duration(dur))
		case stderrors.Is(err, ErrSkipped):
			r.recorder.IncStepResult(name, metrics.ResultSkipped)
			slog.Info("Preflight step skipped", logfields.Step(name), slog.String("reason", err.Error()))
		default:
			r.recorder.IncStepResult(name, metrics.ResultFailed)
			return errors.PreflightError("preflight step failed").
				WithCause(err).
				WithContext("step", name).
				Build()
		}
	}
	return nil
}

func skipped(reason string) error {
	return &skipError{reason: reason}
}

type skipError struct{ reason string }

func (e *skipError) Error() string { return e.reason }
func (e *skipError) Unwrap() error { return ErrSkipped }
