package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	stepDuration  *prom.HistogramVec
	stepResults   *prom.CounterVec
	entryDuration *prom.HistogramVec
	entryResults  *prom.CounterVec
	bundleBytes   *prom.GaugeVec
	runOutcome    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg, or on a
// fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "webbuilder",
		Name:      "preflight_step_duration_seconds",
		Help:      "Duration of individual preflight steps",
		Buckets:   prom.DefBuckets,
	}, []string{"step"})
	pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "webbuilder",
		Name:      "preflight_step_results_total",
		Help:      "Preflight step result counts by outcome",
	}, []string{"step", "result"})
	pr.entryDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "webbuilder",
		Name:      "entry_build_duration_seconds",
		Help:      "Duration of individual entry point builds",
		Buckets:   prom.DefBuckets,
	}, []string{"entry", "result"})
	pr.entryResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "webbuilder",
		Name:      "entry_build_results_total",
		Help:      "Entry point build results by success/failure",
	}, []string{"result"})
	pr.bundleBytes = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "webbuilder",
		Name:      "bundle_bytes",
		Help:      "Total bytes written for the last build of an entry point",
	}, []string{"entry"})
	pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "webbuilder",
		Name:      "run_outcomes_total",
		Help:      "Run outcomes by mode and final status",
	}, []string{"mode", "outcome"})
	reg.MustRegister(pr.stepDuration, pr.stepResults, pr.entryDuration, pr.entryResults, pr.bundleBytes, pr.runOutcome)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil || p.stepResults == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveEntryBuild(entry string, d time.Duration, success bool) {
	if p == nil || p.entryDuration == nil {
		return
	}
	res := string(ResultFailed)
	if success {
		res = string(ResultSuccess)
	}
	p.entryDuration.WithLabelValues(entry, res).Observe(d.Seconds())
	p.entryResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetBundleBytes(entry string, n int64) {
	if p == nil || p.bundleBytes == nil {
		return
	}
	p.bundleBytes.WithLabelValues(entry).Set(float64(n))
}

func (p *PrometheusRecorder) IncRunOutcome(mode string, outcome ResultLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(mode, string(outcome)).Inc()
}

// WriteTextfile writes the registry to path in the text exposition format.
// The write is atomic, so a collector never reads a partial file.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
