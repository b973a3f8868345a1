package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStepDuration("lint", 150*time.Millisecond)
	pr.IncStepResult("lint", ResultSuccess)
	pr.ObserveEntryBuild("start", 500*time.Millisecond, true)
	pr.ObserveEntryBuild("admin", 20*time.Millisecond, false)
	pr.SetBundleBytes("start", 2048)
	pr.IncRunOutcome("production", ResultFailed)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	require.ElementsMatch(t, []string{
		"webbuilder_preflight_step_duration_seconds",
		"webbuilder_preflight_step_results_total",
		"webbuilder_entry_build_duration_seconds",
		"webbuilder_entry_build_results_total",
		"webbuilder_bundle_bytes",
		"webbuilder_run_outcomes_total",
	}, names)

	path := filepath.Join(t.TempDir(), "m.prom")
	require.NoError(t, pr.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	require.Contains(t, out, `webbuilder_preflight_step_results_total{result="success",step="lint"} 1`)
	require.Contains(t, out, `webbuilder_entry_build_results_total{result="failed"} 1`)
	require.Contains(t, out, `webbuilder_bundle_bytes{entry="start"} 2048`)
	require.Contains(t, out, `webbuilder_run_outcomes_total{mode="production",outcome="failed"} 1`)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRunOutcome("production", ResultSuccess)

	path := filepath.Join(t.TempDir(), "metrics", "webbuilder.prom")
	require.NoError(t, pr.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `webbuilder_run_outcomes_total{mode="production",outcome="success"} 1`)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStepDuration("x", time.Second)
	pr.IncStepResult("x", ResultSuccess)
	pr.ObserveEntryBuild("x", time.Second, true)
	pr.SetBundleBytes("x", 1)
	pr.IncRunOutcome("x", ResultSuccess)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStepDuration("x", time.Second)
	r.IncRunOutcome("x", ResultSuccess)
}
