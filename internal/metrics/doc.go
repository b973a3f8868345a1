// Package metrics records build pipeline metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional without nil checks at call sites:
//
//	runner := preflight.NewRunner(steps...).WithRecorder(recorder)
//
// PrometheusRecorder keeps the metrics in its own registry. A one-shot CLI
// run has nothing to scrape it, so WriteTextfile dumps the registry in the
// text exposition format for the node_exporter textfile collector.
package metrics
