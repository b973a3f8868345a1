// Package orchestrator drives one webbuilder invocation: validate the
// project configuration, run preflight checks, then run the selected mode
// (dev server, dist server or production build).
package orchestrator
