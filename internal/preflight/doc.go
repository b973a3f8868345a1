// Package preflight runs the checks every mode depends on: required paths
// exist, the pre-commit hook is installed, sources compile, and the
// project's linter passes.
//
// Steps run strictly in order; the first failure stops the sequence and is
// returned as a preflight error naming the step. A step may report that it
// did not apply by returning an error wrapping ErrSkipped.
package preflight
