// Package errors provides the classified error type used across webbuilder.
//
// Every failure that leaves a pipeline stage is a ClassifiedError carrying a
// category (config, preflight, build, server, ...), a severity and a small
// map of structured context. The CLI adapter turns those into a log record
// and an exit code in exactly one place.
//
// Example usage:
//
//	err := errors.BuildError("bundler invocation failed").
//		WithCause(bundleErr).
//		WithContext("entry", name).
//		Build()
package errors
