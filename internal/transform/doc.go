// Package transform derives a mode-specific bundle configuration from a
// project's base entry configuration.
//
// The derived configuration gets two style rules appended after the
// caller's rules, a content-hashed output filename, and a fixed set of
// plugins prepended before the caller's plugins. Production mode swaps the
// runtime style injection for extraction and adds the optimization plugins.
package transform
