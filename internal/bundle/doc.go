// Package bundle holds the typed bundler configuration for a single entry
// point: the entry source, output settings, ordered style/asset rules and
// the ordered plugin list.
//
// Values are plain data. Clone returns a structurally independent copy so
// callers can derive new configurations without aliasing rule, loader or
// plugin slices of the original.
package bundle
