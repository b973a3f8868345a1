// Package workspace manages the scratch directory the dev server builds into.
package workspace
