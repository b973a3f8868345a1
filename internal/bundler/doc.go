// Package bundler runs the bundling engine for a derived bundle.Config.
//
// Invoker is the narrow interface the orchestrator depends on. ESBuild
// translates rules and plugin descriptors into esbuild build options,
// writes bundles, extracted stylesheets and the generated HTML page, and
// can run a watching dev server. Noop skips all work and is used for dry
// runs and tests.
package bundler
