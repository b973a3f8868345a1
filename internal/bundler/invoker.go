package bundler

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// Invoker builds bundles and runs development servers.
type Invoker interface {
	// Bundle builds cfg once and writes its output files.
	Bundle(ctx context.Context, cfg bundle.Config) (*Artifacts, error)
	// Serve starts a watching dev server for cfg. The server runs until the
	// returned handle is stopped or ctx is cancelled.
	Serve(ctx context.Context, cfg bundle.Config, opts ServeOptions) (Handle, error)
}

// Artifacts describes the files written for one entry point.
type Artifacts struct {
	Entry     string
	OutputDir string
	// Files are paths relative to OutputDir, sorted.
	Files   []string
	Scripts []string
	Styles  []string
	// HTML is the generated page filename, empty when no page was requested.
	HTML     string
	Bytes    int64
	Inputs   int
	Warnings []string
}

// ServeOptions configures the development server.
type ServeOptions struct {
	Host string
	Port int
	// Dir receives the page and is served as the document root.
	Dir string
}

// Handle controls a running development server.
type Handle interface {
	URL() string
	Stop()
}

// Noop performs no bundling.
type Noop struct{}

// Bundle logs and returns empty artifacts.
func (Noop) Bundle(_ context.Context, cfg bundle.Config) (*Artifacts, error) {
	slog.Debug("Noop bundler skipping build", logfields.Entry(cfg.Name))
	out := ""
	if cfg.Output != nil {
		out = cfg.Output.Path
	}
	return &Artifacts{Entry: cfg.Name, OutputDir: out}, nil
}

// Serve logs and returns a handle that does nothing.
func (Noop) Serve(_ context.Context, cfg bundle.Config, opts ServeOptions) (Handle, error) {
	slog.Debug("Noop bundler skipping dev server", logfields.Entry(cfg.Name), logfields.Port(opts.Port))
	return noopHandle{}, nil
}

type noopHandle struct{}

func (noopHandle) URL() string { return "" }
func (noopHandle) Stop()       {}
